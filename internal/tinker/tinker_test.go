package tinker

import (
	"errors"
	"testing"
	"time"
)

func TestNewStartsAtLevelOne(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tk := New("token-1", now)

	if tk.Level != 1 {
		t.Fatalf("Level = %d, want 1", tk.Level)
	}
	if tk.LastLevelUpAt != now.Unix() {
		t.Fatalf("LastLevelUpAt = %d, want %d", tk.LastLevelUpAt, now.Unix())
	}
}

func TestActionOnWriteLevelsUpAfterCooldown(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	tk := New("token-1", start)

	later := start.Add(24 * time.Hour)
	next := tk.ActionOnWrite(later)

	if next.WroteCount != 1 {
		t.Fatalf("WroteCount = %d, want 1", next.WroteCount)
	}
	if next.Level != 2 {
		t.Fatalf("Level = %d, want 2 after cooldown elapsed", next.Level)
	}
	if next.LastLevelUpAt != later.Unix() {
		t.Fatalf("LastLevelUpAt not updated on level-up write")
	}
}

func TestActionOnWriteWithinCooldownDoesNotLevelUp(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	tk := New("token-1", start)

	soon := start.Add(1 * time.Hour)
	next := tk.ActionOnWrite(soon)

	if next.Level != 1 {
		t.Fatalf("Level = %d, want unchanged 1 within cooldown", next.Level)
	}
	if next.LastWroteAt != soon.Unix() {
		t.Fatalf("LastWroteAt = %d, want %d", next.LastWroteAt, soon.Unix())
	}
}

func TestActionOnCreateThreadStampsThreadTime(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	tk := New("token-1", start)

	later := start.Add(24 * time.Hour)
	next := tk.ActionOnCreateThread(later)

	if next.CreatedThreadCount != 1 {
		t.Fatalf("CreatedThreadCount = %d, want 1", next.CreatedThreadCount)
	}
	if next.LastCreatedThreadAt == nil || *next.LastCreatedThreadAt != later.Unix() {
		t.Fatalf("LastCreatedThreadAt not stamped by thread creation")
	}
}

func TestActionOnWriteDoesNotStampThreadTime(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	tk := New("token-1", start)

	next := tk.ActionOnWrite(start.Add(time.Minute))
	if next.LastCreatedThreadAt != nil {
		t.Fatalf("LastCreatedThreadAt = %v, want nil on plain write", next.LastCreatedThreadAt)
	}
}

func TestCookieSignAndVerifyRoundTrip(t *testing.T) {
	signer := NewCookieSigner([]byte("test-secret-key-material"), time.Hour)
	now := time.Unix(1_700_000_000, 0)
	tk := New("token-1", now).ActionOnWrite(now.Add(time.Minute))

	signed, err := signer.Sign(tk, now)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	verified, err := signer.Verify(signed)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	if verified.AuthedToken != tk.AuthedToken || verified.WroteCount != tk.WroteCount {
		t.Fatalf("verified = %+v, want %+v", verified, tk)
	}
}

func TestCookieVerifyRejectsTampered(t *testing.T) {
	signer := NewCookieSigner([]byte("test-secret-key-material"), time.Minute)
	now := time.Unix(1_700_000_000, 0)
	tk := New("token-1", now)

	signed, err := signer.Sign(tk, now)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	if _, err := signer.Verify(signed + "tampered"); err == nil {
		t.Fatalf("expected error for tampered cookie")
	}
}

func TestCookieVerifyRejectsWrongSecret(t *testing.T) {
	signer := NewCookieSigner([]byte("secret-a-material-here"), time.Hour)
	now := time.Unix(1_700_000_000, 0)
	tk := New("token-1", now)
	signed, err := signer.Sign(tk, now)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	other := NewCookieSigner([]byte("secret-b-material-here"), time.Hour)
	if _, err := other.Verify(signed); !errors.Is(err, ErrInvalidCookie) {
		t.Fatalf("Verify() error = %v, want ErrInvalidCookie", err)
	}
}
