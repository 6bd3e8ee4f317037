package authedtoken

import (
	"testing"
	"time"

	"github.com/eddist-go/bbs/internal/ipaddr"
)

func TestNewIssuesUnactivatedToken(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tok, err := New(ipaddr.IP("203.0.113.5"), "test-ua", now)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if tok.Validity {
		t.Fatalf("Validity = true, want false for a freshly issued token")
	}
	if len(tok.AuthCode) != 6 {
		t.Fatalf("AuthCode = %q, want 6 digits", tok.AuthCode)
	}
	if len(tok.Token) != 32 {
		t.Fatalf("Token = %q, want 32 hex chars (MD5)", tok.Token)
	}
	if tok.ReducedIP != "203.0.113.5" {
		t.Fatalf("ReducedIP = %q, want passthrough for v4", tok.ReducedIP)
	}
}

func TestActivateSucceedsWithinWindow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tok, err := New(ipaddr.IP("203.0.113.5"), "test-ua", now)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	activated, err := tok.Activate(tok.AuthCode, "test-ua", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if !activated.Validity {
		t.Fatalf("Validity = false after successful activation")
	}
	if activated.AuthedAt == nil {
		t.Fatalf("AuthedAt not set after activation")
	}
	if !activated.CanWrite() {
		t.Fatalf("CanWrite() = false for activated, non-revoked token")
	}
}

func TestActivateFailsOnBadCode(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tok, _ := New(ipaddr.IP("203.0.113.5"), "test-ua", now)

	if _, err := tok.Activate("000000", "test-ua", now); err != ErrBadCode {
		if tok.AuthCode == "000000" {
			t.Skip("random code collided with sentinel, retry")
		}
		t.Fatalf("Activate() error = %v, want ErrBadCode", err)
	}
}

func TestActivateFailsAfterWindow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tok, _ := New(ipaddr.IP("203.0.113.5"), "test-ua", now)

	if _, err := tok.Activate(tok.AuthCode, "test-ua", now.Add(6*time.Minute)); err != ErrActivationExpired {
		t.Fatalf("Activate() error = %v, want ErrActivationExpired", err)
	}
}

func TestCanWriteFalseBeforeActivation(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tok, _ := New(ipaddr.IP("203.0.113.5"), "test-ua", now)

	if tok.CanWrite() {
		t.Fatalf("CanWrite() = true for an unactivated token")
	}
}

func TestCanWriteFalseWhenRevoked(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tok, _ := New(ipaddr.IP("203.0.113.5"), "test-ua", now)
	activated, err := tok.Activate(tok.AuthCode, "test-ua", now)
	if err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	activated.Revoked = true

	if activated.CanWrite() {
		t.Fatalf("CanWrite() = true for a revoked token")
	}
}
