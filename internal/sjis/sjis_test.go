package sjis

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	const s = "こんにちは、世界！"

	encoded, err := EncodeStrict(s)
	if err != nil {
		t.Fatalf("EncodeStrict() error = %v", err)
	}

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if decoded != s {
		t.Fatalf("round trip mismatch: got %q, want %q", decoded, s)
	}
}

func TestEncodeStrictRejectsUnrepresentable(t *testing.T) {
	// U+1F600 GRINNING FACE has no Shift_JIS mapping.
	if _, err := EncodeStrict("😀"); err == nil {
		t.Fatalf("expected error for unrepresentable rune")
	}
}

func TestJoin(t *testing.T) {
	a, _ := Encode("a")
	b, _ := Encode("b")
	got := Join(a, b)
	if string(got) != "ab" {
		t.Fatalf("Join() = %q, want %q", got, "ab")
	}
}
