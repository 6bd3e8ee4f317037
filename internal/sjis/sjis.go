// Package sjis transcodes between Go's native UTF-8 strings and the
// Shift_JIS byte layout the legacy protocol requires at the wire boundary.
// In-memory strings stay Unicode everywhere else; only the HTTP handlers
// (form decoding and response rendering) and the write pipeline's
// Shift_JIS representability check call into this package.
package sjis

import (
	"bytes"
	"errors"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// ErrNotRoundTrippable is returned when a string cannot be encoded to
// Shift_JIS and decoded back to the identical value, which the legacy
// protocol's byte-exact output requires.
var ErrNotRoundTrippable = errors.New("sjis: string is not exactly representable in Shift_JIS")

// Encode transcodes s to its Shift_JIS byte representation.
func Encode(s string) ([]byte, error) {
	encoded, _, err := transform.Bytes(japanese.ShiftJIS.NewEncoder(), []byte(s))
	if err != nil {
		return nil, err
	}
	return encoded, nil
}

// Decode transcodes Shift_JIS bytes back to a UTF-8 string.
func Decode(b []byte) (string, error) {
	decoded, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), b)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// EncodeStrict encodes s to Shift_JIS and rejects it if decoding the result
// does not reproduce s exactly, per the legacy protocol's byte-exact output
// requirement.
func EncodeStrict(s string) ([]byte, error) {
	encoded, err := Encode(s)
	if err != nil {
		return nil, ErrNotRoundTrippable
	}

	decoded, err := Decode(encoded)
	if err != nil || decoded != s {
		return nil, ErrNotRoundTrippable
	}

	return encoded, nil
}

// Join concatenates already-encoded Shift_JIS byte records, matching the
// wire layout's per-response concatenation (no separator beyond what each
// record already carries).
func Join(records ...[]byte) []byte {
	var buf bytes.Buffer
	for _, r := range records {
		buf.Write(r)
	}
	return buf.Bytes()
}
