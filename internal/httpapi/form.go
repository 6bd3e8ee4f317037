package httpapi

import (
	"net/url"
	"strings"

	"github.com/eddist-go/bbs/internal/sjis"
)

// ParseSJISForm decodes a bbs.cgi submission body: application/x-www-form
// urlencoded bytes whose percent-escaped and raw payload is Shift_JIS, not
// UTF-8. url.QueryUnescape is byte-safe regardless of the underlying text
// encoding, so escaping is undone first and Shift_JIS decoding happens
// per-field afterward.
func ParseSJISForm(body []byte) (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range strings.Split(string(body), "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")

		key = strings.ReplaceAll(key, "+", " ")
		value = strings.ReplaceAll(value, "+", " ")

		rawKey, err := url.QueryUnescape(key)
		if err != nil {
			return nil, err
		}
		rawValue, err := url.QueryUnescape(value)
		if err != nil {
			return nil, err
		}

		decodedKey, err := sjis.Decode([]byte(rawKey))
		if err != nil {
			decodedKey = rawKey
		}
		decodedValue, err := sjis.Decode([]byte(rawValue))
		if err != nil {
			decodedValue = rawValue
		}

		out[decodedKey] = decodedValue
	}
	return out, nil
}
