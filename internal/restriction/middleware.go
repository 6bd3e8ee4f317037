package restriction

import (
	"net/http"

	"github.com/rs/zerolog"
)

const (
	writePathPrefix      = "/test/bbs.cgi"
	activationPathPrefix = "/auth-code"
)

// ShouldCheck reports whether path/method identify a write-credential path
// that the restriction filter must gate.
func ShouldCheck(method, path string) bool {
	if len(path) >= len(writePathPrefix) && path[:len(writePathPrefix)] == writePathPrefix {
		return true
	}
	if method == http.MethodPost && len(path) >= len(activationPathPrefix) && path[:len(activationPathPrefix)] == activationPathPrefix {
		return true
	}
	return false
}

// Middleware returns an HTTP middleware that denies requests matching an
// active restriction rule with 403, logging the match.
func Middleware(engine *Engine, logger zerolog.Logger, extractIP, extractUA func(*http.Request) string, extractASN func(*http.Request) int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ShouldCheck(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			input := CheckInput{
				IP:        extractIP(r),
				ASN:       extractASN(r),
				UserAgent: extractUA(r),
			}

			rule, err := engine.Evaluate(input)
			if err != nil {
				logger.Error().Err(err).Msg("restriction evaluation failed")
				next.ServeHTTP(w, r)
				return
			}

			if rule != nil {
				logger.Warn().
					Str("path", r.URL.Path).
					Str("ip", input.IP).
					Int64("asn", input.ASN).
					Str("user_agent", input.UserAgent).
					Str("rule_name", rule.Name).
					Str("rule_type", string(rule.Type)).
					Str("rule_value", rule.Value).
					Msg("request blocked by user restriction filter")
				http.Error(w, "Access denied", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
