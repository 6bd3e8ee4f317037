package tinker

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidCookie = errors.New("tinker: invalid cookie")
	ErrExpiredCookie = errors.New("tinker: expired cookie")
)

const cookieIssuer = "eddist-go-bbscgi"

// claims is the JWT payload carried in the opaque `tinker` cookie. The
// write pipeline signs a Tinker built fresh for each write (New, then
// ActionOnWrite); it does not read the incoming cookie back, so counts and
// level do not carry over from one write to the next.
type claims struct {
	jwt.RegisteredClaims
	WroteCount          uint32 `json:"wc"`
	CreatedThreadCount  uint32 `json:"ctc"`
	Level               uint32 `json:"lvl"`
	LastLevelUpAt       int64  `json:"llu"`
	LastWroteAt         int64  `json:"lwa"`
	LastCreatedThreadAt *int64 `json:"lcta,omitempty"`
}

// CookieSigner issues and verifies the symmetric-HMAC `tinker` cookie.
type CookieSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewCookieSigner builds a CookieSigner keyed by secret, with ttl bounding
// how long an issued cookie remains acceptable.
func NewCookieSigner(secret []byte, ttl time.Duration) *CookieSigner {
	return &CookieSigner{secret: secret, ttl: ttl}
}

// Sign encodes t as a compact JWS suitable for the `tinker` cookie value.
func (s *CookieSigner) Sign(t Tinker, now time.Time) (string, error) {
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   t.AuthedToken,
			Issuer:    cookieIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		WroteCount:          t.WroteCount,
		CreatedThreadCount:  t.CreatedThreadCount,
		Level:               t.Level,
		LastLevelUpAt:       t.LastLevelUpAt,
		LastWroteAt:         t.LastWroteAt,
		LastCreatedThreadAt: t.LastCreatedThreadAt,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(s.secret)
}

// Verify parses and validates a cookie value, returning the Tinker it
// encodes.
func (s *CookieSigner) Verify(cookie string) (Tinker, error) {
	var c claims
	token, err := jwt.ParseWithClaims(cookie, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidCookie
		}
		return s.secret, nil
	}, jwt.WithIssuer(cookieIssuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Tinker{}, ErrExpiredCookie
		}
		return Tinker{}, ErrInvalidCookie
	}
	if !token.Valid || c.Subject == "" {
		return Tinker{}, ErrInvalidCookie
	}

	return Tinker{
		AuthedToken:         c.Subject,
		WroteCount:          c.WroteCount,
		CreatedThreadCount:  c.CreatedThreadCount,
		Level:               c.Level,
		LastLevelUpAt:       c.LastLevelUpAt,
		LastWroteAt:         c.LastWroteAt,
		LastCreatedThreadAt: c.LastCreatedThreadAt,
	}, nil
}
