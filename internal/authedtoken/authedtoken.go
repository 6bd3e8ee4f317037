// Package authedtoken manages the AuthedToken write-credential lifecycle:
// issue, out-of-band activation, revocation, and lookup.
package authedtoken

import (
	"crypto/md5"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/eddist-go/bbs/internal/ipaddr"
)

const activationWindow = 5 * time.Minute

var (
	ErrActivationExpired = errors.New("authedtoken: activation window has passed")
	ErrBadCode           = errors.New("authedtoken: auth code mismatch")
	ErrNotFound          = errors.New("authedtoken: not found")
	ErrRevoked           = errors.New("authedtoken: revoked")
)

// AuthedToken is the primary write credential, opaque to the client beyond
// its cookie value.
type AuthedToken struct {
	ID               uuid.UUID
	Token            string
	OriginIP         ipaddr.IP
	ReducedIP        string
	WritingUA        string
	AuthedUA         string
	AuthCode         string
	CreatedAt        time.Time
	AuthedAt         *time.Time
	Validity         bool
	Revoked          bool
	LastWroteAt      *time.Time
	RegisteredUserID *uuid.UUID
}

// New issues a fresh, unactivated AuthedToken for originIP/ua.
func New(originIP ipaddr.IP, ua string, now time.Time) (AuthedToken, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return AuthedToken{}, fmt.Errorf("authedtoken: generate id: %w", err)
	}

	code, err := randomAuthCode()
	if err != nil {
		return AuthedToken{}, fmt.Errorf("authedtoken: generate auth code: %w", err)
	}

	return AuthedToken{
		ID:        id,
		Token:     deriveToken(id, originIP, ua),
		OriginIP:  originIP,
		ReducedIP: originIP.Reduce(),
		WritingUA: ua,
		AuthCode:  code,
		CreatedAt: now,
		Validity:  false,
	}, nil
}

// deriveToken computes the opaque write token as MD5(id ‖ origin_ip ‖ ua).
func deriveToken(id uuid.UUID, originIP ipaddr.IP, ua string) string {
	h := md5.New()
	h.Write(id[:])
	h.Write([]byte(originIP.String()))
	h.Write([]byte(ua))
	return fmt.Sprintf("%x", h.Sum(nil))
}

func randomAuthCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// IsActivationExpired reports whether the 300-second activation window has
// elapsed as of now.
func (t AuthedToken) IsActivationExpired(now time.Time) bool {
	return t.CreatedAt.Add(activationWindow).Before(now)
}

// Activate validates code against t's auth_code and, on success, returns the
// activated copy. It never mutates t in place.
func (t AuthedToken) Activate(code, ua string, now time.Time) (AuthedToken, error) {
	if t.IsActivationExpired(now) {
		return AuthedToken{}, ErrActivationExpired
	}
	if code != t.AuthCode {
		return AuthedToken{}, ErrBadCode
	}

	next := t
	next.Validity = true
	next.AuthedAt = &now
	next.AuthedUA = ua
	return next, nil
}

// CanWrite reports whether t may be used to author a write: activated and
// not revoked.
func (t AuthedToken) CanWrite() bool {
	return t.Validity && !t.Revoked
}

// RecordWrite stamps LastWroteAt, used by the pipeline's persistence step.
func (t AuthedToken) RecordWrite(now time.Time) AuthedToken {
	next := t
	next.LastWroteAt = &now
	return next
}
