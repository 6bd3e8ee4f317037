// Package pipeline implements the write-path state machine shared by
// thread creation and response posting: cookie resolution, restriction and
// content checks, NG-word and rate gating, plugin hooks, the persistence
// transaction, and publication — in that order, as a sequence of
// independently testable steps on Pipeline.
package pipeline

import (
	"github.com/eddist-go/bbs/internal/bbsdomain"
)

// Request is the parsed bbs.cgi write submission plus its request-derived
// client context.
type Request struct {
	BoardKey     string
	ThreadNumber *int64 // nil for thread creation
	Submit       string
	From         string
	Mail         string
	Message      string
	Subject      string // thread title; only meaningful when ThreadNumber is nil

	IP           string
	ASN          int64
	UserAgent    string
	TinkerCookie string
	CookieToken  string // the bbs.cgi write cookie value, empty if absent
}

// IsThreadCreation reports whether req represents a new-thread submission.
func (r Request) IsThreadCreation() bool {
	return r.ThreadNumber == nil
}

// ActivationInfo is returned alongside a RequiresActivation error so the
// caller can render the legacy activation page.
type ActivationInfo struct {
	Token    string
	AuthCode string
}

// Result is the successful outcome of a write: the persisted identifiers,
// the cookies the response must (re)set, and the created thread or
// response.
type Result struct {
	ThreadNumber   int64
	ResOrder       int
	SetToken       string
	SetTinkerJWT   string
	CreatingThread *bbsdomain.CreatingThread
	CreatingRes    *bbsdomain.CreatingRes
}

// draft is the mutable {name, mail, body, title} the content-validation,
// NG-word, and plugin-modify steps operate on in sequence.
type draft struct {
	Name  string
	Mail  string
	Body  string
	Title string
}

const sageMail = "sage"
