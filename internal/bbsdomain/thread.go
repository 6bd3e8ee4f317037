// Package bbsdomain holds the Thread/Response aggregates and the
// persistence-transaction input/output shapes shared across the pipeline,
// repository, and pub/sub layers.
package bbsdomain

import (
	"time"

	"github.com/google/uuid"

	"github.com/eddist-go/bbs/internal/metadent"
)

// Thread is a single discussion thread within a Board.
type Thread struct {
	ID                 uuid.UUID
	BoardID            uuid.UUID
	ThreadNumber       int64
	LastModifiedAt     time.Time
	SageLastModifiedAt time.Time
	Title              string
	AuthedTokenID      uuid.UUID
	Metadent           metadent.Type
	ResponseCount      uint32
	NoPool             bool
	Active             bool
	Archived           bool
}

// Response is a single post within a Thread.
type Response struct {
	ID            uuid.UUID
	ThreadID      uuid.UUID
	BoardID       uuid.UUID
	Body          string
	Name          string
	Mail          string
	AuthorID      string
	IPAddr        string
	AuthedTokenID uuid.UUID
	ClientInfo    ClientInfo
	CreatedAt     time.Time
	ResOrder      int
	IsAbone       bool
}

// IsSage reports whether the response's mail field is the sage sentinel,
// which must not advance the thread's last-modified time.
func (r Response) IsSage() bool {
	return r.Mail == "sage"
}

// ClientInfo is the request-derived context attached to a write, including
// the opaque tinker cookie value if one was presented.
type ClientInfo struct {
	UserAgent    string
	ASNNum       uint32
	IPAddr       string
	TinkerCookie string
}
