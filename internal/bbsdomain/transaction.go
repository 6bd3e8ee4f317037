package bbsdomain

import (
	"time"

	"github.com/google/uuid"

	"github.com/eddist-go/bbs/internal/metadent"
)

// CreatingRes is the persistence-transaction input for a response write to
// an existing thread.
type CreatingRes struct {
	ID            uuid.UUID
	CreatedAt     time.Time
	Body          string
	Name          string
	Mail          string
	AuthorID      string
	AuthedTokenID uuid.UUID
	IPAddr        string
	ThreadID      uuid.UUID
	BoardID       uuid.UUID
	ClientInfo    ClientInfo
	ResOrder      int
	IsSage        bool
}

// CreatingThread is the persistence-transaction input for a thread-creation
// write, which inserts both the Thread row and its first Response.
type CreatingThread struct {
	ThreadID      uuid.UUID
	ResponseID    uuid.UUID
	Title         string
	ThreadNumber  int64
	Body          string
	Name          string
	Mail          string
	CreatedAt     time.Time
	AuthorID      string
	AuthedTokenID uuid.UUID
	IPAddr        string
	BoardID       uuid.UUID
	Metadent      metadent.Type
	ClientInfo    ClientInfo
}

// PubSubItemKind tags the variant of a PubSubItem.
type PubSubItemKind int

const (
	KindCreatingRes PubSubItemKind = iota
	KindCreatingThread
	KindCreatingResFailed
	KindPersistenceShutdown
)

// PubSubItem is the broadcast envelope published after a successful write
// (or, for CreatingResFailed, a response whose persistence failed), fanned out to the streaming manager
// and any cross-process subscribers.
type PubSubItem struct {
	Kind           PubSubItemKind
	CreatingRes    *CreatingRes
	CreatingThread *CreatingThread
}
