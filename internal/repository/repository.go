// Package repository defines the storage-port interfaces the pipeline and
// services depend on, decoupling them from any particular backing store.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/eddist-go/bbs/internal/authedtoken"
	"github.com/eddist-go/bbs/internal/bbsdomain"
	"github.com/eddist-go/bbs/internal/board"
	"github.com/eddist-go/bbs/internal/ngword"
	"github.com/eddist-go/bbs/internal/restriction"
)

// BbsRepository is the storage port for boards, threads, responses, and
// their writes.
type BbsRepository interface {
	BoardByKey(ctx context.Context, boardKey string) (board.Board, board.Info, error)
	ThreadByNumber(ctx context.Context, boardID uuid.UUID, threadNumber int64) (bbsdomain.Thread, error)
	// ThreadsByBoard lists a board's non-archived threads ordered by
	// last-modified descending, the shape the legacy subject.txt endpoint
	// renders.
	ThreadsByBoard(ctx context.Context, boardID uuid.UUID) ([]bbsdomain.Thread, error)
	// ResponsesByThread lists a thread's responses in res_order, the shape
	// the legacy dat endpoint renders.
	ResponsesByThread(ctx context.Context, threadID uuid.UUID) ([]bbsdomain.Response, error)
	NgWordsByBoardKey(ctx context.Context, boardKey string) ([]ngword.Word, error)
	RestrictionRules(ctx context.Context) ([]restriction.Rule, error)

	// CreateThread persists a new Thread and its opening Response inside a
	// single transaction.
	CreateThread(ctx context.Context, in bbsdomain.CreatingThread) error
	// CreateResponse persists a new Response to an existing thread and
	// advances the thread's counters inside a single transaction.
	CreateResponse(ctx context.Context, in bbsdomain.CreatingRes) error
}

// AuthedTokenRepository is the storage port for the token lifecycle.
type AuthedTokenRepository interface {
	Insert(ctx context.Context, t authedtoken.AuthedToken) error
	ByID(ctx context.Context, id uuid.UUID) (authedtoken.AuthedToken, error)
	ByToken(ctx context.Context, token string) (authedtoken.AuthedToken, error)
	Update(ctx context.Context, t authedtoken.AuthedToken) error
	RevokeByID(ctx context.Context, id uuid.UUID, now time.Time) error
	RevokeByOriginIP(ctx context.Context, originIP string, now time.Time) error
}

// UserRepository is the storage port for user/IdP binding.
type UserRepository interface {
	UserByID(ctx context.Context, id uuid.UUID) (User, error)
	ByIdpSub(ctx context.Context, idpName, idpSub string) (User, error)
	BindAuthedToken(ctx context.Context, userID, authedTokenID uuid.UUID) error
}

// User is a registered account that zero or more AuthedTokens may be bound
// to.
type User struct {
	ID      uuid.UUID
	Name    string
	Enabled bool
}
