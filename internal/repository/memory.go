package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eddist-go/bbs/internal/authedtoken"
	"github.com/eddist-go/bbs/internal/bbsdomain"
	"github.com/eddist-go/bbs/internal/board"
	"github.com/eddist-go/bbs/internal/ngword"
	"github.com/eddist-go/bbs/internal/restriction"
)

// ErrNotFound is returned by in-memory lookups that miss.
var ErrNotFound = errors.New("repository: not found")

// Memory is an in-process BbsRepository/AuthedTokenRepository/UserRepository
// implementation backing unit tests, modeled on the teacher's preference for
// swappable storage ports rather than mocking frameworks.
type Memory struct {
	mu        sync.RWMutex
	boards    map[string]board.Board
	boardInfo map[uuid.UUID]board.Info
	threads   map[uuid.UUID]bbsdomain.Thread
	responses map[uuid.UUID][]bbsdomain.Response
	ngWords   map[string][]ngword.Word
	rules     []restriction.Rule
	tokens    map[uuid.UUID]authedtoken.AuthedToken
	tokensBy  map[string]uuid.UUID
	users     map[uuid.UUID]User
	usersIdp  map[string]uuid.UUID
}

// NewMemory builds an empty Memory repository.
func NewMemory() *Memory {
	return &Memory{
		boards:    make(map[string]board.Board),
		boardInfo: make(map[uuid.UUID]board.Info),
		threads:   make(map[uuid.UUID]bbsdomain.Thread),
		responses: make(map[uuid.UUID][]bbsdomain.Response),
		ngWords:   make(map[string][]ngword.Word),
		tokens:    make(map[uuid.UUID]authedtoken.AuthedToken),
		tokensBy:  make(map[string]uuid.UUID),
		users:     make(map[uuid.UUID]User),
		usersIdp:  make(map[string]uuid.UUID),
	}
}

// SeedBoard registers a board and its info for lookups, used by tests.
func (m *Memory) SeedBoard(b board.Board, info board.Info) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boards[b.BoardKey] = b
	m.boardInfo[b.ID] = info
}

// SeedNgWords registers the NG-word set for a board key, used by tests.
func (m *Memory) SeedNgWords(boardKey string, words []ngword.Word) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ngWords[boardKey] = words
}

// SeedRestrictionRules replaces the restriction rule set, used by tests.
func (m *Memory) SeedRestrictionRules(rules []restriction.Rule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = rules
}

func (m *Memory) BoardByKey(ctx context.Context, boardKey string) (board.Board, board.Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.boards[boardKey]
	if !ok {
		return board.Board{}, board.Info{}, ErrNotFound
	}
	return b, m.boardInfo[b.ID], nil
}

func (m *Memory) ThreadByNumber(ctx context.Context, boardID uuid.UUID, threadNumber int64) (bbsdomain.Thread, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, th := range m.threads {
		if th.BoardID == boardID && th.ThreadNumber == threadNumber {
			return th, nil
		}
	}
	return bbsdomain.Thread{}, ErrNotFound
}

func (m *Memory) ThreadsByBoard(ctx context.Context, boardID uuid.UUID) ([]bbsdomain.Thread, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []bbsdomain.Thread
	for _, th := range m.threads {
		if th.BoardID == boardID && !th.Archived {
			out = append(out, th)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastModifiedAt.After(out[j].LastModifiedAt) })
	return out, nil
}

func (m *Memory) ResponsesByThread(ctx context.Context, threadID uuid.UUID) ([]bbsdomain.Response, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]bbsdomain.Response, len(m.responses[threadID]))
	copy(out, m.responses[threadID])
	return out, nil
}

func (m *Memory) NgWordsByBoardKey(ctx context.Context, boardKey string) ([]ngword.Word, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ngWords[boardKey], nil
}

func (m *Memory) RestrictionRules(ctx context.Context) ([]restriction.Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rules, nil
}

func (m *Memory) CreateThread(ctx context.Context, in bbsdomain.CreatingThread) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threads[in.ThreadID] = bbsdomain.Thread{
		ID:             in.ThreadID,
		BoardID:        in.BoardID,
		ThreadNumber:   in.ThreadNumber,
		LastModifiedAt: in.CreatedAt,
		Title:          in.Title,
		AuthedTokenID:  in.AuthedTokenID,
		Metadent:       in.Metadent,
		ResponseCount:  1,
		Active:         true,
	}
	m.responses[in.ThreadID] = []bbsdomain.Response{{
		ID:            in.ResponseID,
		ThreadID:      in.ThreadID,
		BoardID:       in.BoardID,
		Body:          in.Body,
		Name:          in.Name,
		Mail:          in.Mail,
		AuthorID:      in.AuthorID,
		IPAddr:        in.IPAddr,
		AuthedTokenID: in.AuthedTokenID,
		ClientInfo:    in.ClientInfo,
		CreatedAt:     in.CreatedAt,
		ResOrder:      1,
	}}
	return nil
}

func (m *Memory) CreateResponse(ctx context.Context, in bbsdomain.CreatingRes) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	th, ok := m.threads[in.ThreadID]
	if !ok {
		return ErrNotFound
	}
	th.ResponseCount++
	if !in.IsSage {
		th.LastModifiedAt = in.CreatedAt
	} else {
		th.SageLastModifiedAt = in.CreatedAt
	}
	m.threads[in.ThreadID] = th
	m.responses[in.ThreadID] = append(m.responses[in.ThreadID], bbsdomain.Response{
		ID:            in.ID,
		ThreadID:      in.ThreadID,
		BoardID:       in.BoardID,
		Body:          in.Body,
		Name:          in.Name,
		Mail:          in.Mail,
		AuthorID:      in.AuthorID,
		IPAddr:        in.IPAddr,
		AuthedTokenID: in.AuthedTokenID,
		ClientInfo:    in.ClientInfo,
		CreatedAt:     in.CreatedAt,
		ResOrder:      in.ResOrder,
	})
	return nil
}

func (m *Memory) Insert(ctx context.Context, t authedtoken.AuthedToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[t.ID] = t
	m.tokensBy[t.Token] = t.ID
	return nil
}

func (m *Memory) ByID(ctx context.Context, id uuid.UUID) (authedtoken.AuthedToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tokens[id]
	if !ok {
		return authedtoken.AuthedToken{}, ErrNotFound
	}
	return t, nil
}

func (m *Memory) ByToken(ctx context.Context, token string) (authedtoken.AuthedToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.tokensBy[token]
	if !ok {
		return authedtoken.AuthedToken{}, ErrNotFound
	}
	return m.tokens[id], nil
}

func (m *Memory) Update(ctx context.Context, t authedtoken.AuthedToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[t.ID]; !ok {
		return ErrNotFound
	}
	m.tokens[t.ID] = t
	return nil
}

func (m *Memory) RevokeByID(ctx context.Context, id uuid.UUID, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok {
		return ErrNotFound
	}
	t.Revoked = true
	m.tokens[id] = t
	return nil
}

func (m *Memory) RevokeByOriginIP(ctx context.Context, originIP string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.tokens {
		if t.OriginIP.String() == originIP {
			t.Revoked = true
			m.tokens[id] = t
		}
	}
	return nil
}

func (m *Memory) UserByID(ctx context.Context, id uuid.UUID) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *Memory) ByIdpSub(ctx context.Context, idpName, idpSub string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.usersIdp[idpName+":"+idpSub]
	if !ok {
		return User{}, ErrNotFound
	}
	return m.users[id], nil
}

func (m *Memory) BindAuthedToken(ctx context.Context, userID, authedTokenID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[authedTokenID]
	if !ok {
		return ErrNotFound
	}
	id := userID
	t.RegisteredUserID = &id
	m.tokens[authedTokenID] = t
	return nil
}

// SeedUser registers a user, used by tests.
func (m *Memory) SeedUser(u User, idpName, idpSub string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	if idpName != "" {
		m.usersIdp[idpName+":"+idpSub] = u.ID
	}
}
