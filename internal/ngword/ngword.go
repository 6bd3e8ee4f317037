// Package ngword implements the per-board forbidden-word filter.
package ngword

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/eddist-go/bbs/internal/cacheaside"
)

// Word is a single NG-word rule.
type Word struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Word      string    `json:"word"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Content bundles the fields a write is checked against. Title is only
// relevant for thread creation.
type Content struct {
	Body       string
	Mail       string
	AuthorName string
	Title      string
}

// Contains reports whether any rule's Word is a byte-substring of any of
// the content's fields. Matching is case-sensitive; rule ordering does not
// affect the result.
func Contains(content Content, rules []Word) bool {
	for _, rule := range rules {
		if rule.Word == "" {
			continue
		}
		if strings.Contains(content.Body, rule.Word) ||
			strings.Contains(content.Mail, rule.Word) ||
			strings.Contains(content.AuthorName, rule.Word) ||
			(content.Title != "" && strings.Contains(content.Title, rule.Word)) {
			return true
		}
	}
	return false
}

// Repository loads the authoritative NG-word set for a board.
type Repository interface {
	NgWordsByBoardKey(ctx context.Context, boardKey string) ([]Word, error)
}

const cachePrefix = "ng_words"
const cacheTTL = 60 * time.Second

// ReadingService serves NG-word lookups through a cache-aside in front of
// repo, re-fetching at most once per minute per board.
type ReadingService struct {
	repo  Repository
	redis *redis.Client
}

// NewReadingService builds a ReadingService backed by repo and client.
func NewReadingService(repo Repository, client *redis.Client) *ReadingService {
	return &ReadingService{repo: repo, redis: client}
}

// NgWords returns the NG-word set for boardKey, as of now.
func (s *ReadingService) NgWords(ctx context.Context, boardKey string, now time.Time) ([]Word, error) {
	return cacheaside.Aside(ctx, s.redis, cachePrefix, boardKey, now, cacheTTL, func(ctx context.Context) ([]Word, error) {
		return s.repo.NgWordsByBoardKey(ctx, boardKey)
	})
}
