package ngword

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestContainsMatchesBody(t *testing.T) {
	rules := []Word{{Word: "spam"}}
	if !Contains(Content{Body: "this is spam mail"}, rules) {
		t.Fatalf("expected match on body")
	}
}

func TestContainsMatchesMailAuthorAndTitle(t *testing.T) {
	rules := []Word{{Word: "bad"}}

	if !Contains(Content{Mail: "bad@example.com"}, rules) {
		t.Fatalf("expected match on mail")
	}
	if !Contains(Content{AuthorName: "badactor"}, rules) {
		t.Fatalf("expected match on author name")
	}
	if !Contains(Content{Title: "badtitle"}, rules) {
		t.Fatalf("expected match on title")
	}
}

func TestContainsNoMatch(t *testing.T) {
	rules := []Word{{Word: "spam"}}
	if Contains(Content{Body: "hello world"}, rules) {
		t.Fatalf("expected no match")
	}
}

func TestContainsIsCaseSensitive(t *testing.T) {
	rules := []Word{{Word: "Spam"}}
	if Contains(Content{Body: "this is spam"}, rules) {
		t.Fatalf("expected case-sensitive non-match")
	}
}

type fakeRepo struct {
	calls int
	words []Word
}

func (f *fakeRepo) NgWordsByBoardKey(ctx context.Context, boardKey string) ([]Word, error) {
	f.calls++
	return f.words, nil
}

func TestReadingServiceCachesAcrossCalls(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := &fakeRepo{words: []Word{{Word: "spam"}}}
	svc := NewReadingService(repo, client)
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	if _, err := svc.NgWords(ctx, "news4vip", now); err != nil {
		t.Fatalf("NgWords() error = %v", err)
	}
	if _, err := svc.NgWords(ctx, "news4vip", now.Add(time.Second)); err != nil {
		t.Fatalf("NgWords() error = %v", err)
	}

	if repo.calls != 1 {
		t.Fatalf("repo.calls = %d, want 1 (served from cache)", repo.calls)
	}
}
