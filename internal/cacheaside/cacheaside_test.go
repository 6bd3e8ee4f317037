package cacheaside

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type board struct {
	Key  string
	Name string
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestAsideFetchesOnMiss(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	calls := 0
	fetch := func(ctx context.Context) (board, error) {
		calls++
		return board{Key: "news4vip", Name: "ニュース速報(VIP)"}, nil
	}

	got, err := Aside(ctx, client, "board", "news4vip", now, time.Minute, fetch)
	if err != nil {
		t.Fatalf("Aside() error = %v", err)
	}
	if got.Key != "news4vip" || calls != 1 {
		t.Fatalf("got = %+v, calls = %d", got, calls)
	}
}

func TestAsideServesFromCacheWithoutRefetch(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	calls := 0
	fetch := func(ctx context.Context) (board, error) {
		calls++
		return board{Key: "news4vip", Name: "first"}, nil
	}

	if _, err := Aside(ctx, client, "board", "news4vip", now, time.Minute, fetch); err != nil {
		t.Fatalf("first Aside() error = %v", err)
	}
	got, err := Aside(ctx, client, "board", "news4vip", now.Add(10*time.Second), time.Minute, fetch)
	if err != nil {
		t.Fatalf("second Aside() error = %v", err)
	}

	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (served from cache)", calls)
	}
	if got.Name != "first" {
		t.Fatalf("got.Name = %q, want cached value", got.Name)
	}
}

func TestAsideRefetchesAfterExpiry(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	calls := 0
	fetch := func(ctx context.Context) (board, error) {
		calls++
		return board{Key: "news4vip", Name: "fetch"}, nil
	}

	if _, err := Aside(ctx, client, "board", "news4vip", now, time.Second, fetch); err != nil {
		t.Fatalf("first Aside() error = %v", err)
	}
	if _, err := Aside(ctx, client, "board", "news4vip", now.Add(time.Hour), time.Second, fetch); err != nil {
		t.Fatalf("second Aside() error = %v", err)
	}

	if calls != 2 {
		t.Fatalf("calls = %d, want 2 (refetched after expiry)", calls)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	calls := 0
	fetch := func(ctx context.Context) (board, error) {
		calls++
		return board{Key: "news4vip", Name: "v"}, nil
	}

	if _, err := Aside(ctx, client, "board", "news4vip", now, time.Hour, fetch); err != nil {
		t.Fatalf("Aside() error = %v", err)
	}
	if err := Invalidate(ctx, client, "board", "news4vip"); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if _, err := Aside(ctx, client, "board", "news4vip", now, time.Hour, fetch); err != nil {
		t.Fatalf("Aside() error = %v", err)
	}

	if calls != 2 {
		t.Fatalf("calls = %d, want 2 after invalidate", calls)
	}
}
