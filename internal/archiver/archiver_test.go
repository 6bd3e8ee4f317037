package archiver

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func thread(active, archived bool, modifiedAt time.Time) ThreadSummary {
	return ThreadSummary{ID: uuid.New(), Active: active, Archived: archived, LastModifiedAt: modifiedAt}
}

func TestCompactArchivesInactiveThreadsUnconditionally(t *testing.T) {
	now := time.Now()
	inactive := thread(false, false, now)
	active := thread(true, false, now)

	got := Compact([]ThreadSummary{inactive, active}, BoardPolicy{})

	if len(got) != 1 || got[0] != inactive.ID {
		t.Fatalf("Compact() = %v, want only the inactive thread", got)
	}
}

func TestCompactSkipsAlreadyArchivedThreads(t *testing.T) {
	now := time.Now()
	archived := thread(false, true, now)

	got := Compact([]ThreadSummary{archived}, BoardPolicy{})

	if len(got) != 0 {
		t.Fatalf("Compact() = %v, want no-op on already archived thread", got)
	}
}

func TestCompactRetainsNMostRecentlyModified(t *testing.T) {
	now := time.Now()
	oldest := thread(true, false, now.Add(-3*time.Hour))
	older := thread(true, false, now.Add(-2*time.Hour))
	newer := thread(true, false, now.Add(-1*time.Hour))
	newest := thread(true, false, now)

	policy := BoardPolicy{HasTriggerThreadCount: true, TriggerThreadCount: 2}
	got := Compact([]ThreadSummary{oldest, older, newer, newest}, policy)

	if len(got) != 2 {
		t.Fatalf("Compact() len = %d, want 2", len(got))
	}
	archivedSet := map[uuid.UUID]bool{got[0]: true, got[1]: true}
	if !archivedSet[oldest.ID] || !archivedSet[older.ID] {
		t.Fatalf("Compact() archived %v, want the two oldest threads", got)
	}
	if archivedSet[newer.ID] || archivedSet[newest.ID] {
		t.Fatalf("Compact() archived a thread within the retention window")
	}
}

func TestCompactBelowTriggerCountIsNoOp(t *testing.T) {
	now := time.Now()
	a := thread(true, false, now)
	b := thread(true, false, now.Add(-time.Hour))

	policy := BoardPolicy{HasTriggerThreadCount: true, TriggerThreadCount: 5}
	got := Compact([]ThreadSummary{a, b}, policy)

	if len(got) != 0 {
		t.Fatalf("Compact() = %v, want no-op below trigger count", got)
	}
}

func TestCompactIsIdempotent(t *testing.T) {
	now := time.Now()
	threads := []ThreadSummary{
		thread(true, false, now),
		thread(true, false, now.Add(-time.Hour)),
		thread(true, false, now.Add(-2*time.Hour)),
	}
	policy := BoardPolicy{HasTriggerThreadCount: true, TriggerThreadCount: 2}

	first := Compact(threads, policy)
	if len(first) != 1 {
		t.Fatalf("first Compact() len = %d, want 1", len(first))
	}

	archivedID := first[0]
	var remaining []ThreadSummary
	for _, th := range threads {
		if th.ID == archivedID {
			th.Archived = true
		}
		remaining = append(remaining, th)
	}

	second := Compact(remaining, policy)
	if len(second) != 0 {
		t.Fatalf("second Compact() = %v, want no further archiving once the board is below trigger", second)
	}
}

type fakeRepo struct {
	policies []BoardPolicy
	threads  map[uuid.UUID][]ThreadSummary
	archived []uuid.UUID
}

func (f *fakeRepo) BoardsWithArchiveCron(ctx context.Context) ([]BoardPolicy, error) {
	return f.policies, nil
}

func (f *fakeRepo) ThreadsForBoard(ctx context.Context, boardID uuid.UUID) ([]ThreadSummary, error) {
	return f.threads[boardID], nil
}

func (f *fakeRepo) ArchiveThreads(ctx context.Context, threadIDs []uuid.UUID) error {
	f.archived = append(f.archived, threadIDs...)
	return nil
}

func TestRunOnceArchivesComputedThreads(t *testing.T) {
	boardID := uuid.New()
	inactive := thread(false, false, time.Now())
	repo := &fakeRepo{
		threads: map[uuid.UUID][]ThreadSummary{boardID: {inactive}},
	}
	a := New(repo, zerolog.Nop())

	policy := BoardPolicy{BoardID: boardID, ThreadsArchiveCron: "0 * * * *"}
	if err := a.RunOnce(context.Background(), policy); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	if len(repo.archived) != 1 || repo.archived[0] != inactive.ID {
		t.Fatalf("archived = %v, want %v", repo.archived, inactive.ID)
	}
}

func TestRunOnceIsNoOpWhenNothingToArchive(t *testing.T) {
	boardID := uuid.New()
	active := thread(true, false, time.Now())
	repo := &fakeRepo{
		threads: map[uuid.UUID][]ThreadSummary{boardID: {active}},
	}
	a := New(repo, zerolog.Nop())

	if err := a.RunOnce(context.Background(), BoardPolicy{BoardID: boardID}); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	if len(repo.archived) != 0 {
		t.Fatalf("archived = %v, want none", repo.archived)
	}
}
