// Package archiver runs the per-board thread-compaction cron: archiving
// inactive threads, then trimming by the board's trigger-thread-count
// policy.
package archiver

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// ThreadSummary is the minimal thread projection the compaction rule needs.
type ThreadSummary struct {
	ID             uuid.UUID
	Active         bool
	Archived       bool
	LastModifiedAt time.Time
}

// BoardPolicy is the subset of board.Info the archiver consults.
type BoardPolicy struct {
	BoardID               uuid.UUID
	ThreadsArchiveCron    string
	TriggerThreadCount    int
	HasTriggerThreadCount bool
}

// Repository is the storage port the archiver compacts against.
type Repository interface {
	BoardsWithArchiveCron(ctx context.Context) ([]BoardPolicy, error)
	ThreadsForBoard(ctx context.Context, boardID uuid.UUID) ([]ThreadSummary, error)
	ArchiveThreads(ctx context.Context, threadIDs []uuid.UUID) error
}

// Compact computes which threads to archive for a board under policy,
// given its current non-archived threads. It is a pure function so the
// compaction rule can be unit-tested without a scheduler or repository.
//
// Rule: any thread with active=false is archived unconditionally. Then, if
// the board sets a trigger thread count, only the N most-recently-modified
// remaining non-archived threads are kept; the rest are archived too.
func Compact(threads []ThreadSummary, policy BoardPolicy) []uuid.UUID {
	var toArchive []uuid.UUID
	var remaining []ThreadSummary

	for _, t := range threads {
		if t.Archived {
			continue
		}
		if !t.Active {
			toArchive = append(toArchive, t.ID)
			continue
		}
		remaining = append(remaining, t)
	}

	if !policy.HasTriggerThreadCount || len(remaining) <= policy.TriggerThreadCount {
		return toArchive
	}

	sort.Slice(remaining, func(i, j int) bool {
		return remaining[i].LastModifiedAt.After(remaining[j].LastModifiedAt)
	})

	for _, t := range remaining[policy.TriggerThreadCount:] {
		toArchive = append(toArchive, t.ID)
	}

	return toArchive
}

// Archiver schedules and runs the per-board compaction job.
type Archiver struct {
	repo   Repository
	cron   *cron.Cron
	logger zerolog.Logger
}

// New builds an Archiver backed by repo.
func New(repo Repository, logger zerolog.Logger) *Archiver {
	return &Archiver{
		repo:   repo,
		cron:   cron.New(),
		logger: logger,
	}
}

// Schedule registers every board's archive cron, replacing any prior
// schedule. Boards whose cron expression fails to parse are skipped and
// logged.
func (a *Archiver) Schedule(ctx context.Context) error {
	policies, err := a.repo.BoardsWithArchiveCron(ctx)
	if err != nil {
		return err
	}

	for _, e := range a.cron.Entries() {
		a.cron.Remove(e.ID)
	}

	for _, p := range policies {
		policy := p
		_, err := a.cron.AddFunc(policy.ThreadsArchiveCron, func() {
			if err := a.runOnce(ctx, policy); err != nil {
				a.logger.Error().Err(err).Str("board_id", policy.BoardID.String()).Msg("archiver run failed")
			}
		})
		if err != nil {
			a.logger.Error().Err(err).Str("board_id", policy.BoardID.String()).Msg("invalid archive cron expression")
		}
	}

	return nil
}

// Start begins the cron scheduler's background goroutine.
func (a *Archiver) Start() {
	a.cron.Start()
}

// Stop halts the cron scheduler and waits for any running job to finish.
func (a *Archiver) Stop() {
	<-a.cron.Stop().Done()
}

// RunOnce runs a single board's compaction immediately, outside the cron
// schedule.
func (a *Archiver) RunOnce(ctx context.Context, policy BoardPolicy) error {
	return a.runOnce(ctx, policy)
}

func (a *Archiver) runOnce(ctx context.Context, policy BoardPolicy) error {
	threads, err := a.repo.ThreadsForBoard(ctx, policy.BoardID)
	if err != nil {
		return err
	}

	toArchive := Compact(threads, policy)
	if len(toArchive) == 0 {
		return nil
	}

	return a.repo.ArchiveThreads(ctx, toArchive)
}
