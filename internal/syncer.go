package internal

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	activityBatchMax = 50
	revisionBatchMax = 20
)

// SyncResult reports what one iteration accomplished.
type SyncResult struct {
	Flushed          int
	Dropped          int
	ActivitiesPushed int
	RevisionsPushed  int
}

// Syncer moves records from memory to the store and from the store to
// the remote collector. A record leaves the store only after the
// collector has acknowledged it, so delivery is at-least-once and the
// collector must tolerate duplicates.
type Syncer struct {
	batch     *PendingBatch
	store     RecordStore
	collector Collector
	status    StatusSink
	logger    *slog.Logger
	interval  time.Duration
}

type SyncerOptions struct {
	Interval time.Duration
	Status   StatusSink
	Logger   *slog.Logger
}

func NewSyncer(batch *PendingBatch, store RecordStore, collector Collector, opts SyncerOptions) *Syncer {
	if opts.Interval <= 0 {
		opts.Interval = DefaultSyncIntervalMS * time.Millisecond
	}
	if opts.Status == nil {
		opts.Status = NopStatusSink{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Syncer{
		batch:     batch,
		store:     store,
		collector: collector,
		status:    opts.Status,
		logger:    opts.Logger,
		interval:  opts.Interval,
	}
}

// Run executes one iteration every interval until ctx is cancelled.
// The timer, not recursion, drives rescheduling, so cancellation
// provably terminates the loop. Iteration errors are logged and never
// stop the loop.
func (s *Syncer) Run(ctx context.Context) {
	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if _, err := s.SyncOnce(ctx); err != nil {
				s.logger.Warn("sync iteration incomplete", "error", err)
			}
			timer.Reset(s.interval)
		}
	}
}

// SyncOnce flushes the pending batch into the store, then pushes
// unsynced activities and revisions. The returned error reports the
// first remote failure; records it covers stay in the store for the
// next iteration.
func (s *Syncer) SyncOnce(ctx context.Context) (SyncResult, error) {
	var res SyncResult
	s.flush(ctx, &res)

	var firstErr error
	if n, err := s.pushActivities(ctx); err != nil {
		firstErr = err
	} else {
		res.ActivitiesPushed = n
	}
	if n, err := s.pushRevisions(ctx); err != nil {
		if firstErr == nil {
			firstErr = err
		}
	} else {
		res.RevisionsPushed = n
	}

	if firstErr != nil {
		s.status.Notify(StatusOffline)
		return res, firstErr
	}
	if res.ActivitiesPushed > 0 || res.RevisionsPushed > 0 {
		s.status.Notify(StatusSynced)
	}
	return res, nil
}

// flush persists the swapped-out pending batch. A record that fails to
// insert is logged and dropped; it never re-enters the batch.
func (s *Syncer) flush(ctx context.Context, res *SyncResult) {
	for _, rec := range s.batch.Drain() {
		id, err := s.store.InsertActivity(ctx, rec)
		if err != nil {
			res.Dropped++
			s.logger.Error("drop activity", "file", rec.FilePath, "error", err)
			continue
		}
		rec.ID = id
		res.Flushed++
	}
}

func (s *Syncer) pushActivities(ctx context.Context) (int, error) {
	recs, err := s.store.UnsyncedActivities(ctx, activityBatchMax)
	if err != nil {
		return 0, fmt.Errorf("read unsynced activities: %w", err)
	}
	if len(recs) == 0 {
		return 0, nil
	}

	ok, err := s.collector.SubmitActivities(ctx, recs)
	if err != nil {
		return 0, fmt.Errorf("submit activities: %w", err)
	}
	if !ok {
		return 0, fmt.Errorf("submit activities: not acknowledged")
	}

	ids := make([]int64, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID
	}
	if err := s.store.DeleteActivities(ctx, ids); err != nil {
		// The collector has these records; the next push resends them
		// and deduplication is the collector's job.
		return len(recs), fmt.Errorf("delete synced activities: %w", err)
	}

	return len(recs), nil
}

func (s *Syncer) pushRevisions(ctx context.Context) (int, error) {
	recs, err := s.store.UnsyncedRevisions(ctx, revisionBatchMax)
	if err != nil {
		return 0, fmt.Errorf("read unsynced revisions: %w", err)
	}
	if len(recs) == 0 {
		return 0, nil
	}

	ok, err := s.collector.SubmitRevisions(ctx, recs)
	if err != nil {
		return 0, fmt.Errorf("submit revisions: %w", err)
	}
	if !ok {
		return 0, fmt.Errorf("submit revisions: not acknowledged")
	}

	ids := make([]int64, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID
	}
	if err := s.store.DeleteRevisions(ctx, ids); err != nil {
		return len(recs), fmt.Errorf("delete synced revisions: %w", err)
	}

	return len(recs), nil
}
