// Package maintenance runs cron-scheduled background jobs: pruning stale
// rate-limit state, expiring old event log entries, and checkpointing the
// SQLite WAL.
package maintenance

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"tineghir-cms/internal/middleware"
	"tineghir-cms/internal/store"
)

// eventRetention is how long event log entries are kept.
const eventRetention = 90 * 24 * time.Hour

// rateLimiterMaxEntries bounds the global limiter cache between prunes.
const rateLimiterMaxEntries = 10000

// Scheduler owns the cron runner and its jobs.
type Scheduler struct {
	cron    *cron.Cron
	db      *sql.DB
	queries *store.Queries

	loginLimiter *middleware.LoginLimiter
	rateLimiter  *middleware.GlobalRateLimiter
}

// New creates a maintenance scheduler. Jobs are registered but not started.
func New(db *sql.DB, ll *middleware.LoginLimiter, rl *middleware.GlobalRateLimiter) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		db:           db,
		queries:      store.New(db),
		loginLimiter: ll,
		rateLimiter:  rl,
	}
}

// Start registers and starts the background jobs.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@hourly", s.pruneRateState); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@hourly", s.pruneEvents); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@daily", s.checkpointWAL); err != nil {
		return err
	}

	s.cron.Start()
	slog.Info("maintenance scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop stops the cron runner and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	slog.Info("maintenance scheduler stopped")
}

func (s *Scheduler) pruneRateState() {
	s.loginLimiter.PruneStale()
	s.rateLimiter.Prune(rateLimiterMaxEntries)
}

func (s *Scheduler) pruneEvents() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-eventRetention)
	deleted, err := s.queries.DeleteEventsBefore(ctx, cutoff)
	if err != nil {
		slog.Error("pruning events", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("pruned old events", "deleted", deleted)
	}
}

func (s *Scheduler) checkpointWAL() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		slog.Error("WAL checkpoint", "error", err)
	}
}
