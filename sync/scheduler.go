// ABOUTME: Scheduled sync driver over all authorized users
// ABOUTME: Cron-based, strictly sequential, tolerant of per-user failure
package sync

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/demianbrunt/TrimSalon-sub000/db"
)

// Scheduler runs the reconciliation engine for every allowed user on a fixed
// interval. Users are processed one at a time to stay under the provider's
// per-account rate limits.
type Scheduler struct {
	cron         *cron.Cron
	service      *Service
	database     *sql.DB
	interval     time.Duration
	batchTimeout time.Duration
}

func NewScheduler(service *Service, database *sql.DB, interval, batchTimeout time.Duration) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		service:      service,
		database:     database,
		interval:     interval,
		batchTimeout: batchTimeout,
	}
}

// Start schedules the recurring batch and begins the cron loop.
func (s *Scheduler) Start() error {
	spec := "@every " + s.interval.String()
	if _, err := s.cron.AddFunc(spec, func() {
		s.RunAll(context.Background())
	}); err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("sync: scheduler started (%s)", spec)
	return nil
}

// Stop shuts the scheduler down, waiting for a running batch to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("sync: scheduler stopped")
}

// RunAll performs one batch over every allowed user. A failure for one user is
// logged and never prevents the remaining users from being processed. The
// whole batch runs under the configured timeout; users not reached in time
// wait for the next tick. No partial-progress checkpoint is kept.
func (s *Scheduler) RunAll(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.batchTimeout)
	defer cancel()

	users, err := db.ListAllowedUsers(ctx, s.database)
	if err != nil {
		log.Printf("sync: failed to enumerate allowed users: %v", err)
		return
	}

	for _, userID := range users {
		if ctx.Err() != nil {
			log.Printf("sync: batch timeout reached, remaining users wait for next tick")
			return
		}

		if !s.service.Status(userID).Enabled {
			continue
		}

		res, err := s.service.SyncNow(ctx, userID)
		switch {
		case errors.Is(err, ErrNoCredentials):
			log.Printf("sync: %s has no credentials, skipping", userID)
		case errors.Is(err, ErrSyncRunning):
			log.Printf("sync: %s already syncing, skipping", userID)
		case err != nil:
			log.Printf("sync: scheduled pass for %s failed (%s): %v", userID, Classify(err), err)
		default:
			log.Printf("sync: %s: %d created, %d updated, %d deleted, %d unchanged, %d skipped, %d failed",
				userID, res.Created, res.Updated, res.Deleted, res.Unchanged, res.Skipped, res.Failed)
		}
	}
}
