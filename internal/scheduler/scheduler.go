// Package scheduler runs the service's periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ReloadFunc refreshes the serving model and reports whether it changed
type ReloadFunc func(ctx context.Context) (bool, error)

// Sweeper drops expired cache entries
type Sweeper interface {
	DeleteExpired()
	ItemCount() int
}

// Scheduler manages scheduled maintenance jobs
type Scheduler struct {
	cron            *cron.Cron
	logger          *logrus.Entry
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          []cron.EntryID
	jobTimeout      time.Duration
	gracefulTimeout time.Duration
}

// NewScheduler creates a new scheduler
func NewScheduler(logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:            cron.New(cron.WithLocation(time.UTC)),
		logger:          logger.WithField("component", "scheduler"),
		jobIDs:          make([]cron.EntryID, 0),
		jobTimeout:      time.Minute,
		gracefulTimeout: 30 * time.Second,
	}
}

func (s *Scheduler) addJob(spec, name string, job func(ctx context.Context)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()
		job(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to add %s job: %w", name, err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithFields(logrus.Fields{"job": name, "spec": spec}).Info("Scheduled job")
	return nil
}

// ScheduleModelReload checks for a new model on every tick. A failed reload is
// logged and the current model keeps serving.
func (s *Scheduler) ScheduleModelReload(spec string, reload ReloadFunc) error {
	return s.addJob(spec, "model_reload", func(ctx context.Context) {
		changed, err := reload(ctx)
		if err != nil {
			s.logger.WithError(err).Warn("Model reload failed, keeping current model")
			return
		}
		if changed {
			s.logger.Info("Model reloaded")
		}
	})
}

// ScheduleCacheSweep evicts expired prediction cache entries on every tick
func (s *Scheduler) ScheduleCacheSweep(spec string, sweeper Sweeper) error {
	return s.addJob(spec, "cache_sweep", func(context.Context) {
		before := sweeper.ItemCount()
		sweeper.DeleteExpired()
		s.logger.WithFields(logrus.Fields{
			"before": before,
			"after":  sweeper.ItemCount(),
		}).Debug("Prediction cache swept")
	})
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop waits for running jobs to finish, up to the graceful timeout
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.gracefulTimeout)
	defer cancel()

	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out with jobs still running")
	}
	s.isRunning = false
	s.logger.Info("Scheduler stopped")

	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// JobCount returns the number of scheduled jobs
func (s *Scheduler) JobCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobIDs)
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			if nextRun.IsZero() || entry.Next.Before(nextRun) {
				nextRun = entry.Next
			}
		}
	}

	return nextRun
}
