package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
)

const sessionSweepInterval = 30 * time.Second

// Jobs wraps the gocron scheduler running the server's housekeeping.
type Jobs struct {
	scheduler gocron.Scheduler
}

// NewJobs schedules visitor retention cleanup and stale reveal session sweeps.
func NewJobs(ctx context.Context, s *Server, clock clockwork.Clock) (*Jobs, error) {
	sched, err := gocron.NewScheduler(gocron.WithClock(clock))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(s.cfg.CleanupInterval),
		gocron.NewTask(func() {
			_, _ = s.cleanupVisitors(ctx)
		}),
		gocron.WithName("visitor-retention"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create retention job: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(sessionSweepInterval),
		gocron.NewTask(func() {
			if n := s.hub.Sweep(); n > 0 {
				slog.Info("Swept stale reveal sessions", "count", n)
			}
		}),
		gocron.WithName("reveal-session-sweep"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sweep job: %w", err)
	}

	return &Jobs{scheduler: sched}, nil
}

// Start begins running jobs.
func (j *Jobs) Start() {
	slog.Info("Starting scheduler")
	j.scheduler.Start()
}

// Stop shuts the scheduler down.
func (j *Jobs) Stop() error {
	slog.Info("Stopping scheduler")
	return j.scheduler.Shutdown()
}
