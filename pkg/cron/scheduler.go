// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// SessionSweeper removes sessions idle for longer than the given age and
// reports how many were dropped.
type SessionSweeper interface {
	SweepExpired(olderThan time.Duration) int
}

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron     *cron.Cron
	sweeper  SessionSweeper
	ttl      time.Duration
	schedule string
	logger   *slog.Logger
}

// NewScheduler creates a new job scheduler. The schedule is a standard
// 5-field cron spec controlling how often idle sessions are swept.
func NewScheduler(sweeper SessionSweeper, ttl time.Duration, schedule string, logger *slog.Logger) *Scheduler {
	// Create cron with seconds disabled (standard 5-field format)
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:     c,
		sweeper:  sweeper,
		ttl:      ttl,
		schedule: schedule,
		logger:   logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.sweepSessions)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.String("schedule", s.schedule),
		slog.Duration("session_ttl", s.ttl),
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers the session sweep (for testing/admin).
func (s *Scheduler) RunNow() {
	go s.sweepSessions()
}

// sweepSessions drops sessions whose last access is older than the TTL.
func (s *Scheduler) sweepSessions() {
	removed := s.sweeper.SweepExpired(s.ttl)
	if removed > 0 {
		s.logger.Info("session sweep completed",
			slog.Int("sessions_removed", removed),
			slog.Duration("ttl", s.ttl),
		)
		return
	}
	s.logger.Debug("session sweep completed, nothing expired",
		slog.Duration("ttl", s.ttl),
	)
}
