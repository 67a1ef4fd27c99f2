// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// BatchPurger drops import batches last touched before cutoff
type BatchPurger interface {
	PurgeStale(cutoff time.Time) int
}

// DemoReseeder replaces an owner's data with a fresh generated dataset
type DemoReseeder interface {
	Reseed(ctx context.Context, ownerID uuid.UUID, now time.Time) error
}

// DemoConfig schedules the demo reseed job
type DemoConfig struct {
	Spec    string
	OwnerID uuid.UUID
}

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron      *cron.Cron
	purger    BatchPurger
	purgeSpec string
	batchTTL  time.Duration
	reseeder  DemoReseeder
	demo      DemoConfig
	now       func() time.Time
	logger    *slog.Logger
}

// NewScheduler creates a new job scheduler.
func NewScheduler(purger BatchPurger, purgeSpec string, batchTTL time.Duration, logger *slog.Logger) *Scheduler {
	// Standard 5-field format, seconds disabled
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:      c,
		purger:    purger,
		purgeSpec: purgeSpec,
		batchTTL:  batchTTL,
		now:       time.Now,
		logger:    logger,
	}
}

// WithDemoReseed enables periodic regeneration of a demo owner's data
func (s *Scheduler) WithDemoReseed(r DemoReseeder, cfg DemoConfig) *Scheduler {
	s.reseeder = r
	s.demo = cfg
	return s
}

// WithClock overrides the time source for tests
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.purgeSpec, s.purgeStaleBatches); err != nil {
		return err
	}
	if s.reseeder != nil && s.demo.Spec != "" {
		if _, err := s.cron.AddFunc(s.demo.Spec, s.reseedDemo); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

func (s *Scheduler) purgeStaleBatches() {
	cutoff := s.now().Add(-s.batchTTL)
	purged := s.purger.PurgeStale(cutoff)
	s.logger.Debug("stale import batch purge completed",
		slog.Int("purged", purged),
		slog.Time("cutoff", cutoff),
	)
}

func (s *Scheduler) reseedDemo() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := s.reseeder.Reseed(ctx, s.demo.OwnerID, s.now()); err != nil {
		s.logger.Error("demo reseed failed",
			slog.String("owner_id", s.demo.OwnerID.String()),
			slog.Any("error", err),
		)
		return
	}
	s.logger.Info("demo data reseeded", slog.String("owner_id", s.demo.OwnerID.String()))
}
