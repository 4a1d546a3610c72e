package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"lumina-hq/polaris/pkg/config"
	"lumina-hq/polaris/pkg/telemetry/logging"
)

// Scheduler triggers pipeline scans on a cron schedule.
type Scheduler struct {
	pipeline *Pipeline
	config   config.PipelineConfig
	logger   *logging.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewScheduler creates a scheduler for the given pipeline.
func NewScheduler(p *Pipeline, cfg config.PipelineConfig, logger *logging.Logger) *Scheduler {
	var log *logging.Logger
	if logger != nil {
		log = logger.WithComponent("scheduler")
	}
	return &Scheduler{
		pipeline: p,
		config:   cfg,
		cron:     cron.New(),
		logger:   log,
	}
}

// Start begins scheduled scanning. It returns immediately; scans run on
// the cron goroutine until the context is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.config.Enabled {
		if s.logger != nil {
			s.logger.Info("pipeline disabled, scheduler not started")
		}
		return nil
	}

	if _, err := cron.ParseStandard(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid pipeline schedule %q: %w", s.config.Schedule, err)
	}

	if _, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.runScan(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule pipeline scan: %w", err)
	}

	s.cron.Start()
	s.running = true

	if s.logger != nil {
		s.logger.Info("pipeline scheduler started",
			"schedule", s.config.Schedule,
			"concurrency", s.config.Concurrency,
		)
	}

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *Scheduler) runScan(ctx context.Context) {
	if _, err := s.pipeline.Scan(ctx, time.Now().UTC()); err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "scheduled scan failed", "error", err.Error())
		}
	}
}

// Stop halts scheduling and waits for a running scan to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		<-s.cron.Stop().Done()
		s.running = false
		if s.logger != nil {
			s.logger.Info("pipeline scheduler stopped")
		}
	}
}

// IsRunning reports whether the scheduler is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled scan time, or nil when idle.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return nil
	}
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
