package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSchedule runs the approval sweep twice an hour
const DefaultSweepSchedule = "@every 30m"

// Sweeper periodically removes expired approvals. It sweeps once on Start
// and then on every tick of its cron schedule.
type Sweeper struct {
	approvals *ApprovalService
	schedule  string
	logger    *slog.Logger

	mu      sync.Mutex
	running sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
}

// NewSweeper creates a new Sweeper
func NewSweeper(approvals *ApprovalService, schedule string, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	return &Sweeper{
		approvals: approvals,
		schedule:  schedule,
		logger:    logger,
	}
}

// Start performs the startup sweep and schedules the rest
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return fmt.Errorf("sweeper: already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	c := cron.New()
	if _, err := c.AddFunc(s.schedule, func() { s.RunOnce(ctx) }); err != nil {
		cancel()
		return fmt.Errorf("sweeper: invalid schedule %q: %w", s.schedule, err)
	}

	s.RunOnce(ctx)

	s.cron = c
	s.cancel = cancel
	c.Start()
	s.logger.Info("approval sweeper started", "schedule", s.schedule)
	return nil
}

// Stop halts the schedule and waits for a running sweep
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return
	}
	s.cancel()
	<-s.cron.Stop().Done()
	s.cron = nil
	s.logger.Info("approval sweeper stopped")
}

// RunOnce sweeps immediately. Overlapping calls are skipped.
func (s *Sweeper) RunOnce(ctx context.Context) int {
	if !s.running.TryLock() {
		s.logger.Warn("sweeper: previous sweep still running, skipping")
		return 0
	}
	defer s.running.Unlock()

	n, err := s.approvals.SweepExpired(ctx)
	if err != nil {
		s.logger.Error("sweeper: sweep failed", "error", err)
		return 0
	}
	return n
}
