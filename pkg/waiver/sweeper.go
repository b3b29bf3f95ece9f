package waiver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper runs cleanupExpiredWaivers on a cron schedule. The sweep is a
// housekeeping optimization; lazy expiry keeps behavior correct even
// with the sweeper disabled.
type Sweeper struct {
	interpreter *Interpreter
	schedule    string
	cron        *cron.Cron
	mu          sync.Mutex
	logger      *slog.Logger
	running     bool
}

// NewSweeper creates a waiver sweeper. An empty schedule disables it.
//
// Common cron expressions:
//   - "0 * * * *"   - Hourly
//   - "0 3 * * *"   - Daily at 3 AM
func NewSweeper(interpreter *Interpreter, schedule string, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		interpreter: interpreter,
		schedule:    schedule,
		cron:        cron.New(),
		logger:      logger.With("component", "waiver.sweeper"),
	}
}

// Start begins scheduled sweeping. If no schedule is configured the
// sweeper does nothing.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("sweep schedule not configured, skipping sweeper")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, s.runSweep); err != nil {
		return fmt.Errorf("failed to schedule waiver sweep: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("waiver sweeper started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *Sweeper) runSweep() {
	removed := s.interpreter.CleanupExpiredWaivers()
	if removed > 0 {
		s.logger.Info("expired waivers swept", "removed_count", removed)
	} else {
		s.logger.Debug("waiver sweep completed, nothing expired")
	}
}

// Stop stops the sweeper and waits for a running sweep to complete.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("waiver sweeper stopped")
	}
}

// IsRunning returns true if the sweeper is running.
func (s *Sweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled sweep time.
func (s *Sweeper) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
