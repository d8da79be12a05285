package limiter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically drops expired entries from a MemoryStore.
//
// Common schedules:
//   - "*/5 * * * *" - every five minutes
//   - "@hourly"     - once an hour
type Sweeper struct {
	store    *MemoryStore
	schedule string
	now      func() time.Time
	window   func() time.Duration
	cron     *cron.Cron
	logger   *slog.Logger
	onSweep  func(remaining int)

	mu      sync.Mutex
	running bool
}

// NewSweeper creates a sweeper for store. An empty schedule disables it.
func NewSweeper(store *MemoryStore, schedule string) *Sweeper {
	return &Sweeper{
		store:    store,
		schedule: schedule,
		now:      time.Now,
		window:   func() time.Duration { return DefaultWindow },
		cron:     cron.New(),
		logger:   slog.Default().With("component", "limiter.sweeper"),
	}
}

// ValidateSchedule reports whether schedule is a valid cron expression.
// The empty string is valid and means disabled.
func ValidateSchedule(schedule string) error {
	if schedule == "" {
		return nil
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return nil
}

// OnSweep registers fn to receive the number of tracked sources after
// every sweep. It must be called before Start.
func (s *Sweeper) OnSweep(fn func(remaining int)) {
	s.onSweep = fn
}

// UseWindow sets the source of the window length used to judge expiry.
// Pass a Limiter's Policy so sweeps follow reloaded policies.
func (s *Sweeper) UseWindow(fn func() time.Duration) {
	s.window = fn
}

// Start schedules sweeping until ctx is cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Debug("sweep schedule not configured, skipping sweeper")
		return nil
	}

	if err := ValidateSchedule(s.schedule); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(s.schedule, s.Sweep); err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("limiter sweeper started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Sweep runs one sweep immediately.
func (s *Sweeper) Sweep() {
	removed := s.store.Sweep(s.now(), s.window())
	remaining := s.store.Len()
	s.logger.Debug("limiter sweep completed",
		"removed", removed,
		"remaining", remaining,
	)
	if s.onSweep != nil {
		s.onSweep(remaining)
	}
}

// Stop stops the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("limiter sweeper stopped")
	}
}

// IsRunning reports whether the schedule is active.
func (s *Sweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
