package limiter

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultLimit is the number of requests admitted per window.
	DefaultLimit = 30

	// DefaultWindow is the length of one counting window.
	DefaultWindow = 60 * time.Second
)

// Entry is the counter state of one source key.
type Entry struct {
	// Count is the number of requests seen in the current window,
	// including the one that produced this entry.
	Count int64

	// WindowStart is when the current window began.
	WindowStart time.Time

	// ResetAt is when the current window expires.
	ResetAt time.Time
}

// Store persists per-key counters.
// Implementations must make the expiry check and the increment atomic per key.
type Store interface {
	// Increment resets the entry for key if its window has expired, adds one
	// to its count, and returns the updated entry.
	Increment(ctx context.Context, key string, window time.Duration, now time.Time) (Entry, error)
}

// Decision is the outcome of one limiter check.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool

	// Count is the counter value after this request.
	Count int64

	// Limit is the configured limit at the time of the check.
	Limit int64

	// ResetAt is when the current window expires.
	ResetAt time.Time

	// StoreError is set when the store could not be reached and the
	// decision came from the fail-open setting.
	StoreError error
}

// Remaining returns how many more requests fit in the current window.
func (d Decision) Remaining() int64 {
	if d.Count >= d.Limit {
		return 0
	}
	return d.Limit - d.Count
}

// RetryAfter returns how long the caller should wait before the window
// resets, rounded up to whole seconds.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetAt.Sub(now)
	if wait <= 0 {
		return 0
	}
	return wait.Truncate(time.Second) + time.Second
}

// Config holds limiter policy.
type Config struct {
	// Limit is the number of requests admitted per window.
	// Default: 30
	Limit int

	// Window is the length of one counting window.
	// Default: 60s
	Window time.Duration

	// FailOpen admits requests when the store returns an error.
	// Default: false
	FailOpen bool
}

// Limiter is a fixed-window request limiter keyed by source.
// It is safe for concurrent use.
type Limiter struct {
	store  Store
	now    func() time.Time
	logger *slog.Logger

	mu       sync.RWMutex
	limit    int64
	window   time.Duration
	failOpen bool
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces the time source. Tests use it to advance windows
// without sleeping.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// WithLogger sets the logger used to report store failures.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		l.logger = logger
	}
}

// New creates a limiter over store. Zero fields in cfg take their defaults.
func New(store Store, cfg Config, opts ...Option) *Limiter {
	l := &Limiter{
		store:    store,
		now:      time.Now,
		logger:   slog.Default().With("component", "limiter"),
		failOpen: cfg.FailOpen,
	}
	l.limit, l.window = normalize(cfg.Limit, cfg.Window)

	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Admit reports whether a request from key may proceed. It always counts
// the request, admitted or not, and never returns an error.
func (l *Limiter) Admit(ctx context.Context, key string) bool {
	return l.Check(ctx, key).Allowed
}

// Check counts a request from key and returns the full decision.
func (l *Limiter) Check(ctx context.Context, key string) Decision {
	l.mu.RLock()
	limit, window, failOpen := l.limit, l.window, l.failOpen
	l.mu.RUnlock()

	now := l.now()
	entry, err := l.store.Increment(ctx, key, window, now)
	if err != nil {
		l.logger.Error("limiter store increment failed",
			"error", err,
			"fail_open", failOpen,
		)
		return Decision{
			Allowed:    failOpen,
			Limit:      limit,
			ResetAt:    now.Add(window),
			StoreError: err,
		}
	}

	return Decision{
		Allowed: entry.Count <= limit,
		Count:   entry.Count,
		Limit:   limit,
		ResetAt: entry.ResetAt,
	}
}

// SetPolicy changes the limit and window. Existing windows keep their
// start time; the new window length applies from the next expiry check.
func (l *Limiter) SetPolicy(limit int, window time.Duration) {
	lim, win := normalize(limit, window)

	l.mu.Lock()
	l.limit, l.window = lim, win
	l.mu.Unlock()

	l.logger.Info("limiter policy updated", "limit", lim, "window", win)
}

// Policy returns the current limit and window.
func (l *Limiter) Policy() (int, time.Duration) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return int(l.limit), l.window
}

func normalize(limit int, window time.Duration) (int64, time.Duration) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return int64(limit), window
}
