package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type window struct {
	start time.Time
	count int
}

// MemoryLimiter is a fixed-window limiter kept in process memory. It is
// used when no database is configured, so limits are per instance.
type MemoryLimiter struct {
	policy Policy
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

// NewMemoryLimiter creates a new MemoryLimiter instance
func NewMemoryLimiter(policy Policy, logger *zap.Logger) *MemoryLimiter {
	return &MemoryLimiter{
		policy:  policy,
		logger:  logger,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

// Allow checks and records a request for key
func (l *MemoryLimiter) Allow(_ context.Context, key string) (*Decision, error) {
	if !l.policy.Enabled() {
		return unlimited(), nil
	}

	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || !now.Before(w.start.Add(l.policy.Window)) {
		w = &window{start: now}
		l.windows[key] = w
	}
	resetAt := w.start.Add(l.policy.Window)

	if w.count >= l.policy.MaxRequests {
		return &Decision{
			Allowed:   false,
			Limit:     l.policy.MaxRequests,
			Remaining: 0,
			ResetAt:   resetAt,
		}, nil
	}

	w.count++
	return &Decision{
		Allowed:   true,
		Limit:     l.policy.MaxRequests,
		Remaining: l.policy.MaxRequests - w.count,
		ResetAt:   resetAt,
	}, nil
}

// Sweep drops windows that have expired at now and returns how many were
// removed.
func (l *MemoryLimiter) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, w := range l.windows {
		if !now.Before(w.start.Add(l.policy.Window)) {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

// StartSweeper periodically drops expired windows until ctx is done.
func (l *MemoryLimiter) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	l.logger.Info("started rate limit sweeper", zap.Duration("interval", interval))

	for {
		select {
		case <-ticker.C:
			if removed := l.Sweep(l.now()); removed > 0 {
				l.logger.Debug("swept expired rate limit windows", zap.Int("removed", removed))
			}
		case <-ctx.Done():
			l.logger.Info("stopping rate limit sweeper")
			return
		}
	}
}
