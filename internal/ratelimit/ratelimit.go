package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var ErrBudgetExceeded = errors.New("embedding request budget exceeded")

// Limiter paces embedding requests with a token bucket and caps how many can be
// made per window (a day by default).
type Limiter struct {
	mu        sync.Mutex
	bucket    *rate.Limiter
	used      int
	maxUsed   int
	window    time.Duration
	resetTime time.Time
	now       func() time.Time
	log       *slog.Logger
}

// New creates a limiter. rps <= 0 disables pacing, maxPerWindow <= 0 disables the budget.
func New(rps float64, burst, maxPerWindow int, window time.Duration, log *slog.Logger) *Limiter {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst <= 0 {
		burst = 1
	}
	if window <= 0 {
		window = 24 * time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	l := &Limiter{
		bucket:  rate.NewLimiter(limit, burst),
		maxUsed: maxPerWindow,
		window:  window,
		now:     time.Now,
		log:     log,
	}
	l.resetTime = l.now().Add(window)
	return l
}

// Acquire takes one request from the budget and waits for the bucket.
func (l *Limiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	l.checkReset()
	if l.maxUsed > 0 && l.used >= l.maxUsed {
		used, limit := l.used, l.maxUsed
		l.mu.Unlock()
		l.log.Warn("embedding budget reached", slog.Int("used", used), slog.Int("limit", limit))
		return fmt.Errorf("%w (%d/%d)", ErrBudgetExceeded, used, limit)
	}
	l.used++
	l.mu.Unlock()

	if err := l.bucket.Wait(ctx); err != nil {
		return fmt.Errorf("wait for rate limiter: %w", err)
	}
	return nil
}

// GetStats returns current limiter statistics
func (l *Limiter) GetStats() map[string]interface{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	return map[string]interface{}{
		"used":       l.used,
		"limit":      l.maxUsed,
		"reset_time": l.resetTime,
	}
}

// checkReset resets counters if reset time has passed. Callers hold mu.
func (l *Limiter) checkReset() {
	if l.now().After(l.resetTime) {
		l.log.Info("resetting embedding budget", slog.Int("used", l.used))
		l.used = 0
		l.resetTime = l.now().Add(l.window)
	}
}
