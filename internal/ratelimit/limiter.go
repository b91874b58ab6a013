// Package ratelimit spaces outbound calls to upstream APIs.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultInterval keeps TMDB traffic around 4 requests per second,
// under the provider's ~40 requests per 10 seconds ceiling.
const DefaultInterval = 260 * time.Millisecond

// Limiter wraps rate.Limiter with a name for logging/debugging.
// Callers are served one at a time and each Wait returns at least
// interval after the previous one.
type Limiter struct {
	limiter  *rate.Limiter
	name     string
	interval time.Duration

	mu   sync.Mutex
	last time.Time
}

// New creates a limiter that allows one request per interval.
func New(name string, interval time.Duration) *Limiter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Limiter{
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		name:     name,
		interval: interval,
	}
}

// Wait blocks until the minimum interval has passed since the previous
// Wait returned. Returns an error if the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait for %s: %w", l.name, err)
	}

	// rate.Limiter works in fractional tokens; top up any rounding shortfall
	if !l.last.IsZero() {
		if gap := l.interval - time.Since(l.last); gap > 0 {
			timer := time.NewTimer(gap)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("rate limit wait for %s: %w", l.name, ctx.Err())
			case <-timer.C:
			}
		}
	}

	l.last = time.Now()
	return nil
}

// Last returns when the most recent Wait returned.
func (l *Limiter) Last() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}

// Interval returns the configured minimum spacing.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// Name returns the name of this rate limiter.
func (l *Limiter) Name() string {
	return l.name
}
