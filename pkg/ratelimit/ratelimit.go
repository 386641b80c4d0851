// Package ratelimit paces outbound requests to a fixed rate with optional
// jitter.
package ratelimit

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// Limiter hands out request slots spaced 1/rps apart. The first slot is
// immediate. It is safe for concurrent use; a nil Limiter never blocks.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	jitter   float64 // 0.0 to 1.0
	next     time.Time
}

// NewLimiter creates a limiter for rps requests per second. Each gap is
// scaled by a random factor in [1-jitter, 1+jitter]. rps <= 0 disables
// pacing.
func NewLimiter(rps, jitter float64) *Limiter {
	if rps <= 0 {
		return &Limiter{}
	}
	jitter = min(max(jitter, 0), 1)
	return &Limiter{
		interval: time.Duration(float64(time.Second) / rps),
		jitter:   jitter,
	}
}

// Wait blocks until the caller's slot arrives or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.interval == 0 {
		return ctx.Err()
	}

	l.mu.Lock()
	now := time.Now()
	slot := l.next
	if slot.Before(now) {
		slot = now
	}
	l.next = slot.Add(l.gap())
	l.mu.Unlock()

	d := time.Until(slot)
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (l *Limiter) gap() time.Duration {
	if l.jitter == 0 {
		return l.interval
	}
	factor := 1 + l.jitter*(rand.Float64()*2-1)
	return time.Duration(float64(l.interval) * factor)
}

// Interval reports the nominal spacing between slots.
func (l *Limiter) Interval() time.Duration {
	if l == nil {
		return 0
	}
	return l.interval
}
