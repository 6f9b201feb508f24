// Package ratelimit bounds and paces outbound embedding calls and retries
// them when the provider signals a rate limit.
package ratelimit

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Limiter admits at most max concurrent holders. Waiters are admitted in
// FIFO order as slots free up.
type Limiter struct {
	sem    *semaphore.Weighted
	max    int
	active atomic.Int64
}

// NewLimiter creates a limiter with maxConcurrent slots (minimum 1).
func NewLimiter(maxConcurrent int) *Limiter {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Limiter{
		sem: semaphore.NewWeighted(int64(maxConcurrent)),
		max: maxConcurrent,
	}
}

// Acquire blocks until a slot is free. The returned release func must be
// called exactly once.
func (l *Limiter) Acquire(ctx context.Context) (release func(), err error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	l.active.Add(1)

	var once atomic.Bool
	return func() {
		if once.CompareAndSwap(false, true) {
			l.active.Add(-1)
			l.sem.Release(1)
		}
	}, nil
}

// Active returns the number of slots currently held.
func (l *Limiter) Active() int {
	return int(l.active.Load())
}

// Max returns the configured slot count.
func (l *Limiter) Max() int {
	return l.max
}
