package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a minimum spacing between consecutive calls, independent of
// how many are in flight. A token bucket of size 1 refilled every minDelay
// is exactly "wait until minDelay has passed since the last call".
type Pacer struct {
	limiter  *rate.Limiter
	minDelay time.Duration
}

// NewPacer creates a pacer. A non-positive minDelay never waits.
func NewPacer(minDelay time.Duration) *Pacer {
	limit := rate.Inf
	if minDelay > 0 {
		limit = rate.Every(minDelay)
	}
	return &Pacer{
		limiter:  rate.NewLimiter(limit, 1),
		minDelay: minDelay,
	}
}

// Wait suspends the caller for whatever remains of minDelay since the previous call.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// MinDelay returns the configured spacing.
func (p *Pacer) MinDelay() time.Duration {
	return p.minDelay
}
