package ratelimit

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/markdave123-py/policyrag/internal/core"
)

const (
	DefaultMaxAttempts = 8
	DefaultBaseDelay   = time.Second
	DefaultMaxDelay    = 60 * time.Second
	DefaultMaxJitter   = 500 * time.Millisecond
)

// Retrier retries operations that fail with a rate-limit signal, using
// exponential backoff plus jitter. Other failures are returned immediately.
type Retrier struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxJitter   time.Duration

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(max time.Duration) time.Duration
}

// NewRetrier returns a retrier with the default backoff curve.
func NewRetrier(maxAttempts int) *Retrier {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Retrier{
		MaxAttempts: maxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
		MaxJitter:   DefaultMaxJitter,
		sleep:       sleepContext,
		jitter:      randomJitter,
	}
}

// Backoff returns the delay before the retry that follows the failed
// attempt with 0-based index attempt: min(MaxDelay, BaseDelay*2^attempt)
// plus jitter, raised to the server hint when one is larger.
func (r *Retrier) Backoff(attempt int, err error) time.Duration {
	delay := r.MaxDelay
	if attempt < 32 {
		if d := r.BaseDelay << attempt; d > 0 && d < r.MaxDelay {
			delay = d
		}
	}
	if r.jitter != nil {
		delay += r.jitter(r.MaxJitter)
	}
	if hint, ok := core.RetryAfterHint(err); ok && hint > delay {
		delay = hint
	}
	return delay
}

// WithRetry invokes op until it succeeds, fails with a non rate-limit error,
// or the attempt budget is spent.
func WithRetry[T any](ctx context.Context, r *Retrier, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < r.MaxAttempts; attempt++ {
		res, err := op(ctx)
		if err == nil {
			return res, nil
		}
		if !core.IsRateLimited(err) {
			return zero, err
		}
		lastErr = err

		if attempt == r.MaxAttempts-1 {
			break
		}

		delay := r.Backoff(attempt, err)
		log.Printf("RateLimit: attempt %d/%d throttled (%v); retrying in %s", attempt+1, r.MaxAttempts, err, delay.Round(time.Millisecond))
		if err := r.sleep(ctx, delay); err != nil {
			return zero, err
		}
	}

	return zero, fmt.Errorf("%w after %d attempts: %w", core.ErrRateLimitExhausted, r.MaxAttempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(max)))
}
