package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Config sizes a Controller.
type Config struct {
	MaxConcurrent int
	MinDelay      time.Duration
	MaxAttempts   int
}

// Controller owns the scheduling state shared by every embedding call of a
// run: concurrency slots, the pacing timeline and the retry policy. Build one
// per run and pass it to the call sites.
type Controller struct {
	limiter *Limiter
	pacer   *Pacer
	retrier *Retrier
}

func NewController(cfg Config) *Controller {
	return &Controller{
		limiter: NewLimiter(cfg.MaxConcurrent),
		pacer:   NewPacer(cfg.MinDelay),
		retrier: NewRetrier(cfg.MaxAttempts),
	}
}

// NewControllerWith assembles a controller from existing parts.
func NewControllerWith(l *Limiter, p *Pacer, r *Retrier) *Controller {
	return &Controller{limiter: l, pacer: p, retrier: r}
}

func (c *Controller) Limiter() *Limiter { return c.limiter }
func (c *Controller) Pacer() *Pacer     { return c.pacer }
func (c *Controller) Retrier() *Retrier { return c.retrier }

// Call runs op under the controller: slot admission, then pacing, then the
// retry loop. Pacing happens once per call, not per retry attempt.
func Call[T any](ctx context.Context, c *Controller, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	release, err := c.limiter.Acquire(ctx)
	if err != nil {
		return zero, fmt.Errorf("acquire slot: %w", err)
	}
	defer release()

	if err := c.pacer.Wait(ctx); err != nil {
		return zero, fmt.Errorf("pace: %w", err)
	}

	return WithRetry(ctx, c.retrier, op)
}
