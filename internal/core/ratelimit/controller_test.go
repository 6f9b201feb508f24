package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/policyrag/internal/core"
)

func TestCall_RetriesInsideOneSlot(t *testing.T) {
	r, slept := recordingRetrier(3)
	c := NewControllerWith(NewLimiter(1), NewPacer(0), r)

	calls := 0
	got, err := Call(context.Background(), c, func(context.Context) ([]float32, error) {
		calls++
		assert.Equal(t, 1, c.Limiter().Active())
		if calls == 1 {
			return nil, &core.APIError{StatusCode: http.StatusTooManyRequests}
		}
		return []float32{1, 2}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, got)
	assert.Equal(t, 2, calls)
	assert.Len(t, *slept, 1)
	assert.Equal(t, 0, c.Limiter().Active(), "slot released after the call")
}

func TestCall_ReleasesSlotOnError(t *testing.T) {
	c := NewController(Config{MaxConcurrent: 1, MaxAttempts: 2})
	boom := errors.New("boom")

	_, err := Call(context.Background(), c, func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Limiter().Active())
}

func TestCall_PacesSuccessiveCalls(t *testing.T) {
	c := NewController(Config{MaxConcurrent: 2, MinDelay: 30 * time.Millisecond, MaxAttempts: 1})
	op := func(context.Context) (int, error) { return 1, nil }

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := Call(context.Background(), c, op)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}
