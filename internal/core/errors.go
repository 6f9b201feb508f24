package core

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Fatal error classes of the ingestion pipeline. Only rate limits are
// recovered locally; everything else aborts the run.
var (
	// ErrRateLimitExhausted means the retry budget ran out on rate-limit responses.
	ErrRateLimitExhausted = errors.New("rate limit: retries exhausted")

	// ErrEmbeddingFailure means the provider answered but returned no usable vector.
	ErrEmbeddingFailure = errors.New("embedding: no vector returned")

	// ErrExtractionFailure means rasterization or recognition failed.
	ErrExtractionFailure = errors.New("extraction failed")

	// ErrSchemaMismatch means a vector does not match the column dimensionality.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrConfiguration means a required setting is missing or invalid.
	ErrConfiguration = errors.New("configuration error")
)

// APIError is a non-success response from an outbound provider call.
type APIError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration // zero when the server sent no hint
}

func (e *APIError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("api error %d: %s (retry after %s)", e.StatusCode, e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsRateLimited reports whether err signals a rate limit. A 403 is read as a
// secondary (soft) rate limit.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

// RetryAfterHint returns the server-provided retry delay carried by err, if any.
func RetryAfterHint(err error) (time.Duration, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return apiErr.RetryAfter, true
	}
	return 0, false
}

// StageError attaches the file and pipeline stage to a fatal error.
type StageError struct {
	Source string
	Stage  Stage
	Err    error
}

func (e *StageError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Source, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
