package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPosting rejects upsert input missing job_url or title.
// Such postings never reach the table.
var ErrInvalidPosting = errors.New("posting missing job_url or title")

// ErrAlreadyClassified signals an attempt to record a decision for a posting
// that already has one. The prior decision is never overwritten.
var ErrAlreadyClassified = errors.New("posting already classified")

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}
