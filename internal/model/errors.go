package model

import (
	"fmt"
	"time"
)

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

// SourceError marks a transient upstream failure (timeout, bad status,
// malformed payload) scoped to one organization on one provider. It never
// aborts the cycle for other organizations or sources.
type SourceError struct {
	Source Source
	Org    string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s fetch for %s: %v", e.Source, e.Org, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}
