package apperr

import (
	"fmt"
	"time"
)

// UpstreamError is a failed call to the news provider. Status carries the
// HTTP status when one was received, 0 for transport failures.
type UpstreamError struct {
	Status  int
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream error (status %d): %s", e.Status, e.Message)
	}
	if e.Err != nil {
		return "upstream error: " + e.Err.Error()
	}
	return "upstream error: " + e.Message
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func NewUpstream(status int, msg string) *UpstreamError {
	return &UpstreamError{Status: status, Message: msg}
}

func NewUpstreamWrap(msg string, err error) *UpstreamError {
	return &UpstreamError{Message: msg, Err: err}
}

// RateLimitError surfaces a provider 429 together with the reported reset
// time, so the caller can decide whether to proceed with what was already
// fetched or abort.
type RateLimitError struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

func (e *RateLimitError) Error() string {
	if e.Reset.IsZero() {
		return "upstream rate limit exceeded"
	}
	return fmt.Sprintf("upstream rate limit exceeded, resets at %s", e.Reset.Format(time.RFC3339))
}
