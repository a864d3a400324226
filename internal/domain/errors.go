package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidUpstreamResponse indicates the upstream JSON failed schema validation
var ErrInvalidUpstreamResponse = errors.New("invalid upstream response")

// UpstreamError is a transport failure or non-2xx reply from the upstream
// workflow engine. Surfaced to callers as 502 with the best available message.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("upstream returned HTTP %d", e.Status)
}

// RateLimitError reports a local quota breach with a wait-time hint.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	wait := int((e.RetryAfter + time.Second - 1) / time.Second)
	return fmt.Sprintf("Rate limit exceeded. Try again in %ds.", wait)
}
