// Package ratelimit implements a fixed-window request counter guarding
// calls to the external text-generation service.
package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/firstfamily/ragdash/internal/domain"
)

// Store counts hits per key within a fixed window. Implementations must
// reset the counter lazily: the first increment observed after the previous
// window expired starts a fresh window at count 1.
type Store interface {
	// Increment records one hit for key and returns the hit count within
	// the current window along with the instant the window resets.
	Increment(ctx context.Context, key string, window time.Duration) (count int, resetAt time.Time, err error)
}

// Limiter enforces a per-key request ceiling over a fixed window.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
}

// New constructs a limiter backed by the given store.
func New(store Store, limit int, window time.Duration) (*Limiter, error) {
	if store == nil {
		return nil, errors.New("rate limiter requires a store")
	}
	if limit <= 0 || window <= 0 {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	return &Limiter{store: store, limit: limit, window: window}, nil
}

// Check records a hit for key. It returns a *domain.RateLimitError carrying
// the time until the window resets once the count exceeds the ceiling.
func (l *Limiter) Check(ctx context.Context, key string) error {
	count, resetAt, err := l.store.Increment(ctx, key, l.window)
	if err != nil {
		return err
	}
	if count > l.limit {
		retry := time.Until(resetAt)
		if retry < 0 {
			retry = 0
		}
		return &domain.RateLimitError{RetryAfter: retry}
	}
	return nil
}
