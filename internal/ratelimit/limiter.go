// Package ratelimit gates plaintext disclosure with a per-principal sliding
// window. A Limiter is owned by the service instance that constructed it;
// it is never a process-wide singleton, so tests can run independent
// limiters with independent clocks.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

const (
	// DefaultMaxRequests is the default number of requests allowed per window.
	DefaultMaxRequests = 10
	// DefaultWindow is the default trailing window.
	DefaultWindow = 60 * time.Second
)

// ExceededError is returned when a principal has used up its window.
// RetryAfter is the number of seconds until the oldest in-window request
// expires.
type ExceededError struct {
	RetryAfter int
}

func (e ExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %d seconds", e.RetryAfter)
}

// Limiter counts requests per principal within a trailing window. Safe for
// concurrent use; two simultaneous calls for one principal never both
// succeed when a single slot remains.
type Limiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	max      int
	window   time.Duration
	now      func() time.Time
}

// New creates a limiter allowing max requests per window. Non-positive
// arguments fall back to the defaults.
func New(max int, window time.Duration) *Limiter {
	if max <= 0 {
		max = DefaultMaxRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{
		requests: make(map[string][]time.Time),
		max:      max,
		window:   window,
		now:      time.Now,
	}
}

// NewWithClock creates a limiter with an injected clock, used by tests.
func NewWithClock(max int, window time.Duration, now func() time.Time) *Limiter {
	l := New(max, window)
	l.now = now
	return l
}

// Allow prunes expired entries for the principal, then either records the
// request or returns ExceededError. The prune-check-append sequence runs
// under one lock so concurrent callers serialize on the last slot.
func (l *Limiter) Allow(principalID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.requests[principalID][:0]
	for _, ts := range l.requests[principalID] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	l.requests[principalID] = kept

	if len(kept) >= l.max {
		oldest := kept[0]
		for _, ts := range kept[1:] {
			if ts.Before(oldest) {
				oldest = ts
			}
		}
		retryAfter := int(oldest.Add(l.window).Sub(now).Seconds()) + 1
		return ExceededError{RetryAfter: retryAfter}
	}

	l.requests[principalID] = append(kept, now)
	return nil
}
