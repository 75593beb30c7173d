package ratelimit_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credstore/credstore/internal/ratelimit"
)

// fakeClock is a mutable clock for driving the window deterministically.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestLimiterAllowsUpToMax(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	limiter := ratelimit.NewWithClock(3, time.Minute, clock.Now)

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Allow("alice"))
	}

	err := limiter.Allow("alice")
	require.Error(t, err)

	var exceeded ratelimit.ExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Greater(t, exceeded.RetryAfter, 0)
}

func TestLimiterPrincipalsAreIndependent(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	limiter := ratelimit.NewWithClock(2, time.Minute, clock.Now)

	require.NoError(t, limiter.Allow("alice"))
	require.NoError(t, limiter.Allow("alice"))
	require.Error(t, limiter.Allow("alice"))

	// A different principal still has a fresh window.
	require.NoError(t, limiter.Allow("bob"))
}

func TestLimiterWindowSlides(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	limiter := ratelimit.NewWithClock(2, time.Minute, clock.Now)

	require.NoError(t, limiter.Allow("alice"))
	clock.Advance(30 * time.Second)
	require.NoError(t, limiter.Allow("alice"))
	require.Error(t, limiter.Allow("alice"))

	// The first request falls out of the window after another 31 seconds.
	clock.Advance(31 * time.Second)
	require.NoError(t, limiter.Allow("alice"))
}

func TestLimiterRetryAfterFromOldest(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	limiter := ratelimit.NewWithClock(2, time.Minute, clock.Now)

	require.NoError(t, limiter.Allow("alice"))
	clock.Advance(20 * time.Second)
	require.NoError(t, limiter.Allow("alice"))

	err := limiter.Allow("alice")
	var exceeded ratelimit.ExceededError
	require.ErrorAs(t, err, &exceeded)

	// Oldest entry is 20s old in a 60s window: 40s remain, plus one.
	assert.Equal(t, 41, exceeded.RetryAfter)
}

func TestLimiterConcurrentLastSlot(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	limiter := ratelimit.NewWithClock(5, time.Minute, clock.Now)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Allow("alice"); err == nil {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, allowed)
}

func TestLimiterDefaults(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(0, 0)
	for i := 0; i < ratelimit.DefaultMaxRequests; i++ {
		require.NoError(t, limiter.Allow("alice"))
	}
	require.Error(t, limiter.Allow("alice"))
}
