package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowLimiter_AllowUnderLimit(t *testing.T) {
	limiter := NewWindowLimiter(10, 0, time.Hour)
	defer limiter.Close()

	allowed, info := limiter.Allow("192.168.1.1")
	assert.True(t, allowed)
	assert.Equal(t, 10, info.Limit)
	assert.Equal(t, 9, info.Remaining)
	assert.False(t, info.ResetAt.IsZero())
	assert.Zero(t, info.RetryAfter)
}

func TestWindowLimiter_ExhaustsWindow(t *testing.T) {
	limiter := NewWindowLimiter(3, 0, time.Hour)
	defer limiter.Close()

	key := "192.168.1.1"
	for i := 0; i < 3; i++ {
		allowed, _ := limiter.Allow(key)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, info := limiter.Allow(key)
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.True(t, info.RetryAfter > 0)
	assert.True(t, info.RetryAfterSeconds() > 0)
}

func TestWindowLimiter_Scenario(t *testing.T) {
	// maxPerKey=2, window=60s: two admissions then a rejection with a
	// positive retry delay.
	limiter := NewWindowLimiter(2, 0, 60*time.Second)
	defer limiter.Close()

	key := "1.2.3.4"

	allowed, _ := limiter.Allow(key)
	assert.True(t, allowed)
	allowed, _ = limiter.Allow(key)
	assert.True(t, allowed)

	allowed, info := limiter.Allow(key)
	assert.False(t, allowed)
	assert.Greater(t, info.RetryAfterSeconds(), 0)
	assert.LessOrEqual(t, info.RetryAfterSeconds(), 60)
}

func TestWindowLimiter_WindowReset(t *testing.T) {
	limiter := NewWindowLimiter(2, 0, time.Hour)
	defer limiter.Close()

	now := time.Now()
	limiter.now = func() time.Time { return now }

	key := "192.168.1.1"
	limiter.Allow(key)
	limiter.Allow(key)
	allowed, _ := limiter.Allow(key)
	require.False(t, allowed)

	// Advance past the window: the next check starts a fresh window with
	// one admission consumed.
	limiter.now = func() time.Time { return now.Add(time.Hour + time.Second) }

	allowed, info := limiter.Allow(key)
	assert.True(t, allowed)
	assert.Equal(t, 1, info.Remaining, "fresh window should have count 1")
}

func TestWindowLimiter_DifferentKeysIndependent(t *testing.T) {
	limiter := NewWindowLimiter(2, 0, time.Hour)
	defer limiter.Close()

	limiter.Allow("key1")
	limiter.Allow("key1")
	allowed1, _ := limiter.Allow("key1")
	assert.False(t, allowed1, "key1 should be denied")

	allowed2, _ := limiter.Allow("key2")
	assert.True(t, allowed2, "key2 should be allowed")
}

func TestWindowLimiter_GlobalCeiling(t *testing.T) {
	limiter := NewWindowLimiter(10, 3, time.Hour)
	defer limiter.Close()

	for i := 0; i < 3; i++ {
		allowed, _ := limiter.Allow(fmt.Sprintf("client-%d", i))
		require.True(t, allowed)
	}

	// A brand-new key is rejected once the global ceiling is reached.
	allowed, info := limiter.Allow("never-seen-before")
	assert.False(t, allowed)
	assert.True(t, info.RetryAfter > 0)

	// The rejection must not have created per-key state for the new key.
	assert.Equal(t, 3, limiter.Len())
}

func TestWindowLimiter_GlobalCeilingResets(t *testing.T) {
	limiter := NewWindowLimiter(10, 2, time.Hour)
	defer limiter.Close()

	now := time.Now()
	limiter.now = func() time.Time { return now }

	limiter.Allow("a")
	limiter.Allow("b")
	allowed, _ := limiter.Allow("c")
	require.False(t, allowed)

	limiter.now = func() time.Time { return now.Add(2 * time.Hour) }

	allowed, _ = limiter.Allow("c")
	assert.True(t, allowed)
}

func TestWindowLimiter_Sweep(t *testing.T) {
	limiter := NewWindowLimiter(5, 0, time.Hour)
	defer limiter.Close()

	now := time.Now()
	limiter.now = func() time.Time { return now }
	limiter.chance = func() float64 { return 1 } // never sweep (1 >= sweepChance)

	for i := 0; i < 10; i++ {
		limiter.Allow(fmt.Sprintf("client-%d", i))
	}
	require.Equal(t, 10, limiter.Len())

	// Expire every entry, force the sweep on the next call.
	limiter.now = func() time.Time { return now.Add(2 * time.Hour) }
	limiter.chance = func() float64 { return 0 }

	limiter.Allow("fresh")
	assert.Equal(t, 1, limiter.Len(), "expired entries should be swept")
}

func TestWindowLimiter_ConcurrentSameKey(t *testing.T) {
	// 100 concurrent checks against a limit of 10 must admit exactly 10.
	limiter := NewWindowLimiter(10, 0, time.Hour)
	defer limiter.Close()

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := limiter.Allow("shared"); allowed {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, admitted)
}

func TestWindowLimiter_ConcurrentAccess(t *testing.T) {
	limiter := NewWindowLimiter(1000, 0, time.Hour)
	defer limiter.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := fmt.Sprintf("client-%d", id%5)
			for j := 0; j < 20; j++ {
				limiter.Allow(key)
			}
		}(i)
	}
	wg.Wait()
	// No panics or data races -- run with -race flag
}
