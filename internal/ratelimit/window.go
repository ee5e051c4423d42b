package ratelimit

import (
	"math/rand/v2"
	"sync"
	"time"
)

// sweepChance is the probability that a single Allow call triggers a scan
// for expired entries. Cleanup is best-effort: entries are cheap and
// bounded by distinct-key cardinality over one window, so an occasional
// sweep keeps memory flat without a background goroutine.
const sweepChance = 0.01

// entry is one admission window: the number of requests admitted and the
// instant the window expires. Entries are replaced, never merged, once
// expired.
type entry struct {
	count   int
	resetAt time.Time
}

// WindowLimiter admits up to maxPerKey requests per key within a rolling
// window that starts at the key's first admission. An optional global
// ceiling caps total admissions across all keys per window and is checked
// before any per-key state is touched.
type WindowLimiter struct {
	maxPerKey int
	maxGlobal int // 0 disables the global ceiling
	window    time.Duration

	mu      sync.Mutex
	entries map[string]*entry
	global  entry

	// test hooks
	now    func() time.Time
	chance func() float64
}

// NewWindowLimiter creates a limiter admitting maxPerKey requests per key
// per window. maxGlobal, when positive, additionally caps admissions
// process-wide per window.
func NewWindowLimiter(maxPerKey, maxGlobal int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{
		maxPerKey: maxPerKey,
		maxGlobal: maxGlobal,
		window:    window,
		entries:   make(map[string]*entry),
		now:       time.Now,
		chance:    rand.Float64,
	}
}

// Allow checks whether a request from the given key should be admitted.
// The check and the counter update happen under one lock acquisition, so
// concurrent requests for the same key can never jointly over-admit.
// Allow never fails: an absent entry means the key has not been seen this
// window and is admitted.
func (l *WindowLimiter) Allow(key string) (bool, Info) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	// Global ceiling first; a global rejection must not consume or create
	// per-key state.
	if l.maxGlobal > 0 {
		if now.After(l.global.resetAt) {
			l.global = entry{count: 0, resetAt: now.Add(l.window)}
		}
		if l.global.count >= l.maxGlobal {
			return false, l.deniedInfo(l.global.resetAt, now)
		}
	}

	if l.chance() < sweepChance {
		l.sweep(now)
	}

	e, ok := l.entries[key]
	if !ok || now.After(e.resetAt) {
		e = &entry{count: 1, resetAt: now.Add(l.window)}
		l.entries[key] = e
		l.global.count++
		return true, l.admittedInfo(e)
	}

	if e.count >= l.maxPerKey {
		return false, l.deniedInfo(e.resetAt, now)
	}

	e.count++
	l.global.count++
	return true, l.admittedInfo(e)
}

// Close implements Limiter. The window limiter holds no goroutines or
// external resources.
func (l *WindowLimiter) Close() {}

// Len returns the number of tracked keys, expired entries included.
func (l *WindowLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// sweep drops entries whose window has expired. Caller holds the lock.
func (l *WindowLimiter) sweep(now time.Time) {
	for key, e := range l.entries {
		if now.After(e.resetAt) {
			delete(l.entries, key)
		}
	}
}

func (l *WindowLimiter) admittedInfo(e *entry) Info {
	remaining := l.maxPerKey - e.count
	if remaining < 0 {
		remaining = 0
	}
	return Info{
		Limit:     l.maxPerKey,
		Remaining: remaining,
		ResetAt:   e.resetAt,
	}
}

func (l *WindowLimiter) deniedInfo(resetAt, now time.Time) Info {
	return Info{
		Limit:      l.maxPerKey,
		Remaining:  0,
		ResetAt:    resetAt,
		RetryAfter: resetAt.Sub(now),
	}
}
