// Package ratelimit provides in-process rate limiting for HTTP requests
// using a per-key admission window with an optional process-wide ceiling,
// and includes HTTP middleware that sets standard rate limit response
// headers.
//
// All state is local to the process. Running more than one replica behind
// a load balancer multiplies the effective limits by the replica count;
// a multi-instance deployment needs a shared store with atomic increments
// instead.
package ratelimit

import (
	"math"
	"time"
)

// Limiter defines the rate limiting contract. Implementations must be safe
// for concurrent use.
type Limiter interface {
	// Allow checks whether a request identified by key should be allowed.
	// Returns whether the request is allowed and rate information for
	// populating response headers.
	Allow(key string) (allowed bool, info Info)

	// Close releases any resources held by the limiter.
	Close()
}

// Info contains rate limit state for populating response headers.
type Info struct {
	Limit      int           // Maximum requests per window
	Remaining  int           // Admissions left in the current window
	ResetAt    time.Time     // When the window expires
	RetryAfter time.Duration // How long to wait (meaningful only when denied)
}

// RetryAfterSeconds returns RetryAfter rounded up to whole seconds, the
// granularity of the Retry-After header.
func (i Info) RetryAfterSeconds() int {
	return int(math.Ceil(i.RetryAfter.Seconds()))
}
