// Package resilience and its subpackages provide fault-tolerance primitives
// for calls to external services: a circuit breaker (circuitbreaker), retry
// with exponential backoff and jitter (retry), a TTL-bounded fallback cache
// (fallback), and the guard composition that applies all three around a
// single call (guard).
//
// The intended layering for a protected call is:
//
//	Circuit Breaker -> Retry -> Fallback
//
// The breaker rejects calls to a known-bad dependency, the retry absorbs
// transient failures, and the fallback serves cached or default data when
// the call ultimately fails. guard.Guard wires the three together and
// reports outcomes to a monitoring observer.
package resilience

import "time"

// Clock provides an abstraction for time operations to enable testing.
//
// This interface allows for dependency injection of time functions,
// making it easy to test time-dependent behavior with fake clocks.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// SystemClock is a Clock implementation that uses the system time.
type SystemClock struct{}

// Now returns the current system time.
func (c *SystemClock) Now() time.Time {
	return time.Now()
}
