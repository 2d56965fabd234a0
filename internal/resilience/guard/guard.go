// Package guard composes a circuit breaker, retry with backoff, and a
// fallback cache into a single protected call around an external
// dependency. One Guard instance is shared per dependency by all callers.
package guard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finsight/internal/resilience/circuitbreaker"
	"finsight/internal/resilience/fallback"
	"finsight/internal/resilience/retry"
)

// Source identifies where a guarded result came from.
type Source int

const (
	// SourceFresh means the underlying call succeeded.
	SourceFresh Source = iota
	// SourceStaleCache means the call failed and a cached value within
	// its TTL was served instead.
	SourceStaleCache
	// SourceDefault means the call failed and no usable cache entry
	// existed, so the configured default value was served.
	SourceDefault
)

// String returns a label suitable for logs and API responses.
func (s Source) String() string {
	switch s {
	case SourceFresh:
		return "fresh"
	case SourceStaleCache:
		return "stale-cache"
	case SourceDefault:
		return "default"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Result carries a guarded call's value together with its provenance.
// Cause is nil for fresh results; for degraded results it is the error
// that forced the fallback, with circuitbreaker.ErrOpenState identifiable
// via errors.Is when the breaker rejected the call outright.
type Result[T any] struct {
	Value  T
	Source Source
	Cause  error
}

// Degraded reports whether the value did not come from a live call.
func (r Result[T]) Degraded() bool {
	return r.Source != SourceFresh
}

// Observer receives the outcome of every guarded call. Implementations
// must be safe for concurrent use. The monitoring layer implements this.
type Observer interface {
	// RecordRequest records one logical call with its outcome and latency.
	RecordRequest(component string, success bool, latency time.Duration)

	// UpdateHealth reports the component's current health status.
	UpdateHealth(component, status, message string)
}

// Health status labels reported to the Observer.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Config assembles a Guard. Breaker is required; the other collaborators
// are optional.
type Config[T any] struct {
	// Name identifies the protected dependency in logs and monitoring.
	Name string

	// Breaker is the shared circuit breaker for this dependency.
	Breaker *circuitbreaker.CircuitBreaker

	// Retry configures backoff for the inner attempts.
	Retry retry.Config

	// Cache serves last known good values on failure. Nil disables
	// cache-based fallback.
	Cache *fallback.Cache[T]

	// Default produces the static fallback value when no cache entry is
	// servable. Nil means failures without a cache hit propagate as errors.
	Default func() T

	// Observer is notified of every call outcome. Nil disables reporting.
	Observer Observer
}

// Guard wraps one external dependency with the breaker/retry/fallback
// stack. Guards are safe for concurrent use and nestable: a guarded
// operation may itself invoke another Guard.
type Guard[T any] struct {
	cfg Config[T]
}

// New creates a Guard. It panics if no breaker is supplied, since a guard
// without breaker accounting would silently drop the core protection.
func New[T any](cfg Config[T]) *Guard[T] {
	if cfg.Breaker == nil {
		panic("guard: Config.Breaker is required")
	}
	if cfg.Name == "" {
		cfg.Name = cfg.Breaker.Name()
	}
	return &Guard[T]{cfg: cfg}
}

// Do executes operation under the full protection stack.
//
// When the breaker is open the operation is not invoked at all and a
// fallback is served. Otherwise the operation runs under retry; a final
// success is cached and returned fresh, a final failure is recorded
// against the breaker once for the whole retry sequence and a fallback
// is served.
//
// The error is non-nil only when the call failed and no fallback was
// available (fallback disabled, no cache entry, no default).
func (g *Guard[T]) Do(ctx context.Context, key string, operation func(context.Context) (T, error)) (Result[T], error) {
	start := time.Now()

	if !g.cfg.Breaker.Allow() {
		g.report(false, time.Since(start), StatusUnhealthy, "circuit breaker open, failing fast")
		return g.degrade(key, fmt.Errorf("%s: %w", g.cfg.Name, circuitbreaker.ErrOpenState))
	}

	var value T
	err := retry.WithBackoff(ctx, g.cfg.Retry, func() error {
		v, opErr := operation(ctx)
		if opErr != nil {
			return opErr
		}
		value = v
		return nil
	})
	latency := time.Since(start)

	if err == nil {
		g.cfg.Breaker.RecordSuccess()
		if g.cfg.Cache != nil {
			g.cfg.Cache.Store(key, value)
		}
		g.report(true, latency, StatusHealthy, "")
		return Result[T]{Value: value, Source: SourceFresh}, nil
	}

	g.cfg.Breaker.RecordFailure()
	g.report(false, latency, StatusDegraded, err.Error())
	return g.degrade(key, err)
}

// degrade serves a stale or default value for a failed call.
func (g *Guard[T]) degrade(key string, cause error) (Result[T], error) {
	if g.cfg.Cache != nil {
		if v, ok := g.cfg.Cache.Get(key); ok {
			slog.Info("Serving stale cached value",
				"dependency", g.cfg.Name,
				"key", key,
				"cause", cause,
			)
			return Result[T]{Value: v, Source: SourceStaleCache, Cause: cause}, nil
		}
	}
	if g.cfg.Default != nil {
		slog.Warn("Serving default fallback value",
			"dependency", g.cfg.Name,
			"key", key,
			"cause", cause,
		)
		return Result[T]{Value: g.cfg.Default(), Source: SourceDefault, Cause: cause}, nil
	}

	var zero T
	return Result[T]{Value: zero, Source: SourceDefault, Cause: cause}, cause
}

func (g *Guard[T]) report(success bool, latency time.Duration, status, message string) {
	if g.cfg.Observer == nil {
		return
	}
	g.cfg.Observer.RecordRequest(g.cfg.Name, success, latency)
	g.cfg.Observer.UpdateHealth(g.cfg.Name, status, message)
}
