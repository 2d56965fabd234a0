package llm

import (
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// consecutiveFailureLimit trips the provider breaker. AI APIs rate limit
// aggressively, so the breaker stays open for a full minute before probing.
const (
	consecutiveFailureLimit = 5
	breakerOpenTimeout      = 60 * time.Second
)

// newBreaker creates the circuit breaker protecting one AI provider.
func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailureLimit
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("AI provider circuit breaker state changed",
				"provider", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
}
