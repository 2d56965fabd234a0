// Package circuitbreaker implements a three-state circuit breaker that
// protects callers from repeatedly hitting a failing dependency.
//
// The breaker starts CLOSED and passes calls through. After a configurable
// number of consecutive failures it trips to OPEN and rejects calls
// immediately. Once the recovery timeout elapses it moves to HALF_OPEN and
// admits a single trial call at a time; enough consecutive trial successes
// close the breaker again, while any trial failure reopens it.
package circuitbreaker

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"finsight/internal/resilience"
	"finsight/pkg/config"
)

// ErrOpenState is returned when a call is rejected because the breaker
// is open. Callers can use errors.Is to distinguish breaker rejections
// from failures of the underlying operation.
var ErrOpenState = errors.New("circuit breaker is open")

// State represents the current state of the circuit breaker.
type State int

// Circuit breaker states.
const (
	// StateClosed allows all requests through (normal operation).
	StateClosed State = iota
	// StateOpen rejects all requests immediately.
	StateOpen
	// StateHalfOpen allows one trial request at a time to probe recovery.
	StateHalfOpen
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Config holds circuit breaker tuning parameters.
type Config struct {
	// Name identifies the protected dependency in logs and metrics.
	Name string

	// FailureThreshold is the number of consecutive failures that trips
	// the breaker from closed to open.
	FailureThreshold int

	// RecoveryTimeout is how long the breaker stays open before admitting
	// a trial call.
	RecoveryTimeout time.Duration

	// SuccessThreshold is the number of consecutive half-open successes
	// required to close the breaker again.
	SuccessThreshold int

	// Clock is the time source. Defaults to the system clock.
	Clock resilience.Clock
}

// DefaultConfig returns conservative defaults suitable for most
// external dependencies.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		FailureThreshold: 3,
		RecoveryTimeout:  30 * time.Second,
		SuccessThreshold: 3,
	}
}

// LoadConfig builds a Config for the named dependency from environment
// variables, falling back to DefaultConfig values:
//   - CB_FAILURE_THRESHOLD: consecutive failures before opening
//   - CB_RECOVERY_TIMEOUT: open duration before a trial call (e.g. "30s")
//   - CB_SUCCESS_THRESHOLD: half-open successes before closing
func LoadConfig(name string) Config {
	def := DefaultConfig(name)
	return Config{
		Name:             name,
		FailureThreshold: config.GetEnvInt("CB_FAILURE_THRESHOLD", def.FailureThreshold),
		RecoveryTimeout:  config.GetEnvDuration("CB_RECOVERY_TIMEOUT", def.RecoveryTimeout),
		SuccessThreshold: config.GetEnvInt("CB_SUCCESS_THRESHOLD", def.SuccessThreshold),
	}
}

// Stats is a point-in-time snapshot of breaker counters, used by the
// monitoring layer and health endpoints.
type Stats struct {
	Name                 string    `json:"name"`
	State                string    `json:"state"`
	ConsecutiveFailures  int       `json:"consecutive_failures"`
	ConsecutiveSuccesses int       `json:"consecutive_successes"`
	TotalCalls           uint64    `json:"total_calls"`
	SuccessfulCalls      uint64    `json:"successful_calls"`
	FailedCalls          uint64    `json:"failed_calls"`
	RejectedCalls        uint64    `json:"rejected_calls"`
	LastFailureAt        time.Time `json:"last_failure_at,omitempty"`
	LastStateChangeAt    time.Time `json:"last_state_change_at,omitempty"`
}

// CircuitBreaker is a mutex-guarded three-state breaker. All methods are
// safe for concurrent use.
type CircuitBreaker struct {
	cfg   Config
	clock resilience.Clock

	mu sync.Mutex

	state         State
	failures      int // consecutive failures while closed
	successes     int // consecutive successes while half-open
	openedAt      time.Time
	trialInFlight bool // a half-open probe has been admitted and not yet resolved

	totalCalls      uint64
	successfulCalls uint64
	failedCalls     uint64
	rejectedCalls   uint64
	lastFailureAt   time.Time
	lastChangeAt    time.Time
}

// New creates a circuit breaker with the given configuration. Zero or
// negative thresholds and timeouts are replaced by defaults.
func New(cfg Config) *CircuitBreaker {
	def := DefaultConfig(cfg.Name)
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = def.RecoveryTimeout
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	clock := cfg.Clock
	if clock == nil {
		clock = &resilience.SystemClock{}
	}
	return &CircuitBreaker{
		cfg:   cfg,
		clock: clock,
		state: StateClosed,
	}
}

// Name returns the breaker's dependency name.
func (cb *CircuitBreaker) Name() string {
	return cb.cfg.Name
}

// Allow reports whether a call may proceed. A true result must be paired
// with exactly one later RecordSuccess or RecordFailure call.
//
// While open, Allow returns false until the recovery timeout has elapsed;
// the first call after that transitions the breaker to half-open and is
// admitted as the trial. While a half-open trial is in flight, concurrent
// callers are rejected.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true

	case StateOpen:
		if cb.clock.Now().Sub(cb.openedAt) < cb.cfg.RecoveryTimeout {
			cb.rejectedCalls++
			return false
		}
		cb.transition(StateHalfOpen)
		cb.successes = 0
		cb.trialInFlight = true
		return true

	case StateHalfOpen:
		if cb.trialInFlight {
			cb.rejectedCalls++
			return false
		}
		cb.trialInFlight = true
		return true

	default:
		cb.rejectedCalls++
		return false
	}
}

// RecordSuccess records a successful call outcome.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.totalCalls++
	cb.successfulCalls++
	cb.trialInFlight = false

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.cfg.SuccessThreshold {
			cb.transition(StateClosed)
			cb.failures = 0
			cb.successes = 0
		}
	case StateOpen:
		// Late completion from a call admitted before the breaker
		// opened. The outcome is counted but does not change state.
	}
}

// RecordFailure records a failed call outcome.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.totalCalls++
	cb.failedCalls++
	cb.lastFailureAt = cb.clock.Now()
	cb.trialInFlight = false

	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.open()
		}
	case StateHalfOpen:
		// A single failed trial reopens the breaker.
		cb.open()
	case StateOpen:
		// Late completion; already open.
	}
}

// State returns the breaker's current state without side effects.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Stats returns a snapshot of the breaker's counters.
func (cb *CircuitBreaker) Stats() Stats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return Stats{
		Name:                 cb.cfg.Name,
		State:                cb.state.String(),
		ConsecutiveFailures:  cb.failures,
		ConsecutiveSuccesses: cb.successes,
		TotalCalls:           cb.totalCalls,
		SuccessfulCalls:      cb.successfulCalls,
		FailedCalls:          cb.failedCalls,
		RejectedCalls:        cb.rejectedCalls,
		LastFailureAt:        cb.lastFailureAt,
		LastStateChangeAt:    cb.lastChangeAt,
	}
}

// Reset forces the breaker back to closed and clears consecutive counters.
// Intended for operational use and tests; cumulative counters are kept.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateClosed {
		cb.transition(StateClosed)
	}
	cb.failures = 0
	cb.successes = 0
	cb.trialInFlight = false
}

// open transitions to the open state. Caller must hold cb.mu.
func (cb *CircuitBreaker) open() {
	cb.transition(StateOpen)
	cb.openedAt = cb.clock.Now()
	cb.failures = 0
	cb.successes = 0
}

// transition records a state change. Caller must hold cb.mu.
func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	cb.state = to
	cb.lastChangeAt = cb.clock.Now()

	if to == StateOpen {
		slog.Warn("Circuit breaker opened",
			"name", cb.cfg.Name,
			"from", from.String(),
			"consecutive_failures", cb.cfg.FailureThreshold,
			"recovery_timeout", cb.cfg.RecoveryTimeout.String(),
		)
		return
	}
	slog.Info("Circuit breaker state changed",
		"name", cb.cfg.Name,
		"from", from.String(),
		"to", to.String(),
	)
}
