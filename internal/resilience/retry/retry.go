// Package retry provides retry with exponential backoff and jitter for
// transient failures of external calls.
//
// Delays grow geometrically from InitialDelay by BackoffFactor, are capped
// at MaxDelay, and are then spread by a symmetric jitter so that many
// clients recovering at once do not retry in lockstep. Permanent errors
// (client-side HTTP errors, context cancellation) are never retried.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net"
	"net/http"
	"syscall"
	"time"

	"finsight/pkg/config"
)

// Config holds retry tuning parameters.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// InitialDelay is the backoff before the first retry.
	InitialDelay time.Duration

	// BackoffFactor multiplies the delay after each failed attempt.
	BackoffFactor float64

	// MaxDelay caps the backoff delay before jitter is applied.
	MaxDelay time.Duration

	// JitterRatio spreads each delay uniformly over
	// [delay*(1-JitterRatio), delay*(1+JitterRatio)]. Zero disables jitter.
	JitterRatio float64
}

// DefaultConfig returns defaults suitable for most external HTTP APIs.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   3,
		InitialDelay:  1 * time.Second,
		BackoffFactor: 2.0,
		MaxDelay:      30 * time.Second,
		JitterRatio:   0.25,
	}
}

// AIAPIConfig returns retry settings for AI provider calls, which are
// slower and costlier per attempt than data fetches.
func AIAPIConfig() Config {
	return Config{
		MaxAttempts:   2,
		InitialDelay:  2 * time.Second,
		BackoffFactor: 2.0,
		MaxDelay:      10 * time.Second,
		JitterRatio:   0.25,
	}
}

// LoadConfig builds a Config from environment variables, falling back to
// DefaultConfig values:
//   - RETRY_MAX_ATTEMPTS: total attempts including the first
//   - RETRY_INITIAL_DELAY: backoff before the first retry (e.g. "1s")
//   - RETRY_BACKOFF_FACTOR: delay multiplier per attempt
//   - RETRY_MAX_DELAY: backoff cap (e.g. "30s")
//   - RETRY_JITTER_RATIO: jitter spread in [0, 1)
func LoadConfig() Config {
	def := DefaultConfig()
	return Config{
		MaxAttempts:   config.GetEnvInt("RETRY_MAX_ATTEMPTS", def.MaxAttempts),
		InitialDelay:  config.GetEnvDuration("RETRY_INITIAL_DELAY", def.InitialDelay),
		BackoffFactor: config.GetEnvFloat("RETRY_BACKOFF_FACTOR", def.BackoffFactor),
		MaxDelay:      config.GetEnvDuration("RETRY_MAX_DELAY", def.MaxDelay),
		JitterRatio:   config.GetEnvFloat("RETRY_JITTER_RATIO", def.JitterRatio),
	}
}

// HTTPError represents an HTTP error response from an external service.
// The status code drives retryability: server-side and throttling errors
// are transient, client-side errors are permanent.
type HTTPError struct {
	StatusCode int
	Message    string
}

// Error returns the formatted error message.
func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// WithBackoff executes operation, retrying transient failures with
// exponential backoff until it succeeds, a permanent error occurs, the
// context is cancelled, or MaxAttempts is exhausted.
//
// The returned error is nil on success, the operation's own error when it
// is permanent, ctx.Err() (wrapped) when the context ends first, and the
// last transient error (wrapped) when attempts run out.
func WithBackoff(ctx context.Context, cfg Config, operation func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("retry aborted: %w", err)
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				slog.Info("Operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		if !IsRetryable(lastErr) {
			slog.Debug("Operation failed with permanent error",
				"attempt", attempt,
				"error", lastErr,
			)
			return lastErr
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		delay := Delay(cfg, attempt)
		slog.Warn("Operation failed, retrying",
			"attempt", attempt,
			"max_attempts", cfg.MaxAttempts,
			"delay", delay.String(),
			"error", lastErr,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		case <-timer.C:
		}
	}

	return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, lastErr)
}

// Delay returns the jittered backoff delay after the given failed attempt
// (1-based). The base delay is InitialDelay * BackoffFactor^(attempt-1),
// capped at MaxDelay, then spread by JitterRatio.
func Delay(cfg Config, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	factor := cfg.BackoffFactor
	if factor < 1 {
		factor = 1
	}

	base := float64(cfg.InitialDelay) * math.Pow(factor, float64(attempt-1))
	if max := float64(cfg.MaxDelay); cfg.MaxDelay > 0 && base > max {
		base = max
	}

	if cfg.JitterRatio > 0 {
		// Uniform in [1-ratio, 1+ratio].
		base *= 1 + cfg.JitterRatio*(2*rand.Float64()-1)
	}
	if base < 0 {
		base = 0
	}
	return time.Duration(base)
}

// IsRetryable reports whether an error is transient and worth retrying.
//
// Retryable: HTTP 5xx, 429 and 408 responses, network timeouts, connection
// refused/reset. Permanent: other HTTP 4xx responses, context cancellation
// and deadline errors, and anything unrecognized.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode >= 500:
			return true
		case httpErr.StatusCode == http.StatusTooManyRequests:
			return true
		case httpErr.StatusCode == http.StatusRequestTimeout:
			return true
		default:
			return false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	return false
}
