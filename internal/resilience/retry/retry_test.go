package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"syscall"
	"testing"
	"time"
)

func fastConfig() Config {
	return Config{
		MaxAttempts:   3,
		InitialDelay:  1 * time.Millisecond,
		BackoffFactor: 2.0,
		MaxDelay:      10 * time.Millisecond,
		JitterRatio:   0.25,
	}
}

func TestWithBackoff_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := WithBackoff(context.Background(), fastConfig(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWithBackoff_RecoversAfterTransientFailures(t *testing.T) {
	calls := 0
	err := WithBackoff(context.Background(), fastConfig(), func() error {
		calls++
		if calls < 3 {
			return &HTTPError{StatusCode: http.StatusServiceUnavailable}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithBackoff_ExhaustsAttempts(t *testing.T) {
	calls := 0
	transient := &HTTPError{StatusCode: http.StatusInternalServerError, Message: "boom"}
	err := WithBackoff(context.Background(), fastConfig(), func() error {
		calls++
		return transient
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if !errors.Is(err, transient) {
		t.Errorf("exhaustion error should wrap the last failure, got %v", err)
	}
}

func TestWithBackoff_PermanentErrorStopsImmediately(t *testing.T) {
	calls := 0
	permanent := &HTTPError{StatusCode: http.StatusNotFound}
	err := WithBackoff(context.Background(), fastConfig(), func() error {
		calls++
		return permanent
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (permanent errors consume no retries)", calls)
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusNotFound {
		t.Errorf("permanent error should be returned unwrapped, got %v", err)
	}
}

func TestWithBackoff_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := fastConfig()
	cfg.InitialDelay = 5 * time.Second // long enough that cancel wins

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- WithBackoff(ctx, cfg, func() error {
			calls++
			return &HTTPError{StatusCode: http.StatusBadGateway}
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1 (cancel should abort the backoff)", calls)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WithBackoff did not return after cancellation")
	}
}

func TestDelay_BoundedByJitterWindow(t *testing.T) {
	cfg := Config{
		InitialDelay:  1 * time.Second,
		BackoffFactor: 2.0,
		MaxDelay:      30 * time.Second,
		JitterRatio:   0.25,
	}

	for attempt := 1; attempt <= 6; attempt++ {
		base := float64(cfg.InitialDelay)
		for i := 1; i < attempt; i++ {
			base *= cfg.BackoffFactor
		}
		if base > float64(cfg.MaxDelay) {
			base = float64(cfg.MaxDelay)
		}
		lo := time.Duration(base * (1 - cfg.JitterRatio))
		hi := time.Duration(base * (1 + cfg.JitterRatio))

		for i := 0; i < 50; i++ {
			d := Delay(cfg, attempt)
			if d < lo || d > hi {
				t.Fatalf("attempt %d: delay %v outside [%v, %v]", attempt, d, lo, hi)
			}
		}
	}
}

func TestDelay_CappedAtMax(t *testing.T) {
	cfg := Config{
		InitialDelay:  1 * time.Second,
		BackoffFactor: 10.0,
		MaxDelay:      5 * time.Second,
		JitterRatio:   0,
	}
	if got := Delay(cfg, 4); got != 5*time.Second {
		t.Errorf("Delay(attempt=4) = %v, want capped 5s", got)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"http 500", &HTTPError{StatusCode: 500}, true},
		{"http 503", &HTTPError{StatusCode: 503}, true},
		{"http 429", &HTTPError{StatusCode: 429}, true},
		{"http 408", &HTTPError{StatusCode: 408}, true},
		{"http 400", &HTTPError{StatusCode: 400}, false},
		{"http 404", &HTTPError{StatusCode: 404}, false},
		{"wrapped http 502", fmt.Errorf("fetch: %w", &HTTPError{StatusCode: 502}), true},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"connection reset", syscall.ECONNRESET, true},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
