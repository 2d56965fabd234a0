package logging

import (
	"context"
	"log/slog"
	"testing"

	"finsight/internal/handler/http/requestid"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.raw); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestWithRequestID_NoIDReturnsSameLogger(t *testing.T) {
	logger := slog.Default()
	if got := WithRequestID(context.Background(), logger); got != logger {
		t.Error("expected the original logger when the context has no request ID")
	}
}

func TestWithRequestID_AttachesID(t *testing.T) {
	ctx := requestid.WithRequestID(context.Background(), "req-123")
	logger := slog.Default()
	if got := WithRequestID(ctx, logger); got == logger {
		t.Error("expected a derived logger carrying the request ID")
	}
}

func TestLoggerContext(t *testing.T) {
	logger := NewTextLogger()
	ctx := WithLogger(context.Background(), logger)

	if got := FromContext(ctx); got != logger {
		t.Error("FromContext should return the attached logger")
	}
	if got := FromContext(context.Background()); got != slog.Default() {
		t.Error("FromContext should fall back to the default logger")
	}
}
