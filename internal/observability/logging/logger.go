// Package logging provides structured logging utilities using the standard
// library's log/slog package, with helpers for request-scoped loggers and
// context propagation.
package logging

import (
	"context"
	"log/slog"
	"os"

	"finsight/internal/handler/http/requestid"
)

// NewLogger creates a structured logger with JSON output.
// The log level is controlled via the LOG_LEVEL environment variable
// (debug, info, warn, error; default info).
func NewLogger() *slog.Logger {
	logLevel := parseLevel(os.Getenv("LOG_LEVEL"))

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: logLevel <= slog.LevelWarn,
	})
	return slog.New(handler)
}

// NewTextLogger creates a structured logger with human-readable text
// output, for local development.
func NewTextLogger() *slog.Logger {
	logLevel := parseLevel(os.Getenv("LOG_LEVEL"))

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: logLevel <= slog.LevelWarn,
	})
	return slog.New(handler)
}

func parseLevel(raw string) slog.Level {
	switch raw {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRequestID returns a logger that includes the request ID from the
// context, enabling correlation across log entries of one request.
func WithRequestID(ctx context.Context, logger *slog.Logger) *slog.Logger {
	reqID := requestid.FromContext(ctx)
	if reqID == "" {
		return logger
	}
	return logger.With("request_id", reqID)
}

// FromContext retrieves the logger from the context, or the default
// logger if none was attached.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

type contextKey string

const loggerContextKey contextKey = "logger"
