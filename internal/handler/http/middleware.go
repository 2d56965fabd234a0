// Package http provides the HTTP handlers and middleware for the API:
// question answering, per-stock market data, system health and active
// alerts.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"finsight/internal/handler/http/requestid"
	"finsight/internal/handler/http/respond"
	"finsight/internal/handler/http/responsewriter"
	"finsight/internal/observability/logging"
)

// Middleware transforms an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares to a handler, outermost first.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Logging returns middleware that logs each request with structured
// fields, including the request ID and the OpenTelemetry trace ID so log
// entries can be correlated with traces. A request-scoped logger is
// attached to the context for handlers to pick up via logging.FromContext.
func Logging(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			scoped := logging.WithRequestID(r.Context(), logger)
			r = r.WithContext(logging.WithLogger(r.Context(), scoped))

			wrapped := responsewriter.Wrap(w)
			next.ServeHTTP(wrapped, r)

			reqID := requestid.FromContext(r.Context())
			span := trace.SpanFromContext(r.Context())
			duration := time.Since(start)

			logger.Info("request completed",
				slog.String("request_id", reqID),
				slog.String("trace_id", span.SpanContext().TraceID().String()),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
				slog.Int("status", wrapped.StatusCode()),
				slog.Int("bytes", wrapped.BytesWritten()),
				slog.Duration("duration", duration),
			)
		})
	}
}

// Recover returns middleware that catches panics, logs them with the
// stack trace and returns a 500 response instead of crashing the server.
func Recover(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					respond.JSON(w, http.StatusInternalServerError,
						map[string]string{"error": "internal server error"})

					logger.Error("panic recovered",
						slog.String("request_id", requestid.FromContext(r.Context())),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.Any("panic", rec),
						slog.String("stack", string(debug.Stack())),
					)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// LimitRequestBody returns middleware that caps request body size.
func LimitRequestBody(maxBytes int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// Timeout returns middleware that enforces a per-request deadline. A
// request exceeding it gets 504 Gateway Timeout; the handler's context is
// canceled so downstream work stops. A mutex guards the response writer
// so only one side writes.
func Timeout(duration time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), duration)
			defer cancel()
			r = r.WithContext(ctx)

			done := make(chan struct{})
			var mu sync.Mutex
			timedOut := false

			wrapped := &timeoutResponseWriter{
				ResponseWriter: w,
				mu:             &mu,
				timedOut:       &timedOut,
			}

			go func() {
				next.ServeHTTP(wrapped, r)
				close(done)
			}()

			select {
			case <-done:
			case <-ctx.Done():
				mu.Lock()
				timedOut = true
				if !wrapped.written {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusGatewayTimeout)
					_, _ = fmt.Fprint(w, `{"error":"request timeout"}`)
				}
				mu.Unlock()
			}
		})
	}
}

// timeoutResponseWriter suppresses writes after the deadline fired.
type timeoutResponseWriter struct {
	http.ResponseWriter
	mu       *sync.Mutex
	timedOut *bool
	written  bool
}

func (w *timeoutResponseWriter) WriteHeader(statusCode int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !*w.timedOut && !w.written {
		w.written = true
		w.ResponseWriter.WriteHeader(statusCode)
	}
}

func (w *timeoutResponseWriter) Write(data []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if *w.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	if !w.written {
		w.written = true
		w.ResponseWriter.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(data)
}
