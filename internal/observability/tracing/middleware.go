package tracing

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// Middleware traces each HTTP request. Incoming W3C trace context is
// honored, a server span is opened per request, and the trace ID is
// echoed in the X-Trace-Id response header for client-side correlation.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(
			r.Context(),
			propagation.HeaderCarrier(r.Header),
		)

		ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
		)
		defer span.End()

		w.Header().Set("X-Trace-Id", span.SpanContext().TraceID().String())

		sr := newStatusRecorder(w)
		next.ServeHTTP(sr, r.WithContext(ctx))

		span.SetAttributes(
			attribute.Int("http.status_code", sr.status),
			attribute.String("http.method", r.Method),
			attribute.String("http.path", r.URL.Path),
		)
		if sr.status >= 500 {
			span.SetAttributes(attribute.Bool("error", true))
		}
	})
}
