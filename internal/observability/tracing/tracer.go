// Package tracing provides OpenTelemetry tracing for HTTP requests and
// internal operations.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the global tracer instance for the application.
var tracer = otel.Tracer("finsight")

// GetTracer returns the global tracer for creating spans.
//
// Example usage:
//
//	ctx, span := tracing.GetTracer().Start(ctx, "operation-name")
//	defer span.End()
func GetTracer() trace.Tracer {
	return tracer
}

// Setup installs a tracer provider and W3C trace context propagation.
// Spans are kept in-process; an exporter can be attached per deployment.
// The returned shutdown function flushes the provider.
func Setup() func() {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	tracer = otel.Tracer("finsight")

	return func() {
		_ = tp.Shutdown(context.Background())
	}
}
