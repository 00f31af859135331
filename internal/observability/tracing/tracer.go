package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "bayarea-dashboard"

// GetTracer returns the application tracer from the global provider.
//
// The lookup is done on every call so a provider installed after package
// initialisation (for example by tests) is honoured.
func GetTracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// StartSourceSpan opens a span around a single upstream source fetch.
func StartSourceSpan(ctx context.Context, sourceID, label string) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "source "+sourceID,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("source.id", sourceID),
			attribute.String("source.label", label),
		),
	)
}

// EndSourceSpan records the outcome of a source fetch and ends the span.
func EndSourceSpan(span trace.Span, items int, viaFallback bool, err error) {
	span.SetAttributes(
		attribute.Int("source.items", items),
		attribute.Bool("source.via_fallback", viaFallback),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
