// Package apm wires OpenTelemetry tracing exporters and a thin span wrapper.
package apm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Tracer starts spans against the global tracer provider.
type Tracer interface {
	StartSpanFromContext(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span)
	SpanFromContext(ctx context.Context) Span
}

type otelTracer struct {
	tracer trace.Tracer
}

// NewTracer returns a tracer from the global provider. It delegates to a
// provider installed later, so it is safe to build before telemetry init.
func NewTracer(name string) Tracer {
	return otelTracer{tracer: otel.Tracer(name)}
}

func (t otelTracer) StartSpanFromContext(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name, opts...)
	return ctx, otelSpan{span: span}
}

func (t otelTracer) SpanFromContext(ctx context.Context) Span {
	return otelSpan{span: trace.SpanFromContext(ctx)}
}
