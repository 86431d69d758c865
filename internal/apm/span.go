package apm

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span is the slice of an otel span that handlers touch.
type Span interface {
	SetAttributes(kv ...attribute.KeyValue)
	NoticeError(err error)
	// TraceID is empty when the span is not sampled or not recording.
	TraceID() string
	End()
}

type otelSpan struct {
	span trace.Span
}

func (s otelSpan) SetAttributes(kv ...attribute.KeyValue) { s.span.SetAttributes(kv...) }

func (s otelSpan) End() { s.span.End() }

// NoticeError records err and marks the span failed.
func (s otelSpan) NoticeError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func (s otelSpan) TraceID() string {
	sc := s.span.SpanContext()
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
