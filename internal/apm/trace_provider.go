package apm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/fd1az/artcoin-trader/internal/logger"
)

type Provider string

const (
	NewRelicProvider  Provider = "NEWRELIC_PROVIDER"
	ZipkinProvider    Provider = "ZIPKIN_PROVIDER"
	HoneycombProvider Provider = "HONEYCOMB_PROVIDER"
	ConsoleProvider   Provider = "CONSOLE_PROVIDER"
	EmptyProvider     Provider = "EMPTY_PROVIDER"
)

// TraceConfig carries exporter settings from the telemetry config section.
type TraceConfig struct {
	ServiceName string
	Endpoint    string
	// Headers is "key=value". NewRelic takes the bare license key.
	Headers string
	// Protocol selects "http/protobuf" for OTLP over HTTP, gRPC otherwise.
	Protocol string
}

type TraceProvider interface {
	Stop() error
}

type emptyTraceProvider struct{}

func (emptyTraceProvider) Stop() error { return nil }

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

// NewTraceProvider installs the global tracer provider for the selected
// exporter. Unknown providers fall back to a no-op.
func NewTraceProvider(provider Provider, cfg TraceConfig, log logger.LoggerInterface) (TraceProvider, error) {
	exp, err := newExporter(provider, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("init %s exporter: %w", provider, err)
	}
	if exp == nil {
		return emptyTraceProvider{}, nil
	}

	rsrc, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.ServiceName),
			attribute.String("otel.provider", string(provider)),
		))
	if err != nil {
		rsrc = resource.Default()
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(rsrc),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

	return &traceProvider{tp}, nil
}

func newExporter(provider Provider, cfg TraceConfig, log logger.LoggerInterface) (sdktrace.SpanExporter, error) {
	ctx := context.Background()

	switch provider {
	case ConsoleProvider:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())

	case ZipkinProvider:
		return zipkin.New(cfg.Endpoint)

	case NewRelicProvider:
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
			otlptracegrpc.WithHeaders(map[string]string{"api-key": cfg.Headers}),
		)

	case HoneycombProvider:
		key, value, ok := strings.Cut(cfg.Headers, "=")
		if !ok {
			return nil, fmt.Errorf("invalid otlp headers %q, expected key=value", cfg.Headers)
		}
		headers := map[string]string{key: value}

		if cfg.Protocol == "http/protobuf" {
			log.Info(ctx, "initializing honeycomb with HTTP exporter", "endpoint", cfg.Endpoint)
			return otlptracehttp.New(ctx,
				otlptracehttp.WithEndpointURL(cfg.Endpoint),
				otlptracehttp.WithHeaders(headers),
			)
		}

		log.Info(ctx, "initializing honeycomb with gRPC exporter", "endpoint", cfg.Endpoint)
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpointURL(cfg.Endpoint),
			otlptracegrpc.WithHeaders(headers),
		)

	case EmptyProvider:
		return nil, nil
	}

	log.Warn(ctx, "trace provider not found, using empty provider", "provider", provider)
	return nil, nil
}

func (o *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return o.tp.Shutdown(ctx)
}
