package metrics

import (
	"fmt"
	"strings"
)

// Exporter selects where trade metrics go.
type Exporter string

const (
	PrometheusExporter Exporter = "prometheus"
	OTLPExporter       Exporter = "otlp"
)

// ExporterConfig describes one metric reader.
type ExporterConfig struct {
	Exporter Exporter
	Endpoint string
	Headers  map[string]string
	Insecure bool
}

// Prometheus exposes metrics for scraping through the PrometheusServer.
func Prometheus() ExporterConfig {
	return ExporterConfig{Exporter: PrometheusExporter}
}

// OTLP pushes metrics to a gRPC collector. Plain http endpoints disable TLS.
func OTLP(endpoint string, headers map[string]string) ExporterConfig {
	return ExporterConfig{
		Exporter: OTLPExporter,
		Endpoint: endpoint,
		Headers:  headers,
		Insecure: strings.HasPrefix(endpoint, "http://"),
	}
}

// Honeycomb pushes to Honeycomb's OTLP endpoint, one dataset per service.
func Honeycomb(endpoint, apiKey, serviceName string) ExporterConfig {
	return OTLP(endpoint, map[string]string{
		"x-honeycomb-team":    apiKey,
		"x-honeycomb-dataset": serviceName + "_metrics",
	})
}

// ParseHeaders reads "k1=v1,k2=v2" as used by OTEL_EXPORTER_OTLP_HEADERS.
func ParseHeaders(s string) (map[string]string, error) {
	headers := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid otlp header %q, expected key=value", pair)
		}
		headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return headers, nil
}

// Config is assembled from Options by NewMetricProvider.
type Config struct {
	ServiceName string
	Exporters   []ExporterConfig
}

type Option func(*Config)

func WithServiceName(name string) Option {
	return func(c *Config) { c.ServiceName = name }
}

func WithExporter(e ExporterConfig) Option {
	return func(c *Config) { c.Exporters = append(c.Exporters, e) }
}

type serverConfig struct {
	port int
}

type ServerOption func(*serverConfig)

// WithPort sets the /metrics listener port.
func WithPort(port int) ServerOption {
	return func(c *serverConfig) { c.port = port }
}
