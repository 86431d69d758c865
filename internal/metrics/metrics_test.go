package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestNewMetricProvider_Prometheus(t *testing.T) {
	prev := otel.GetMeterProvider()
	defer otel.SetMeterProvider(prev)

	mp, err := NewMetricProvider(
		WithServiceName("artcoin-trader"),
		WithExporter(Prometheus()),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer mp.Shutdown(context.Background())

	counter, err := otel.Meter("trading").Int64Counter("trades_total")
	if err != nil {
		t.Fatalf("counter on the global meter: %v", err)
	}
	counter.Add(context.Background(), 1)
}

func TestNewMetricProvider_UnknownExporter(t *testing.T) {
	if _, err := NewMetricProvider(WithExporter(ExporterConfig{Exporter: "statsd"})); err == nil {
		t.Error("expected an error for an unknown exporter")
	}
}

func TestExporterConfigs(t *testing.T) {
	hc := Honeycomb("https://api.honeycomb.io:443", "key", "artcoin-trader")
	if hc.Exporter != OTLPExporter || hc.Insecure {
		t.Errorf("unexpected honeycomb config %+v", hc)
	}
	if hc.Headers["x-honeycomb-dataset"] != "artcoin-trader_metrics" || hc.Headers["x-honeycomb-team"] != "key" {
		t.Errorf("unexpected honeycomb headers %v", hc.Headers)
	}

	if local := OTLP("http://localhost:4317", nil); !local.Insecure {
		t.Error("plain http collector should be insecure")
	}
}

func TestParseHeaders(t *testing.T) {
	tests := []struct {
		in      string
		want    map[string]string
		wantErr bool
	}{
		{"", map[string]string{}, false},
		{"x-honeycomb-team=abc", map[string]string{"x-honeycomb-team": "abc"}, false},
		{"a=1, b=2", map[string]string{"a": "1", "b": "2"}, false},
		{"novalue", nil, true},
		{"=1", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHeaders(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s: expected %q, got %q", k, v, got[k])
				}
			}
		})
	}
}

func TestWithPort(t *testing.T) {
	var cfg serverConfig
	WithPort(9090)(&cfg)
	if cfg.port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.port)
	}
}
