package observability

import (
	"context"
	"testing"
)

func TestNewTracingDisabledClosesInstantly(t *testing.T) {
	tr, err := NewTracing(context.Background(), TracingConfig{}, nil)
	if err != nil {
		t.Fatalf("NewTracing disabled: %v", err)
	}

	// A disabled handle has nothing to flush; Close must return immediately
	// and tolerate repeated calls.
	tr.Close(context.Background())
	tr.Close(context.Background())
}

func TestNewTracingRejectsUnknownExporter(t *testing.T) {
	_, err := NewTracing(context.Background(), TracingConfig{
		Enabled:  true,
		Exporter: "carrier-pigeon",
	}, nil)
	if err == nil {
		t.Fatalf("NewTracing accepted an unknown exporter, want error")
	}
}

func TestTracingConfigFromEnv(t *testing.T) {
	t.Setenv("POINTFIELD_TRACING_ENABLED", "TRUE")
	t.Setenv("POINTFIELD_TRACING_EXPORTER", "OTLP")
	t.Setenv("POINTFIELD_TRACING_SERVICE_NAME", "mapd-test")
	t.Setenv("POINTFIELD_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("POINTFIELD_TRACING_SAMPLE_RATIO", "0.25")

	cfg := TracingConfigFromEnv()

	if !cfg.Enabled {
		t.Errorf("Enabled = false, want true")
	}
	if cfg.Exporter != "otlp" {
		t.Errorf("Exporter = %q, want %q", cfg.Exporter, "otlp")
	}
	if cfg.ServiceName != "mapd-test" {
		t.Errorf("ServiceName = %q, want %q", cfg.ServiceName, "mapd-test")
	}
	if cfg.Endpoint != "collector:4317" {
		t.Errorf("Endpoint = %q, want %q", cfg.Endpoint, "collector:4317")
	}
	if cfg.SampleRatio != 0.25 {
		t.Errorf("SampleRatio = %v, want 0.25", cfg.SampleRatio)
	}
}
