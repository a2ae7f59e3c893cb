package observability

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/signalatlas/pointfield/internal/logging"
)

const tracingShutdownTimeout = 5 * time.Second

// TracingConfig selects how selection-pipeline spans leave the process. The
// zero value disables tracing; defaults for the remaining fields are applied
// by NewTracing.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Exporter    string  // stdout (default) or otlp
	Endpoint    string  // OTLP collector address when Exporter is otlp
	SampleRatio float64 // (0, 1]; out-of-range values sample everything
}

// TracingConfigFromEnv reads the POINTFIELD_TRACING_* environment variables.
// Unset variables stay zero and pick up NewTracing's defaults.
func TracingConfigFromEnv() TracingConfig {
	ratio, _ := strconv.ParseFloat(os.Getenv("POINTFIELD_TRACING_SAMPLE_RATIO"), 64)
	return TracingConfig{
		Enabled:     strings.EqualFold(os.Getenv("POINTFIELD_TRACING_ENABLED"), "true"),
		ServiceName: os.Getenv("POINTFIELD_TRACING_SERVICE_NAME"),
		Exporter:    strings.ToLower(os.Getenv("POINTFIELD_TRACING_EXPORTER")),
		Endpoint:    os.Getenv("POINTFIELD_OTLP_ENDPOINT"),
		SampleRatio: ratio,
	}
}

// Tracing owns the process tracer provider. Close flushes buffered spans
// with a bounded timeout; a disabled Tracing closes instantly.
type Tracing struct {
	log      logging.Logger
	shutdown func(context.Context) error
}

// NewTracing installs the global tracer provider and propagators described
// by cfg. When disabled it installs a noop provider so instrumented code
// needs no guards.
func NewTracing(ctx context.Context, cfg TracingConfig, log logging.Logger) (*Tracing, error) {
	if log == nil {
		log = logging.Noop()
	}

	if !cfg.Enabled {
		otel.SetTracerProvider(trace.NewNoopTracerProvider())
		otel.SetTextMapPropagator(propagation.TraceContext{})
		log.Info(ctx, "tracing disabled; using noop tracer provider")
		return &Tracing{log: log}, nil
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = "pointfield-engine"
	}
	if cfg.SampleRatio <= 0 || cfg.SampleRatio > 1 {
		cfg.SampleRatio = 1
	}

	exp, err := cfg.exporter(ctx)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(
		ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.namespace", "pointfield"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	log.Info(ctx, "tracing enabled",
		logging.String("exporter", cfg.Exporter),
		logging.String("service_name", cfg.ServiceName),
		logging.Float64("sample_ratio", cfg.SampleRatio),
	)
	return &Tracing{log: log, shutdown: tp.Shutdown}, nil
}

func (cfg TracingConfig) exporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "", "stdout":
		return stdouttrace.New(
			stdouttrace.WithWriter(os.Stdout),
			stdouttrace.WithPrettyPrint(),
			stdouttrace.WithoutTimestamps(),
		)
	case "otlp", "otlpgrpc":
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = "localhost:4317"
		}
		client := otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
		return otlptrace.New(ctx, client)
	default:
		return nil, fmt.Errorf("unsupported tracing exporter: %s", cfg.Exporter)
	}
}

// Close flushes and shuts down the tracer provider, bounding the wait.
// Shutdown failures are logged, not returned; the daemon is exiting anyway.
func (t *Tracing) Close(ctx context.Context) {
	if t == nil || t.shutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, tracingShutdownTimeout)
	defer cancel()
	if err := t.shutdown(ctx); err != nil {
		t.log.Warn(ctx, "tracing shutdown failed", logging.String("error", err.Error()))
	}
}
