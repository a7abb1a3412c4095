package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Config holds configuration for the OTLP exporter
type Config struct {
	ServiceName string
	// Endpoint is the OTLP/HTTP collector endpoint (e.g. "localhost:4318"). Empty disables export.
	Endpoint string
	Insecure bool
	Timeout  time.Duration
}

// Setup installs a tracer provider and the W3C propagator. The returned function
// flushes and shuts the provider down.
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	opts := []sdktrace.TracerProviderOption{}

	if cfg.Endpoint != "" {
		exporter, err := newHTTPExporter(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	provider := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	SetTracer(provider.Tracer(cfg.ServiceName))

	return provider.Shutdown, nil
}

func newHTTPExporter(ctx context.Context, cfg Config) (*otlptrace.Exporter, error) {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, otlptracehttp.WithTimeout(cfg.Timeout))
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.New(ctx, opts...)
}
