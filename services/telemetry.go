package services

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/CrowderSoup/taskflow-pro/config"
)

const tracerName = "taskflow"

// Telemetry owns the tracer provider. With no exporter configured the tracer
// is a no-op.
type Telemetry struct {
	Tracer   trace.Tracer
	shutdown func(context.Context) error
}

func InitTelemetry(ctx context.Context, cfg config.TelemetryConfig) (*Telemetry, error) {
	if cfg.Exporter == "" || cfg.Exporter == "none" {
		return &Telemetry{
			Tracer:   nooptrace.NewTracerProvider().Tracer(tracerName),
			shutdown: func(context.Context) error { return nil },
		}, nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName("taskflow-pro")))
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	var exporter sdktrace.SpanExporter
	switch cfg.Exporter {
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "otlp":
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = "localhost:4318"
		}
		exporter, err = otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(endpoint),
			otlptracehttp.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unknown exporter: %s (supported: stdout, otlp)", cfg.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("create exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return &Telemetry{
		Tracer:   tp.Tracer(tracerName),
		shutdown: tp.Shutdown,
	}, nil
}

// Shutdown flushes pending spans.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return t.shutdown(ctx)
}
