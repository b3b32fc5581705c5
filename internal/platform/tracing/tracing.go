// Package tracing installs the global OpenTelemetry tracer provider.
package tracing

import (
	"context"
	"io"
	"time"

	"spielapi/internal/platform/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
)

// Shutdown flushes and stops the provider.
type Shutdown func(context.Context) error

func noop(context.Context) error { return nil }

// Init exports spans as JSON to w. When enabled is false the global no-op
// provider stays in place.
func Init(ctx context.Context, enabled bool, serviceName string, w io.Writer, log *logger.Logger) (Shutdown, error) {
	if !enabled {
		return noop, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return noop, err
	}
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)))
	if err != nil {
		log.Warn("otel resource init failed (continuing)", "error", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	log.Info("otel tracing initialized", "service", serviceName)
	return tp.Shutdown, nil
}
