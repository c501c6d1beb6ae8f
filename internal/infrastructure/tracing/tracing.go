package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

const ServiceName = "storefront-service"

// InitTracing exports spans to collectorHost when set; otherwise spans are
// recorded by a provider with no exporter.
func InitTracing(collectorHost string) (*trace.TracerProvider, error) {
	opts := []trace.TracerProviderOption{
		trace.WithResource(
			resource.NewWithAttributes(
				semconv.SchemaURL,
				semconv.ServiceNameKey.String(ServiceName),
			),
		),
	}

	if collectorHost != "" {
		exporter, err := otlptrace.New(
			context.Background(),
			otlptracehttp.NewClient(
				otlptracehttp.WithEndpoint(fmt.Sprintf("%s:4318", collectorHost)),
				otlptracehttp.WithInsecure(),
			),
		)
		if err != nil {
			return nil, fmt.Errorf("creating OTLP trace exporter: %w", err)
		}
		opts = append(opts, trace.WithBatcher(exporter))
	}

	tracerProvider := trace.NewTracerProvider(opts...)

	otel.SetTracerProvider(tracerProvider)

	return tracerProvider, nil
}
