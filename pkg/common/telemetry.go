package common

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const defaultZipkinURL = "http://localhost:9411/api/v2/spans"

// NewTracerProvider creates a tracer provider exporting spans to Zipkin.
// The collector URL comes from ZIPKIN_URL; spans are batched and tagged
// with the service name, environment and instance id.
func NewTracerProvider(serviceName, environment string, id int64) (*sdktrace.TracerProvider, error) {
	url := GetEnv("ZIPKIN_URL", defaultZipkinURL)

	exporter, err := zipkin.New(url)
	if err != nil {
		return nil, fmt.Errorf("failed to create zipkin exporter: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			attribute.String("environment", environment),
			attribute.Int64("ID", id),
		)),
	), nil
}
