// Package tracing sets up an OpenTelemetry tracer provider that writes
// finished spans as JSON.
package tracing

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ServiceName identifies the viewer in exported spans.
const ServiceName = "wpilog"

// Provider is a tracer provider that must be shut down to flush its spans.
type Provider struct {
	*sdktrace.TracerProvider
}

// New creates a provider exporting spans to w.
func New(w io.Writer, version string) (*Provider, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			"",
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build trace resource: %w", err)
	}

	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	return &Provider{
		TracerProvider: sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		),
	}, nil
}

// Close flushes pending spans and stops the provider.
func (p *Provider) Close(ctx context.Context) error {
	if err := p.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down tracer provider: %w", err)
	}
	return nil
}
