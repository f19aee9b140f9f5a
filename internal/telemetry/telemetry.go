// Package telemetry sets up tracing, metrics and logging for the chat front end.
package telemetry

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const serviceName = "multimodal-chat"

// TelemetryConfig holds the configuration for tracing
type TelemetryConfig struct {
	Enabled        bool
	Endpoint       string // OTLP/HTTP endpoint URL; empty uses the exporter's default
	ServiceVersion string
}

// Provider owns the process's tracer provider. When telemetry is disabled the global no-op tracer stays in place.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// NewProvider creates a tracer provider exporting spans over OTLP/HTTP and installs it globally
func NewProvider(ctx context.Context, config TelemetryConfig, logger zerolog.Logger) (*Provider, error) {
	if !config.Enabled {
		logger.Debug().Msg("Telemetry disabled")
		return &Provider{}, nil
	}

	opts := []otlptracehttp.Option{}
	if config.Endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpointURL(config.Endpoint))
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", serviceName),
		attribute.String("service.version", config.ServiceVersion),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	logger.Info().Str("endpoint", config.Endpoint).Msg("Telemetry enabled")
	return &Provider{tp: tp}, nil
}

// Shutdown flushes pending spans and stops the exporter
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}
	if err := p.tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down tracer provider: %w", err)
	}
	return nil
}
