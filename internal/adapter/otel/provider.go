package otel

import (
	"context"
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Telemetry exporters selectable through OTEL_EXPORTER.
const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
	ExporterNone   = "none"
)

// Config selects where rentiq sends its traces and metrics.
type Config struct {
	ServiceName    string `env:"OTEL_SERVICE_NAME" envDefault:"rentiq"`
	ServiceVersion string `env:"OTEL_SERVICE_VERSION" envDefault:"0.1.0"`
	Environment    string `env:"OTEL_ENVIRONMENT" envDefault:"development"`
	Exporter       string `env:"OTEL_EXPORTER" envDefault:"stdout"`
	Insecure       bool   `env:"OTEL_INSECURE"` // plain HTTP to the OTLP collector, forced on in development
}

// ConfigFromEnv reads Config from OTEL_* variables.
func ConfigFromEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parsing telemetry config: %w", err)
	}
	if cfg.Environment == "development" {
		cfg.Insecure = true
	}
	return cfg, nil
}

// Providers owns the global tracer and meter providers.
type Providers struct {
	tracer *trace.TracerProvider
	meter  *metric.MeterProvider
}

// Shutdown flushes buffered spans and metrics.
func (p *Providers) Shutdown(ctx context.Context) error {
	return errors.Join(p.tracer.Shutdown(ctx), p.meter.Shutdown(ctx))
}

// Setup installs global providers for cfg. Callers must Shutdown the result
// before exiting or the last batch of spans is lost.
func Setup(ctx context.Context, cfg Config) (*Providers, error) {
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("building telemetry resource: %w", err)
	}

	spans, metrics, err := newExporters(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating %s exporters: %w", cfg.Exporter, err)
	}

	traceOpts := []trace.TracerProviderOption{trace.WithResource(res)}
	if spans != nil {
		traceOpts = append(traceOpts, trace.WithBatcher(spans))
	}
	meterOpts := []metric.Option{metric.WithResource(res)}
	if metrics != nil {
		meterOpts = append(meterOpts, metric.WithReader(metric.NewPeriodicReader(metrics)))
	}

	p := &Providers{
		tracer: trace.NewTracerProvider(traceOpts...),
		meter:  metric.NewMeterProvider(meterOpts...),
	}
	otel.SetTracerProvider(p.tracer)
	otel.SetMeterProvider(p.meter)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return p, nil
}

// newExporters returns nil exporters for ExporterNone, leaving the providers
// without processors.
func newExporters(ctx context.Context, cfg Config) (trace.SpanExporter, metric.Exporter, error) {
	switch cfg.Exporter {
	case ExporterNone:
		return nil, nil, nil
	case ExporterStdout:
		spans, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, nil, err
		}
		metrics, err := stdoutmetric.New()
		if err != nil {
			return nil, nil, err
		}
		return spans, metrics, nil
	case ExporterOTLP:
		var traceOpts []otlptracehttp.Option
		var metricOpts []otlpmetrichttp.Option
		if cfg.Insecure {
			traceOpts = append(traceOpts, otlptracehttp.WithInsecure())
			metricOpts = append(metricOpts, otlpmetrichttp.WithInsecure())
		}
		spans, err := otlptracehttp.New(ctx, traceOpts...)
		if err != nil {
			return nil, nil, err
		}
		metrics, err := otlpmetrichttp.New(ctx, metricOpts...)
		if err != nil {
			return nil, nil, err
		}
		return spans, metrics, nil
	default:
		return nil, nil, fmt.Errorf("unsupported exporter %q (want %s, %s or %s)",
			cfg.Exporter, ExporterStdout, ExporterOTLP, ExporterNone)
	}
}
