// Package telemetry wires OpenTelemetry tracing and metrics for the
// Demiurge RPC client. Exporters go to an OTLP collector over gRPC, or
// to a writer in debug mode.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const scopeName = "github.com/ALaustrup/demiurge"

// Telemetry holds the OpenTelemetry components for the RPC client.
type Telemetry struct {
	enabled      bool
	tp           *sdktrace.TracerProvider
	mp           *sdkmetric.MeterProvider
	tracer       trace.Tracer
	meter        metric.Meter
	callDuration metric.Float64Histogram
	errorCounter metric.Int64Counter
}

// Config holds configuration for telemetry setup.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string

	TraceWriter  io.Writer
	MetricWriter io.Writer
	Debug        bool
	Enabled      bool
}

// New creates a Telemetry instance. With cfg.Enabled false it behaves
// like NewNoop.
func New(ctx context.Context, cfg Config) (*Telemetry, error) {
	if !cfg.Enabled {
		return NewNoop()
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if cfg.TraceWriter == nil {
		cfg.TraceWriter = os.Stdout
	}
	if cfg.MetricWriter == nil {
		cfg.MetricWriter = os.Stdout
	}

	tp, err := newTracerProvider(ctx, cfg, res)
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	mp, err := newMeterProvider(ctx, cfg, res)
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(mp)

	return newTelemetry(true, tp, mp)
}

// NewFromEnv builds telemetry from process environment:
// OTEL_ENABLED turns it on, OTEL_DEBUG switches to stdout exporters,
// OTEL_EXPORTER_OTLP_ENDPOINT points at the collector and
// DEMIURGE_ENVIRONMENT names the deployment environment.
func NewFromEnv(ctx context.Context, serviceName, serviceVersion string) (*Telemetry, error) {
	enabled := os.Getenv("OTEL_ENABLED") == "true"
	if !enabled {
		return NewNoop()
	}

	environment := os.Getenv("DEMIURGE_ENVIRONMENT")
	if environment == "" {
		environment = "development"
	}

	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:4317"
	}

	return New(ctx, Config{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Environment:    environment,
		OTLPEndpoint:   endpoint,
		Debug:          os.Getenv("OTEL_DEBUG") == "true",
		Enabled:        true,
	})
}

// NewNoop creates a Telemetry instance that records nothing. It keeps
// the call sites branch-free.
func NewNoop() (*Telemetry, error) {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName("noop"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.NeverSample()),
	)

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
	)

	return newTelemetry(false, tp, mp)
}

func newTracerProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	var exporter sdktrace.SpanExporter
	var err error
	if cfg.Debug {
		exporter, err = stdouttrace.New(
			stdouttrace.WithWriter(cfg.TraceWriter),
			stdouttrace.WithPrettyPrint(),
		)
	} else {
		exporter, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	), nil
}

func newMeterProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	var exporter sdkmetric.Exporter
	var err error
	if cfg.Debug {
		enc := json.NewEncoder(cfg.MetricWriter)
		enc.SetIndent("", "  ")

		exporter, err = stdoutmetric.New(
			stdoutmetric.WithEncoder(enc),
			stdoutmetric.WithoutTimestamps(),
		)
	} else {
		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(10*time.Second),
			),
		),
		sdkmetric.WithView(
			sdkmetric.NewView(
				sdkmetric.Instrument{Name: "rpc_call_duration"},
				sdkmetric.Stream{
					Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
						Boundaries: []float64{1, 5, 10, 25, 50, 75, 100, 250, 500, 750, 1000, 2500, 5000, 7500, 10000},
					},
				},
			),
		),
	), nil
}

func newTelemetry(enabled bool, tp *sdktrace.TracerProvider, mp *sdkmetric.MeterProvider) (*Telemetry, error) {
	meter := mp.Meter(scopeName)

	callDuration, err := meter.Float64Histogram(
		"rpc_call_duration",
		metric.WithDescription("Duration of JSON-RPC calls"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create call duration histogram: %w", err)
	}

	errorCounter, err := meter.Int64Counter(
		"rpc_error_count",
		metric.WithDescription("Number of failed JSON-RPC calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create error counter: %w", err)
	}

	return &Telemetry{
		enabled:      enabled,
		tp:           tp,
		mp:           mp,
		tracer:       tp.Tracer(scopeName),
		meter:        meter,
		callDuration: callDuration,
		errorCounter: errorCounter,
	}, nil
}

// IsEnabled reports whether telemetry actually exports anything.
func (t *Telemetry) IsEnabled() bool {
	return t.enabled
}

// Shutdown gracefully shuts down the telemetry providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if err := t.tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown trace provider: %w", err)
	}
	if err := t.mp.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}

// RecordCall records a call duration and counts the error, if any.
func (t *Telemetry) RecordCall(ctx context.Context, duration time.Duration, method string, status string, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("method", method),
		attribute.String("status", status),
	}

	t.callDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		attrs = append(attrs, attribute.String("error", err.Error()))
		t.errorCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// StartSpan starts a new span and returns the context and span.
func (t *Telemetry) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}
