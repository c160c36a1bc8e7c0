package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// TestTelemetry holds in-memory OpenTelemetry components for tests.
type TestTelemetry struct {
	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
	mr *sdkmetric.ManualReader
}

// NewTestTelemetry installs manual-reader providers globally and
// returns a handle to inspect recorded metrics.
func NewTestTelemetry(t *testing.T) *TestTelemetry {
	t.Helper()

	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)

	mr := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(mr))
	otel.SetMeterProvider(mp)

	return &TestTelemetry{
		tp: tp,
		mp: mp,
		mr: mr,
	}
}

// Shutdown gracefully shuts down the test telemetry providers.
func (tt *TestTelemetry) Shutdown(ctx context.Context) error {
	if err := tt.tp.Shutdown(ctx); err != nil {
		return err
	}
	return tt.mp.Shutdown(ctx)
}

// GetReader returns the metric reader for assertions.
func (tt *TestTelemetry) GetReader() *sdkmetric.ManualReader {
	return tt.mr
}
