package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type (
	Meter     = metric.Meter
	Counter   = metric.Int64Counter
	Histogram = metric.Int64Histogram
	Gauge     = metric.Int64Gauge
)

var provider *sdkmetric.MeterProvider

// Init installs the process-wide meter provider. Metrics stay in-process;
// attaching an exporter is a deployment concern, not an engine one.
func Init(ctx context.Context) error {
	provider = sdkmetric.NewMeterProvider()
	otel.SetMeterProvider(provider)
	return nil
}

func Shutdown(ctx context.Context) {
	if provider != nil {
		_ = provider.Shutdown(ctx)
	}
}

func NewMeter(name string) Meter {
	return otel.Meter(name)
}
