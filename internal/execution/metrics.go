package execution

import (
	"context"

	"github.com/dytallix/go-dytallix/internal/telemetry"
	"github.com/dytallix/go-dytallix/internal/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type MetricsHandler struct {
	// Histograms
	gasUsedHistogram telemetry.Histogram

	// Counters
	processedCounter telemetry.Counter
	failedCounter    telemetry.Counter
	outOfGasCounter  telemetry.Counter

	// Gauges
	lastHeightGauge telemetry.Gauge
}

func NewMetricsHandler(name string) (*MetricsHandler, error) {
	meter := telemetry.NewMeter(name)

	handler := &MetricsHandler{}
	if err := handler.initMetrics(meter); err != nil {
		return nil, err
	}
	return handler, nil
}

func (mh *MetricsHandler) initMetrics(meter telemetry.Meter) error {
	var err error

	mh.gasUsedHistogram, err = meter.Int64Histogram("gas_used")
	if err != nil {
		return err
	}

	mh.processedCounter, err = meter.Int64Counter("total_transactions_processed")
	if err != nil {
		return err
	}

	mh.failedCounter, err = meter.Int64Counter("total_transactions_failed")
	if err != nil {
		return err
	}

	mh.outOfGasCounter, err = meter.Int64Counter("total_out_of_gas")
	if err != nil {
		return err
	}

	mh.lastHeightGauge, err = meter.Int64Gauge("last_block_height")
	if err != nil {
		return err
	}

	return nil
}

func (mh *MetricsHandler) BlockExecuted(ctx context.Context, height uint64) {
	mh.lastHeightGauge.Record(ctx, int64(height))
}

func (mh *MetricsHandler) TxProcessed(ctx context.Context, receipt *types.Receipt) {
	mh.processedCounter.Add(ctx, 1)
	mh.gasUsedHistogram.Record(ctx, int64(receipt.GasUsed.Uint64()))
	if receipt.Success {
		return
	}
	option := metric.WithAttributes(
		attribute.String("error_code", receipt.ErrCode.String()),
	)
	mh.failedCounter.Add(ctx, 1, option)
	if receipt.ErrCode == types.ErrorOutOfGas {
		mh.outOfGasCounter.Add(ctx, 1)
	}
}
