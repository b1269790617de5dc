package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func createTestMetrics(t *testing.T) (*SettlementMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewSettlementMetrics(mp.Meter("test"))
	require.NoError(t, err)
	return m, reader
}

func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string][]metricdata.DataPoint[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string][]metricdata.DataPoint[int64]{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				out[m.Name] = sum.DataPoints
			}
		}
	}
	return out
}

func TestSettlementMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("counters carry their attributes", func(t *testing.T) {
		m, reader := createTestMetrics(t)

		m.TransactionCreated(ctx, "TRY")
		m.TransactionCreated(ctx, "TRY")
		m.PaymentResolved(ctx, "confirmed")
		m.ConcurrencyConflict(ctx, "approve_deletion")

		sums := collectSums(t, reader)
		require.Len(t, sums["settlement.transactions.created"], 1)
		dp := sums["settlement.transactions.created"][0]
		assert.Equal(t, int64(2), dp.Value)
		v, ok := dp.Attributes.Value(attribute.Key("currency"))
		require.True(t, ok)
		assert.Equal(t, "TRY", v.AsString())

		require.Len(t, sums["settlement.concurrency.conflicts"], 1)
		assert.Equal(t, int64(1), sums["settlement.concurrency.conflicts"][0].Value)
	})

	t.Run("stale counter only moves for stale summaries", func(t *testing.T) {
		m, reader := createTestMetrics(t)

		m.Reconciled(ctx, 5*time.Millisecond, false)
		m.Reconciled(ctx, 7*time.Millisecond, true)

		sums := collectSums(t, reader)
		require.Len(t, sums["settlement.rates.stale_used"], 1)
		assert.Equal(t, int64(1), sums["settlement.rates.stale_used"][0].Value)
	})
}
