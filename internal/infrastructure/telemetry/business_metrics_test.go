package telemetry_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

type stubLedgerProvider struct {
	calls  atomic.Int32
	counts map[string]int64
	err    error
}

func (p *stubLedgerProvider) InvoiceCountsByStatus(ctx context.Context) (map[string]int64, error) {
	p.calls.Add(1)
	return p.counts, p.err
}

func (p *stubLedgerProvider) OutstandingBalance(ctx context.Context) (decimal.Decimal, error) {
	return decimal.RequireFromString("1234.56"), p.err
}

func newReaderMetrics(t *testing.T, provider telemetry.LedgerMetricsProvider) (*telemetry.InvoicingMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	im, err := telemetry.NewInvoicingMetrics(telemetry.InvoicingMetricsConfig{
		Meter:          mp.Meter("test"),
		Logger:         zap.NewNop(),
		LedgerProvider: provider,
	})
	require.NoError(t, err)
	return im, reader
}

func sumOf(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					total += dp.Value
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestNewInvoicingMetrics_NilMeter(t *testing.T) {
	im, err := telemetry.NewInvoicingMetrics(telemetry.InvoicingMetricsConfig{})
	require.Error(t, err)
	assert.Nil(t, im)
	assert.Equal(t, "NewInvoicingMetrics: meter cannot be nil", err.Error())
}

func TestNewInvoicingMetrics_Noop(t *testing.T) {
	im, err := telemetry.NewInvoicingMetrics(telemetry.InvoicingMetricsConfig{
		Meter: noop.NewMeterProvider().Meter("test"),
	})
	require.NoError(t, err)

	ctx := context.Background()
	im.RecordQuoteCreated(ctx)
	im.RecordInvoiceCreated(ctx, "manual", decimal.NewFromInt(10))
	im.RecordPayment(ctx, "cash", "recorded", decimal.NewFromInt(10))
	im.RecordStatusTransition(ctx, "invoice", "overdue")
	im.RecordRecurringRun(ctx, "generated")
	im.RecordNumberFallback(ctx, "invoice")
}

func TestInvoicingMetrics_Counters(t *testing.T) {
	im, reader := newReaderMetrics(t, nil)
	ctx := context.Background()

	im.RecordInvoiceCreated(ctx, "manual", decimal.RequireFromString("105.00"))
	im.RecordInvoiceCreated(ctx, "recurring", decimal.RequireFromString("0.50"))
	im.RecordPayment(ctx, "bank_transfer", "recorded", decimal.RequireFromString("40.25"))
	im.RecordPayment(ctx, "bank_transfer", "deleted", decimal.RequireFromString("40.25"))
	im.RecordNumberFallback(ctx, "quote")

	assert.Equal(t, int64(2), sumOf(t, reader, "invoicing_invoices_created_total"))
	assert.Equal(t, int64(10550), sumOf(t, reader, "invoicing_invoiced_amount_total"))
	assert.Equal(t, int64(2), sumOf(t, reader, "invoicing_payments_total"))
	assert.Equal(t, int64(4025), sumOf(t, reader, "invoicing_payment_amount_total"))
	assert.Equal(t, int64(1), sumOf(t, reader, "invoicing_number_fallbacks_total"))
}

func TestInvoicingMetrics_PeriodicCollection(t *testing.T) {
	provider := &stubLedgerProvider{counts: map[string]int64{"sent": 3, "overdue": 2}}
	im, reader := newReaderMetrics(t, provider)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	im.StartPeriodicCollection(ctx, time.Hour)
	defer im.Stop()

	require.Eventually(t, func() bool { return provider.calls.Load() >= 1 }, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return sumOf(t, reader, "invoicing_outstanding_balance") == 123456
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(5), sumOf(t, reader, "invoicing_invoices_by_status"))
}

func TestInvoicingMetrics_ProviderErrorIsLogged(t *testing.T) {
	provider := &stubLedgerProvider{err: errors.New("db down")}
	im, _ := newReaderMetrics(t, provider)

	ctx, cancel := context.WithCancel(context.Background())
	im.StartPeriodicCollection(ctx, time.Hour)
	require.Eventually(t, func() bool { return provider.calls.Load() >= 1 }, time.Second, 10*time.Millisecond)
	cancel()
	im.Stop()
	im.Stop()
}
