package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// InvoicingMetrics records business metrics for quotes, invoices, payments and recurring runs.
type InvoicingMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	quotesCreatedTotal    *Counter
	invoicesCreatedTotal  *Counter
	invoicedAmountTotal   *Counter
	paymentsTotal         *Counter
	paymentAmountTotal    *Counter
	statusTransitionTotal *Counter
	recurringRunsTotal    *Counter
	numberFallbacksTotal  *Counter

	invoicesByStatus   *Gauge
	outstandingBalance *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	ledgerProvider LedgerMetricsProvider
}

// LedgerMetricsProvider supplies point-in-time ledger figures for periodic gauge collection.
// It lets telemetry read ledger state without importing the invoicing domain.
type LedgerMetricsProvider interface {
	// InvoiceCountsByStatus returns the number of invoices per status across all users
	InvoiceCountsByStatus(ctx context.Context) (map[string]int64, error)

	// OutstandingBalance returns the summed balance due of open invoices across all users
	OutstandingBalance(ctx context.Context) (decimal.Decimal, error)
}

// InvoicingMetricsConfig holds configuration for invoicing metrics.
type InvoicingMetricsConfig struct {
	Meter          metric.Meter
	Logger         *zap.Logger
	LedgerProvider LedgerMetricsProvider
}

// Metric attribute keys specific to invoicing
var (
	AttrDocType   = attribute.Key("doc_type")
	AttrStatus    = attribute.Key("status")
	AttrOrigin    = attribute.Key("origin")
	AttrAction    = attribute.Key("action")
	AttrOutcome   = attribute.Key("outcome")
	AttrCurrency  = attribute.Key("currency")
	AttrRunSource = attribute.Key("run_source")
)

// NewInvoicingMetrics creates the invoicing counters and gauges on cfg.Meter.
func NewInvoicingMetrics(cfg InvoicingMetricsConfig) (*InvoicingMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	im := &InvoicingMetrics{
		meter:          cfg.Meter,
		logger:         logger,
		stopChan:       make(chan struct{}),
		ledgerProvider: cfg.LedgerProvider,
	}

	counters := []struct {
		target      **Counter
		name        string
		description string
		unit        string
	}{
		{&im.quotesCreatedTotal, "invoicing_quotes_created_total", "Total number of quotes created", "{quotes}"},
		{&im.invoicesCreatedTotal, "invoicing_invoices_created_total", "Total number of invoices created", "{invoices}"},
		{&im.invoicedAmountTotal, "invoicing_invoiced_amount_total", "Total invoiced amount in cents", "{cents}"},
		{&im.paymentsTotal, "invoicing_payments_total", "Total number of payment ledger changes", "{payments}"},
		{&im.paymentAmountTotal, "invoicing_payment_amount_total", "Total amount of recorded payments in cents", "{cents}"},
		{&im.statusTransitionTotal, "invoicing_status_transitions_total", "Total number of document status transitions", "{transitions}"},
		{&im.recurringRunsTotal, "invoicing_recurring_runs_total", "Total number of recurring schedule firings by outcome", "{runs}"},
		{&im.numberFallbacksTotal, "invoicing_number_fallbacks_total", "Total number of document numbers issued by the timestamp fallback", "{numbers}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.description, c.unit)
		if err != nil {
			return nil, err
		}
		*c.target = counter
	}

	var err error
	im.invoicesByStatus, err = NewGauge(cfg.Meter,
		"invoicing_invoices_by_status",
		"Current number of invoices per status",
		"{invoices}",
	)
	if err != nil {
		return nil, err
	}

	im.outstandingBalance, err = NewGauge(cfg.Meter,
		"invoicing_outstanding_balance",
		"Current outstanding balance of open invoices in cents",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	return im, nil
}

// toCents converts an amount to integer cents for counters.
func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// RecordQuoteCreated counts a new quote.
func (im *InvoicingMetrics) RecordQuoteCreated(ctx context.Context) {
	im.quotesCreatedTotal.Inc(ctx)
}

// RecordInvoiceCreated counts a new invoice and its total. origin is manual, quote or recurring.
func (im *InvoicingMetrics) RecordInvoiceCreated(ctx context.Context, origin string, total decimal.Decimal) {
	im.invoicesCreatedTotal.Inc(ctx, AttrOrigin.String(origin))
	im.invoicedAmountTotal.Add(ctx, toCents(total), AttrOrigin.String(origin))
}

// RecordPayment counts a payment ledger change. action is recorded or deleted; only recorded
// payments add to the amount counter.
func (im *InvoicingMetrics) RecordPayment(ctx context.Context, method, action string, amount decimal.Decimal) {
	im.paymentsTotal.Inc(ctx,
		AttrPaymentMethod.String(method),
		AttrAction.String(action),
	)
	if action == "recorded" {
		im.paymentAmountTotal.Add(ctx, toCents(amount), AttrPaymentMethod.String(method))
	}
}

// RecordStatusTransition counts a document entering a status.
func (im *InvoicingMetrics) RecordStatusTransition(ctx context.Context, docType, status string) {
	im.statusTransitionTotal.Inc(ctx,
		AttrDocType.String(docType),
		AttrStatus.String(status),
	)
}

// RecordRecurringRun counts a recurring schedule firing by outcome.
func (im *InvoicingMetrics) RecordRecurringRun(ctx context.Context, outcome string) {
	im.recurringRunsTotal.Inc(ctx, AttrOutcome.String(outcome))
}

// RecordNumberFallback counts a document number issued without the atomic sequence.
func (im *InvoicingMetrics) RecordNumberFallback(ctx context.Context, docType string) {
	im.numberFallbacksTotal.Inc(ctx, AttrDocType.String(docType))
}

// StartPeriodicCollection starts collecting ledger gauges every interval (default 5 minutes).
// It returns immediately; call Stop to end collection.
func (im *InvoicingMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	im.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go im.runPeriodicCollection(ctx, interval)
	})
}

func (im *InvoicingMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	im.collectLedgerMetrics(ctx)

	for {
		select {
		case <-im.stopChan:
			im.logger.Info("Stopping periodic invoicing metrics collection")
			return
		case <-ctx.Done():
			im.logger.Info("Context cancelled, stopping periodic invoicing metrics collection")
			return
		case <-ticker.C:
			im.collectLedgerMetrics(ctx)
		}
	}
}

// collectLedgerMetrics records the gauges once.
func (im *InvoicingMetrics) collectLedgerMetrics(ctx context.Context) {
	if im.ledgerProvider == nil {
		im.logger.Debug("No ledger provider configured, skipping ledger metrics collection")
		return
	}

	counts, err := im.ledgerProvider.InvoiceCountsByStatus(ctx)
	if err != nil {
		im.logger.Warn("Failed to get invoice counts by status", zap.Error(err))
	} else {
		for status, count := range counts {
			im.invoicesByStatus.Record(ctx, count, AttrStatus.String(status))
		}
	}

	outstanding, err := im.ledgerProvider.OutstandingBalance(ctx)
	if err != nil {
		im.logger.Warn("Failed to get outstanding balance", zap.Error(err))
		return
	}
	im.outstandingBalance.Record(ctx, toCents(outstanding))
}

// Stop stops the periodic collection.
func (im *InvoicingMetrics) Stop() {
	im.stopOnce.Do(func() {
		close(im.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewInvoicingMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
