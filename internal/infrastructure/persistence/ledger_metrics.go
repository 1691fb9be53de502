package persistence

import (
	"context"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/invoicing"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/persistence/models"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// outstandingStatuses are the invoice statuses that still expect money
var outstandingStatuses = []string{
	string(invoicing.InvoiceStatusSent),
	string(invoicing.InvoiceStatusViewed),
	string(invoicing.InvoiceStatusPartial),
	string(invoicing.InvoiceStatusOverdue),
}

// GormLedgerMetrics reads cross-user ledger aggregates for the metrics gauges
type GormLedgerMetrics struct {
	db *gorm.DB
}

// NewGormLedgerMetrics creates a new GormLedgerMetrics
func NewGormLedgerMetrics(db *gorm.DB) *GormLedgerMetrics {
	return &GormLedgerMetrics{db: db}
}

// InvoiceCountsByStatus returns invoice counts keyed by status
func (m *GormLedgerMetrics) InvoiceCountsByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := m.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, storeError("count invoices by status", "invoice", err)
	}

	counts := make(map[string]int64, len(invoicing.AllInvoiceStatuses))
	for _, s := range invoicing.AllInvoiceStatuses {
		counts[string(s)] = 0
	}
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// OutstandingBalance sums the balance due of invoices awaiting payment
func (m *GormLedgerMetrics) OutstandingBalance(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	if err := m.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Select("SUM(balance_due)").
		Where("status IN ?", outstandingStatuses).
		Scan(&total).Error; err != nil {
		return decimal.Zero, storeError("sum outstanding balance", "invoice", err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// Ensure GormLedgerMetrics implements LedgerMetricsProvider
var _ telemetry.LedgerMetricsProvider = (*GormLedgerMetrics)(nil)
