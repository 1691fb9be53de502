package persistence

import (
	"context"

	appinvoicing "github.com/RACCHUS/BookkeepingApp-sub007/internal/application/invoicing"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/invoicing"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appinvoicing.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Quotes returns the quote repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Quotes() invoicing.QuoteRepository {
	return NewGormQuoteRepository(r.tx)
}

// Invoices returns the invoice repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Invoices() invoicing.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

// Payments returns the payment ledger repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Payments() invoicing.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

// Schedules returns the recurring schedule repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Schedules() invoicing.RecurringScheduleRepository {
	return NewGormRecurringScheduleRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appinvoicing.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appinvoicing.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
