package invoicing

import (
	"context"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/invoicing"
)

// TransactionScope provides transactional access to the invoicing repositories.
// Everything written through the repositories handed to fn commits or rolls back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the invoicing repositories bound to one transaction.
//
// Aggregate boundary notes:
//   - Invoices owns its line items; Payments is the ledger and is always written in the same
//     transaction as the invoice whose balance it changes.
//   - Quotes owns its line items. Conversion writes a quote and an invoice together.
//   - Schedules is written together with the invoice a firing produces.
type TransactionalRepositories interface {
	Quotes() invoicing.QuoteRepository
	Invoices() invoicing.InvoiceRepository
	Payments() invoicing.PaymentRepository
	Schedules() invoicing.RecurringScheduleRepository
}

// NoOpTransactionScope runs fn against plain repositories without a transaction.
// Useful in tests and for stores that have no transactions.
type NoOpTransactionScope struct {
	quotes    invoicing.QuoteRepository
	invoices  invoicing.InvoiceRepository
	payments  invoicing.PaymentRepository
	schedules invoicing.RecurringScheduleRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	quotes invoicing.QuoteRepository,
	invoices invoicing.InvoiceRepository,
	payments invoicing.PaymentRepository,
	schedules invoicing.RecurringScheduleRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		quotes:    quotes,
		invoices:  invoices,
		payments:  payments,
		schedules: schedules,
	}
}

// Execute runs fn without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Quotes returns the quote repository.
func (s *NoOpTransactionScope) Quotes() invoicing.QuoteRepository { return s.quotes }

// Invoices returns the invoice repository.
func (s *NoOpTransactionScope) Invoices() invoicing.InvoiceRepository { return s.invoices }

// Payments returns the payment repository.
func (s *NoOpTransactionScope) Payments() invoicing.PaymentRepository { return s.payments }

// Schedules returns the recurring schedule repository.
func (s *NoOpTransactionScope) Schedules() invoicing.RecurringScheduleRepository { return s.schedules }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
