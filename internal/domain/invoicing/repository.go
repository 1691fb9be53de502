package invoicing

import (
	"context"
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"github.com/google/uuid"
)

// DocumentType identifies which numbering sequence a document draws from
type DocumentType string

const (
	DocumentTypeInvoice DocumentType = "invoice"
	DocumentTypeQuote   DocumentType = "quote"
)

// IsValid checks if the document type is known
func (t DocumentType) IsValid() bool {
	return t == DocumentTypeInvoice || t == DocumentTypeQuote
}

// QuoteFilter defines filtering options for quote queries
type QuoteFilter struct {
	shared.Filter
	Status   *QuoteStatus
	ClientID *uuid.UUID
	FromDate *time.Time
	ToDate   *time.Time
	// AsOf, when set, matches Status against the expiry-reconciled status at that instant.
	AsOf *time.Time
}

// InvoiceFilter defines filtering options for invoice queries
type InvoiceFilter struct {
	shared.Filter
	Statuses            []InvoiceStatus
	ClientID            *uuid.UUID
	RecurringScheduleID *uuid.UUID
	FromDate            *time.Time
	ToDate              *time.Time
	DueBefore           *time.Time
	// AsOf, when set, matches Statuses against the overdue-reconciled status at that instant.
	AsOf *time.Time
}

// QuoteRepository defines the persistence contract for quotes
type QuoteRepository interface {
	// FindByIDForUser finds a quote owned by userID. A quote owned by someone else is not found.
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*Quote, error)

	// FindAllForUser lists a user's quotes with filtering and pagination
	FindAllForUser(ctx context.Context, userID uuid.UUID, filter QuoteFilter) ([]Quote, error)

	// CountForUser counts a user's quotes matching the filter, ignoring pagination
	CountForUser(ctx context.Context, userID uuid.UUID, filter QuoteFilter) (int64, error)

	// FindExpirable finds sent quotes whose expiry date is before the given time, across all users
	FindExpirable(ctx context.Context, before time.Time, limit int) ([]Quote, error)

	// Save inserts a new quote together with its line items
	Save(ctx context.Context, quote *Quote) error

	// SaveWithLock updates a quote if its version is unchanged, replacing its line items,
	// and bumps the version on success
	SaveWithLock(ctx context.Context, quote *Quote) error

	// DeleteForUser removes a quote and its line items
	DeleteForUser(ctx context.Context, userID, id uuid.UUID) error
}

// InvoiceRepository defines the persistence contract for invoices
type InvoiceRepository interface {
	// FindByIDForUser finds an invoice owned by userID
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*Invoice, error)

	// FindAllForUser lists a user's invoices with filtering and pagination
	FindAllForUser(ctx context.Context, userID uuid.UUID, filter InvoiceFilter) ([]Invoice, error)

	// CountForUser counts a user's invoices matching the filter, ignoring pagination
	CountForUser(ctx context.Context, userID uuid.UUID, filter InvoiceFilter) (int64, error)

	// FindOverdueCandidates finds sent, viewed and partial invoices due before the given time, across all users
	FindOverdueCandidates(ctx context.Context, before time.Time, limit int) ([]Invoice, error)

	// FindByQuoteID finds the invoice converted from a quote
	FindByQuoteID(ctx context.Context, userID, quoteID uuid.UUID) (*Invoice, error)

	// FindByRecurringRun finds the invoice a schedule produced for a run date
	FindByRecurringRun(ctx context.Context, scheduleID uuid.UUID, runDate time.Time) (*Invoice, error)

	// Save inserts a new invoice together with its line items
	Save(ctx context.Context, invoice *Invoice) error

	// SaveWithLock updates an invoice if its version is unchanged, replacing its line items,
	// and bumps the version on success
	SaveWithLock(ctx context.Context, invoice *Invoice) error

	// DeleteForUser permanently removes an invoice with its line items and payments
	DeleteForUser(ctx context.Context, userID, id uuid.UUID) error
}

// PaymentRepository defines the persistence contract for the payment ledger
type PaymentRepository interface {
	// FindByIDForInvoice finds a payment belonging to an invoice
	FindByIDForInvoice(ctx context.Context, invoiceID, id uuid.UUID) (*Payment, error)

	// FindByInvoice lists an invoice's payments ordered by payment date
	FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]Payment, error)

	// Save inserts a payment
	Save(ctx context.Context, payment *Payment) error

	// Delete removes a payment
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByInvoice removes every payment of an invoice
	DeleteByInvoice(ctx context.Context, invoiceID uuid.UUID) error
}

// RecurringScheduleRepository defines the persistence contract for recurring schedules
type RecurringScheduleRepository interface {
	// FindByIDForUser finds a schedule owned by userID
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*RecurringSchedule, error)

	// FindAllForUser lists a user's schedules
	FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]RecurringSchedule, error)

	// FindDue finds active schedules whose next run date is at or before now, across all users
	FindDue(ctx context.Context, now time.Time, limit int) ([]RecurringSchedule, error)

	// Save inserts a new schedule
	Save(ctx context.Context, schedule *RecurringSchedule) error

	// SaveWithLock updates a schedule if its version is unchanged and bumps the version on success
	SaveWithLock(ctx context.Context, schedule *RecurringSchedule) error

	// DeleteForUser removes a schedule. Invoices it generated keep their reference.
	DeleteForUser(ctx context.Context, userID, id uuid.UUID) error
}

// DocumentSequence hands out per-user, per-year, per-type sequence values.
// Implementations must be atomic: concurrent callers never receive the same value.
type DocumentSequence interface {
	Next(ctx context.Context, userID uuid.UUID, docType DocumentType, year int) (int64, error)
}
