package invoicing

import (
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type names used in events
const (
	AggregateTypeQuote             = "Quote"
	AggregateTypeInvoice           = "Invoice"
	AggregateTypeRecurringSchedule = "RecurringSchedule"
)

// Event types
const (
	EventTypeQuoteCreated                 = "QuoteCreated"
	EventTypeQuoteSent                    = "QuoteSent"
	EventTypeQuoteStatusChanged           = "QuoteStatusChanged"
	EventTypeQuoteExpired                 = "QuoteExpired"
	EventTypeQuoteConverted               = "QuoteConverted"
	EventTypeInvoiceCreated               = "InvoiceCreated"
	EventTypeInvoiceSent                  = "InvoiceSent"
	EventTypeInvoiceOverdue               = "InvoiceOverdue"
	EventTypeInvoiceVoided                = "InvoiceVoided"
	EventTypeInvoicePaid                  = "InvoicePaid"
	EventTypeInvoicePaymentRecorded       = "InvoicePaymentRecorded"
	EventTypeInvoicePaymentDeleted        = "InvoicePaymentDeleted"
	EventTypeRecurringInvoiceGenerated    = "RecurringInvoiceGenerated"
	EventTypeRecurringScheduleDeactivated = "RecurringScheduleDeactivated"
)

// QuoteEvent is raised for quote lifecycle changes
type QuoteEvent struct {
	shared.BaseDomainEvent
	QuoteNumber string          `json:"quote_number"`
	Status      QuoteStatus     `json:"status"`
	Total       decimal.Decimal `json:"total"`
	InvoiceID   *uuid.UUID      `json:"invoice_id,omitempty"`
}

func newQuoteEvent(eventType string, q *Quote) *QuoteEvent {
	return &QuoteEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeQuote, q.ID, q.UserID),
		QuoteNumber:     q.QuoteNumber,
		Status:          q.Status,
		Total:           q.Totals.Total,
	}
}

// NewQuoteCreatedEvent creates a QuoteCreated event
func NewQuoteCreatedEvent(q *Quote) *QuoteEvent { return newQuoteEvent(EventTypeQuoteCreated, q) }

// NewQuoteSentEvent creates a QuoteSent event
func NewQuoteSentEvent(q *Quote) *QuoteEvent { return newQuoteEvent(EventTypeQuoteSent, q) }

// NewQuoteStatusChangedEvent creates a QuoteStatusChanged event
func NewQuoteStatusChangedEvent(q *Quote) *QuoteEvent {
	return newQuoteEvent(EventTypeQuoteStatusChanged, q)
}

// NewQuoteExpiredEvent creates a QuoteExpired event
func NewQuoteExpiredEvent(q *Quote) *QuoteEvent { return newQuoteEvent(EventTypeQuoteExpired, q) }

// NewQuoteConvertedEvent creates a QuoteConverted event
func NewQuoteConvertedEvent(q *Quote, invoiceID uuid.UUID) *QuoteEvent {
	e := newQuoteEvent(EventTypeQuoteConverted, q)
	e.InvoiceID = &invoiceID
	return e
}

// InvoiceEvent is raised for invoice lifecycle changes
type InvoiceEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	Status        InvoiceStatus   `json:"status"`
	Total         decimal.Decimal `json:"total"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	BalanceDue    decimal.Decimal `json:"balance_due"`
	IsRecurring   bool            `json:"is_recurring"`
	FromQuote     bool            `json:"from_quote"`
}

func newInvoiceEvent(eventType string, inv *Invoice) *InvoiceEvent {
	return &InvoiceEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeInvoice, inv.ID, inv.UserID),
		InvoiceNumber:   inv.InvoiceNumber,
		Status:          inv.Status,
		Total:           inv.Totals.Total,
		AmountPaid:      inv.AmountPaid,
		BalanceDue:      inv.BalanceDue,
		IsRecurring:     inv.IsRecurring,
		FromQuote:       inv.QuoteID != nil,
	}
}

// NewInvoiceCreatedEvent creates an InvoiceCreated event
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceEvent {
	return newInvoiceEvent(EventTypeInvoiceCreated, inv)
}

// NewInvoiceSentEvent creates an InvoiceSent event
func NewInvoiceSentEvent(inv *Invoice) *InvoiceEvent {
	return newInvoiceEvent(EventTypeInvoiceSent, inv)
}

// NewInvoiceOverdueEvent creates an InvoiceOverdue event
func NewInvoiceOverdueEvent(inv *Invoice) *InvoiceEvent {
	return newInvoiceEvent(EventTypeInvoiceOverdue, inv)
}

// NewInvoiceVoidedEvent creates an InvoiceVoided event
func NewInvoiceVoidedEvent(inv *Invoice) *InvoiceEvent {
	return newInvoiceEvent(EventTypeInvoiceVoided, inv)
}

// NewInvoicePaidEvent creates an InvoicePaid event
func NewInvoicePaidEvent(inv *Invoice) *InvoiceEvent {
	return newInvoiceEvent(EventTypeInvoicePaid, inv)
}

// PaymentEvent is raised when a payment enters or leaves an invoice's ledger
type PaymentEvent struct {
	InvoiceEvent
	PaymentID uuid.UUID       `json:"payment_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"method"`
}

// NewInvoicePaymentRecordedEvent creates an InvoicePaymentRecorded event
func NewInvoicePaymentRecordedEvent(inv *Invoice, p *Payment) *PaymentEvent {
	return &PaymentEvent{
		InvoiceEvent: *newInvoiceEvent(EventTypeInvoicePaymentRecorded, inv),
		PaymentID:    p.ID,
		Amount:       p.Amount,
		Method:       p.Method,
	}
}

// NewInvoicePaymentDeletedEvent creates an InvoicePaymentDeleted event
func NewInvoicePaymentDeletedEvent(inv *Invoice, p *Payment) *PaymentEvent {
	return &PaymentEvent{
		InvoiceEvent: *newInvoiceEvent(EventTypeInvoicePaymentDeleted, inv),
		PaymentID:    p.ID,
		Amount:       p.Amount,
		Method:       p.Method,
	}
}

// RecurringEvent is raised when a schedule fires or stops
type RecurringEvent struct {
	shared.BaseDomainEvent
	ScheduleName         string     `json:"schedule_name"`
	InvoiceID            *uuid.UUID `json:"invoice_id,omitempty"`
	OccurrencesGenerated int        `json:"occurrences_generated"`
	Reason               string     `json:"reason,omitempty"`
}

// NewRecurringInvoiceGeneratedEvent creates a RecurringInvoiceGenerated event
func NewRecurringInvoiceGeneratedEvent(s *RecurringSchedule, invoiceID uuid.UUID) *RecurringEvent {
	return &RecurringEvent{
		BaseDomainEvent:      shared.NewBaseDomainEvent(EventTypeRecurringInvoiceGenerated, AggregateTypeRecurringSchedule, s.ID, s.UserID),
		ScheduleName:         s.Name,
		InvoiceID:            &invoiceID,
		OccurrencesGenerated: s.OccurrencesGenerated,
	}
}

// NewRecurringScheduleDeactivatedEvent creates a RecurringScheduleDeactivated event
func NewRecurringScheduleDeactivatedEvent(s *RecurringSchedule, reason string) *RecurringEvent {
	return &RecurringEvent{
		BaseDomainEvent:      shared.NewBaseDomainEvent(EventTypeRecurringScheduleDeactivated, AggregateTypeRecurringSchedule, s.ID, s.UserID),
		ScheduleName:         s.Name,
		OccurrencesGenerated: s.OccurrencesGenerated,
		Reason:               reason,
	}
}
