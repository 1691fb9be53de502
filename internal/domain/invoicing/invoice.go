package invoicing

import (
	"strings"
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the lifecycle status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusSent    InvoiceStatus = "sent"
	InvoiceStatusViewed  InvoiceStatus = "viewed"
	InvoiceStatusPartial InvoiceStatus = "partial"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusVoid    InvoiceStatus = "void"
)

// AllInvoiceStatuses lists every invoice status
var AllInvoiceStatuses = []InvoiceStatus{
	InvoiceStatusDraft,
	InvoiceStatusSent,
	InvoiceStatusViewed,
	InvoiceStatusPartial,
	InvoiceStatusOverdue,
	InvoiceStatusPaid,
	InvoiceStatusVoid,
}

// IsValid checks if the status is a known invoice status
func (s InvoiceStatus) IsValid() bool {
	for _, v := range AllInvoiceStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// String returns the string representation
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true for statuses that can no longer be edited
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusVoid
}

// CanBecomeOverdue returns true for statuses that flip to overdue once the due date passes
func (s InvoiceStatus) CanBecomeOverdue() bool {
	return s == InvoiceStatusSent || s == InvoiceStatusViewed || s == InvoiceStatusPartial
}

// CanTransitionTo reports whether an explicit status update from s to target is allowed.
// partial and paid are driven by the payment ledger and cannot be set directly.
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	switch s {
	case InvoiceStatusDraft:
		return target == InvoiceStatusSent || target == InvoiceStatusVoid
	case InvoiceStatusSent:
		return target == InvoiceStatusViewed || target == InvoiceStatusOverdue || target == InvoiceStatusVoid
	case InvoiceStatusViewed, InvoiceStatusPartial:
		return target == InvoiceStatusOverdue || target == InvoiceStatusVoid
	case InvoiceStatusOverdue, InvoiceStatusPaid:
		return target == InvoiceStatusVoid
	default:
		return false
	}
}

// Invoice is the aggregate root for a bill issued to a client, including its running balance
type Invoice struct {
	shared.OwnedAggregateRoot
	InvoiceNumber       string
	Client              ClientInfo
	QuoteID             *uuid.UUID
	RecurringScheduleID *uuid.UUID
	RecurringRunDate    *time.Time
	IsRecurring         bool
	Status              InvoiceStatus
	IssueDate           time.Time
	DueDate             time.Time
	PaymentTerms        PaymentTerms
	Totals              DocumentTotals
	AmountPaid          decimal.Decimal
	BalanceDue          decimal.Decimal
	Notes               string
	Terms               string
	Items               []LineItem
	SentAt              *time.Time
	ViewedAt            *time.Time
	PaidAt              *time.Time
	VoidedAt            *time.Time
}

// InvoiceInput is everything needed to create an invoice
type InvoiceInput struct {
	Content      DocumentContent
	IssueDate    time.Time
	DueDate      *time.Time
	PaymentTerms PaymentTerms

	// QuoteID is set when the invoice is created from an accepted quote
	QuoteID *uuid.UUID

	// RecurringScheduleID and RecurringRunDate are set when a schedule materializes the invoice.
	// Together they identify one firing of the schedule.
	RecurringScheduleID *uuid.UUID
	RecurringRunDate    *time.Time
}

// NewInvoice creates a draft invoice. When DueDate is nil it is derived from the payment terms.
func NewInvoice(userID uuid.UUID, invoiceNumber string, input InvoiceInput) (*Invoice, error) {
	if userID == uuid.Nil {
		return nil, shared.NewValidationError("owner user ID cannot be empty")
	}
	invoiceNumber = strings.TrimSpace(invoiceNumber)
	if invoiceNumber == "" {
		return nil, shared.NewValidationError("invoice number cannot be empty")
	}
	if input.IssueDate.IsZero() {
		return nil, shared.NewValidationError("issue date is required")
	}
	terms := input.PaymentTerms
	if terms == "" {
		terms = DefaultPaymentTerms
	}
	if !terms.IsValid() {
		return nil, shared.NewValidationError("invalid payment terms: " + string(terms))
	}
	dueDate := terms.DueDate(input.IssueDate)
	if input.DueDate != nil {
		dueDate = *input.DueDate
	}
	if dueDate.Before(input.IssueDate) {
		return nil, shared.NewValidationError("due date cannot be before issue date")
	}

	items, totals, err := input.Content.build()
	if err != nil {
		return nil, err
	}

	inv := &Invoice{
		OwnedAggregateRoot:  shared.NewOwnedAggregateRoot(userID),
		InvoiceNumber:       invoiceNumber,
		Client:              input.Content.Client.normalized(),
		QuoteID:             input.QuoteID,
		RecurringScheduleID: input.RecurringScheduleID,
		RecurringRunDate:    input.RecurringRunDate,
		IsRecurring:         input.RecurringScheduleID != nil,
		Status:              InvoiceStatusDraft,
		IssueDate:           input.IssueDate,
		DueDate:             dueDate,
		PaymentTerms:        terms,
		Totals:              totals,
		AmountPaid:          decimal.Zero,
		BalanceDue:          totals.Total,
		Notes:               input.Content.Notes,
		Terms:               input.Content.Terms,
		Items:               items,
	}
	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))
	return inv, nil
}

// Content returns the invoice's editable body
func (i *Invoice) Content() DocumentContent {
	return DocumentContent{
		Client:         i.Client,
		Items:          LineItemInputs(i.Items),
		DiscountAmount: i.Totals.DiscountAmount,
		DiscountType:   i.Totals.DiscountType,
		Notes:          i.Notes,
		Terms:          i.Terms,
	}
}

// ensureEditable rejects edits to paid and void invoices
func (i *Invoice) ensureEditable() error {
	switch i.Status {
	case InvoiceStatusPaid:
		return shared.NewInvalidStateError("cannot edit an invoice that has been paid")
	case InvoiceStatusVoid:
		return shared.NewInvalidStateError("cannot edit an invoice that has been voided")
	}
	return nil
}

// InvoiceUpdate carries an edit of client, dates, terms and line items
type InvoiceUpdate struct {
	Content      DocumentContent
	IssueDate    time.Time
	DueDate      *time.Time
	PaymentTerms PaymentTerms
}

// Update replaces the invoice body and recomputes totals and balance.
// The new total may not drop below what has already been paid.
func (i *Invoice) Update(update InvoiceUpdate, now time.Time) error {
	if err := i.ensureEditable(); err != nil {
		return err
	}

	issueDate := update.IssueDate
	if issueDate.IsZero() {
		issueDate = i.IssueDate
	}
	terms := update.PaymentTerms
	if terms == "" {
		terms = i.PaymentTerms
	}
	if !terms.IsValid() {
		return shared.NewValidationError("invalid payment terms: " + string(terms))
	}
	dueDate := i.DueDate
	if update.DueDate != nil {
		dueDate = *update.DueDate
	} else if terms != i.PaymentTerms || !issueDate.Equal(i.IssueDate) {
		dueDate = terms.DueDate(issueDate)
	}
	if dueDate.Before(issueDate) {
		return shared.NewValidationError("due date cannot be before issue date")
	}

	items, totals, err := update.Content.build()
	if err != nil {
		return err
	}
	if totals.Total.LessThan(i.AmountPaid) {
		return shared.NewValidationError("invoice total cannot be less than the amount already paid")
	}

	i.Client = update.Content.Client.normalized()
	i.Items = items
	i.Totals = totals
	i.Notes = update.Content.Notes
	i.Terms = update.Content.Terms
	i.IssueDate = issueDate
	i.DueDate = dueDate
	i.PaymentTerms = terms
	wasOverdue := i.Status == InvoiceStatusOverdue
	i.settleBalance(now)
	if wasOverdue && i.Status == InvoiceStatusPartial && i.IsPastDue(now) {
		// an edit is not a payment; a past-due invoice stays overdue
		i.Status = InvoiceStatusOverdue
	}
	i.refreshOverdue(now)
	i.UpdatedAt = now
	return nil
}

// Send marks a draft invoice as sent. Re-sending an already sent invoice keeps its status.
func (i *Invoice) Send(now time.Time) error {
	if i.Status == InvoiceStatusVoid {
		return shared.NewInvalidStateError("cannot send a void invoice")
	}
	if i.Status != InvoiceStatusDraft {
		i.SentAt = &now
		i.UpdatedAt = now
		return nil
	}
	return i.UpdateStatus(InvoiceStatusSent, now)
}

// MarkViewed records that the client opened a sent invoice
func (i *Invoice) MarkViewed(now time.Time) error {
	if i.Status != InvoiceStatusSent {
		return nil
	}
	return i.UpdateStatus(InvoiceStatusViewed, now)
}

// UpdateStatus applies an explicit status change
func (i *Invoice) UpdateStatus(target InvoiceStatus, now time.Time) error {
	if !target.IsValid() {
		return shared.NewValidationError("invalid invoice status: " + string(target))
	}
	if target == InvoiceStatusPaid || target == InvoiceStatusPartial {
		return shared.NewInvalidStateError("paid and partial statuses are set by recording payments")
	}
	if !i.Status.CanTransitionTo(target) {
		return shared.NewInvalidStateError("cannot change invoice status from " + string(i.Status) + " to " + string(target))
	}

	i.Status = target
	switch target {
	case InvoiceStatusSent:
		i.SentAt = &now
		i.AddDomainEvent(NewInvoiceSentEvent(i))
	case InvoiceStatusViewed:
		i.ViewedAt = &now
	case InvoiceStatusOverdue:
		i.AddDomainEvent(NewInvoiceOverdueEvent(i))
	case InvoiceStatusVoid:
		i.VoidedAt = &now
		i.AddDomainEvent(NewInvoiceVoidedEvent(i))
	}
	i.UpdatedAt = now
	return nil
}

// Void cancels the invoice without destroying it; payments and line items are kept for audit
func (i *Invoice) Void(now time.Time) error {
	if i.Status == InvoiceStatusVoid {
		return shared.NewInvalidStateError("invoice is already void")
	}
	return i.UpdateStatus(InvoiceStatusVoid, now)
}

// RecordPayment validates and applies a payment, returning the ledger entry to persist.
// Overpayment is rejected; void invoices accept no payments.
func (i *Invoice) RecordPayment(input PaymentInput, now time.Time) (*Payment, error) {
	if i.Status == InvoiceStatusVoid {
		return nil, shared.NewInvalidStateError("cannot record a payment against a void invoice")
	}
	payment, err := newPayment(i, input, now)
	if err != nil {
		return nil, err
	}
	if payment.Amount.GreaterThan(i.BalanceDue) {
		return nil, shared.NewValidationError("payment amount " + payment.Amount.StringFixed(2) +
			" exceeds balance due " + i.BalanceDue.StringFixed(2))
	}

	i.AmountPaid = i.AmountPaid.Add(payment.Amount)
	i.settleBalance(now)
	i.UpdatedAt = now
	i.AddDomainEvent(NewInvoicePaymentRecordedEvent(i, payment))
	if i.Status == InvoiceStatusPaid {
		i.AddDomainEvent(NewInvoicePaidEvent(i))
	}
	return payment, nil
}

// RemovePayment reverses a payment's effect on the balance and status
func (i *Invoice) RemovePayment(payment *Payment, now time.Time) error {
	if payment.InvoiceID != i.ID {
		return shared.NewNotFoundError("payment")
	}
	if i.Status == InvoiceStatusVoid {
		return shared.NewInvalidStateError("cannot remove a payment from a void invoice")
	}

	i.AmountPaid = i.AmountPaid.Sub(payment.Amount)
	if i.AmountPaid.IsNegative() {
		i.AmountPaid = decimal.Zero
	}
	i.settleBalance(now)
	i.UpdatedAt = now
	i.AddDomainEvent(NewInvoicePaymentDeletedEvent(i, payment))
	return nil
}

// ApplyLedger recomputes amount_paid from the full list of live payments.
// Used to repair an invoice whose stored balance drifted from its payments.
func (i *Invoice) ApplyLedger(payments []Payment, now time.Time) bool {
	paid := SumPayments(payments)
	if paid.Equal(i.AmountPaid) {
		return false
	}
	i.AmountPaid = paid
	i.settleBalance(now)
	i.UpdatedAt = now
	return true
}

// settleBalance recomputes balance_due and the payment-driven status.
// Void invoices keep their status.
func (i *Invoice) settleBalance(now time.Time) {
	i.BalanceDue = i.Totals.Total.Sub(i.AmountPaid)
	if i.BalanceDue.IsNegative() {
		i.BalanceDue = decimal.Zero
	}
	if i.Status == InvoiceStatusVoid {
		return
	}

	switch {
	case i.AmountPaid.IsPositive() && !i.BalanceDue.IsPositive():
		if i.Status != InvoiceStatusPaid {
			i.PaidAt = &now
		}
		i.Status = InvoiceStatusPaid
	case i.AmountPaid.IsPositive():
		i.Status = InvoiceStatusPartial
		i.PaidAt = nil
	case i.Status == InvoiceStatusPaid || i.Status == InvoiceStatusPartial:
		i.PaidAt = nil
		if i.IsPastDue(now) {
			i.Status = InvoiceStatusOverdue
		} else {
			i.Status = InvoiceStatusSent
		}
	}
}

// refreshOverdue moves an overdue invoice back once its due date is pushed into the future
func (i *Invoice) refreshOverdue(now time.Time) {
	if i.Status != InvoiceStatusOverdue || i.IsPastDue(now) {
		return
	}
	if i.AmountPaid.IsPositive() {
		i.Status = InvoiceStatusPartial
	} else {
		i.Status = InvoiceStatusSent
	}
}

// IsPastDue reports whether the due date is before now
func (i *Invoice) IsPastDue(now time.Time) bool {
	return i.DueDate.Before(now)
}

// ReconcileStatus applies the time-dependent overdue rule and reports whether the status changed.
// It is idempotent.
func (i *Invoice) ReconcileStatus(now time.Time) bool {
	next := ReconciledInvoiceStatus(i.Status, i.DueDate, now)
	if next == i.Status {
		return false
	}
	i.Status = next
	i.UpdatedAt = now
	i.AddDomainEvent(NewInvoiceOverdueEvent(i))
	return true
}

// DaysOverdue returns whole days past the due date, or 0
func (i *Invoice) DaysOverdue(now time.Time) int {
	if !i.IsPastDue(now) || i.Status.IsTerminal() {
		return 0
	}
	return int(now.Sub(i.DueDate).Hours() / 24)
}
