package invoicing

import (
	"strings"
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"github.com/google/uuid"
)

// QuoteStatus represents the lifecycle status of a quote
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusDeclined QuoteStatus = "declined"
	QuoteStatusExpired  QuoteStatus = "expired"
)

// AllQuoteStatuses lists every quote status
var AllQuoteStatuses = []QuoteStatus{
	QuoteStatusDraft,
	QuoteStatusSent,
	QuoteStatusAccepted,
	QuoteStatusDeclined,
	QuoteStatusExpired,
}

// IsValid checks if the status is a known quote status
func (s QuoteStatus) IsValid() bool {
	for _, v := range AllQuoteStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// String returns the string representation
func (s QuoteStatus) String() string {
	return string(s)
}

// CanTransitionTo reports whether an explicit status update from s to target is allowed.
// accepted and declined are reachable from any other status; expired only from sent.
func (s QuoteStatus) CanTransitionTo(target QuoteStatus) bool {
	if s == target {
		return false
	}
	switch target {
	case QuoteStatusAccepted, QuoteStatusDeclined:
		return true
	case QuoteStatusSent:
		return s == QuoteStatusDraft || s == QuoteStatusExpired
	case QuoteStatusExpired:
		return s == QuoteStatusSent
	default:
		return false
	}
}

// Quote is the aggregate root for a price offer sent to a client
type Quote struct {
	shared.OwnedAggregateRoot
	QuoteNumber          string
	Client               ClientInfo
	Status               QuoteStatus
	IssueDate            time.Time
	ExpiryDate           *time.Time
	Totals               DocumentTotals
	Notes                string
	Terms                string
	Items                []LineItem
	ConvertedToInvoiceID *uuid.UUID
	SentAt               *time.Time
	AcceptedAt           *time.Time
	DeclinedAt           *time.Time
}

// NewQuote creates a draft quote from content
func NewQuote(userID uuid.UUID, quoteNumber string, content DocumentContent, issueDate time.Time, expiryDate *time.Time) (*Quote, error) {
	if userID == uuid.Nil {
		return nil, shared.NewValidationError("owner user ID cannot be empty")
	}
	quoteNumber = strings.TrimSpace(quoteNumber)
	if quoteNumber == "" {
		return nil, shared.NewValidationError("quote number cannot be empty")
	}
	if issueDate.IsZero() {
		return nil, shared.NewValidationError("issue date is required")
	}
	if err := validateExpiry(issueDate, expiryDate); err != nil {
		return nil, err
	}

	items, totals, err := content.build()
	if err != nil {
		return nil, err
	}

	q := &Quote{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(userID),
		QuoteNumber:        quoteNumber,
		Client:             content.Client.normalized(),
		Status:             QuoteStatusDraft,
		IssueDate:          issueDate,
		ExpiryDate:         expiryDate,
		Totals:             totals,
		Notes:              content.Notes,
		Terms:              content.Terms,
		Items:              items,
	}
	q.AddDomainEvent(NewQuoteCreatedEvent(q))
	return q, nil
}

func validateExpiry(issueDate time.Time, expiryDate *time.Time) error {
	if expiryDate != nil && expiryDate.Before(issueDate) {
		return shared.NewValidationError("expiry date cannot be before issue date")
	}
	return nil
}

// IsConverted reports whether the quote has been turned into an invoice
func (q *Quote) IsConverted() bool {
	return q.ConvertedToInvoiceID != nil
}

// Content returns the quote's editable body
func (q *Quote) Content() DocumentContent {
	return DocumentContent{
		Client:         q.Client,
		Items:          LineItemInputs(q.Items),
		DiscountAmount: q.Totals.DiscountAmount,
		DiscountType:   q.Totals.DiscountType,
		Notes:          q.Notes,
		Terms:          q.Terms,
	}
}

// UpdateContent replaces client, items, discount and text, recomputing totals.
// Edits are allowed in any status until the quote is converted.
func (q *Quote) UpdateContent(content DocumentContent, issueDate time.Time, expiryDate *time.Time, now time.Time) error {
	if q.IsConverted() {
		return shared.NewInvalidStateError("cannot edit a quote that has been converted to an invoice")
	}
	if issueDate.IsZero() {
		issueDate = q.IssueDate
	}
	if err := validateExpiry(issueDate, expiryDate); err != nil {
		return err
	}

	items, totals, err := content.build()
	if err != nil {
		return err
	}

	q.Client = content.Client.normalized()
	q.Items = items
	q.Totals = totals
	q.Notes = content.Notes
	q.Terms = content.Terms
	q.IssueDate = issueDate
	q.ExpiryDate = expiryDate
	q.UpdatedAt = now
	return nil
}

// Send moves a draft (or expired) quote to sent
func (q *Quote) Send(now time.Time) error {
	return q.UpdateStatus(QuoteStatusSent, now)
}

// UpdateStatus applies an explicit status change requested by the owner
func (q *Quote) UpdateStatus(target QuoteStatus, now time.Time) error {
	if !target.IsValid() {
		return shared.NewValidationError("invalid quote status: " + string(target))
	}
	if q.IsConverted() {
		return shared.NewInvalidStateError("cannot change the status of a quote that has been converted to an invoice")
	}
	if !q.Status.CanTransitionTo(target) {
		return shared.NewInvalidStateError("cannot change quote status from " + string(q.Status) + " to " + string(target))
	}

	q.Status = target
	switch target {
	case QuoteStatusSent:
		q.SentAt = &now
		q.AddDomainEvent(NewQuoteSentEvent(q))
	case QuoteStatusAccepted:
		q.AcceptedAt = &now
		q.DeclinedAt = nil
		q.AddDomainEvent(NewQuoteStatusChangedEvent(q))
	case QuoteStatusDeclined:
		q.DeclinedAt = &now
		q.AcceptedAt = nil
		q.AddDomainEvent(NewQuoteStatusChangedEvent(q))
	case QuoteStatusExpired:
		q.AddDomainEvent(NewQuoteExpiredEvent(q))
	}
	q.UpdatedAt = now
	return nil
}

// ReconcileStatus applies the time-dependent expiry rule and reports whether the status changed.
// It is idempotent: calling it again with the same now changes nothing.
func (q *Quote) ReconcileStatus(now time.Time) bool {
	next := ReconciledQuoteStatus(q.Status, q.ExpiryDate, now)
	if next == q.Status {
		return false
	}
	q.Status = next
	q.UpdatedAt = now
	q.AddDomainEvent(NewQuoteExpiredEvent(q))
	return true
}

// MarkConverted links the quote to the invoice created from it. A quote converts at most once.
func (q *Quote) MarkConverted(invoiceID uuid.UUID, now time.Time) error {
	if err := q.EnsureConvertible(); err != nil {
		return err
	}
	q.ConvertedToInvoiceID = &invoiceID
	q.UpdatedAt = now
	q.AddDomainEvent(NewQuoteConvertedEvent(q, invoiceID))
	return nil
}

// EnsureConvertible fails unless the quote is accepted and not yet converted
func (q *Quote) EnsureConvertible() error {
	if q.IsConverted() {
		return shared.NewInvalidStateError("quote has already been converted to an invoice")
	}
	if q.Status != QuoteStatusAccepted {
		return shared.NewInvalidStateError("only accepted quotes can be converted, quote is " + string(q.Status))
	}
	return nil
}

// Duplicate creates a new draft quote with the same client, items, discount and text.
// The copy gets a fresh issue date and number; a validity window is carried over.
func (q *Quote) Duplicate(quoteNumber string, now time.Time) (*Quote, error) {
	var expiry *time.Time
	if q.ExpiryDate != nil {
		e := now.Add(q.ExpiryDate.Sub(q.IssueDate))
		expiry = &e
	}
	return NewQuote(q.UserID, quoteNumber, q.Content(), now, expiry)
}

// CanDelete reports whether the quote may be removed. Converted quotes are kept as the invoice's origin.
func (q *Quote) CanDelete() error {
	if q.IsConverted() {
		return shared.NewInvalidStateError("cannot delete a quote that has been converted to an invoice")
	}
	return nil
}
