package invoicing

import (
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/invoicing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateQuoteRequest represents a request to create a quote
type CreateQuoteRequest struct {
	Content    invoicing.DocumentContent
	IssueDate  *time.Time
	ExpiryDate *time.Time
}

// UpdateQuoteRequest replaces a quote's content. A nil IssueDate keeps the current one.
type UpdateQuoteRequest struct {
	Content    invoicing.DocumentContent
	IssueDate  *time.Time
	ExpiryDate *time.Time
}

// CreateInvoiceRequest represents a request to create an invoice
type CreateInvoiceRequest struct {
	Content      invoicing.DocumentContent
	IssueDate    *time.Time
	DueDate      *time.Time
	PaymentTerms string
}

// UpdateInvoiceRequest replaces an invoice's content, dates and terms
type UpdateInvoiceRequest struct {
	Content      invoicing.DocumentContent
	IssueDate    *time.Time
	DueDate      *time.Time
	PaymentTerms string
}

// RecordPaymentRequest represents a payment posted against an invoice
type RecordPaymentRequest struct {
	Amount        decimal.Decimal
	PaymentDate   *time.Time
	Method        string
	Reference     string
	TransactionID *uuid.UUID
	Notes         string
}

// ConvertQuoteRequest selects the payment terms of the invoice created from a quote
type ConvertQuoteRequest struct {
	PaymentTerms string
}

// ScheduleRequest creates or updates a recurring schedule
type ScheduleRequest struct {
	Name           string
	Frequency      string
	IntervalCount  int
	StartDate      time.Time
	EndDate        *time.Time
	MaxOccurrences *int
	Content        invoicing.DocumentContent
	PaymentTerms   string
	AutoSend       bool
}

func (r ScheduleRequest) toInput() invoicing.RecurringScheduleInput {
	return invoicing.RecurringScheduleInput{
		Name:           r.Name,
		Frequency:      invoicing.Frequency(r.Frequency),
		IntervalCount:  r.IntervalCount,
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
		MaxOccurrences: r.MaxOccurrences,
		Template: invoicing.RecurringTemplate{
			Content:      r.Content,
			PaymentTerms: invoicing.PaymentTerms(r.PaymentTerms),
			AutoSend:     r.AutoSend,
		},
	}
}

// TotalsResponse is the money block of a quote or invoice
type TotalsResponse struct {
	Subtotal          decimal.Decimal `json:"subtotal"`
	TaxTotal          decimal.Decimal `json:"tax_total"`
	DiscountAmount    decimal.Decimal `json:"discount_amount"`
	DiscountType      string          `json:"discount_type"`
	EffectiveDiscount decimal.Decimal `json:"effective_discount"`
	Total             decimal.Decimal `json:"total"`
}

// QuoteResponse represents a quote in API responses
type QuoteResponse struct {
	TotalsResponse
	ID                   uuid.UUID            `json:"id"`
	UserID               uuid.UUID            `json:"user_id"`
	QuoteNumber          string               `json:"quote_number"`
	Client               invoicing.ClientInfo `json:"client"`
	Status               string               `json:"status"`
	IssueDate            time.Time            `json:"issue_date"`
	ExpiryDate           *time.Time           `json:"expiry_date,omitempty"`
	Notes                string               `json:"notes"`
	Terms                string               `json:"terms"`
	Items                []invoicing.LineItem `json:"items"`
	ConvertedToInvoiceID *uuid.UUID           `json:"converted_to_invoice_id,omitempty"`
	SentAt               *time.Time           `json:"sent_at,omitempty"`
	AcceptedAt           *time.Time           `json:"accepted_at,omitempty"`
	DeclinedAt           *time.Time           `json:"declined_at,omitempty"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
	Version              int                  `json:"version"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	TotalsResponse
	ID                  uuid.UUID            `json:"id"`
	UserID              uuid.UUID            `json:"user_id"`
	InvoiceNumber       string               `json:"invoice_number"`
	Client              invoicing.ClientInfo `json:"client"`
	QuoteID             *uuid.UUID           `json:"quote_id,omitempty"`
	RecurringScheduleID *uuid.UUID           `json:"recurring_schedule_id,omitempty"`
	IsRecurring         bool                 `json:"is_recurring"`
	Status              string               `json:"status"`
	IssueDate           time.Time            `json:"issue_date"`
	DueDate             time.Time            `json:"due_date"`
	PaymentTerms        string               `json:"payment_terms"`
	AmountPaid          decimal.Decimal      `json:"amount_paid"`
	BalanceDue          decimal.Decimal      `json:"balance_due"`
	DaysOverdue         int                  `json:"days_overdue"`
	Notes               string               `json:"notes"`
	Terms               string               `json:"terms"`
	Items               []invoicing.LineItem `json:"items"`
	SentAt              *time.Time           `json:"sent_at,omitempty"`
	ViewedAt            *time.Time           `json:"viewed_at,omitempty"`
	PaidAt              *time.Time           `json:"paid_at,omitempty"`
	VoidedAt            *time.Time           `json:"voided_at,omitempty"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
	Version             int                  `json:"version"`
}

// PaymentResponse represents a ledger entry in API responses
type PaymentResponse struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   time.Time       `json:"payment_date"`
	Method        string          `json:"method"`
	Reference     string          `json:"reference"`
	TransactionID *uuid.UUID      `json:"transaction_id,omitempty"`
	Notes         string          `json:"notes"`
	CreatedAt     time.Time       `json:"created_at"`
}

// PaymentResult is returned after a payment is recorded or deleted.
// It carries the invoice state after the ledger change.
type PaymentResult struct {
	Payment PaymentResponse `json:"payment"`
	Invoice InvoiceResponse `json:"invoice"`
}

// ScheduleResponse represents a recurring schedule in API responses
type ScheduleResponse struct {
	ID                   uuid.UUID                   `json:"id"`
	UserID               uuid.UUID                   `json:"user_id"`
	Name                 string                      `json:"name"`
	Frequency            string                      `json:"frequency"`
	IntervalCount        int                         `json:"interval_count"`
	StartDate            time.Time                   `json:"start_date"`
	NextRunDate          time.Time                   `json:"next_run_date"`
	AnchorDay            int                         `json:"anchor_day"`
	EndDate              *time.Time                  `json:"end_date,omitempty"`
	MaxOccurrences       *int                        `json:"max_occurrences,omitempty"`
	OccurrencesGenerated int                         `json:"occurrences_generated"`
	LastRunDate          *time.Time                  `json:"last_run_date,omitempty"`
	LastInvoiceID        *uuid.UUID                  `json:"last_invoice_id,omitempty"`
	IsActive             bool                        `json:"is_active"`
	Template             invoicing.RecurringTemplate `json:"template_data"`
	CreatedAt            time.Time                   `json:"created_at"`
	UpdatedAt            time.Time                   `json:"updated_at"`
	Version              int                         `json:"version"`
}

// ConversionResult links a converted quote to the invoice it produced
type ConversionResult struct {
	Quote   QuoteResponse   `json:"quote"`
	Invoice InvoiceResponse `json:"invoice"`
}

// InvoiceSummaryResponse is the invoice summary with an aging breakdown
type InvoiceSummaryResponse struct {
	invoicing.InvoiceSummary
	Aging map[invoicing.AgingBucket]decimal.Decimal `json:"aging"`
}

// ScheduleError records why one schedule failed during a batch run
type ScheduleError struct {
	ScheduleID uuid.UUID `json:"schedule_id"`
	Error      string    `json:"error"`
}

// BatchResult reports the outcome of one recurring processing run
type BatchResult struct {
	Processed   int             `json:"processed"`
	Generated   int             `json:"generated"`
	Deactivated int             `json:"deactivated"`
	Skipped     int             `json:"skipped"`
	Errors      []ScheduleError `json:"errors"`
}

// SweepResult reports how many documents a reconcile sweep changed
type SweepResult struct {
	QuotesExpired   int `json:"quotes_expired"`
	InvoicesOverdue int `json:"invoices_overdue"`
	Failed          int `json:"failed"`
}

func toTotalsResponse(t invoicing.DocumentTotals) TotalsResponse {
	return TotalsResponse{
		Subtotal:          t.Subtotal,
		TaxTotal:          t.TaxTotal,
		DiscountAmount:    t.DiscountAmount,
		DiscountType:      string(t.DiscountType),
		EffectiveDiscount: t.EffectiveDiscount(),
		Total:             t.Total,
	}
}

// ToQuoteResponse converts a domain quote to a response
func ToQuoteResponse(q *invoicing.Quote) QuoteResponse {
	return QuoteResponse{
		ID:                   q.ID,
		UserID:               q.UserID,
		QuoteNumber:          q.QuoteNumber,
		Client:               q.Client,
		Status:               string(q.Status),
		IssueDate:            q.IssueDate,
		ExpiryDate:           q.ExpiryDate,
		TotalsResponse:       toTotalsResponse(q.Totals),
		Notes:                q.Notes,
		Terms:                q.Terms,
		Items:                q.Items,
		ConvertedToInvoiceID: q.ConvertedToInvoiceID,
		SentAt:               q.SentAt,
		AcceptedAt:           q.AcceptedAt,
		DeclinedAt:           q.DeclinedAt,
		CreatedAt:            q.CreatedAt,
		UpdatedAt:            q.UpdatedAt,
		Version:              q.Version,
	}
}

// ToQuoteResponses converts a slice of quotes
func ToQuoteResponses(quotes []invoicing.Quote) []QuoteResponse {
	out := make([]QuoteResponse, len(quotes))
	for i := range quotes {
		out[i] = ToQuoteResponse(&quotes[i])
	}
	return out
}

// ToInvoiceResponse converts a domain invoice to a response. now drives DaysOverdue.
func ToInvoiceResponse(inv *invoicing.Invoice, now time.Time) InvoiceResponse {
	return InvoiceResponse{
		ID:                  inv.ID,
		UserID:              inv.UserID,
		InvoiceNumber:       inv.InvoiceNumber,
		Client:              inv.Client,
		QuoteID:             inv.QuoteID,
		RecurringScheduleID: inv.RecurringScheduleID,
		IsRecurring:         inv.IsRecurring,
		Status:              string(inv.Status),
		IssueDate:           inv.IssueDate,
		DueDate:             inv.DueDate,
		PaymentTerms:        string(inv.PaymentTerms),
		TotalsResponse:      toTotalsResponse(inv.Totals),
		AmountPaid:          inv.AmountPaid,
		BalanceDue:          inv.BalanceDue,
		DaysOverdue:         inv.DaysOverdue(now),
		Notes:               inv.Notes,
		Terms:               inv.Terms,
		Items:               inv.Items,
		SentAt:              inv.SentAt,
		ViewedAt:            inv.ViewedAt,
		PaidAt:              inv.PaidAt,
		VoidedAt:            inv.VoidedAt,
		CreatedAt:           inv.CreatedAt,
		UpdatedAt:           inv.UpdatedAt,
		Version:             inv.Version,
	}
}

// ToInvoiceResponses converts a slice of invoices
func ToInvoiceResponses(invoices []invoicing.Invoice, now time.Time) []InvoiceResponse {
	out := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		out[i] = ToInvoiceResponse(&invoices[i], now)
	}
	return out
}

// ToPaymentResponse converts a domain payment to a response
func ToPaymentResponse(p *invoicing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		InvoiceID:     p.InvoiceID,
		Amount:        p.Amount,
		PaymentDate:   p.PaymentDate,
		Method:        string(p.Method),
		Reference:     p.Reference,
		TransactionID: p.TransactionID,
		Notes:         p.Notes,
		CreatedAt:     p.CreatedAt,
	}
}

// ToScheduleResponse converts a domain schedule to a response
func ToScheduleResponse(s *invoicing.RecurringSchedule) ScheduleResponse {
	return ScheduleResponse{
		ID:                   s.ID,
		UserID:               s.UserID,
		Name:                 s.Name,
		Frequency:            string(s.Frequency),
		IntervalCount:        s.IntervalCount,
		StartDate:            s.StartDate,
		NextRunDate:          s.NextRunDate,
		AnchorDay:            s.AnchorDay,
		EndDate:              s.EndDate,
		MaxOccurrences:       s.MaxOccurrences,
		OccurrencesGenerated: s.OccurrencesGenerated,
		LastRunDate:          s.LastRunDate,
		LastInvoiceID:        s.LastInvoiceID,
		IsActive:             s.IsActive,
		Template:             s.Template,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
		Version:              s.Version,
	}
}
