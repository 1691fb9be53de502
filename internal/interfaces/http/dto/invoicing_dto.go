package dto

import (
	"time"

	appinvoicing "github.com/RACCHUS/BookkeepingApp-sub007/internal/application/invoicing"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/invoicing"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of calendar dates in requests
const DateLayout = "2006-01-02"

// ClientBody is the client snapshot of a document
type ClientBody struct {
	ClientID  *uuid.UUID `json:"client_id"`
	CompanyID *uuid.UUID `json:"company_id"`
	Name      string     `json:"client_name" binding:"max=200"`
	Email     string     `json:"client_email" binding:"omitempty,email,max=254"`
	Address   string     `json:"client_address" binding:"max=1000"`
}

// LineItemBody is one line of a document
type LineItemBody struct {
	Description string          `json:"description" binding:"required,max=500"`
	Quantity    decimal.Decimal `json:"quantity" binding:"decimal_gt0"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"decimal_gte0"`
	TaxRate     decimal.Decimal `json:"tax_rate" binding:"decimal_percent"`
	ProductID   *uuid.UUID      `json:"product_id"`
}

// ContentBody is the editable body shared by quotes, invoices and schedule templates
type ContentBody struct {
	Client         ClientBody      `json:"client"`
	Items          []LineItemBody  `json:"items" binding:"required,min=1,max=200,dive"`
	DiscountAmount decimal.Decimal `json:"discount_amount" binding:"decimal_gte0"`
	DiscountType   string          `json:"discount_type" binding:"omitempty,discount_type"`
	Notes          string          `json:"notes" binding:"max=5000"`
	Terms          string          `json:"terms" binding:"max=5000"`
}

// ToDomain converts the body to domain content
func (b ContentBody) ToDomain() invoicing.DocumentContent {
	items := make([]invoicing.LineItemInput, len(b.Items))
	for i, it := range b.Items {
		items[i] = invoicing.LineItemInput{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate,
			ProductID:   it.ProductID,
		}
	}
	return invoicing.DocumentContent{
		Client: invoicing.ClientInfo{
			ClientID:  b.Client.ClientID,
			CompanyID: b.Client.CompanyID,
			Name:      b.Client.Name,
			Email:     b.Client.Email,
			Address:   b.Client.Address,
		},
		Items:          items,
		DiscountAmount: b.DiscountAmount,
		DiscountType:   invoicing.DiscountType(b.DiscountType),
		Notes:          b.Notes,
		Terms:          b.Terms,
	}
}

// QuoteBody creates or replaces a quote
type QuoteBody struct {
	ContentBody
	IssueDate  string `json:"issue_date" binding:"omitempty,datetime=2006-01-02"`
	ExpiryDate string `json:"expiry_date" binding:"omitempty,datetime=2006-01-02"`
}

// ToCreateRequest converts the body to a service request
func (b QuoteBody) ToCreateRequest() (appinvoicing.CreateQuoteRequest, error) {
	issue, expiry, err := parseDatePair("issue_date", b.IssueDate, "expiry_date", b.ExpiryDate)
	if err != nil {
		return appinvoicing.CreateQuoteRequest{}, err
	}
	return appinvoicing.CreateQuoteRequest{Content: b.ToDomain(), IssueDate: issue, ExpiryDate: expiry}, nil
}

// ToUpdateRequest converts the body to a service request
func (b QuoteBody) ToUpdateRequest() (appinvoicing.UpdateQuoteRequest, error) {
	issue, expiry, err := parseDatePair("issue_date", b.IssueDate, "expiry_date", b.ExpiryDate)
	if err != nil {
		return appinvoicing.UpdateQuoteRequest{}, err
	}
	return appinvoicing.UpdateQuoteRequest{Content: b.ToDomain(), IssueDate: issue, ExpiryDate: expiry}, nil
}

// InvoiceBody creates or replaces an invoice
type InvoiceBody struct {
	ContentBody
	IssueDate    string `json:"issue_date" binding:"omitempty,datetime=2006-01-02"`
	DueDate      string `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
	PaymentTerms string `json:"payment_terms" binding:"omitempty,payment_terms"`
}

// ToCreateRequest converts the body to a service request
func (b InvoiceBody) ToCreateRequest() (appinvoicing.CreateInvoiceRequest, error) {
	issue, due, err := parseDatePair("issue_date", b.IssueDate, "due_date", b.DueDate)
	if err != nil {
		return appinvoicing.CreateInvoiceRequest{}, err
	}
	return appinvoicing.CreateInvoiceRequest{
		Content:      b.ToDomain(),
		IssueDate:    issue,
		DueDate:      due,
		PaymentTerms: b.PaymentTerms,
	}, nil
}

// ToUpdateRequest converts the body to a service request
func (b InvoiceBody) ToUpdateRequest() (appinvoicing.UpdateInvoiceRequest, error) {
	issue, due, err := parseDatePair("issue_date", b.IssueDate, "due_date", b.DueDate)
	if err != nil {
		return appinvoicing.UpdateInvoiceRequest{}, err
	}
	return appinvoicing.UpdateInvoiceRequest{
		Content:      b.ToDomain(),
		IssueDate:    issue,
		DueDate:      due,
		PaymentTerms: b.PaymentTerms,
	}, nil
}

// QuoteStatusBody sets a quote status explicitly
type QuoteStatusBody struct {
	Status string `json:"status" binding:"required,quote_status"`
}

// InvoiceStatusBody sets an invoice status explicitly
type InvoiceStatusBody struct {
	Status string `json:"status" binding:"required,invoice_status"`
}

// ConvertQuoteBody selects the terms of the invoice created from a quote
type ConvertQuoteBody struct {
	PaymentTerms string `json:"payment_terms" binding:"omitempty,payment_terms"`
}

// ToRequest converts the body to a service request
func (b ConvertQuoteBody) ToRequest() appinvoicing.ConvertQuoteRequest {
	return appinvoicing.ConvertQuoteRequest{PaymentTerms: b.PaymentTerms}
}

// PaymentBody posts a payment against an invoice
type PaymentBody struct {
	Amount        decimal.Decimal `json:"amount" binding:"decimal_gt0"`
	PaymentDate   string          `json:"payment_date" binding:"omitempty,datetime=2006-01-02"`
	Method        string          `json:"method" binding:"omitempty,payment_method"`
	Reference     string          `json:"reference" binding:"max=100"`
	TransactionID *uuid.UUID      `json:"transaction_id"`
	Notes         string          `json:"notes" binding:"max=1000"`
}

// ToRequest converts the body to a service request
func (b PaymentBody) ToRequest() (appinvoicing.RecordPaymentRequest, error) {
	date, err := ParseDate("payment_date", b.PaymentDate)
	if err != nil {
		return appinvoicing.RecordPaymentRequest{}, err
	}
	return appinvoicing.RecordPaymentRequest{
		Amount:        b.Amount,
		PaymentDate:   date,
		Method:        b.Method,
		Reference:     b.Reference,
		TransactionID: b.TransactionID,
		Notes:         b.Notes,
	}, nil
}

// ScheduleBody creates or updates a recurring schedule
type ScheduleBody struct {
	Name           string      `json:"name" binding:"required,max=200"`
	Frequency      string      `json:"frequency" binding:"required,frequency"`
	IntervalCount  int         `json:"interval_count" binding:"omitempty,min=1,max=36"`
	StartDate      string      `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate        string      `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	MaxOccurrences *int        `json:"max_occurrences" binding:"omitempty,min=1"`
	Template       ContentBody `json:"template"`
	PaymentTerms   string      `json:"payment_terms" binding:"omitempty,payment_terms"`
	AutoSend       bool        `json:"auto_send"`
}

// ToRequest converts the body to a service request
func (b ScheduleBody) ToRequest() (appinvoicing.ScheduleRequest, error) {
	start, err := ParseDate("start_date", b.StartDate)
	if err != nil {
		return appinvoicing.ScheduleRequest{}, err
	}
	if start == nil {
		return appinvoicing.ScheduleRequest{}, shared.NewValidationError("start_date is required")
	}
	end, err := ParseDate("end_date", b.EndDate)
	if err != nil {
		return appinvoicing.ScheduleRequest{}, err
	}
	return appinvoicing.ScheduleRequest{
		Name:           b.Name,
		Frequency:      b.Frequency,
		IntervalCount:  b.IntervalCount,
		StartDate:      *start,
		EndDate:        end,
		MaxOccurrences: b.MaxOccurrences,
		Content:        b.Template.ToDomain(),
		PaymentTerms:   b.PaymentTerms,
		AutoSend:       b.AutoSend,
	}, nil
}

// QuoteListQuery filters quote lists and summaries
type QuoteListQuery struct {
	ListRequest
	Status   string `form:"status" binding:"omitempty,quote_status"`
	ClientID string `form:"client_id" binding:"omitempty,uuid"`
	FromDate string `form:"from_date" binding:"omitempty,datetime=2006-01-02"`
	ToDate   string `form:"to_date" binding:"omitempty,datetime=2006-01-02"`
}

// ToFilter converts the query to a repository filter
func (q QuoteListQuery) ToFilter() (invoicing.QuoteFilter, error) {
	filter := invoicing.QuoteFilter{Filter: q.ListRequest.ToFilter()}
	if q.Status != "" {
		status := invoicing.QuoteStatus(q.Status)
		filter.Status = &status
	}
	var err error
	if filter.ClientID, err = ParseUUID("client_id", q.ClientID); err != nil {
		return filter, err
	}
	if filter.FromDate, filter.ToDate, err = parseDatePair("from_date", q.FromDate, "to_date", q.ToDate); err != nil {
		return filter, err
	}
	return filter, nil
}

// InvoiceListQuery filters invoice lists and summaries.
// status may repeat: ?status=sent&status=overdue
type InvoiceListQuery struct {
	ListRequest
	Statuses            []string `form:"status" binding:"omitempty,dive,invoice_status"`
	ClientID            string   `form:"client_id" binding:"omitempty,uuid"`
	RecurringScheduleID string   `form:"recurring_schedule_id" binding:"omitempty,uuid"`
	FromDate            string   `form:"from_date" binding:"omitempty,datetime=2006-01-02"`
	ToDate              string   `form:"to_date" binding:"omitempty,datetime=2006-01-02"`
	DueBefore           string   `form:"due_before" binding:"omitempty,datetime=2006-01-02"`
}

// ToFilter converts the query to a repository filter
func (q InvoiceListQuery) ToFilter() (invoicing.InvoiceFilter, error) {
	filter := invoicing.InvoiceFilter{Filter: q.ListRequest.ToFilter()}
	for _, s := range q.Statuses {
		filter.Statuses = append(filter.Statuses, invoicing.InvoiceStatus(s))
	}
	var err error
	if filter.ClientID, err = ParseUUID("client_id", q.ClientID); err != nil {
		return filter, err
	}
	if filter.RecurringScheduleID, err = ParseUUID("recurring_schedule_id", q.RecurringScheduleID); err != nil {
		return filter, err
	}
	if filter.FromDate, filter.ToDate, err = parseDatePair("from_date", q.FromDate, "to_date", q.ToDate); err != nil {
		return filter, err
	}
	if filter.DueBefore, err = ParseDate("due_before", q.DueBefore); err != nil {
		return filter, err
	}
	return filter, nil
}

// DeleteInvoiceQuery selects between voiding and permanent removal
type DeleteInvoiceQuery struct {
	Permanent bool `form:"permanent"`
}

// ParseDate parses an optional YYYY-MM-DD value as midnight UTC
func ParseDate(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return nil, shared.NewValidationError(field + " must be a date in YYYY-MM-DD format")
	}
	return &t, nil
}

// ParseUUID parses an optional identifier
func ParseUUID(field, value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, shared.NewValidationError(field + " must be a valid UUID")
	}
	return &id, nil
}

func parseDatePair(firstField, first, secondField, second string) (*time.Time, *time.Time, error) {
	a, err := ParseDate(firstField, first)
	if err != nil {
		return nil, nil, err
	}
	b, err := ParseDate(secondField, second)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}
