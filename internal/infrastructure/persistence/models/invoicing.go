package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/invoicing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ClientColumns holds the client snapshot stored on quotes and invoices
type ClientColumns struct {
	ClientID      *uuid.UUID `gorm:"type:uuid;index"`
	CompanyID     *uuid.UUID `gorm:"type:uuid"`
	ClientName    string     `gorm:"type:varchar(200)"`
	ClientEmail   string     `gorm:"type:varchar(200)"`
	ClientAddress string     `gorm:"type:text"`
}

func (c ClientColumns) toDomain() invoicing.ClientInfo {
	return invoicing.ClientInfo{
		ClientID:  c.ClientID,
		CompanyID: c.CompanyID,
		Name:      c.ClientName,
		Email:     c.ClientEmail,
		Address:   c.ClientAddress,
	}
}

func clientColumnsFromDomain(c invoicing.ClientInfo) ClientColumns {
	return ClientColumns{
		ClientID:      c.ClientID,
		CompanyID:     c.CompanyID,
		ClientName:    c.Name,
		ClientEmail:   c.Email,
		ClientAddress: c.Address,
	}
}

// TotalsColumns holds the persisted totals shape shared by quotes and invoices
type TotalsColumns struct {
	Subtotal       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxTotal       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DiscountType   string          `gorm:"type:varchar(20);not null;default:'fixed'"`
	Total          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

func (t TotalsColumns) toDomain() invoicing.DocumentTotals {
	return invoicing.DocumentTotals{
		Subtotal:       t.Subtotal,
		TaxTotal:       t.TaxTotal,
		DiscountAmount: t.DiscountAmount,
		DiscountType:   invoicing.DiscountType(t.DiscountType),
		Total:          t.Total,
	}
}

func totalsColumnsFromDomain(t invoicing.DocumentTotals) TotalsColumns {
	return TotalsColumns{
		Subtotal:       t.Subtotal,
		TaxTotal:       t.TaxTotal,
		DiscountAmount: t.DiscountAmount,
		DiscountType:   string(t.DiscountType),
		Total:          t.Total,
	}
}

// LineItemColumns holds the columns shared by quote and invoice line items
type LineItemColumns struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	Description string          `gorm:"type:varchar(500);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(9,4);not null;default:0"`
	ProductID   *uuid.UUID      `gorm:"type:uuid"`
	SortOrder   int             `gorm:"not null;default:0"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TaxAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Total       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

func (l LineItemColumns) toDomain() invoicing.LineItem {
	return invoicing.LineItem{
		ID:          l.ID,
		Description: l.Description,
		Quantity:    l.Quantity,
		UnitPrice:   l.UnitPrice,
		TaxRate:     l.TaxRate,
		ProductID:   l.ProductID,
		SortOrder:   l.SortOrder,
		Subtotal:    l.Subtotal,
		TaxAmount:   l.TaxAmount,
		Total:       l.Total,
	}
}

func lineItemColumnsFromDomain(li invoicing.LineItem) LineItemColumns {
	id := li.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return LineItemColumns{
		ID:          id,
		Description: li.Description,
		Quantity:    li.Quantity,
		UnitPrice:   li.UnitPrice,
		TaxRate:     li.TaxRate,
		ProductID:   li.ProductID,
		SortOrder:   li.SortOrder,
		Subtotal:    li.Subtotal,
		TaxAmount:   li.TaxAmount,
		Total:       li.Total,
	}
}

// QuoteModel is the persistence model for the Quote aggregate root.
type QuoteModel struct {
	OwnedAggregateModel
	QuoteNumber string `gorm:"type:varchar(50);not null;index"`
	ClientColumns
	Status      string     `gorm:"type:varchar(20);not null;default:'draft';index"`
	IssueDate   time.Time  `gorm:"not null"`
	ExpiryDate  *time.Time `gorm:"index"`
	TotalsColumns
	Notes                string     `gorm:"type:text"`
	Terms                string     `gorm:"type:text"`
	ConvertedToInvoiceID *uuid.UUID `gorm:"type:uuid"`
	SentAt               *time.Time
	AcceptedAt           *time.Time
	DeclinedAt           *time.Time
	Items                []QuoteLineItemModel `gorm:"foreignKey:QuoteID;references:ID"`
}

// TableName returns the table name for GORM
func (QuoteModel) TableName() string {
	return "quotes"
}

// QuoteLineItemModel is the persistence model for a quote's line item
type QuoteLineItemModel struct {
	LineItemColumns
	QuoteID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (QuoteLineItemModel) TableName() string {
	return "quote_line_items"
}

// ToDomain converts the persistence model to a domain Quote
func (m *QuoteModel) ToDomain() *invoicing.Quote {
	q := &invoicing.Quote{
		QuoteNumber:          m.QuoteNumber,
		Client:               m.ClientColumns.toDomain(),
		Status:               invoicing.QuoteStatus(m.Status),
		IssueDate:            m.IssueDate,
		ExpiryDate:           m.ExpiryDate,
		Totals:               m.TotalsColumns.toDomain(),
		Notes:                m.Notes,
		Terms:                m.Terms,
		Items:                make([]invoicing.LineItem, len(m.Items)),
		ConvertedToInvoiceID: m.ConvertedToInvoiceID,
		SentAt:               m.SentAt,
		AcceptedAt:           m.AcceptedAt,
		DeclinedAt:           m.DeclinedAt,
	}
	m.PopulateOwnedAggregateRoot(&q.OwnedAggregateRoot)
	for i := range m.Items {
		q.Items[i] = m.Items[i].toDomain()
	}
	sortLineItems(q.Items)
	return q
}

// QuoteModelFromDomain creates a persistence model from a domain Quote
func QuoteModelFromDomain(q *invoicing.Quote) *QuoteModel {
	m := &QuoteModel{
		QuoteNumber:          q.QuoteNumber,
		ClientColumns:        clientColumnsFromDomain(q.Client),
		Status:               string(q.Status),
		IssueDate:            q.IssueDate,
		ExpiryDate:           q.ExpiryDate,
		TotalsColumns:        totalsColumnsFromDomain(q.Totals),
		Notes:                q.Notes,
		Terms:                q.Terms,
		ConvertedToInvoiceID: q.ConvertedToInvoiceID,
		SentAt:               q.SentAt,
		AcceptedAt:           q.AcceptedAt,
		DeclinedAt:           q.DeclinedAt,
		Items:                make([]QuoteLineItemModel, len(q.Items)),
	}
	m.FromDomainOwnedAggregateRoot(q.OwnedAggregateRoot)
	for i, li := range q.Items {
		m.Items[i] = QuoteLineItemModel{LineItemColumns: lineItemColumnsFromDomain(li), QuoteID: q.ID}
	}
	return m
}

// InvoiceModel is the persistence model for the Invoice aggregate root.
// A schedule firing is identified by (recurring_schedule_id, recurring_run_date); the unique index
// rejects a second invoice for the same firing.
type InvoiceModel struct {
	OwnedAggregateModel
	InvoiceNumber string `gorm:"type:varchar(50);not null;index"`
	ClientColumns
	QuoteID             *uuid.UUID `gorm:"type:uuid;index"`
	RecurringScheduleID *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_invoices_recurring_run,priority:1"`
	RecurringRunDate    *time.Time `gorm:"uniqueIndex:idx_invoices_recurring_run,priority:2"`
	IsRecurring         bool       `gorm:"not null;default:false"`
	Status              string     `gorm:"type:varchar(20);not null;default:'draft';index"`
	IssueDate           time.Time  `gorm:"not null"`
	DueDate             time.Time  `gorm:"not null;index"`
	PaymentTerms        string     `gorm:"type:varchar(20);not null;default:'net_30'"`
	TotalsColumns
	AmountPaid decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	BalanceDue decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Notes      string          `gorm:"type:text"`
	Terms      string          `gorm:"type:text"`
	SentAt     *time.Time
	ViewedAt   *time.Time
	PaidAt     *time.Time
	VoidedAt   *time.Time
	Items      []InvoiceLineItemModel `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// InvoiceLineItemModel is the persistence model for an invoice's line item
type InvoiceLineItemModel struct {
	LineItemColumns
	InvoiceID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (InvoiceLineItemModel) TableName() string {
	return "invoice_line_items"
}

// ToDomain converts the persistence model to a domain Invoice
func (m *InvoiceModel) ToDomain() *invoicing.Invoice {
	inv := &invoicing.Invoice{
		InvoiceNumber:       m.InvoiceNumber,
		Client:              m.ClientColumns.toDomain(),
		QuoteID:             m.QuoteID,
		RecurringScheduleID: m.RecurringScheduleID,
		RecurringRunDate:    m.RecurringRunDate,
		IsRecurring:         m.IsRecurring,
		Status:              invoicing.InvoiceStatus(m.Status),
		IssueDate:           m.IssueDate,
		DueDate:             m.DueDate,
		PaymentTerms:        invoicing.PaymentTerms(m.PaymentTerms),
		Totals:              m.TotalsColumns.toDomain(),
		AmountPaid:          m.AmountPaid,
		BalanceDue:          m.BalanceDue,
		Notes:               m.Notes,
		Terms:               m.Terms,
		Items:               make([]invoicing.LineItem, len(m.Items)),
		SentAt:              m.SentAt,
		ViewedAt:            m.ViewedAt,
		PaidAt:              m.PaidAt,
		VoidedAt:            m.VoidedAt,
	}
	m.PopulateOwnedAggregateRoot(&inv.OwnedAggregateRoot)
	for i := range m.Items {
		inv.Items[i] = m.Items[i].toDomain()
	}
	sortLineItems(inv.Items)
	return inv
}

// InvoiceModelFromDomain creates a persistence model from a domain Invoice
func InvoiceModelFromDomain(inv *invoicing.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		InvoiceNumber:       inv.InvoiceNumber,
		ClientColumns:       clientColumnsFromDomain(inv.Client),
		QuoteID:             inv.QuoteID,
		RecurringScheduleID: inv.RecurringScheduleID,
		RecurringRunDate:    inv.RecurringRunDate,
		IsRecurring:         inv.IsRecurring,
		Status:              string(inv.Status),
		IssueDate:           inv.IssueDate,
		DueDate:             inv.DueDate,
		PaymentTerms:        string(inv.PaymentTerms),
		TotalsColumns:       totalsColumnsFromDomain(inv.Totals),
		AmountPaid:          inv.AmountPaid,
		BalanceDue:          inv.BalanceDue,
		Notes:               inv.Notes,
		Terms:               inv.Terms,
		SentAt:              inv.SentAt,
		ViewedAt:            inv.ViewedAt,
		PaidAt:              inv.PaidAt,
		VoidedAt:            inv.VoidedAt,
		Items:               make([]InvoiceLineItemModel, len(inv.Items)),
	}
	m.FromDomainOwnedAggregateRoot(inv.OwnedAggregateRoot)
	for i, li := range inv.Items {
		m.Items[i] = InvoiceLineItemModel{LineItemColumns: lineItemColumnsFromDomain(li), InvoiceID: inv.ID}
	}
	return m
}

// PaymentModel is the persistence model for a ledger entry against an invoice
type PaymentModel struct {
	BaseModel
	InvoiceID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PaymentDate   time.Time       `gorm:"not null"`
	Method        string          `gorm:"type:varchar(20);not null"`
	Reference     string          `gorm:"type:varchar(200)"`
	TransactionID *uuid.UUID      `gorm:"type:uuid"`
	Notes         string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "invoice_payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *invoicing.Payment {
	return &invoicing.Payment{
		BaseEntity:    m.BaseModel.ToDomain(),
		InvoiceID:     m.InvoiceID,
		UserID:        m.UserID,
		Amount:        m.Amount,
		PaymentDate:   m.PaymentDate,
		Method:        invoicing.PaymentMethod(m.Method),
		Reference:     m.Reference,
		TransactionID: m.TransactionID,
		Notes:         m.Notes,
	}
}

// PaymentModelFromDomain creates a persistence model from a domain Payment
func PaymentModelFromDomain(p *invoicing.Payment) *PaymentModel {
	m := &PaymentModel{
		InvoiceID:     p.InvoiceID,
		UserID:        p.UserID,
		Amount:        p.Amount,
		PaymentDate:   p.PaymentDate,
		Method:        string(p.Method),
		Reference:     p.Reference,
		TransactionID: p.TransactionID,
		Notes:         p.Notes,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}

// RecurringScheduleModel is the persistence model for the RecurringSchedule aggregate root.
// The invoice template is stored as JSON in template_data.
type RecurringScheduleModel struct {
	OwnedAggregateModel
	Name                 string         `gorm:"type:varchar(200);not null"`
	Frequency            string         `gorm:"type:varchar(20);not null"`
	IntervalCount        int            `gorm:"not null;default:1"`
	StartDate            time.Time      `gorm:"not null"`
	NextRunDate          time.Time      `gorm:"not null;index:idx_recurring_due,priority:2"`
	AnchorDay            int            `gorm:"not null;default:0"`
	EndDate              *time.Time
	MaxOccurrences       *int
	OccurrencesGenerated int            `gorm:"not null;default:0"`
	LastRunDate          *time.Time
	LastInvoiceID        *uuid.UUID     `gorm:"type:uuid"`
	IsActive             bool           `gorm:"not null;default:true;index:idx_recurring_due,priority:1"`
	TemplateData         datatypes.JSON `gorm:"type:jsonb;not null"`
}

// TableName returns the table name for GORM
func (RecurringScheduleModel) TableName() string {
	return "recurring_schedules"
}

// ToDomain converts the persistence model to a domain RecurringSchedule
func (m *RecurringScheduleModel) ToDomain() (*invoicing.RecurringSchedule, error) {
	var template invoicing.RecurringTemplate
	if len(m.TemplateData) > 0 {
		if err := json.Unmarshal(m.TemplateData, &template); err != nil {
			return nil, fmt.Errorf("decode template of recurring schedule %s: %w", m.ID, err)
		}
	}
	s := &invoicing.RecurringSchedule{
		Name:                 m.Name,
		Frequency:            invoicing.Frequency(m.Frequency),
		IntervalCount:        m.IntervalCount,
		StartDate:            m.StartDate,
		NextRunDate:          m.NextRunDate,
		AnchorDay:            m.AnchorDay,
		EndDate:              m.EndDate,
		MaxOccurrences:       m.MaxOccurrences,
		OccurrencesGenerated: m.OccurrencesGenerated,
		LastRunDate:          m.LastRunDate,
		LastInvoiceID:        m.LastInvoiceID,
		IsActive:             m.IsActive,
		Template:             template,
	}
	m.PopulateOwnedAggregateRoot(&s.OwnedAggregateRoot)
	return s, nil
}

// RecurringScheduleModelFromDomain creates a persistence model from a domain RecurringSchedule
func RecurringScheduleModelFromDomain(s *invoicing.RecurringSchedule) (*RecurringScheduleModel, error) {
	template, err := json.Marshal(s.Template)
	if err != nil {
		return nil, err
	}
	m := &RecurringScheduleModel{
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
		TemplateData:         datatypes.JSON(template),
	}
	m.FromDomainOwnedAggregateRoot(s.OwnedAggregateRoot)
	return m, nil
}

func sortLineItems(items []invoicing.LineItem) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].SortOrder < items[j].SortOrder })
}
