package invoicing

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusBucket tallies invoices sharing one status
type StatusBucket struct {
	Count      int             `json:"count"`
	Total      decimal.Decimal `json:"total"`
	BalanceDue decimal.Decimal `json:"balance_due"`
}

// InvoiceSummary aggregates a set of invoices
type InvoiceSummary struct {
	Count            int                             `json:"count"`
	TotalInvoiced    decimal.Decimal                 `json:"total_invoiced"`
	TotalPaid        decimal.Decimal                 `json:"total_paid"`
	TotalOutstanding decimal.Decimal                 `json:"total_outstanding"`
	TotalOverdue     decimal.Decimal                 `json:"total_overdue"`
	OverdueCount     int                             `json:"overdue_count"`
	PaidCount        int                             `json:"paid_count"`
	DraftCount       int                             `json:"draft_count"`
	ByStatus         map[InvoiceStatus]*StatusBucket `json:"by_status"`
}

// SummarizeInvoices reduces invoices to counts and money totals by status.
// Void invoices are counted but excluded from money totals. The reduction has no side effects.
func SummarizeInvoices(invoices []Invoice) InvoiceSummary {
	s := InvoiceSummary{
		TotalInvoiced:    decimal.Zero,
		TotalPaid:        decimal.Zero,
		TotalOutstanding: decimal.Zero,
		TotalOverdue:     decimal.Zero,
		ByStatus:         make(map[InvoiceStatus]*StatusBucket, len(AllInvoiceStatuses)),
	}
	for _, st := range AllInvoiceStatuses {
		s.ByStatus[st] = &StatusBucket{Total: decimal.Zero, BalanceDue: decimal.Zero}
	}

	for i := range invoices {
		inv := &invoices[i]
		s.Count++
		bucket := s.ByStatus[inv.Status]
		if bucket == nil {
			bucket = &StatusBucket{Total: decimal.Zero, BalanceDue: decimal.Zero}
			s.ByStatus[inv.Status] = bucket
		}
		bucket.Count++
		bucket.Total = bucket.Total.Add(inv.Totals.Total)
		bucket.BalanceDue = bucket.BalanceDue.Add(inv.BalanceDue)

		switch inv.Status {
		case InvoiceStatusVoid:
			continue
		case InvoiceStatusDraft:
			s.DraftCount++
		case InvoiceStatusPaid:
			s.PaidCount++
		case InvoiceStatusOverdue:
			s.OverdueCount++
			s.TotalOverdue = s.TotalOverdue.Add(inv.BalanceDue)
		}
		s.TotalInvoiced = s.TotalInvoiced.Add(inv.Totals.Total)
		s.TotalPaid = s.TotalPaid.Add(inv.AmountPaid)
		if inv.Status != InvoiceStatusDraft {
			s.TotalOutstanding = s.TotalOutstanding.Add(inv.BalanceDue)
		}
	}
	return s
}

// QuoteSummary aggregates a set of quotes
type QuoteSummary struct {
	Count          int                 `json:"count"`
	ByStatus       map[QuoteStatus]int `json:"by_status"`
	TotalQuoted    decimal.Decimal     `json:"total_quoted"`
	AcceptedValue  decimal.Decimal     `json:"accepted_value"`
	ConvertedCount int                 `json:"converted_count"`
}

// SummarizeQuotes reduces quotes to counts by status and accepted value
func SummarizeQuotes(quotes []Quote) QuoteSummary {
	s := QuoteSummary{
		ByStatus:      make(map[QuoteStatus]int, len(AllQuoteStatuses)),
		TotalQuoted:   decimal.Zero,
		AcceptedValue: decimal.Zero,
	}
	for _, st := range AllQuoteStatuses {
		s.ByStatus[st] = 0
	}
	for i := range quotes {
		q := &quotes[i]
		s.Count++
		s.ByStatus[q.Status]++
		s.TotalQuoted = s.TotalQuoted.Add(q.Totals.Total)
		if q.Status == QuoteStatusAccepted {
			s.AcceptedValue = s.AcceptedValue.Add(q.Totals.Total)
		}
		if q.IsConverted() {
			s.ConvertedCount++
		}
	}
	return s
}

// AgingBucket labels how far past due an open invoice is
type AgingBucket string

const (
	AgingCurrent AgingBucket = "current"
	Aging1To30   AgingBucket = "1_30"
	Aging31To60  AgingBucket = "31_60"
	Aging61To90  AgingBucket = "61_90"
	AgingOver90  AgingBucket = "over_90"
)

// AgeInvoices groups outstanding balances by days overdue at now
func AgeInvoices(invoices []Invoice, now time.Time) map[AgingBucket]decimal.Decimal {
	aging := map[AgingBucket]decimal.Decimal{
		AgingCurrent: decimal.Zero,
		Aging1To30:   decimal.Zero,
		Aging31To60:  decimal.Zero,
		Aging61To90:  decimal.Zero,
		AgingOver90:  decimal.Zero,
	}
	for i := range invoices {
		inv := &invoices[i]
		if inv.Status.IsTerminal() || inv.Status == InvoiceStatusDraft || !inv.BalanceDue.IsPositive() {
			continue
		}
		var bucket AgingBucket
		switch days := inv.DaysOverdue(now); {
		case days <= 0:
			bucket = AgingCurrent
		case days <= 30:
			bucket = Aging1To30
		case days <= 60:
			bucket = Aging31To60
		case days <= 90:
			bucket = Aging61To90
		default:
			bucket = AgingOver90
		}
		aging[bucket] = aging[bucket].Add(inv.BalanceDue)
	}
	return aging
}
