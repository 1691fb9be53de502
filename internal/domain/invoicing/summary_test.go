package invoicing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summaryInvoice(status InvoiceStatus, total, paid string) Invoice {
	inv := Invoice{
		Status:     status,
		Totals:     DocumentTotals{Total: dec(total)},
		AmountPaid: dec(paid),
		BalanceDue: dec(total).Sub(dec(paid)),
		DueDate:    testIssueDate,
	}
	return inv
}

func TestSummarizeInvoices(t *testing.T) {
	invoices := []Invoice{
		summaryInvoice(InvoiceStatusDraft, "50", "0"),
		summaryInvoice(InvoiceStatusSent, "100", "0"),
		summaryInvoice(InvoiceStatusPartial, "200", "80"),
		summaryInvoice(InvoiceStatusOverdue, "300", "0"),
		summaryInvoice(InvoiceStatusPaid, "400", "400"),
		summaryInvoice(InvoiceStatusVoid, "999", "0"),
	}

	s := SummarizeInvoices(invoices)

	assert.Equal(t, 6, s.Count)
	assert.True(t, dec("1050").Equal(s.TotalInvoiced), s.TotalInvoiced.String())
	assert.True(t, dec("480").Equal(s.TotalPaid))
	assert.True(t, dec("520").Equal(s.TotalOutstanding), s.TotalOutstanding.String())
	assert.True(t, dec("300").Equal(s.TotalOverdue))
	assert.Equal(t, 1, s.OverdueCount)
	assert.Equal(t, 1, s.PaidCount)
	assert.Equal(t, 1, s.DraftCount)
	assert.Equal(t, 1, s.ByStatus[InvoiceStatusVoid].Count)
	assert.True(t, dec("999").Equal(s.ByStatus[InvoiceStatusVoid].Total))
}

func TestSummarizeInvoices_Empty(t *testing.T) {
	s := SummarizeInvoices(nil)
	assert.Equal(t, 0, s.Count)
	assert.True(t, s.TotalInvoiced.IsZero())
	assert.Len(t, s.ByStatus, len(AllInvoiceStatuses))
}

func TestSummarizeQuotes(t *testing.T) {
	converted := uuid.New()
	quotes := []Quote{
		{Status: QuoteStatusDraft, Totals: DocumentTotals{Total: dec("10")}},
		{Status: QuoteStatusAccepted, Totals: DocumentTotals{Total: dec("20")}},
		{Status: QuoteStatusAccepted, Totals: DocumentTotals{Total: dec("30")}, ConvertedToInvoiceID: &converted},
	}

	s := SummarizeQuotes(quotes)
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 2, s.ByStatus[QuoteStatusAccepted])
	assert.Equal(t, 0, s.ByStatus[QuoteStatusExpired])
	assert.True(t, dec("60").Equal(s.TotalQuoted))
	assert.True(t, dec("50").Equal(s.AcceptedValue))
	assert.Equal(t, 1, s.ConvertedCount)
}

func TestAgeInvoices(t *testing.T) {
	due := testIssueDate
	mk := func(status InvoiceStatus, balance string) Invoice {
		return Invoice{Status: status, DueDate: due, BalanceDue: dec(balance)}
	}

	t.Run("buckets by days overdue", func(t *testing.T) {
		invoices := []Invoice{mk(InvoiceStatusOverdue, "10"), mk(InvoiceStatusPaid, "0"), mk(InvoiceStatusDraft, "99")}

		aging := AgeInvoices(invoices, due.AddDate(0, 0, 45))
		assert.True(t, dec("10").Equal(aging[Aging31To60]))
		assert.True(t, aging[AgingCurrent].IsZero())

		aging = AgeInvoices(invoices, due.AddDate(0, 0, 120))
		assert.True(t, dec("10").Equal(aging[AgingOver90]))
	})

	t.Run("not yet due is current", func(t *testing.T) {
		aging := AgeInvoices([]Invoice{mk(InvoiceStatusSent, "25")}, due.AddDate(0, 0, -1))
		require.Contains(t, aging, AgingCurrent)
		assert.True(t, decimal.RequireFromString("25").Equal(aging[AgingCurrent]))
	})
}
