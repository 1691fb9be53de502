package dto

import (
	"testing"
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/invoicing"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	got, err := ParseDate("due_date", "2025-02-28")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), *got)

	got, err = ParseDate("due_date", "")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ParseDate("due_date", "28/02/2025")
	assert.True(t, shared.IsValidation(err))
	assert.Contains(t, err.Error(), "due_date")
}

func TestInvoiceListQuery_ToFilter(t *testing.T) {
	clientID := uuid.New()
	q := InvoiceListQuery{
		ListRequest: ListRequest{Page: 2},
		Statuses:    []string{"sent", "overdue"},
		ClientID:    clientID.String(),
		DueBefore:   "2025-03-01",
	}

	f, err := q.ToFilter()
	require.NoError(t, err)
	assert.Equal(t, 2, f.Page)
	assert.Equal(t, shared.DefaultFilter().PageSize, f.PageSize)
	assert.Equal(t, []invoicing.InvoiceStatus{invoicing.InvoiceStatusSent, invoicing.InvoiceStatusOverdue}, f.Statuses)
	assert.Equal(t, clientID, *f.ClientID)
	assert.Nil(t, f.RecurringScheduleID)
	require.NotNil(t, f.DueBefore)
	assert.Equal(t, 3, int(f.DueBefore.Month()))

	_, err = InvoiceListQuery{RecurringScheduleID: "nope"}.ToFilter()
	assert.True(t, shared.IsValidation(err))
}

func TestQuoteListQuery_ToFilter(t *testing.T) {
	f, err := QuoteListQuery{Status: "accepted", FromDate: "2025-01-01"}.ToFilter()
	require.NoError(t, err)
	require.NotNil(t, f.Status)
	assert.Equal(t, invoicing.QuoteStatusAccepted, *f.Status)
	require.NotNil(t, f.FromDate)
	assert.Nil(t, f.ToDate)
}

func TestContentBody_ToDomain(t *testing.T) {
	body := ContentBody{
		Client: ClientBody{Name: "Acme"},
		Items: []LineItemBody{
			{Description: "Hours", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.RequireFromString("40.50"), TaxRate: decimal.NewFromInt(8)},
		},
		DiscountAmount: decimal.NewFromInt(10),
		DiscountType:   "percentage",
	}

	content := body.ToDomain()
	assert.Equal(t, "Acme", content.Client.Name)
	require.Len(t, content.Items, 1)
	assert.True(t, content.Items[0].UnitPrice.Equal(decimal.RequireFromString("40.5")))
	assert.Equal(t, invoicing.DiscountTypePercentage, content.DiscountType)
}

func TestScheduleBody_ToRequest(t *testing.T) {
	req, err := ScheduleBody{Name: "Retainer", Frequency: "monthly", StartDate: "2025-01-31", EndDate: "2025-12-31"}.ToRequest()
	require.NoError(t, err)
	assert.Equal(t, 31, req.StartDate.Day())
	require.NotNil(t, req.EndDate)

	_, err = ScheduleBody{Name: "Retainer", Frequency: "monthly"}.ToRequest()
	assert.True(t, shared.IsValidation(err))
}
