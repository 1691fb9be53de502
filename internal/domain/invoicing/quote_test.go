package invoicing

import (
	"testing"
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContent() DocumentContent {
	return DocumentContent{
		Client: ClientInfo{Name: " Acme Corp ", Email: "billing@acme.test"},
		Items: []LineItemInput{
			item("Consulting", "2", "50", "10"),
		},
		DiscountAmount: dec("5"),
		DiscountType:   DiscountTypeFixed,
		Notes:          "Thanks",
	}
}

func newTestQuote(t *testing.T) *Quote {
	t.Helper()
	issue := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	expiry := issue.AddDate(0, 0, 30)
	q, err := NewQuote(uuid.New(), "QUO-2024-0001", testContent(), issue, &expiry)
	require.NoError(t, err)
	return q
}

func TestQuoteStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from QuoteStatus
		to   QuoteStatus
		ok   bool
	}{
		{QuoteStatusDraft, QuoteStatusSent, true},
		{QuoteStatusDraft, QuoteStatusAccepted, true},
		{QuoteStatusDraft, QuoteStatusExpired, false},
		{QuoteStatusSent, QuoteStatusExpired, true},
		{QuoteStatusSent, QuoteStatusDeclined, true},
		{QuoteStatusExpired, QuoteStatusSent, true},
		{QuoteStatusDeclined, QuoteStatusAccepted, true},
		{QuoteStatusAccepted, QuoteStatusSent, false},
		{QuoteStatusAccepted, QuoteStatusAccepted, false},
		{QuoteStatusSent, QuoteStatusDraft, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestNewQuote(t *testing.T) {
	t.Run("computes totals and starts as draft", func(t *testing.T) {
		q := newTestQuote(t)
		assert.Equal(t, QuoteStatusDraft, q.Status)
		assert.Equal(t, "Acme Corp", q.Client.Name)
		assert.True(t, dec("105").Equal(q.Totals.Total))
		assert.Len(t, q.Items, 1)
		assert.Equal(t, 1, q.Version)
		require.Len(t, q.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeQuoteCreated, q.GetDomainEvents()[0].EventType())
	})

	t.Run("rejects expiry before issue", func(t *testing.T) {
		issue := time.Now()
		expiry := issue.AddDate(0, 0, -1)
		_, err := NewQuote(uuid.New(), "QUO-1", testContent(), issue, &expiry)
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("rejects missing owner", func(t *testing.T) {
		_, err := NewQuote(uuid.Nil, "QUO-1", testContent(), time.Now(), nil)
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("rejects invalid line item", func(t *testing.T) {
		content := testContent()
		content.Items = append(content.Items, item("Bad", "0", "1", "0"))
		_, err := NewQuote(uuid.New(), "QUO-1", content, time.Now(), nil)
		assert.True(t, shared.IsValidation(err))
	})
}

func TestQuote_UpdateContent(t *testing.T) {
	now := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	q := newTestQuote(t)
	content := testContent()
	content.Items = []LineItemInput{item("Audit", "1", "200", "0")}
	content.DiscountAmount = dec("0")

	require.NoError(t, q.UpdateContent(content, time.Time{}, nil, now))
	assert.True(t, dec("200").Equal(q.Totals.Total))
	assert.Nil(t, q.ExpiryDate)
	assert.Equal(t, now, q.UpdatedAt)

	later := now.Add(time.Hour)
	require.NoError(t, q.UpdateStatus(QuoteStatusAccepted, later))
	require.NoError(t, q.UpdateContent(content, time.Time{}, nil, later), "accepted quotes stay editable until converted")
	assert.Equal(t, later, q.UpdatedAt)

	require.NoError(t, q.MarkConverted(uuid.New(), later))
	err := q.UpdateContent(content, time.Time{}, nil, later)
	assert.True(t, shared.IsInvalidState(err))
}

func TestQuote_UpdateStatus(t *testing.T) {
	now := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	t.Run("send then accept", func(t *testing.T) {
		q := newTestQuote(t)
		require.NoError(t, q.Send(now))
		assert.Equal(t, QuoteStatusSent, q.Status)
		require.NotNil(t, q.SentAt)

		require.NoError(t, q.UpdateStatus(QuoteStatusAccepted, now))
		assert.Equal(t, QuoteStatusAccepted, q.Status)
		assert.NotNil(t, q.AcceptedAt)
	})

	t.Run("declined clears accepted timestamp", func(t *testing.T) {
		q := newTestQuote(t)
		require.NoError(t, q.UpdateStatus(QuoteStatusAccepted, now))
		require.NoError(t, q.UpdateStatus(QuoteStatusDeclined, now))
		assert.Nil(t, q.AcceptedAt)
		assert.NotNil(t, q.DeclinedAt)
	})

	t.Run("illegal transition", func(t *testing.T) {
		q := newTestQuote(t)
		err := q.UpdateStatus(QuoteStatusExpired, now)
		assert.True(t, shared.IsInvalidState(err))
	})

	t.Run("unknown status", func(t *testing.T) {
		q := newTestQuote(t)
		err := q.UpdateStatus(QuoteStatus("bogus"), now)
		assert.True(t, shared.IsValidation(err))
	})
}

func TestQuote_ReconcileStatus(t *testing.T) {
	q := newTestQuote(t)
	require.NoError(t, q.Send(q.IssueDate))

	assert.False(t, q.ReconcileStatus(q.ExpiryDate.Add(-time.Hour)))
	assert.Equal(t, QuoteStatusSent, q.Status)

	after := q.ExpiryDate.Add(time.Hour)
	assert.True(t, q.ReconcileStatus(after))
	assert.Equal(t, QuoteStatusExpired, q.Status)
	assert.False(t, q.ReconcileStatus(after), "second pass changes nothing")
}

func TestReconciledQuoteStatus(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.Equal(t, QuoteStatusExpired, ReconciledQuoteStatus(QuoteStatusSent, &past, now))
	assert.Equal(t, QuoteStatusSent, ReconciledQuoteStatus(QuoteStatusSent, &future, now))
	assert.Equal(t, QuoteStatusSent, ReconciledQuoteStatus(QuoteStatusSent, nil, now))
	assert.Equal(t, QuoteStatusDraft, ReconciledQuoteStatus(QuoteStatusDraft, &past, now))
	assert.Equal(t, QuoteStatusAccepted, ReconciledQuoteStatus(QuoteStatusAccepted, &past, now))
}

func TestQuote_MarkConverted(t *testing.T) {
	t.Run("requires accepted", func(t *testing.T) {
		q := newTestQuote(t)
		err := q.MarkConverted(uuid.New(), time.Now())
		assert.True(t, shared.IsInvalidState(err))
		assert.Nil(t, q.ConvertedToInvoiceID)
	})

	t.Run("converts at most once", func(t *testing.T) {
		q := newTestQuote(t)
		require.NoError(t, q.UpdateStatus(QuoteStatusAccepted, time.Now()))

		invoiceID := uuid.New()
		require.NoError(t, q.MarkConverted(invoiceID, time.Now()))
		assert.Equal(t, invoiceID, *q.ConvertedToInvoiceID)

		err := q.MarkConverted(uuid.New(), time.Now())
		assert.True(t, shared.IsInvalidState(err))
		assert.Equal(t, invoiceID, *q.ConvertedToInvoiceID)
		assert.True(t, shared.IsInvalidState(q.CanDelete()))
		assert.True(t, shared.IsInvalidState(q.UpdateStatus(QuoteStatusDeclined, time.Now())))
	})
}

func TestQuote_Duplicate(t *testing.T) {
	q := newTestQuote(t)
	require.NoError(t, q.UpdateStatus(QuoteStatusAccepted, time.Now()))

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	dup, err := q.Duplicate("QUO-2024-0002", now)
	require.NoError(t, err)

	assert.NotEqual(t, q.ID, dup.ID)
	assert.Equal(t, QuoteStatusDraft, dup.Status)
	assert.Equal(t, q.UserID, dup.UserID)
	assert.Equal(t, now, dup.IssueDate)
	require.NotNil(t, dup.ExpiryDate)
	assert.Equal(t, now.AddDate(0, 0, 30), *dup.ExpiryDate)
	assert.True(t, q.Totals.Total.Equal(dup.Totals.Total))
	assert.NotEqual(t, q.Items[0].ID, dup.Items[0].ID)
}
