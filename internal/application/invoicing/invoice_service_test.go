package invoicing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/invoicing"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestInvoiceService(f *fixture) *InvoiceService {
	svc := NewInvoiceService(f.invoices, f.payments, f.txScope, f.numbering, f.retrier, nil)
	svc.SetEventPublisher(f.publisher)
	svc.SetClock(f.clock)
	return svc
}

// paidInvoice returns a sent invoice with one payment covering its full total
func paidInvoice(t *testing.T, userID uuid.UUID, issue time.Time) (*invoicing.Invoice, *invoicing.Payment) {
	t.Helper()
	inv := newSentInvoice(t, userID, issue)
	p, err := inv.RecordPayment(invoicing.PaymentInput{Amount: dec("105"), Method: invoicing.PaymentMethodCash}, issue.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Equal(t, invoicing.InvoiceStatusPaid, inv.Status)
	inv.ClearDomainEvents()
	return inv, p
}

func TestInvoiceService_Create(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("derives the due date from payment terms", func(t *testing.T) {
		f := newFixture()
		f.expectNumber(invoicing.DocumentTypeInvoice, 2024, 7)
		f.invoices.On("Save", mock.Anything, mock.AnythingOfType("*invoicing.Invoice")).Return(nil).Once()

		resp, err := newTestInvoiceService(f).Create(ctx, userID, CreateInvoiceRequest{
			Content:      sampleContent(),
			PaymentTerms: "net_15",
		})
		require.NoError(t, err)
		assert.Equal(t, "INV-2024-0007", resp.InvoiceNumber)
		assert.Equal(t, "draft", resp.Status)
		assert.Equal(t, fixtureNow.AddDate(0, 0, 15), resp.DueDate)
		assert.True(t, dec("105").Equal(resp.BalanceDue))
		assert.True(t, resp.AmountPaid.IsZero())
		assert.Equal(t, []string{invoicing.EventTypeInvoiceCreated}, f.publisher.publishedTypes())
	})

	t.Run("defaults to net 30", func(t *testing.T) {
		f := newFixture()
		f.expectNumber(invoicing.DocumentTypeInvoice, 2024, 8)
		f.invoices.On("Save", mock.Anything, mock.Anything).Return(nil).Once()

		resp, err := newTestInvoiceService(f).Create(ctx, userID, CreateInvoiceRequest{Content: sampleContent()})
		require.NoError(t, err)
		assert.Equal(t, "net_30", resp.PaymentTerms)
		assert.Equal(t, fixtureNow.AddDate(0, 0, 30), resp.DueDate)
	})

	t.Run("rejects unknown terms before drawing a number", func(t *testing.T) {
		f := newFixture()

		_, err := newTestInvoiceService(f).Create(ctx, userID, CreateInvoiceRequest{
			Content:      sampleContent(),
			PaymentTerms: "net_90",
		})
		assert.True(t, shared.IsValidation(err))
		f.sequence.AssertNotCalled(t, "Next", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("gives up after the retry budget", func(t *testing.T) {
		f := newFixture()
		f.expectNumber(invoicing.DocumentTypeInvoice, 2024, 9)
		f.invoices.On("Save", mock.Anything, mock.Anything).
			Return(shared.NewTransientStoreError("insert invoice", errors.New("deadlock")))

		_, err := newTestInvoiceService(f).Create(ctx, userID, CreateInvoiceRequest{Content: sampleContent()})
		assert.True(t, shared.IsTransient(err))
		f.invoices.AssertNumberOfCalls(t, "Save", 3)
	})
}

func TestInvoiceService_Get(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	f := newFixture()

	inv := newSentInvoice(t, userID, fixtureNow.AddDate(0, 0, -45))
	f.invoices.On("FindByIDForUser", mock.Anything, userID, inv.ID).Return(inv, nil)
	f.invoices.On("SaveWithLock", mock.Anything, inv).Return(nil).Once()

	resp, err := newTestInvoiceService(f).Get(ctx, userID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "overdue", resp.Status)
	assert.Equal(t, 15, resp.DaysOverdue)
	assert.Equal(t, []string{invoicing.EventTypeInvoiceOverdue}, f.publisher.publishedTypes())
}

func TestInvoiceService_List(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	f := newFixture()

	late := newSentInvoice(t, userID, fixtureNow.AddDate(0, 0, -45))
	current := newSentInvoice(t, userID, fixtureNow.AddDate(0, 0, -5))
	filter := invoicing.InvoiceFilter{Statuses: []invoicing.InvoiceStatus{invoicing.InvoiceStatusSent}}

	queried := filter
	queried.AsOf = ptrTime(fixtureNow)
	f.invoices.On("FindAllForUser", mock.Anything, userID, queried).Return([]invoicing.Invoice{*late, *current}, nil)
	f.invoices.On("CountForUser", mock.Anything, userID, queried).Return(int64(2), nil)
	f.invoices.On("SaveWithLock", mock.Anything, mock.MatchedBy(func(inv *invoicing.Invoice) bool {
		return inv.ID == late.ID && inv.Status == invoicing.InvoiceStatusOverdue
	})).Return(nil).Once()

	page, err := newTestInvoiceService(f).List(ctx, userID, filter)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, current.ID, page.Items[0].ID)
	f.invoices.AssertExpectations(t)
}

func TestInvoiceService_Update(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("refuses to edit a paid invoice", func(t *testing.T) {
		f := newFixture()
		inv, _ := paidInvoice(t, userID, fixtureNow.AddDate(0, 0, -3))
		f.invoices.On("FindByIDForUser", mock.Anything, userID, inv.ID).Return(inv, nil)

		_, err := newTestInvoiceService(f).Update(ctx, userID, inv.ID, UpdateInvoiceRequest{Content: sampleContent()})
		assert.True(t, shared.IsInvalidState(err))
		f.invoices.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("pushing the due date out clears overdue", func(t *testing.T) {
		f := newFixture()
		inv := newSentInvoice(t, userID, fixtureNow.AddDate(0, 0, -45))
		f.invoices.On("FindByIDForUser", mock.Anything, userID, inv.ID).Return(inv, nil)
		f.invoices.On("SaveWithLock", mock.Anything, inv).Return(nil)

		resp, err := newTestInvoiceService(f).Update(ctx, userID, inv.ID, UpdateInvoiceRequest{
			Content: sampleContent(),
			DueDate: ptrTime(fixtureNow.AddDate(0, 0, 10)),
		})
		require.NoError(t, err)
		assert.Equal(t, "sent", resp.Status)
		assert.Equal(t, 0, resp.DaysOverdue)
	})
}

func TestInvoiceService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("paid cannot be set directly", func(t *testing.T) {
		f := newFixture()
		inv := newSentInvoice(t, userID, fixtureNow)
		f.invoices.On("FindByIDForUser", mock.Anything, userID, inv.ID).Return(inv, nil)

		_, err := newTestInvoiceService(f).UpdateStatus(ctx, userID, inv.ID, "paid")
		assert.True(t, shared.IsInvalidState(err))
	})

	t.Run("unknown status", func(t *testing.T) {
		f := newFixture()
		_, err := newTestInvoiceService(f).UpdateStatus(ctx, userID, uuid.New(), "settled")
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("mark viewed", func(t *testing.T) {
		f := newFixture()
		inv := newSentInvoice(t, userID, fixtureNow)
		f.invoices.On("FindByIDForUser", mock.Anything, userID, inv.ID).Return(inv, nil)
		f.invoices.On("SaveWithLock", mock.Anything, inv).Return(nil)

		resp, err := newTestInvoiceService(f).MarkViewed(ctx, userID, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, "viewed", resp.Status)
		assert.NotNil(t, resp.ViewedAt)
	})
}

func TestInvoiceService_RecordPayment(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("partial payment", func(t *testing.T) {
		f := newFixture()
		inv := newSentInvoice(t, userID, fixtureNow.AddDate(0, 0, -2))
		f.invoices.On("FindByIDForUser", mock.Anything, userID, inv.ID).Return(inv, nil)
		f.invoices.On("SaveWithLock", mock.Anything, inv).Return(nil)
		f.payments.On("Save", mock.Anything, mock.AnythingOfType("*invoicing.Payment")).Return(nil)

		result, err := newTestInvoiceService(f).RecordPayment(ctx, userID, inv.ID, RecordPaymentRequest{
			Amount: dec("40"),
			Method: "bank_transfer",
		})
		require.NoError(t, err)
		assert.Equal(t, "partial", result.Invoice.Status)
		assert.True(t, dec("40").Equal(result.Invoice.AmountPaid))
		assert.True(t, dec("65").Equal(result.Invoice.BalanceDue))
		assert.Equal(t, "bank_transfer", result.Payment.Method)
		assert.Equal(t, fixtureNow, result.Payment.PaymentDate)
		assert.Equal(t, []string{invoicing.EventTypeInvoicePaymentRecorded}, f.publisher.publishedTypes())
	})

	t.Run("full payment marks the invoice paid", func(t *testing.T) {
		f := newFixture()
		inv := newSentInvoice(t, userID, fixtureNow.AddDate(0, 0, -2))
		f.invoices.On("FindByIDForUser", mock.Anything, userID, inv.ID).Return(inv, nil)
		f.invoices.On("SaveWithLock", mock.Anything, inv).Return(nil)
		f.payments.On("Save", mock.Anything, mock.Anything).Return(nil)

		result, err := newTestInvoiceService(f).RecordPayment(ctx, userID, inv.ID, RecordPaymentRequest{Amount: dec("105")})
		require.NoError(t, err)
		assert.Equal(t, "paid", result.Invoice.Status)
		assert.True(t, result.Invoice.BalanceDue.IsZero())
		assert.NotNil(t, result.Invoice.PaidAt)
		assert.Equal(t, "other", result.Payment.Method)
		assert.Equal(t, []string{
			invoicing.EventTypeInvoicePaymentRecorded,
			invoicing.EventTypeInvoicePaid,
		}, f.publisher.publishedTypes())
	})

	t.Run("overpayment is rejected", func(t *testing.T) {
		f := newFixture()
		inv := newSentInvoice(t, userID, fixtureNow)
		f.invoices.On("FindByIDForUser", mock.Anything, userID, inv.ID).Return(inv, nil).Once()

		_, err := newTestInvoiceService(f).RecordPayment(ctx, userID, inv.ID, RecordPaymentRequest{Amount: dec("105.01")})
		assert.True(t, shared.IsValidation(err))
		f.payments.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		f.invoices.AssertNumberOfCalls(t, "FindByIDForUser", 1)
	})

	t.Run("void invoices accept no payments", func(t *testing.T) {
		f := newFixture()
		inv := newSentInvoice(t, userID, fixtureNow)
		require.NoError(t, inv.Void(fixtureNow))
		f.invoices.On("FindByIDForUser", mock.Anything, userID, inv.ID).Return(inv, nil)

		_, err := newTestInvoiceService(f).RecordPayment(ctx, userID, inv.ID, RecordPaymentRequest{Amount: dec("10")})
		assert.True(t, shared.IsInvalidState(err))
	})

	t.Run("a concurrent posting forces a reload", func(t *testing.T) {
		f := newFixture()
		stale := newSentInvoice(t, userID, fixtureNow)
		fresh := newSentInvoice(t, userID, fixtureNow)
		fresh.ID = stale.ID
		_, err := fresh.RecordPayment(invoicing.PaymentInput{Amount: dec("80")}, fixtureNow)
		require.NoError(t, err)
		fresh.ClearDomainEvents()
		fresh.Version = 2

		f.invoices.On("FindByIDForUser", mock.Anything, userID, stale.ID).Return(stale, nil).Once()
		f.invoices.On("FindByIDForUser", mock.Anything, userID, stale.ID).Return(fresh, nil).Once()
		f.invoices.On("SaveWithLock", mock.Anything, stale).Return(shared.NewConcurrencyConflictError("invoice")).Once()
		f.invoices.On("SaveWithLock", mock.Anything, fresh).Return(nil).Once()
		f.payments.On("Save", mock.Anything, mock.Anything).Return(nil).Once()

		result, err := newTestInvoiceService(f).RecordPayment(ctx, userID, stale.ID, RecordPaymentRequest{Amount: dec("25")})
		require.NoError(t, err)
		assert.Equal(t, "paid", result.Invoice.Status)
		assert.True(t, dec("105").Equal(result.Invoice.AmountPaid))
		f.invoices.AssertExpectations(t)
		f.payments.AssertExpectations(t)
	})

	t.Run("a concurrent posting that exhausts the balance is rejected on reload", func(t *testing.T) {
		f := newFixture()
		stale := newSentInvoice(t, userID, fixtureNow)
		fresh := newSentInvoice(t, userID, fixtureNow)
		fresh.ID = stale.ID
		_, err := fresh.RecordPayment(invoicing.PaymentInput{Amount: dec("100")}, fixtureNow)
		require.NoError(t, err)
		fresh.ClearDomainEvents()

		f.invoices.On("FindByIDForUser", mock.Anything, userID, stale.ID).Return(stale, nil).Once()
		f.invoices.On("FindByIDForUser", mock.Anything, userID, stale.ID).Return(fresh, nil).Once()
		f.invoices.On("SaveWithLock", mock.Anything, stale).Return(shared.NewConcurrencyConflictError("invoice")).Once()

		_, err = newTestInvoiceService(f).RecordPayment(ctx, userID, stale.ID, RecordPaymentRequest{Amount: dec("50")})
		assert.True(t, shared.IsValidation(err))
		f.payments.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestInvoiceService_DeletePayment(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("reopens a paid invoice as overdue once past due", func(t *testing.T) {
		f := newFixture()
		inv, p := paidInvoice(t, userID, fixtureNow.AddDate(0, 0, -40))
		f.invoices.On("FindByIDForUser", mock.Anything, userID, inv.ID).Return(inv, nil)
		f.payments.On("FindByIDForInvoice", mock.Anything, inv.ID, p.ID).Return(p, nil)
		f.invoices.On("SaveWithLock", mock.Anything, inv).Return(nil)
		f.payments.On("Delete", mock.Anything, p.ID).Return(nil)

		result, err := newTestInvoiceService(f).DeletePayment(ctx, userID, inv.ID, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "overdue", result.Invoice.Status)
		assert.True(t, dec("105").Equal(result.Invoice.BalanceDue))
		assert.Nil(t, result.Invoice.PaidAt)
		assert.Equal(t, p.ID, result.Payment.ID)
		assert.Equal(t, []string{invoicing.EventTypeInvoicePaymentDeleted}, f.publisher.publishedTypes())
	})

	t.Run("reopens as sent before the due date", func(t *testing.T) {
		f := newFixture()
		inv, p := paidInvoice(t, userID, fixtureNow.AddDate(0, 0, -5))
		f.invoices.On("FindByIDForUser", mock.Anything, userID, inv.ID).Return(inv, nil)
		f.payments.On("FindByIDForInvoice", mock.Anything, inv.ID, p.ID).Return(p, nil)
		f.invoices.On("SaveWithLock", mock.Anything, inv).Return(nil)
		f.payments.On("Delete", mock.Anything, p.ID).Return(nil)

		result, err := newTestInvoiceService(f).DeletePayment(ctx, userID, inv.ID, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "sent", result.Invoice.Status)
	})

	t.Run("payment of another invoice is not found", func(t *testing.T) {
		f := newFixture()
		inv := newSentInvoice(t, userID, fixtureNow)
		paymentID := uuid.New()
		f.invoices.On("FindByIDForUser", mock.Anything, userID, inv.ID).Return(inv, nil)
		f.payments.On("FindByIDForInvoice", mock.Anything, inv.ID, paymentID).Return(nil, shared.NewNotFoundError("payment"))

		_, err := newTestInvoiceService(f).DeletePayment(ctx, userID, inv.ID, paymentID)
		assert.True(t, shared.IsNotFound(err))
		f.invoices.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}

func TestInvoiceService_Delete(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("soft delete voids and keeps the ledger", func(t *testing.T) {
		f := newFixture()
		inv, _ := paidInvoice(t, userID, fixtureNow.AddDate(0, 0, -3))
		f.invoices.On("FindByIDForUser", mock.Anything, userID, inv.ID).Return(inv, nil)
		f.invoices.On("SaveWithLock", mock.Anything, inv).Return(nil)

		require.NoError(t, newTestInvoiceService(f).Delete(ctx, userID, inv.ID, false))
		assert.Equal(t, invoicing.InvoiceStatusVoid, inv.Status)
		assert.True(t, dec("105").Equal(inv.AmountPaid))
		f.payments.AssertNotCalled(t, "DeleteByInvoice", mock.Anything, mock.Anything)
		assert.Equal(t, []string{invoicing.EventTypeInvoiceVoided}, f.publisher.publishedTypes())
	})

	t.Run("voiding twice is rejected", func(t *testing.T) {
		f := newFixture()
		inv := newSentInvoice(t, userID, fixtureNow)
		require.NoError(t, inv.Void(fixtureNow))
		f.invoices.On("FindByIDForUser", mock.Anything, userID, inv.ID).Return(inv, nil)

		err := newTestInvoiceService(f).Delete(ctx, userID, inv.ID, false)
		assert.True(t, shared.IsInvalidState(err))
	})

	t.Run("permanent delete removes payments first", func(t *testing.T) {
		f := newFixture()
		inv := newSentInvoice(t, userID, fixtureNow)
		f.invoices.On("FindByIDForUser", mock.Anything, userID, inv.ID).Return(inv, nil)
		deletePayments := f.payments.On("DeleteByInvoice", mock.Anything, inv.ID).Return(nil)
		f.invoices.On("DeleteForUser", mock.Anything, userID, inv.ID).Return(nil).NotBefore(deletePayments)

		require.NoError(t, newTestInvoiceService(f).Delete(ctx, userID, inv.ID, true))
		f.invoices.AssertExpectations(t)
		f.payments.AssertExpectations(t)
	})

	t.Run("permanent delete of a missing invoice", func(t *testing.T) {
		f := newFixture()
		id := uuid.New()
		f.invoices.On("FindByIDForUser", mock.Anything, userID, id).Return(nil, shared.NewNotFoundError("invoice"))

		err := newTestInvoiceService(f).Delete(ctx, userID, id, true)
		assert.True(t, shared.IsNotFound(err))
		f.payments.AssertNotCalled(t, "DeleteByInvoice", mock.Anything, mock.Anything)
	})
}

func TestInvoiceService_ListPayments(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("checks ownership before reading the ledger", func(t *testing.T) {
		f := newFixture()
		id := uuid.New()
		f.invoices.On("FindByIDForUser", mock.Anything, userID, id).Return(nil, shared.NewNotFoundError("invoice"))

		_, err := newTestInvoiceService(f).ListPayments(ctx, userID, id)
		assert.True(t, shared.IsNotFound(err))
		f.payments.AssertNotCalled(t, "FindByInvoice", mock.Anything, mock.Anything)
	})

	t.Run("returns the ledger", func(t *testing.T) {
		f := newFixture()
		inv, p := paidInvoice(t, userID, fixtureNow)
		f.invoices.On("FindByIDForUser", mock.Anything, userID, inv.ID).Return(inv, nil)
		f.payments.On("FindByInvoice", mock.Anything, inv.ID).Return([]invoicing.Payment{*p}, nil)

		payments, err := newTestInvoiceService(f).ListPayments(ctx, userID, inv.ID)
		require.NoError(t, err)
		require.Len(t, payments, 1)
		assert.True(t, dec("105").Equal(payments[0].Amount))
	})
}

func TestInvoiceService_RepairBalance(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("recomputes a drifted balance", func(t *testing.T) {
		f := newFixture()
		inv, p := paidInvoice(t, userID, fixtureNow.AddDate(0, 0, -2))
		inv.AmountPaid = dec("30")
		f.invoices.On("FindByIDForUser", mock.Anything, userID, inv.ID).Return(inv, nil)
		f.payments.On("FindByInvoice", mock.Anything, inv.ID).Return([]invoicing.Payment{*p}, nil)
		f.invoices.On("SaveWithLock", mock.Anything, inv).Return(nil).Once()

		resp, changed, err := newTestInvoiceService(f).RepairBalance(ctx, userID, inv.ID)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.True(t, dec("105").Equal(resp.AmountPaid))
		assert.Equal(t, "paid", resp.Status)
	})

	t.Run("leaves a consistent invoice alone", func(t *testing.T) {
		f := newFixture()
		inv, p := paidInvoice(t, userID, fixtureNow.AddDate(0, 0, -2))
		f.invoices.On("FindByIDForUser", mock.Anything, userID, inv.ID).Return(inv, nil)
		f.payments.On("FindByInvoice", mock.Anything, inv.ID).Return([]invoicing.Payment{*p}, nil)

		_, changed, err := newTestInvoiceService(f).RepairBalance(ctx, userID, inv.ID)
		require.NoError(t, err)
		assert.False(t, changed)
		f.invoices.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}

func TestInvoiceService_Summary(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	f := newFixture()

	late := newSentInvoice(t, userID, fixtureNow.AddDate(0, 0, -45))
	paid, _ := paidInvoice(t, userID, fixtureNow.AddDate(0, 0, -3))
	voided := newSentInvoice(t, userID, fixtureNow)
	require.NoError(t, voided.Void(fixtureNow))

	f.invoices.On("FindAllForUser", mock.Anything, userID, mock.Anything).
		Return([]invoicing.Invoice{*late, *paid, *voided}, nil)

	summary, err := newTestInvoiceService(f).Summary(ctx, userID, invoicing.InvoiceFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Count)
	assert.Equal(t, 1, summary.OverdueCount)
	assert.Equal(t, 1, summary.PaidCount)
	assert.True(t, dec("210").Equal(summary.TotalInvoiced))
	assert.True(t, dec("105").Equal(summary.TotalOverdue))
	assert.True(t, dec("105").Equal(summary.Aging[invoicing.Aging1To30]))
	assert.True(t, summary.Aging[invoicing.AgingCurrent].IsZero())
	f.invoices.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}
