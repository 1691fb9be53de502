package invoicing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/invoicing"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDocumentRenderer is a mock implementation of DocumentRenderer
type MockDocumentRenderer struct {
	mock.Mock
}

func (m *MockDocumentRenderer) RenderInvoice(ctx context.Context, invoice *InvoiceResponse, payments []PaymentResponse) ([]byte, error) {
	args := m.Called(ctx, invoice, payments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockDocumentRenderer) RenderQuote(ctx context.Context, quote *QuoteResponse) ([]byte, error) {
	args := m.Called(ctx, quote)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockDocumentArchive is a mock implementation of DocumentArchive
type MockDocumentArchive struct {
	mock.Mock
}

func (m *MockDocumentArchive) Upload(ctx context.Context, storageKey string, data []byte, contentType string) error {
	args := m.Called(ctx, storageKey, data, contentType)
	return args.Error(0)
}

func (m *MockDocumentArchive) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, storageKey, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

var samplePDF = []byte("%PDF-1.7 sample")

func TestDocumentService_RenderInvoicePDF(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("renders with payments and archives", func(t *testing.T) {
		f := newFixture()
		renderer := new(MockDocumentRenderer)
		archive := new(MockDocumentArchive)
		inv, p := paidInvoice(t, userID, fixtureNow.AddDate(0, 0, -1))
		key := fmt.Sprintf("documents/%s/invoice/INV-2024-0001.pdf", userID)
		expires := fixtureNow.Add(15 * time.Minute)

		f.invoices.On("FindByIDForUser", mock.Anything, userID, inv.ID).Return(inv, nil)
		f.payments.On("FindByInvoice", mock.Anything, inv.ID).Return([]invoicing.Payment{*p}, nil)
		renderer.On("RenderInvoice", mock.Anything, mock.MatchedBy(func(r *InvoiceResponse) bool {
			return r.InvoiceNumber == "INV-2024-0001" && r.Status == "paid"
		}), mock.MatchedBy(func(ps []PaymentResponse) bool {
			return len(ps) == 1 && ps[0].ID == p.ID
		})).Return(samplePDF, nil)
		archive.On("Upload", mock.Anything, key, samplePDF, "application/pdf").Return(nil)
		archive.On("GenerateDownloadURL", mock.Anything, key, 15*time.Minute).Return("https://files.test/"+key, expires, nil)

		svc := NewDocumentService(f.quotes, f.invoices, f.payments, renderer, archive, nil)
		svc.SetClock(f.clock)
		doc, err := svc.RenderInvoicePDF(ctx, userID, inv.ID)
		require.NoError(t, err)

		assert.Equal(t, "INV-2024-0001.pdf", doc.FileName)
		assert.Equal(t, samplePDF, doc.Content)
		assert.Equal(t, key, doc.StorageKey)
		assert.Equal(t, "https://files.test/"+key, doc.DownloadURL)
		require.NotNil(t, doc.ExpiresAt)
		assert.Equal(t, expires, *doc.ExpiresAt)
		archive.AssertExpectations(t)
	})

	t.Run("archive failure still returns the PDF", func(t *testing.T) {
		f := newFixture()
		renderer := new(MockDocumentRenderer)
		archive := new(MockDocumentArchive)
		inv := newSentInvoice(t, userID, fixtureNow)

		f.invoices.On("FindByIDForUser", mock.Anything, userID, inv.ID).Return(inv, nil)
		f.payments.On("FindByInvoice", mock.Anything, inv.ID).Return([]invoicing.Payment{}, nil)
		renderer.On("RenderInvoice", mock.Anything, mock.Anything, mock.Anything).Return(samplePDF, nil)
		archive.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("bucket unavailable"))

		svc := NewDocumentService(f.quotes, f.invoices, f.payments, renderer, archive, nil)
		doc, err := svc.RenderInvoicePDF(ctx, userID, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, samplePDF, doc.Content)
		assert.Empty(t, doc.StorageKey)
		assert.Nil(t, doc.ExpiresAt)
		archive.AssertNotCalled(t, "GenerateDownloadURL", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("render failure", func(t *testing.T) {
		f := newFixture()
		renderer := new(MockDocumentRenderer)
		inv := newSentInvoice(t, userID, fixtureNow)

		f.invoices.On("FindByIDForUser", mock.Anything, userID, inv.ID).Return(inv, nil)
		f.payments.On("FindByInvoice", mock.Anything, inv.ID).Return([]invoicing.Payment{}, nil)
		renderer.On("RenderInvoice", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("browser crashed"))

		svc := NewDocumentService(f.quotes, f.invoices, f.payments, renderer, nil, nil)
		_, err := svc.RenderInvoicePDF(ctx, userID, inv.ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "INV-2024-0001")
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture()
		id := uuid.New()
		f.invoices.On("FindByIDForUser", mock.Anything, userID, id).Return(nil, shared.NewNotFoundError("invoice"))

		svc := NewDocumentService(f.quotes, f.invoices, f.payments, new(MockDocumentRenderer), nil, nil)
		_, err := svc.RenderInvoicePDF(ctx, userID, id)
		assert.True(t, shared.IsNotFound(err))
	})
}

func TestDocumentService_RenderQuotePDF(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	f := newFixture()
	renderer := new(MockDocumentRenderer)
	q := newQuoteWithStatus(t, userID, invoicing.QuoteStatusSent, fixtureNow.AddDate(0, 0, -20), ptrTime(fixtureNow.AddDate(0, 0, -1)))

	f.quotes.On("FindByIDForUser", mock.Anything, userID, q.ID).Return(q, nil)
	renderer.On("RenderQuote", mock.Anything, mock.MatchedBy(func(r *QuoteResponse) bool {
		return r.Status == "expired"
	})).Return(samplePDF, nil)

	svc := NewDocumentService(f.quotes, f.invoices, f.payments, renderer, nil, nil)
	svc.SetClock(f.clock)
	doc, err := svc.RenderQuotePDF(ctx, userID, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "QUO-2024-0001.pdf", doc.FileName)
	assert.Empty(t, doc.DownloadURL)
	renderer.AssertExpectations(t)
}
