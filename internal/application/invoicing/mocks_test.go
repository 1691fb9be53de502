package invoicing

import (
	"context"
	"testing"
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/invoicing"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockQuoteRepository is a mock implementation of QuoteRepository
type MockQuoteRepository struct {
	mock.Mock
}

func (m *MockQuoteRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*invoicing.Quote, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Quote), args.Error(1)
}

func (m *MockQuoteRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter invoicing.QuoteFilter) ([]invoicing.Quote, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]invoicing.Quote), args.Error(1)
}

func (m *MockQuoteRepository) CountForUser(ctx context.Context, userID uuid.UUID, filter invoicing.QuoteFilter) (int64, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuoteRepository) FindExpirable(ctx context.Context, before time.Time, limit int) ([]invoicing.Quote, error) {
	args := m.Called(ctx, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]invoicing.Quote), args.Error(1)
}

func (m *MockQuoteRepository) Save(ctx context.Context, quote *invoicing.Quote) error {
	args := m.Called(ctx, quote)
	return args.Error(0)
}

func (m *MockQuoteRepository) SaveWithLock(ctx context.Context, quote *invoicing.Quote) error {
	args := m.Called(ctx, quote)
	return args.Error(0)
}

func (m *MockQuoteRepository) DeleteForUser(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

// MockInvoiceRepository is a mock implementation of InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*invoicing.Invoice, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter invoicing.InvoiceFilter) ([]invoicing.Invoice, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]invoicing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) CountForUser(ctx context.Context, userID uuid.UUID, filter invoicing.InvoiceFilter) (int64, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) FindOverdueCandidates(ctx context.Context, before time.Time, limit int) ([]invoicing.Invoice, error) {
	args := m.Called(ctx, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]invoicing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByQuoteID(ctx context.Context, userID, quoteID uuid.UUID) (*invoicing.Invoice, error) {
	args := m.Called(ctx, userID, quoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByRecurringRun(ctx context.Context, scheduleID uuid.UUID, runDate time.Time) (*invoicing.Invoice, error) {
	args := m.Called(ctx, scheduleID, runDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *invoicing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SaveWithLock(ctx context.Context, invoice *invoicing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) DeleteForUser(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

// MockPaymentRepository is a mock implementation of PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByIDForInvoice(ctx context.Context, invoiceID, id uuid.UUID) (*invoicing.Payment, error) {
	args := m.Called(ctx, invoiceID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]invoicing.Payment, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]invoicing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Save(ctx context.Context, payment *invoicing.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPaymentRepository) DeleteByInvoice(ctx context.Context, invoiceID uuid.UUID) error {
	args := m.Called(ctx, invoiceID)
	return args.Error(0)
}

// MockScheduleRepository is a mock implementation of RecurringScheduleRepository
type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*invoicing.RecurringSchedule, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.RecurringSchedule), args.Error(1)
}

func (m *MockScheduleRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]invoicing.RecurringSchedule, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]invoicing.RecurringSchedule), args.Error(1)
}

func (m *MockScheduleRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]invoicing.RecurringSchedule, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]invoicing.RecurringSchedule), args.Error(1)
}

func (m *MockScheduleRepository) Save(ctx context.Context, schedule *invoicing.RecurringSchedule) error {
	args := m.Called(ctx, schedule)
	return args.Error(0)
}

func (m *MockScheduleRepository) SaveWithLock(ctx context.Context, schedule *invoicing.RecurringSchedule) error {
	args := m.Called(ctx, schedule)
	return args.Error(0)
}

func (m *MockScheduleRepository) DeleteForUser(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

// MockDocumentSequence is a mock implementation of DocumentSequence
type MockDocumentSequence struct {
	mock.Mock
}

func (m *MockDocumentSequence) Next(ctx context.Context, userID uuid.UUID, docType invoicing.DocumentType, year int) (int64, error) {
	args := m.Called(ctx, userID, docType, year)
	return args.Get(0).(int64), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// publishedTypes returns the event types of every Publish call, in order
func (m *MockEventPublisher) publishedTypes() []string {
	var types []string
	for _, call := range m.Calls {
		if call.Method != "Publish" {
			continue
		}
		for _, e := range call.Arguments.Get(1).([]shared.DomainEvent) {
			types = append(types, e.EventType())
		}
	}
	return types
}

// fixture bundles mocks and services wired the way the server wires them
type fixture struct {
	quotes    *MockQuoteRepository
	invoices  *MockInvoiceRepository
	payments  *MockPaymentRepository
	schedules *MockScheduleRepository
	sequence  *MockDocumentSequence
	publisher *MockEventPublisher
	numbering *NumberingService
	retrier   *Retrier
	txScope   *NoOpTransactionScope
	now       time.Time
}

var fixtureNow = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

func newFixture() *fixture {
	f := &fixture{
		quotes:    new(MockQuoteRepository),
		invoices:  new(MockInvoiceRepository),
		payments:  new(MockPaymentRepository),
		schedules: new(MockScheduleRepository),
		sequence:  new(MockDocumentSequence),
		publisher: new(MockEventPublisher),
		retrier:   fastRetrier(3),
		now:       fixtureNow,
	}
	f.numbering = NewNumberingService(f.sequence, DefaultNumberingConfig(), nil)
	f.txScope = NewNoOpTransactionScope(f.quotes, f.invoices, f.payments, f.schedules)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	return f
}

func (f *fixture) clock() time.Time { return f.now }

func (f *fixture) expectNumber(docType invoicing.DocumentType, year int, seq int64) {
	f.sequence.On("Next", mock.Anything, mock.Anything, docType, year).Return(seq, nil).Once()
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// sampleContent has one line of 2 x 50 at 10% tax and a fixed discount of 5, totalling 105
func sampleContent() invoicing.DocumentContent {
	return invoicing.DocumentContent{
		Client: invoicing.ClientInfo{Name: "Acme Corp", Email: "billing@acme.test"},
		Items: []invoicing.LineItemInput{
			{Description: "Consulting", Quantity: dec("2"), UnitPrice: dec("50"), TaxRate: dec("10")},
		},
		DiscountAmount: dec("5"),
		DiscountType:   invoicing.DiscountTypeFixed,
		Notes:          "Thank you",
	}
}

func newQuote(t *testing.T, userID uuid.UUID, issue time.Time, expiry *time.Time) *invoicing.Quote {
	t.Helper()
	q, err := invoicing.NewQuote(userID, "QUO-2024-0001", sampleContent(), issue, expiry)
	require.NoError(t, err)
	q.ClearDomainEvents()
	return q
}

func newQuoteWithStatus(t *testing.T, userID uuid.UUID, status invoicing.QuoteStatus, issue time.Time, expiry *time.Time) *invoicing.Quote {
	t.Helper()
	q := newQuote(t, userID, issue, expiry)
	if status != invoicing.QuoteStatusDraft {
		require.NoError(t, q.Send(issue))
	}
	if status != invoicing.QuoteStatusDraft && status != invoicing.QuoteStatusSent {
		require.NoError(t, q.UpdateStatus(status, issue))
	}
	q.ClearDomainEvents()
	return q
}

// newSentInvoice issues a 105.00 invoice on issue with net 30 terms and sends it
func newSentInvoice(t *testing.T, userID uuid.UUID, issue time.Time) *invoicing.Invoice {
	t.Helper()
	inv, err := invoicing.NewInvoice(userID, "INV-2024-0001", invoicing.InvoiceInput{
		Content:      sampleContent(),
		IssueDate:    issue,
		PaymentTerms: invoicing.PaymentTermsNet30,
	})
	require.NoError(t, err)
	require.NoError(t, inv.Send(issue))
	inv.ClearDomainEvents()
	return inv
}

func ptrTime(t time.Time) *time.Time { return &t }

// quoteFilterAsOf is filter as the service passes it to the repository.
func quoteFilterAsOf(filter invoicing.QuoteFilter) invoicing.QuoteFilter {
	filter.AsOf = ptrTime(fixtureNow)
	return filter
}
