package invoicing

import (
	"context"
	"fmt"
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/invoicing"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentRenderer turns a finished quote or invoice into PDF bytes
type DocumentRenderer interface {
	RenderInvoice(ctx context.Context, invoice *InvoiceResponse, payments []PaymentResponse) ([]byte, error)
	RenderQuote(ctx context.Context, quote *QuoteResponse) ([]byte, error)
}

// DocumentArchive keeps rendered PDFs in object storage
type DocumentArchive interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}

// RenderedDocument is a rendered PDF, plus its archive location when archiving is enabled
type RenderedDocument struct {
	FileName    string     `json:"file_name"`
	Content     []byte     `json:"-"`
	StorageKey  string     `json:"storage_key,omitempty"`
	DownloadURL string     `json:"download_url,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// DocumentService renders quotes and invoices to PDF
type DocumentService struct {
	quoteRepo   invoicing.QuoteRepository
	invoiceRepo invoicing.InvoiceRepository
	paymentRepo invoicing.PaymentRepository
	renderer    DocumentRenderer
	archive     DocumentArchive
	urlTTL      time.Duration
	logger      *zap.Logger
	clock       Clock
}

// NewDocumentService creates a new DocumentService. archive may be nil.
func NewDocumentService(
	quoteRepo invoicing.QuoteRepository,
	invoiceRepo invoicing.InvoiceRepository,
	paymentRepo invoicing.PaymentRepository,
	renderer DocumentRenderer,
	archive DocumentArchive,
	logger *zap.Logger,
) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		quoteRepo:   quoteRepo,
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		renderer:    renderer,
		archive:     archive,
		urlTTL:      15 * time.Minute,
		logger:      logger,
		clock:       systemClock,
	}
}

// SetDownloadURLTTL sets how long archived download links stay valid
func (s *DocumentService) SetDownloadURLTTL(ttl time.Duration) {
	if ttl > 0 {
		s.urlTTL = ttl
	}
}

// SetClock overrides the service time source
func (s *DocumentService) SetClock(clock Clock) {
	s.clock = clock
}

// RenderInvoicePDF renders an invoice with its payment history
func (s *DocumentService) RenderInvoicePDF(ctx context.Context, userID, id uuid.UUID) (*RenderedDocument, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "render_invoice")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceID, id.String())

	inv, err := s.invoiceRepo.FindByIDForUser(ctx, userID, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	payments, err := s.paymentRepo.FindByInvoice(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	now := s.clock()
	inv.ReconcileStatus(now)
	resp := ToInvoiceResponse(inv, now)
	paymentResps := make([]PaymentResponse, len(payments))
	for i := range payments {
		paymentResps[i] = ToPaymentResponse(&payments[i])
	}

	var pdf []byte
	telemetry.WithProfilingLabels(ctx, telemetry.DocumentOperationLabels(telemetry.OperationRenderPDF, string(invoicing.DocumentTypeInvoice)), func(c context.Context) {
		pdf, err = s.renderer.RenderInvoice(c, &resp, paymentResps)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to render invoice %s: %w", inv.InvoiceNumber, err)
	}
	return s.finish(ctx, userID, invoicing.DocumentTypeInvoice, inv.InvoiceNumber, pdf), nil
}

// RenderQuotePDF renders a quote
func (s *DocumentService) RenderQuotePDF(ctx context.Context, userID, id uuid.UUID) (*RenderedDocument, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "render_quote")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrQuoteID, id.String())

	q, err := s.quoteRepo.FindByIDForUser(ctx, userID, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	q.ReconcileStatus(s.clock())
	resp := ToQuoteResponse(q)

	var pdf []byte
	telemetry.WithProfilingLabels(ctx, telemetry.DocumentOperationLabels(telemetry.OperationRenderPDF, string(invoicing.DocumentTypeQuote)), func(c context.Context) {
		pdf, err = s.renderer.RenderQuote(c, &resp)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to render quote %s: %w", q.QuoteNumber, err)
	}
	return s.finish(ctx, userID, invoicing.DocumentTypeQuote, q.QuoteNumber, pdf), nil
}

// finish archives the PDF when an archive is configured. Archive failures are logged and the
// rendered bytes are still returned.
func (s *DocumentService) finish(ctx context.Context, userID uuid.UUID, docType invoicing.DocumentType, number string, pdf []byte) *RenderedDocument {
	doc := &RenderedDocument{
		FileName: number + ".pdf",
		Content:  pdf,
	}
	if s.archive == nil {
		return doc
	}

	key := fmt.Sprintf("documents/%s/%s/%s.pdf", userID, docType, number)
	if err := s.archive.Upload(ctx, key, pdf, "application/pdf"); err != nil {
		s.logger.Warn("Failed to archive rendered document",
			zap.String("storage_key", key),
			zap.Error(err),
		)
		return doc
	}
	doc.StorageKey = key

	url, expiresAt, err := s.archive.GenerateDownloadURL(ctx, key, s.urlTTL)
	if err != nil {
		s.logger.Warn("Failed to sign download URL", zap.String("storage_key", key), zap.Error(err))
		return doc
	}
	doc.DownloadURL = url
	doc.ExpiresAt = &expiresAt
	return doc
}
