package invoicing

import (
	"context"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/invoicing"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConversionService turns accepted quotes into invoices
type ConversionService struct {
	txScope   TransactionScope
	numbering *NumberingService
	retrier   *Retrier
	publisher shared.EventPublisher
	logger    *zap.Logger
	clock     Clock
}

// NewConversionService creates a new ConversionService
func NewConversionService(txScope TransactionScope, numbering *NumberingService, retrier *Retrier, logger *zap.Logger) *ConversionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retrier == nil {
		retrier = NewRetrier(DefaultRetryConfig(), logger)
	}
	return &ConversionService{
		txScope:   txScope,
		numbering: numbering,
		retrier:   retrier,
		logger:    logger,
		clock:     systemClock,
	}
}

// SetEventPublisher sets the publisher for conversion events
func (s *ConversionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetClock overrides the service time source
func (s *ConversionService) SetClock(clock Clock) {
	s.clock = clock
}

// ConvertQuote creates an invoice from an accepted quote and links the quote to it.
// The invoice insert and the quote update commit together; a quote converts at most once.
func (s *ConversionService) ConvertQuote(ctx context.Context, userID, quoteID uuid.UUID, req ConvertQuoteRequest) (*ConversionResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quote", "convert")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrUserID, userID.String(),
		telemetry.SpanAttrQuoteID, quoteID.String(),
	)

	terms, err := invoicing.ParsePaymentTerms(req.PaymentTerms)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var quote *invoicing.Quote
	var invoice *invoicing.Invoice
	var operationErr error
	telemetry.WithProfilingLabels(ctx, telemetry.DocumentOperationLabels(telemetry.OperationConvertQuote, string(invoicing.DocumentTypeQuote)), func(c context.Context) {
		number := ""
		operationErr = s.retrier.Do(c, "quote.convert", func(rc context.Context) error {
			return s.txScope.Execute(rc, func(repos TransactionalRepositories) error {
				q, err := repos.Quotes().FindByIDForUser(rc, userID, quoteID)
				if err != nil {
					return err
				}
				now := s.clock()
				input, err := invoicing.BuildInvoiceInputFromQuote(q, terms, now)
				if err != nil {
					return err
				}
				if existing, err := repos.Invoices().FindByQuoteID(rc, userID, quoteID); err == nil && existing != nil {
					return shared.NewInvalidStateError("quote has already been converted to invoice " + existing.InvoiceNumber)
				} else if err != nil && !shared.IsNotFound(err) {
					return err
				}

				if number == "" {
					number = s.numbering.Next(rc, userID, invoicing.DocumentTypeInvoice, now.Year())
				}
				inv, err := invoicing.NewInvoice(userID, number, input)
				if err != nil {
					return err
				}
				if err := repos.Invoices().Save(rc, inv); err != nil {
					return err
				}
				if err := q.MarkConverted(inv.ID, now); err != nil {
					return err
				}
				if err := repos.Quotes().SaveWithLock(rc, q); err != nil {
					return err
				}
				quote, invoice = q, inv
				return nil
			})
		})
	})
	if operationErr != nil {
		telemetry.RecordError(span, operationErr)
		return nil, operationErr
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceID, invoice.ID.String(),
		telemetry.SpanAttrInvoiceNumber, invoice.InvoiceNumber,
	)
	s.logger.Info("Quote converted to invoice",
		zap.String("quote_id", quote.ID.String()),
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
	)
	publishEvents(ctx, s.publisher, collectEvents(invoice, quote))
	return &ConversionResult{
		Quote:   ToQuoteResponse(quote),
		Invoice: ToInvoiceResponse(invoice, s.clock()),
	}, nil
}
