package invoicing

import (
	"context"
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/invoicing"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QuoteService handles quote lifecycle operations
type QuoteService struct {
	quoteRepo invoicing.QuoteRepository
	numbering *NumberingService
	retrier   *Retrier
	publisher shared.EventPublisher
	logger    *zap.Logger
	clock     Clock
}

// NewQuoteService creates a new QuoteService
func NewQuoteService(
	quoteRepo invoicing.QuoteRepository,
	numbering *NumberingService,
	retrier *Retrier,
	logger *zap.Logger,
) *QuoteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retrier == nil {
		retrier = NewRetrier(DefaultRetryConfig(), logger)
	}
	return &QuoteService{
		quoteRepo: quoteRepo,
		numbering: numbering,
		retrier:   retrier,
		logger:    logger,
		clock:     systemClock,
	}
}

// SetEventPublisher sets the publisher for quote events
func (s *QuoteService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetClock overrides the service time source
func (s *QuoteService) SetClock(clock Clock) {
	s.clock = clock
}

// Create creates a draft quote with the next quote number
func (s *QuoteService) Create(ctx context.Context, userID uuid.UUID, req CreateQuoteRequest) (*QuoteResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quote", "create")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrUserID, userID.String())

	var result *QuoteResponse
	var operationErr error
	telemetry.WithProfilingLabels(ctx, telemetry.DocumentOperationLabels(telemetry.OperationCreateQuote, string(invoicing.DocumentTypeQuote)), func(c context.Context) {
		now := s.clock()
		issueDate := now
		if req.IssueDate != nil {
			issueDate = *req.IssueDate
		}
		if err := req.Content.Validate(); err != nil {
			operationErr = err
			return
		}

		number := s.numbering.Next(c, userID, invoicing.DocumentTypeQuote, issueDate.Year())
		quote, err := invoicing.NewQuote(userID, number, req.Content, issueDate, req.ExpiryDate)
		if err != nil {
			operationErr = err
			return
		}
		if err := s.retrier.Do(c, "quote.save", func(rc context.Context) error {
			return s.quoteRepo.Save(rc, quote)
		}); err != nil {
			operationErr = err
			return
		}

		telemetry.SetAttributes(span,
			telemetry.SpanAttrQuoteID, quote.ID.String(),
			telemetry.SpanAttrQuoteNumber, quote.QuoteNumber,
		)
		publishEvents(c, s.publisher, collectEvents(quote))
		resp := ToQuoteResponse(quote)
		result = &resp
	})

	if operationErr != nil {
		telemetry.RecordError(span, operationErr)
	}
	return result, operationErr
}

// Get returns one quote, reconciling its expiry first
func (s *QuoteService) Get(ctx context.Context, userID, id uuid.UUID) (*QuoteResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quote", "get")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrQuoteID, id.String())

	quote, err := s.quoteRepo.FindByIDForUser(ctx, userID, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.reconcile(ctx, []*invoicing.Quote{quote})
	resp := ToQuoteResponse(quote)
	return &resp, nil
}

// List returns a page of the user's quotes. Sent quotes past their expiry date are flipped to
// expired and persisted before the page is returned. A status filter matches the flipped status.
func (s *QuoteService) List(ctx context.Context, userID uuid.UUID, filter invoicing.QuoteFilter) (*shared.Paginated[QuoteResponse], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quote", "list")
	defer span.End()

	now := s.clock()
	filter.AsOf = &now
	quotes, err := s.quoteRepo.FindAllForUser(ctx, userID, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	total, err := s.quoteRepo.CountForUser(ctx, userID, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	ptrs := make([]*invoicing.Quote, len(quotes))
	for i := range quotes {
		ptrs[i] = &quotes[i]
	}
	s.reconcile(ctx, ptrs)

	items := make([]QuoteResponse, 0, len(quotes))
	for i := range quotes {
		if filter.Status != nil && quotes[i].Status != *filter.Status {
			continue
		}
		items = append(items, ToQuoteResponse(&quotes[i]))
	}

	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// reconcile applies the expiry rule and persists changed quotes.
// A failed write is logged; the caller still sees the reconciled status.
func (s *QuoteService) reconcile(ctx context.Context, quotes []*invoicing.Quote) {
	now := s.clock()
	for _, q := range quotes {
		if !q.ReconcileStatus(now) {
			continue
		}
		events := collectEvents(q)
		if err := s.quoteRepo.SaveWithLock(ctx, q); err != nil {
			s.logger.Warn("Failed to persist reconciled quote status",
				zap.String("quote_id", q.ID.String()),
				zap.String("status", string(q.Status)),
				zap.Error(err),
			)
			continue
		}
		publishEvents(ctx, s.publisher, events)
	}
}

// mutate loads a quote, applies fn and saves it under the optimistic lock.
// A conflict reloads the quote and re-applies fn.
func (s *QuoteService) mutate(ctx context.Context, op string, userID, id uuid.UUID, fn func(q *invoicing.Quote, now time.Time) error) (*invoicing.Quote, error) {
	var quote *invoicing.Quote
	err := s.retrier.Do(ctx, op, func(rc context.Context) error {
		q, err := s.quoteRepo.FindByIDForUser(rc, userID, id)
		if err != nil {
			return err
		}
		now := s.clock()
		q.ReconcileStatus(now)
		if err := fn(q, now); err != nil {
			return err
		}
		if err := s.quoteRepo.SaveWithLock(rc, q); err != nil {
			return err
		}
		quote = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	publishEvents(ctx, s.publisher, collectEvents(quote))
	return quote, nil
}

// Update replaces a quote's content and recomputes its totals
func (s *QuoteService) Update(ctx context.Context, userID, id uuid.UUID, req UpdateQuoteRequest) (*QuoteResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quote", "update")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrQuoteID, id.String())

	quote, err := s.mutate(ctx, "quote.update", userID, id, func(q *invoicing.Quote, now time.Time) error {
		issueDate := time.Time{}
		if req.IssueDate != nil {
			issueDate = *req.IssueDate
		}
		return q.UpdateContent(req.Content, issueDate, req.ExpiryDate, now)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp := ToQuoteResponse(quote)
	return &resp, nil
}

// UpdateStatus applies an explicit status change
func (s *QuoteService) UpdateStatus(ctx context.Context, userID, id uuid.UUID, status string) (*QuoteResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quote", "update_status")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrQuoteID, id.String(),
		telemetry.SpanAttrStatus, status,
	)

	target := invoicing.QuoteStatus(status)
	if !target.IsValid() {
		err := shared.NewValidationError("invalid quote status: " + status)
		telemetry.RecordError(span, err)
		return nil, err
	}
	quote, err := s.mutate(ctx, "quote.update_status", userID, id, func(q *invoicing.Quote, now time.Time) error {
		return q.UpdateStatus(target, now)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp := ToQuoteResponse(quote)
	return &resp, nil
}

// Send marks a quote as sent
func (s *QuoteService) Send(ctx context.Context, userID, id uuid.UUID) (*QuoteResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quote", "send")
	defer span.End()

	quote, err := s.mutate(ctx, "quote.send", userID, id, func(q *invoicing.Quote, now time.Time) error {
		return q.Send(now)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp := ToQuoteResponse(quote)
	return &resp, nil
}

// Duplicate copies a quote into a new draft with a fresh number and issue date
func (s *QuoteService) Duplicate(ctx context.Context, userID, id uuid.UUID) (*QuoteResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quote", "duplicate")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrQuoteID, id.String())

	source, err := s.quoteRepo.FindByIDForUser(ctx, userID, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	now := s.clock()
	number := s.numbering.Next(ctx, userID, invoicing.DocumentTypeQuote, now.Year())
	quote, err := source.Duplicate(number, now)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.retrier.Do(ctx, "quote.save", func(rc context.Context) error {
		return s.quoteRepo.Save(rc, quote)
	}); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	publishEvents(ctx, s.publisher, collectEvents(quote))
	resp := ToQuoteResponse(quote)
	return &resp, nil
}

// Delete removes a quote that has not been converted
func (s *QuoteService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "quote", "delete")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrQuoteID, id.String())

	err := s.retrier.Do(ctx, "quote.delete", func(rc context.Context) error {
		q, err := s.quoteRepo.FindByIDForUser(rc, userID, id)
		if err != nil {
			return err
		}
		if err := q.CanDelete(); err != nil {
			return err
		}
		return s.quoteRepo.DeleteForUser(rc, userID, id)
	})
	if err != nil {
		telemetry.RecordError(span, err)
	}
	return err
}

// Summary tallies the user's quotes matching filter. Pagination is ignored.
func (s *QuoteService) Summary(ctx context.Context, userID uuid.UUID, filter invoicing.QuoteFilter) (*invoicing.QuoteSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quote", "summary")
	defer span.End()

	now := s.clock()
	filter.Page = 0
	filter.PageSize = 0
	filter.AsOf = &now
	quotes, err := s.quoteRepo.FindAllForUser(ctx, userID, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	reconciled := quotes[:0]
	for i := range quotes {
		quotes[i].Status = invoicing.ReconciledQuoteStatus(quotes[i].Status, quotes[i].ExpiryDate, now)
		if filter.Status != nil && quotes[i].Status != *filter.Status {
			continue
		}
		reconciled = append(reconciled, quotes[i])
	}
	summary := invoicing.SummarizeQuotes(reconciled)
	return &summary, nil
}
