package invoicing

import (
	"context"
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/invoicing"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ReconcileService persists time-driven status changes for every user: sent quotes past their
// expiry become expired and open invoices past their due date become overdue.
type ReconcileService struct {
	quoteRepo   invoicing.QuoteRepository
	invoiceRepo invoicing.InvoiceRepository
	retrier     *Retrier
	batchSize   int
	publisher   shared.EventPublisher
	logger      *zap.Logger
}

// NewReconcileService creates a new ReconcileService
func NewReconcileService(
	quoteRepo invoicing.QuoteRepository,
	invoiceRepo invoicing.InvoiceRepository,
	retrier *Retrier,
	batchSize int,
	logger *zap.Logger,
) *ReconcileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retrier == nil {
		retrier = NewRetrier(DefaultRetryConfig(), logger)
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	return &ReconcileService{
		quoteRepo:   quoteRepo,
		invoiceRepo: invoiceRepo,
		retrier:     retrier,
		batchSize:   batchSize,
		logger:      logger,
	}
}

// SetEventPublisher sets the publisher for expiry and overdue events
func (s *ReconcileService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// Sweep reconciles one batch of quotes and one batch of invoices at now.
// Documents that fail to save are counted and left for the next sweep.
func (s *ReconcileService) Sweep(ctx context.Context, now time.Time) (*SweepResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconcile", "sweep")
	defer span.End()

	result := &SweepResult{}
	var operationErr error
	telemetry.WithProfilingLabels(ctx, telemetry.DocumentOperationLabels(telemetry.OperationReconcile, ""), func(c context.Context) {
		if operationErr = s.sweepQuotes(c, now, result); operationErr != nil {
			return
		}
		operationErr = s.sweepInvoices(c, now, result)
	})
	if operationErr != nil {
		telemetry.RecordError(span, operationErr)
		return nil, operationErr
	}

	telemetry.AddEvent(span, "reconcile_sweep_completed",
		"quotes_expired", result.QuotesExpired,
		"invoices_overdue", result.InvoicesOverdue,
		"failed", result.Failed,
	)
	if result.QuotesExpired > 0 || result.InvoicesOverdue > 0 || result.Failed > 0 {
		s.logger.Info("Reconcile sweep completed",
			zap.Int("quotes_expired", result.QuotesExpired),
			zap.Int("invoices_overdue", result.InvoicesOverdue),
			zap.Int("failed", result.Failed),
		)
	}
	return result, nil
}

func (s *ReconcileService) sweepQuotes(ctx context.Context, now time.Time, result *SweepResult) error {
	var quotes []invoicing.Quote
	if err := s.retrier.Do(ctx, "reconcile.find_expirable", func(rc context.Context) error {
		var err error
		quotes, err = s.quoteRepo.FindExpirable(rc, now, s.batchSize)
		return err
	}); err != nil {
		return err
	}

	for i := range quotes {
		userID, id := quotes[i].UserID, quotes[i].ID
		var saved *invoicing.Quote
		err := s.retrier.Do(ctx, "reconcile.quote", func(rc context.Context) error {
			saved = nil
			q, err := s.quoteRepo.FindByIDForUser(rc, userID, id)
			if err != nil {
				return err
			}
			if !q.ReconcileStatus(now) {
				return nil
			}
			if err := s.quoteRepo.SaveWithLock(rc, q); err != nil {
				return err
			}
			saved = q
			return nil
		})
		if err != nil {
			result.Failed++
			s.logger.Warn("Failed to expire quote", zap.String("quote_id", id.String()), zap.Error(err))
			continue
		}
		if saved != nil {
			result.QuotesExpired++
			publishEvents(ctx, s.publisher, collectEvents(saved))
		}
	}
	return nil
}

func (s *ReconcileService) sweepInvoices(ctx context.Context, now time.Time, result *SweepResult) error {
	var invoices []invoicing.Invoice
	if err := s.retrier.Do(ctx, "reconcile.find_overdue", func(rc context.Context) error {
		var err error
		invoices, err = s.invoiceRepo.FindOverdueCandidates(rc, now, s.batchSize)
		return err
	}); err != nil {
		return err
	}

	for i := range invoices {
		userID, id := invoices[i].UserID, invoices[i].ID
		var saved *invoicing.Invoice
		err := s.retrier.Do(ctx, "reconcile.invoice", func(rc context.Context) error {
			saved = nil
			inv, err := s.invoiceRepo.FindByIDForUser(rc, userID, id)
			if err != nil {
				return err
			}
			if !inv.ReconcileStatus(now) {
				return nil
			}
			if err := s.invoiceRepo.SaveWithLock(rc, inv); err != nil {
				return err
			}
			saved = inv
			return nil
		})
		if err != nil {
			result.Failed++
			s.logger.Warn("Failed to mark invoice overdue", zap.String("invoice_id", id.String()), zap.Error(err))
			continue
		}
		if saved != nil {
			result.InvoicesOverdue++
			publishEvents(ctx, s.publisher, collectEvents(saved))
		}
	}
	return nil
}
