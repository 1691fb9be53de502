package scheduler

import (
	"context"
	"fmt"
	"time"

	appinvoicing "github.com/RACCHUS/BookkeepingApp-sub007/internal/application/invoicing"
	"go.uber.org/zap"
)

// RecurringProcessor generates invoices for due schedules
type RecurringProcessor interface {
	ProcessDue(ctx context.Context, now time.Time) (*appinvoicing.BatchResult, error)
}

// StatusSweeper persists time-driven status changes
type StatusSweeper interface {
	Sweep(ctx context.Context, now time.Time) (*appinvoicing.SweepResult, error)
}

// InvoicingExecutor dispatches jobs to the invoicing services
type InvoicingExecutor struct {
	recurring RecurringProcessor
	sweeper   StatusSweeper
	logger    *zap.Logger
}

// NewInvoicingExecutor creates an executor for recurring and reconcile jobs
func NewInvoicingExecutor(recurring RecurringProcessor, sweeper StatusSweeper, logger *zap.Logger) *InvoicingExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoicingExecutor{recurring: recurring, sweeper: sweeper, logger: logger}
}

// Execute runs one job
func (e *InvoicingExecutor) Execute(ctx context.Context, job *Job) error {
	switch job.Kind {
	case JobKindRecurring:
		result, err := e.recurring.ProcessDue(ctx, job.RunAt)
		if err != nil {
			return err
		}
		e.logger.Info("Recurring batch finished",
			zap.String("job_id", job.ID.String()),
			zap.Int("processed", result.Processed),
			zap.Int("generated", result.Generated),
			zap.Int("deactivated", result.Deactivated),
			zap.Int("skipped", result.Skipped),
			zap.Int("errors", len(result.Errors)),
		)
		return nil

	case JobKindReconcile:
		result, err := e.sweeper.Sweep(ctx, job.RunAt)
		if err != nil {
			return err
		}
		e.logger.Info("Reconcile sweep finished",
			zap.String("job_id", job.ID.String()),
			zap.Int("quotes_expired", result.QuotesExpired),
			zap.Int("invoices_overdue", result.InvoicesOverdue),
			zap.Int("failed", result.Failed),
		)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownJobKind, job.Kind)
}
