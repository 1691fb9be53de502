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

// Outcomes of one schedule firing
const (
	RunOutcomeGenerated   = "generated"
	RunOutcomeDeactivated = "deactivated"
	RunOutcomeSkipped     = "skipped"
	RunOutcomeFailed      = "failed"
)

// RunRecorder counts recurring firings by outcome
type RunRecorder interface {
	RecordRecurringRun(ctx context.Context, outcome string)
}

// RecurringConfig holds recurring processing settings
type RecurringConfig struct {
	// BatchSize caps how many due schedules one ProcessDue call picks up
	BatchSize int
}

// DefaultRecurringConfig returns the default recurring processing settings
func DefaultRecurringConfig() RecurringConfig {
	return RecurringConfig{BatchSize: 500}
}

// RecurringService manages recurring schedules and materializes the invoices they produce
type RecurringService struct {
	scheduleRepo invoicing.RecurringScheduleRepository
	txScope      TransactionScope
	numbering    *NumberingService
	retrier      *Retrier
	cfg          RecurringConfig
	publisher    shared.EventPublisher
	recorder     RunRecorder
	logger       *zap.Logger
	clock        Clock
}

// NewRecurringService creates a new RecurringService
func NewRecurringService(
	scheduleRepo invoicing.RecurringScheduleRepository,
	txScope TransactionScope,
	numbering *NumberingService,
	retrier *Retrier,
	cfg RecurringConfig,
	logger *zap.Logger,
) *RecurringService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retrier == nil {
		retrier = NewRetrier(DefaultRetryConfig(), logger)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultRecurringConfig().BatchSize
	}
	return &RecurringService{
		scheduleRepo: scheduleRepo,
		txScope:      txScope,
		numbering:    numbering,
		retrier:      retrier,
		cfg:          cfg,
		logger:       logger,
		clock:        systemClock,
	}
}

// SetEventPublisher sets the publisher for recurring events
func (s *RecurringService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetRunRecorder sets the recorder notified of each firing outcome
func (s *RecurringService) SetRunRecorder(recorder RunRecorder) {
	s.recorder = recorder
}

// SetClock overrides the service time source
func (s *RecurringService) SetClock(clock Clock) {
	s.clock = clock
}

// CreateSchedule creates an active schedule
func (s *RecurringService) CreateSchedule(ctx context.Context, userID uuid.UUID, req ScheduleRequest) (*ScheduleResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "recurring", "create")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrUserID, userID.String())

	schedule, err := invoicing.NewRecurringSchedule(userID, req.toInput())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.retrier.Do(ctx, "recurring.save", func(rc context.Context) error {
		return s.scheduleRepo.Save(rc, schedule)
	}); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrScheduleID, schedule.ID.String())
	resp := ToScheduleResponse(schedule)
	return &resp, nil
}

// GetSchedule returns one schedule
func (s *RecurringService) GetSchedule(ctx context.Context, userID, id uuid.UUID) (*ScheduleResponse, error) {
	schedule, err := s.scheduleRepo.FindByIDForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	resp := ToScheduleResponse(schedule)
	return &resp, nil
}

// ListSchedules returns the user's schedules
func (s *RecurringService) ListSchedules(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]ScheduleResponse, error) {
	schedules, err := s.scheduleRepo.FindAllForUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]ScheduleResponse, len(schedules))
	for i := range schedules {
		out[i] = ToScheduleResponse(&schedules[i])
	}
	return out, nil
}

// mutate loads a schedule, applies fn and saves it under the optimistic lock
func (s *RecurringService) mutate(ctx context.Context, op string, userID, id uuid.UUID, fn func(sc *invoicing.RecurringSchedule, now time.Time) error) (*invoicing.RecurringSchedule, error) {
	var schedule *invoicing.RecurringSchedule
	err := s.retrier.Do(ctx, op, func(rc context.Context) error {
		sc, err := s.scheduleRepo.FindByIDForUser(rc, userID, id)
		if err != nil {
			return err
		}
		if err := fn(sc, s.clock()); err != nil {
			return err
		}
		if err := s.scheduleRepo.SaveWithLock(rc, sc); err != nil {
			return err
		}
		schedule = sc
		return nil
	})
	if err != nil {
		return nil, err
	}
	publishEvents(ctx, s.publisher, collectEvents(schedule))
	return schedule, nil
}

// UpdateSchedule replaces a schedule's cadence and template
func (s *RecurringService) UpdateSchedule(ctx context.Context, userID, id uuid.UUID, req ScheduleRequest) (*ScheduleResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "recurring", "update")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrScheduleID, id.String())

	schedule, err := s.mutate(ctx, "recurring.update", userID, id, func(sc *invoicing.RecurringSchedule, now time.Time) error {
		return sc.Update(req.toInput(), now)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp := ToScheduleResponse(schedule)
	return &resp, nil
}

// Pause deactivates a schedule
func (s *RecurringService) Pause(ctx context.Context, userID, id uuid.UUID) (*ScheduleResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "recurring", "pause")
	defer span.End()

	schedule, err := s.mutate(ctx, "recurring.pause", userID, id, func(sc *invoicing.RecurringSchedule, now time.Time) error {
		if !sc.IsActive {
			return shared.NewInvalidStateError("schedule is already paused")
		}
		sc.Deactivate(now, "paused")
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp := ToScheduleResponse(schedule)
	return &resp, nil
}

// Resume reactivates a paused schedule
func (s *RecurringService) Resume(ctx context.Context, userID, id uuid.UUID) (*ScheduleResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "recurring", "resume")
	defer span.End()

	schedule, err := s.mutate(ctx, "recurring.resume", userID, id, func(sc *invoicing.RecurringSchedule, now time.Time) error {
		return sc.Resume(now)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp := ToScheduleResponse(schedule)
	return &resp, nil
}

// Delete removes a schedule. Invoices it generated are kept.
func (s *RecurringService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "recurring", "delete")
	defer span.End()

	err := s.retrier.Do(ctx, "recurring.delete", func(rc context.Context) error {
		if _, err := s.scheduleRepo.FindByIDForUser(rc, userID, id); err != nil {
			return err
		}
		return s.scheduleRepo.DeleteForUser(rc, userID, id)
	})
	if err != nil {
		telemetry.RecordError(span, err)
	}
	return err
}

// ProcessDue fires every active schedule whose next run date is at or before now.
// Each schedule is handled independently; failures are collected in the result, not returned.
func (s *RecurringService) ProcessDue(ctx context.Context, now time.Time) (*BatchResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "recurring", "process_due")
	defer span.End()

	result := &BatchResult{Errors: []ScheduleError{}}
	var operationErr error
	telemetry.WithProfilingLabels(ctx, telemetry.DocumentOperationLabels(telemetry.OperationProcessRecurring, string(invoicing.DocumentTypeInvoice)), func(c context.Context) {
		var due []invoicing.RecurringSchedule
		operationErr = s.retrier.Do(c, "recurring.find_due", func(rc context.Context) error {
			var err error
			due, err = s.scheduleRepo.FindDue(rc, now, s.cfg.BatchSize)
			return err
		})
		if operationErr != nil {
			return
		}

		for i := range due {
			if c.Err() != nil {
				break
			}
			sc := &due[i]
			result.Processed++
			outcome, _, err := s.fire(c, sc.UserID, sc.ID, now, true)
			s.recordOutcome(c, outcome)
			switch {
			case err != nil:
				result.Errors = append(result.Errors, ScheduleError{ScheduleID: sc.ID, Error: err.Error()})
				s.logger.Error("Recurring schedule failed",
					zap.String("schedule_id", sc.ID.String()),
					zap.String("user_id", sc.UserID.String()),
					zap.Error(err),
				)
			case outcome == RunOutcomeGenerated:
				result.Generated++
			case outcome == RunOutcomeDeactivated:
				result.Deactivated++
			default:
				result.Skipped++
			}
		}
	})
	if operationErr != nil {
		telemetry.RecordError(span, operationErr)
		return nil, operationErr
	}

	telemetry.AddEvent(span, "recurring_batch_completed",
		"processed", result.Processed,
		"generated", result.Generated,
		"deactivated", result.Deactivated,
		"errors", len(result.Errors),
	)
	s.logger.Info("Recurring batch completed",
		zap.Int("processed", result.Processed),
		zap.Int("generated", result.Generated),
		zap.Int("deactivated", result.Deactivated),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

// RunNow fires one schedule immediately, regardless of its next run date.
// It takes the same transactional path as the batch.
func (s *RecurringService) RunNow(ctx context.Context, userID, id uuid.UUID) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "recurring", "run_now")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrScheduleID, id.String())

	now := s.clock()
	outcome, invoice, err := s.fire(ctx, userID, id, now, false)
	s.recordOutcome(ctx, outcome)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	switch outcome {
	case RunOutcomeDeactivated:
		err = shared.NewInvalidStateError("schedule has reached its end date or occurrence limit")
	case RunOutcomeSkipped:
		err = shared.NewInvalidStateError("the current run date was already invoiced, schedule advanced")
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp := ToInvoiceResponse(invoice, now)
	return &resp, nil
}

func (s *RecurringService) recordOutcome(ctx context.Context, outcome string) {
	if s.recorder != nil && outcome != "" {
		s.recorder.RecordRecurringRun(ctx, outcome)
	}
}

// fire materializes one run of a schedule. The invoice insert and the schedule advance commit
// in one transaction, and a run date that already produced an invoice is never billed twice.
func (s *RecurringService) fire(ctx context.Context, userID, id uuid.UUID, now time.Time, requireDue bool) (string, *invoicing.Invoice, error) {
	var outcome string
	var schedule *invoicing.RecurringSchedule
	var invoice *invoicing.Invoice
	var number string

	err := s.retrier.Do(ctx, "recurring.fire", func(rc context.Context) error {
		outcome, schedule, invoice = "", nil, nil
		return s.txScope.Execute(rc, func(repos TransactionalRepositories) error {
			sc, err := repos.Schedules().FindByIDForUser(rc, userID, id)
			if err != nil {
				return err
			}
			schedule = sc
			if !sc.IsActive {
				if requireDue {
					outcome = RunOutcomeSkipped
					return nil
				}
				return shared.NewInvalidStateError("schedule is paused")
			}
			if requireDue && !sc.IsDue(now) {
				outcome = RunOutcomeSkipped
				return nil
			}
			if sc.IsExhausted(now) {
				sc.Deactivate(now, "exhausted")
				outcome = RunOutcomeDeactivated
				return repos.Schedules().SaveWithLock(rc, sc)
			}

			if existing, err := repos.Invoices().FindByRecurringRun(rc, sc.ID, sc.NextRunDate); err == nil && existing != nil {
				s.logger.Warn("Recurring run already billed, advancing schedule",
					zap.String("schedule_id", sc.ID.String()),
					zap.String("invoice_id", existing.ID.String()),
					zap.Time("run_date", sc.NextRunDate),
				)
				sc.Advance(existing.ID, now)
				outcome = RunOutcomeSkipped
				return repos.Schedules().SaveWithLock(rc, sc)
			} else if err != nil && !shared.IsNotFound(err) {
				return err
			}

			// a retried attempt reuses the number so conflicts leave no gaps
			if number == "" {
				number = s.numbering.Next(rc, sc.UserID, invoicing.DocumentTypeInvoice, now.Year())
			}
			inv, err := invoicing.NewInvoice(sc.UserID, number, sc.BuildInvoiceInput(now))
			if err != nil {
				return err
			}
			if sc.Template.AutoSend {
				if err := inv.Send(now); err != nil {
					return err
				}
			}
			if err := repos.Invoices().Save(rc, inv); err != nil {
				return err
			}
			sc.Advance(inv.ID, now)
			if err := repos.Schedules().SaveWithLock(rc, sc); err != nil {
				return err
			}
			invoice = inv
			outcome = RunOutcomeGenerated
			return nil
		})
	})
	if err != nil {
		return RunOutcomeFailed, nil, err
	}

	if invoice != nil {
		publishEvents(ctx, s.publisher, collectEvents(invoice, schedule))
	} else if schedule != nil {
		publishEvents(ctx, s.publisher, collectEvents(schedule))
	}
	return outcome, invoice, nil
}
