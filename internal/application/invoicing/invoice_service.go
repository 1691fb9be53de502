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

// InvoiceService handles invoice lifecycle operations and the payment ledger
type InvoiceService struct {
	invoiceRepo invoicing.InvoiceRepository
	paymentRepo invoicing.PaymentRepository
	txScope     TransactionScope
	numbering   *NumberingService
	retrier     *Retrier
	publisher   shared.EventPublisher
	logger      *zap.Logger
	clock       Clock
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo invoicing.InvoiceRepository,
	paymentRepo invoicing.PaymentRepository,
	txScope TransactionScope,
	numbering *NumberingService,
	retrier *Retrier,
	logger *zap.Logger,
) *InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retrier == nil {
		retrier = NewRetrier(DefaultRetryConfig(), logger)
	}
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		txScope:     txScope,
		numbering:   numbering,
		retrier:     retrier,
		logger:      logger,
		clock:       systemClock,
	}
}

// SetEventPublisher sets the publisher for invoice and payment events
func (s *InvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetClock overrides the service time source
func (s *InvoiceService) SetClock(clock Clock) {
	s.clock = clock
}

// Create creates a draft invoice with the next invoice number
func (s *InvoiceService) Create(ctx context.Context, userID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "create")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrUserID, userID.String())

	var result *InvoiceResponse
	var operationErr error
	telemetry.WithProfilingLabels(ctx, telemetry.DocumentOperationLabels(telemetry.OperationCreateInvoice, string(invoicing.DocumentTypeInvoice)), func(c context.Context) {
		now := s.clock()
		input := invoicing.InvoiceInput{
			Content:      req.Content,
			IssueDate:    now,
			DueDate:      req.DueDate,
			PaymentTerms: invoicing.PaymentTerms(req.PaymentTerms),
		}
		if req.IssueDate != nil {
			input.IssueDate = *req.IssueDate
		}
		if input.PaymentTerms != "" && !input.PaymentTerms.IsValid() {
			operationErr = shared.NewValidationError("invalid payment terms: " + req.PaymentTerms)
			return
		}
		if err := req.Content.Validate(); err != nil {
			operationErr = err
			return
		}

		number := s.numbering.Next(c, userID, invoicing.DocumentTypeInvoice, input.IssueDate.Year())
		invoice, err := invoicing.NewInvoice(userID, number, input)
		if err != nil {
			operationErr = err
			return
		}
		if err := s.retrier.Do(c, "invoice.save", func(rc context.Context) error {
			return s.invoiceRepo.Save(rc, invoice)
		}); err != nil {
			operationErr = err
			return
		}

		telemetry.SetAttributes(span,
			telemetry.SpanAttrInvoiceID, invoice.ID.String(),
			telemetry.SpanAttrInvoiceNumber, invoice.InvoiceNumber,
			telemetry.SpanAttrAmount, invoice.Totals.Total.String(),
		)
		publishEvents(c, s.publisher, collectEvents(invoice))
		resp := ToInvoiceResponse(invoice, now)
		result = &resp
	})

	if operationErr != nil {
		telemetry.RecordError(span, operationErr)
	}
	return result, operationErr
}

// Get returns one invoice, reconciling its overdue status first
func (s *InvoiceService) Get(ctx context.Context, userID, id uuid.UUID) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "get")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceID, id.String())

	invoice, err := s.invoiceRepo.FindByIDForUser(ctx, userID, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.reconcile(ctx, []*invoicing.Invoice{invoice})
	resp := ToInvoiceResponse(invoice, s.clock())
	return &resp, nil
}

// List returns a page of the user's invoices. Open invoices past their due date are flipped to
// overdue and persisted before the page is returned. A status filter matches the flipped status.
func (s *InvoiceService) List(ctx context.Context, userID uuid.UUID, filter invoicing.InvoiceFilter) (*shared.Paginated[InvoiceResponse], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "list")
	defer span.End()

	now := s.clock()
	filter.AsOf = &now
	invoices, err := s.invoiceRepo.FindAllForUser(ctx, userID, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	total, err := s.invoiceRepo.CountForUser(ctx, userID, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	ptrs := make([]*invoicing.Invoice, len(invoices))
	for i := range invoices {
		ptrs[i] = &invoices[i]
	}
	s.reconcile(ctx, ptrs)

	items := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		if !matchesStatuses(invoices[i].Status, filter.Statuses) {
			continue
		}
		items = append(items, ToInvoiceResponse(&invoices[i], now))
	}

	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

func matchesStatuses(status invoicing.InvoiceStatus, statuses []invoicing.InvoiceStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, st := range statuses {
		if st == status {
			return true
		}
	}
	return false
}

// reconcile applies the overdue rule and persists changed invoices.
// A failed write is logged; the caller still sees the reconciled status.
func (s *InvoiceService) reconcile(ctx context.Context, invoices []*invoicing.Invoice) {
	now := s.clock()
	for _, inv := range invoices {
		if !inv.ReconcileStatus(now) {
			continue
		}
		events := collectEvents(inv)
		if err := s.invoiceRepo.SaveWithLock(ctx, inv); err != nil {
			s.logger.Warn("Failed to persist reconciled invoice status",
				zap.String("invoice_id", inv.ID.String()),
				zap.String("status", string(inv.Status)),
				zap.Error(err),
			)
			continue
		}
		publishEvents(ctx, s.publisher, events)
	}
}

// mutate loads an invoice, applies fn and saves it under the optimistic lock.
// A conflict reloads the invoice and re-applies fn.
func (s *InvoiceService) mutate(ctx context.Context, op string, userID, id uuid.UUID, fn func(inv *invoicing.Invoice, now time.Time) error) (*invoicing.Invoice, error) {
	var invoice *invoicing.Invoice
	err := s.retrier.Do(ctx, op, func(rc context.Context) error {
		inv, err := s.invoiceRepo.FindByIDForUser(rc, userID, id)
		if err != nil {
			return err
		}
		now := s.clock()
		inv.ReconcileStatus(now)
		if err := fn(inv, now); err != nil {
			return err
		}
		if err := s.invoiceRepo.SaveWithLock(rc, inv); err != nil {
			return err
		}
		invoice = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	publishEvents(ctx, s.publisher, collectEvents(invoice))
	return invoice, nil
}

// Update replaces an invoice's content, dates and terms. Paid and void invoices cannot be edited.
func (s *InvoiceService) Update(ctx context.Context, userID, id uuid.UUID, req UpdateInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "update")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceID, id.String())

	update := invoicing.InvoiceUpdate{
		Content:      req.Content,
		DueDate:      req.DueDate,
		PaymentTerms: invoicing.PaymentTerms(req.PaymentTerms),
	}
	if req.IssueDate != nil {
		update.IssueDate = *req.IssueDate
	}
	invoice, err := s.mutate(ctx, "invoice.update", userID, id, func(inv *invoicing.Invoice, now time.Time) error {
		return inv.Update(update, now)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp := ToInvoiceResponse(invoice, s.clock())
	return &resp, nil
}

// UpdateStatus applies an explicit status change
func (s *InvoiceService) UpdateStatus(ctx context.Context, userID, id uuid.UUID, status string) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "update_status")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceID, id.String(),
		telemetry.SpanAttrStatus, status,
	)

	target := invoicing.InvoiceStatus(status)
	if !target.IsValid() {
		err := shared.NewValidationError("invalid invoice status: " + status)
		telemetry.RecordError(span, err)
		return nil, err
	}
	invoice, err := s.mutate(ctx, "invoice.update_status", userID, id, func(inv *invoicing.Invoice, now time.Time) error {
		return inv.UpdateStatus(target, now)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp := ToInvoiceResponse(invoice, s.clock())
	return &resp, nil
}

// Send marks an invoice as sent
func (s *InvoiceService) Send(ctx context.Context, userID, id uuid.UUID) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "send")
	defer span.End()

	invoice, err := s.mutate(ctx, "invoice.send", userID, id, func(inv *invoicing.Invoice, now time.Time) error {
		return inv.Send(now)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp := ToInvoiceResponse(invoice, s.clock())
	return &resp, nil
}

// MarkViewed records that the client opened the invoice
func (s *InvoiceService) MarkViewed(ctx context.Context, userID, id uuid.UUID) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "mark_viewed")
	defer span.End()

	invoice, err := s.mutate(ctx, "invoice.mark_viewed", userID, id, func(inv *invoicing.Invoice, now time.Time) error {
		return inv.MarkViewed(now)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp := ToInvoiceResponse(invoice, s.clock())
	return &resp, nil
}

// Delete voids an invoice, or removes it with its payments and line items when permanent is set
func (s *InvoiceService) Delete(ctx context.Context, userID, id uuid.UUID, permanent bool) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "delete")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceID, id.String(),
		"permanent", permanent,
	)

	if !permanent {
		_, err := s.mutate(ctx, "invoice.void", userID, id, func(inv *invoicing.Invoice, now time.Time) error {
			return inv.Void(now)
		})
		if err != nil {
			telemetry.RecordError(span, err)
		}
		return err
	}

	err := s.retrier.Do(ctx, "invoice.delete", func(rc context.Context) error {
		return s.txScope.Execute(rc, func(repos TransactionalRepositories) error {
			if _, err := repos.Invoices().FindByIDForUser(rc, userID, id); err != nil {
				return err
			}
			if err := repos.Payments().DeleteByInvoice(rc, id); err != nil {
				return err
			}
			return repos.Invoices().DeleteForUser(rc, userID, id)
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
	}
	return err
}

// RecordPayment posts a payment and updates the invoice balance in one transaction.
// Two concurrent postings against the same invoice serialize on the invoice version.
func (s *InvoiceService) RecordPayment(ctx context.Context, userID, invoiceID uuid.UUID, req RecordPaymentRequest) (*PaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "record_payment")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceID, invoiceID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
		telemetry.SpanAttrPaymentMethod, req.Method,
	)

	input := invoicing.PaymentInput{
		Amount:        req.Amount,
		Method:        invoicing.PaymentMethod(req.Method),
		Reference:     req.Reference,
		TransactionID: req.TransactionID,
		Notes:         req.Notes,
	}
	if req.PaymentDate != nil {
		input.PaymentDate = *req.PaymentDate
	}

	var invoice *invoicing.Invoice
	var payment *invoicing.Payment
	var operationErr error
	telemetry.WithProfilingLabels(ctx, telemetry.DocumentOperationLabels(telemetry.OperationRecordPayment, string(invoicing.DocumentTypeInvoice)), func(c context.Context) {
		operationErr = s.retrier.Do(c, "invoice.record_payment", func(rc context.Context) error {
			return s.txScope.Execute(rc, func(repos TransactionalRepositories) error {
				inv, err := repos.Invoices().FindByIDForUser(rc, userID, invoiceID)
				if err != nil {
					return err
				}
				now := s.clock()
				inv.ReconcileStatus(now)
				p, err := inv.RecordPayment(input, now)
				if err != nil {
					return err
				}
				if err := repos.Invoices().SaveWithLock(rc, inv); err != nil {
					return err
				}
				if err := repos.Payments().Save(rc, p); err != nil {
					return err
				}
				invoice, payment = inv, p
				return nil
			})
		})
	})
	if operationErr != nil {
		telemetry.RecordError(span, operationErr)
		return nil, operationErr
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrPaymentID, payment.ID.String(),
		telemetry.SpanAttrStatus, string(invoice.Status),
	)
	telemetry.AddEvent(span, "payment_recorded",
		"balance_due", invoice.BalanceDue.String(),
	)
	publishEvents(ctx, s.publisher, collectEvents(invoice))
	return &PaymentResult{
		Payment: ToPaymentResponse(payment),
		Invoice: ToInvoiceResponse(invoice, s.clock()),
	}, nil
}

// DeletePayment removes a payment and reverses its effect on the invoice in one transaction
func (s *InvoiceService) DeletePayment(ctx context.Context, userID, invoiceID, paymentID uuid.UUID) (*PaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "delete_payment")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceID, invoiceID.String(),
		telemetry.SpanAttrPaymentID, paymentID.String(),
	)

	var invoice *invoicing.Invoice
	var payment *invoicing.Payment
	var operationErr error
	telemetry.WithProfilingLabels(ctx, telemetry.DocumentOperationLabels(telemetry.OperationDeletePayment, string(invoicing.DocumentTypeInvoice)), func(c context.Context) {
		operationErr = s.retrier.Do(c, "invoice.delete_payment", func(rc context.Context) error {
			return s.txScope.Execute(rc, func(repos TransactionalRepositories) error {
				inv, err := repos.Invoices().FindByIDForUser(rc, userID, invoiceID)
				if err != nil {
					return err
				}
				p, err := repos.Payments().FindByIDForInvoice(rc, invoiceID, paymentID)
				if err != nil {
					return err
				}
				if err := inv.RemovePayment(p, s.clock()); err != nil {
					return err
				}
				if err := repos.Invoices().SaveWithLock(rc, inv); err != nil {
					return err
				}
				if err := repos.Payments().Delete(rc, p.ID); err != nil {
					return err
				}
				invoice, payment = inv, p
				return nil
			})
		})
	})
	if operationErr != nil {
		telemetry.RecordError(span, operationErr)
		return nil, operationErr
	}

	publishEvents(ctx, s.publisher, collectEvents(invoice))
	return &PaymentResult{
		Payment: ToPaymentResponse(payment),
		Invoice: ToInvoiceResponse(invoice, s.clock()),
	}, nil
}

// ListPayments returns an invoice's payment ledger
func (s *InvoiceService) ListPayments(ctx context.Context, userID, invoiceID uuid.UUID) ([]PaymentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "list_payments")
	defer span.End()

	if _, err := s.invoiceRepo.FindByIDForUser(ctx, userID, invoiceID); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	payments, err := s.paymentRepo.FindByInvoice(ctx, invoiceID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	out := make([]PaymentResponse, len(payments))
	for i := range payments {
		out[i] = ToPaymentResponse(&payments[i])
	}
	return out, nil
}

// RepairBalance recomputes amount_paid from the stored payments.
// It reports whether the invoice had drifted.
func (s *InvoiceService) RepairBalance(ctx context.Context, userID, invoiceID uuid.UUID) (*InvoiceResponse, bool, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "repair_balance")
	defer span.End()

	var invoice *invoicing.Invoice
	changed := false
	err := s.retrier.Do(ctx, "invoice.repair_balance", func(rc context.Context) error {
		return s.txScope.Execute(rc, func(repos TransactionalRepositories) error {
			inv, err := repos.Invoices().FindByIDForUser(rc, userID, invoiceID)
			if err != nil {
				return err
			}
			payments, err := repos.Payments().FindByInvoice(rc, invoiceID)
			if err != nil {
				return err
			}
			invoice = inv
			changed = inv.ApplyLedger(payments, s.clock())
			if !changed {
				return nil
			}
			return repos.Invoices().SaveWithLock(rc, inv)
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, false, err
	}
	if changed {
		s.logger.Warn("Invoice balance drifted from its payments",
			zap.String("invoice_id", invoice.ID.String()),
			zap.String("amount_paid", invoice.AmountPaid.String()),
		)
	}
	resp := ToInvoiceResponse(invoice, s.clock())
	return &resp, changed, nil
}

// Summary tallies the user's invoices matching filter, with an aging breakdown. Pagination is ignored.
func (s *InvoiceService) Summary(ctx context.Context, userID uuid.UUID, filter invoicing.InvoiceFilter) (*InvoiceSummaryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "summary")
	defer span.End()

	now := s.clock()
	filter.Page = 0
	filter.PageSize = 0
	filter.AsOf = &now
	invoices, err := s.invoiceRepo.FindAllForUser(ctx, userID, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	reconciled := invoices[:0]
	for i := range invoices {
		invoices[i].Status = invoicing.ReconciledInvoiceStatus(invoices[i].Status, invoices[i].DueDate, now)
		if !matchesStatuses(invoices[i].Status, filter.Statuses) {
			continue
		}
		reconciled = append(reconciled, invoices[i])
	}
	return &InvoiceSummaryResponse{
		InvoiceSummary: invoicing.SummarizeInvoices(reconciled),
		Aging:          invoicing.AgeInvoices(reconciled, now),
	}, nil
}
