package invoicing

import (
	"context"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/invoicing"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Invoice origins reported to metrics
const (
	OriginManual    = "manual"
	OriginQuote     = "quote"
	OriginRecurring = "recurring"
)

// MetricsRecorder receives business measurements derived from domain events
type MetricsRecorder interface {
	RecordQuoteCreated(ctx context.Context)
	RecordInvoiceCreated(ctx context.Context, origin string, total decimal.Decimal)
	RecordPayment(ctx context.Context, method, action string, amount decimal.Decimal)
	RecordStatusTransition(ctx context.Context, docType, status string)
}

// MetricsEventHandler turns invoicing events into metrics
type MetricsEventHandler struct {
	recorder MetricsRecorder
}

// NewMetricsEventHandler creates a new MetricsEventHandler
func NewMetricsEventHandler(recorder MetricsRecorder) *MetricsEventHandler {
	return &MetricsEventHandler{recorder: recorder}
}

// EventTypes returns the event types this handler is interested in
func (h *MetricsEventHandler) EventTypes() []string {
	return []string{
		invoicing.EventTypeQuoteCreated,
		invoicing.EventTypeQuoteSent,
		invoicing.EventTypeQuoteStatusChanged,
		invoicing.EventTypeQuoteExpired,
		invoicing.EventTypeInvoiceCreated,
		invoicing.EventTypeInvoiceSent,
		invoicing.EventTypeInvoiceOverdue,
		invoicing.EventTypeInvoiceVoided,
		invoicing.EventTypeInvoicePaid,
		invoicing.EventTypeInvoicePaymentRecorded,
		invoicing.EventTypeInvoicePaymentDeleted,
	}
}

// Handle records the measurement for one event. Unknown payloads are ignored.
func (h *MetricsEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if h.recorder == nil {
		return nil
	}
	switch e := event.(type) {
	case *invoicing.QuoteEvent:
		if e.EventType() == invoicing.EventTypeQuoteCreated {
			h.recorder.RecordQuoteCreated(ctx)
			return nil
		}
		h.recorder.RecordStatusTransition(ctx, string(invoicing.DocumentTypeQuote), string(e.Status))
	case *invoicing.PaymentEvent:
		action := "recorded"
		if e.EventType() == invoicing.EventTypeInvoicePaymentDeleted {
			action = "deleted"
		}
		h.recorder.RecordPayment(ctx, string(e.Method), action, e.Amount)
	case *invoicing.InvoiceEvent:
		if e.EventType() == invoicing.EventTypeInvoiceCreated {
			h.recorder.RecordInvoiceCreated(ctx, invoiceOrigin(e), e.Total)
			return nil
		}
		h.recorder.RecordStatusTransition(ctx, string(invoicing.DocumentTypeInvoice), string(e.Status))
	}
	return nil
}

func invoiceOrigin(e *invoicing.InvoiceEvent) string {
	switch {
	case e.IsRecurring:
		return OriginRecurring
	case e.FromQuote:
		return OriginQuote
	default:
		return OriginManual
	}
}
