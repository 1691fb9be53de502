package event

import (
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/invoicing"
)

// RegisterInvoicingEvents registers every invoicing event type with the serializer
func RegisterInvoicingEvents(serializer *EventSerializer) {
	for _, t := range []string{
		invoicing.EventTypeQuoteCreated,
		invoicing.EventTypeQuoteSent,
		invoicing.EventTypeQuoteStatusChanged,
		invoicing.EventTypeQuoteExpired,
		invoicing.EventTypeQuoteConverted,
	} {
		serializer.Register(t, &invoicing.QuoteEvent{})
	}

	for _, t := range []string{
		invoicing.EventTypeInvoiceCreated,
		invoicing.EventTypeInvoiceSent,
		invoicing.EventTypeInvoiceOverdue,
		invoicing.EventTypeInvoiceVoided,
		invoicing.EventTypeInvoicePaid,
	} {
		serializer.Register(t, &invoicing.InvoiceEvent{})
	}

	serializer.Register(invoicing.EventTypeInvoicePaymentRecorded, &invoicing.PaymentEvent{})
	serializer.Register(invoicing.EventTypeInvoicePaymentDeleted, &invoicing.PaymentEvent{})

	serializer.Register(invoicing.EventTypeRecurringInvoiceGenerated, &invoicing.RecurringEvent{})
	serializer.Register(invoicing.EventTypeRecurringScheduleDeactivated, &invoicing.RecurringEvent{})
}
