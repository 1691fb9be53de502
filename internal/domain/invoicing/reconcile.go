package invoicing

import "time"

// ReconciledQuoteStatus returns the status a quote should have at now.
// A sent quote whose expiry date has passed is expired; everything else is unchanged.
func ReconciledQuoteStatus(status QuoteStatus, expiryDate *time.Time, now time.Time) QuoteStatus {
	if status == QuoteStatusSent && expiryDate != nil && expiryDate.Before(now) {
		return QuoteStatusExpired
	}
	return status
}

// ReconciledInvoiceStatus returns the status an invoice should have at now.
// sent, viewed and partial invoices whose due date has passed are overdue.
func ReconciledInvoiceStatus(status InvoiceStatus, dueDate time.Time, now time.Time) InvoiceStatus {
	if status.CanBecomeOverdue() && dueDate.Before(now) {
		return InvoiceStatusOverdue
	}
	return status
}
