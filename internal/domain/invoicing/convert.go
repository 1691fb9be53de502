package invoicing

import "time"

// BuildInvoiceInputFromQuote translates an accepted, unconverted quote into invoice-creation input.
// Client, discount, notes, terms and line items carry over; the invoice is issued at now and
// falls due per the payment terms (net 30 when empty).
func BuildInvoiceInputFromQuote(q *Quote, terms PaymentTerms, now time.Time) (InvoiceInput, error) {
	if err := q.EnsureConvertible(); err != nil {
		return InvoiceInput{}, err
	}
	if terms == "" {
		terms = DefaultPaymentTerms
	}
	parsed, err := ParsePaymentTerms(string(terms))
	if err != nil {
		return InvoiceInput{}, err
	}

	quoteID := q.ID
	due := parsed.DueDate(now)
	return InvoiceInput{
		Content:      q.Content(),
		IssueDate:    now,
		DueDate:      &due,
		PaymentTerms: parsed,
		QuoteID:      &quoteID,
	}, nil
}
