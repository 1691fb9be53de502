package invoicing

import (
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
)

// PaymentTerms determines how long after the issue date an invoice falls due
type PaymentTerms string

const (
	PaymentTermsDueOnReceipt PaymentTerms = "due_on_receipt"
	PaymentTermsNet7         PaymentTerms = "net_7"
	PaymentTermsNet15        PaymentTerms = "net_15"
	PaymentTermsNet30        PaymentTerms = "net_30"
	PaymentTermsNet45        PaymentTerms = "net_45"
	PaymentTermsNet60        PaymentTerms = "net_60"
)

// DefaultPaymentTerms applies when a caller leaves terms empty
const DefaultPaymentTerms = PaymentTermsNet30

var paymentTermDays = map[PaymentTerms]int{
	PaymentTermsDueOnReceipt: 0,
	PaymentTermsNet7:         7,
	PaymentTermsNet15:        15,
	PaymentTermsNet30:        30,
	PaymentTermsNet45:        45,
	PaymentTermsNet60:        60,
}

// IsValid checks if the terms are known
func (t PaymentTerms) IsValid() bool {
	_, ok := paymentTermDays[t]
	return ok
}

// Days returns the number of days between issue and due date
func (t PaymentTerms) Days() int {
	return paymentTermDays[t]
}

// DueDate returns issueDate plus the terms offset in calendar days
func (t PaymentTerms) DueDate(issueDate time.Time) time.Time {
	return issueDate.AddDate(0, 0, t.Days())
}

// ParsePaymentTerms validates s, defaulting an empty value to net 30
func ParsePaymentTerms(s string) (PaymentTerms, error) {
	if s == "" {
		return DefaultPaymentTerms, nil
	}
	t := PaymentTerms(s)
	if !t.IsValid() {
		return "", shared.NewValidationError("invalid payment terms: " + s)
	}
	return t, nil
}
