package invoicing

import (
	"strings"
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod describes how a payment was made
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCheck        PaymentMethod = "check"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCreditCard   PaymentMethod = "credit_card"
	PaymentMethodDebitCard    PaymentMethod = "debit_card"
	PaymentMethodPayPal       PaymentMethod = "paypal"
	PaymentMethodOther        PaymentMethod = "other"
)

// IsValid checks if the payment method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCheck, PaymentMethodBankTransfer,
		PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodPayPal, PaymentMethodOther:
		return true
	}
	return false
}

// Payment is one entry in an invoice's payment ledger
type Payment struct {
	shared.BaseEntity
	InvoiceID     uuid.UUID
	UserID        uuid.UUID
	Amount        decimal.Decimal
	PaymentDate   time.Time
	Method        PaymentMethod
	Reference     string
	TransactionID *uuid.UUID
	Notes         string
}

// PaymentInput is the caller-supplied shape of a payment
type PaymentInput struct {
	Amount        decimal.Decimal
	PaymentDate   time.Time
	Method        PaymentMethod
	Reference     string
	TransactionID *uuid.UUID
	Notes         string
}

// newPayment validates the input independently of any invoice balance
func newPayment(inv *Invoice, input PaymentInput, now time.Time) (*Payment, error) {
	if !input.Amount.IsPositive() {
		return nil, shared.NewValidationError("payment amount must be greater than 0")
	}
	if !input.Amount.Equal(input.Amount.Round(2)) {
		return nil, shared.NewValidationError("payment amount cannot have more than 2 decimal places")
	}
	method := input.Method
	if method == "" {
		method = PaymentMethodOther
	}
	if !method.IsValid() {
		return nil, shared.NewValidationError("invalid payment method: " + string(method))
	}
	paymentDate := input.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = now
	}
	reference := strings.TrimSpace(input.Reference)
	if len(reference) > 200 {
		return nil, shared.NewValidationError("payment reference cannot exceed 200 characters")
	}

	return &Payment{
		BaseEntity:    shared.NewBaseEntity(),
		InvoiceID:     inv.ID,
		UserID:        inv.UserID,
		Amount:        input.Amount,
		PaymentDate:   paymentDate,
		Method:        method,
		Reference:     reference,
		TransactionID: input.TransactionID,
		Notes:         input.Notes,
	}, nil
}

// SumPayments returns the total of the given payments
func SumPayments(payments []Payment) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.Amount)
	}
	return sum
}
