package invoicing

import (
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// DiscountType selects how a document's discount_amount is applied
type DiscountType string

const (
	DiscountTypeFixed      DiscountType = "fixed"
	DiscountTypePercentage DiscountType = "percentage"
)

// IsValid checks if the discount type is valid
func (t DiscountType) IsValid() bool {
	return t == DiscountTypeFixed || t == DiscountTypePercentage
}

var (
	hundred = decimal.NewFromInt(100)
)

// LineTotals holds the computed money fields of a single line item
type LineTotals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// DocumentTotals is the totals shape shared by quotes and invoices.
// DiscountAmount is the value as entered: a currency amount for fixed discounts,
// a percentage for percentage discounts.
type DocumentTotals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxTotal       decimal.Decimal `json:"tax_total"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	DiscountType   DiscountType    `json:"discount_type"`
	Total          decimal.Decimal `json:"total"`
}

// EffectiveDiscount returns the currency value the discount removes from the document
func (t DocumentTotals) EffectiveDiscount() decimal.Decimal {
	return effectiveDiscount(t.Subtotal, t.DiscountAmount, t.DiscountType)
}

func effectiveDiscount(subtotal, amount decimal.Decimal, discountType DiscountType) decimal.Decimal {
	if discountType == DiscountTypePercentage {
		return valueobject.Percent(subtotal, amount)
	}
	return valueobject.RoundCents(amount)
}

// ComputeLineTotal computes subtotal = quantity*unitPrice and tax = subtotal*taxRate/100, each rounded to cents.
// Quantity must be positive, unit price non-negative and tax rate within 0..100.
func ComputeLineTotal(quantity, unitPrice, taxRate decimal.Decimal) (LineTotals, error) {
	if !quantity.IsPositive() {
		return LineTotals{}, shared.NewValidationError("quantity must be greater than 0")
	}
	if unitPrice.IsNegative() {
		return LineTotals{}, shared.NewValidationError("unit price cannot be negative")
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(hundred) {
		return LineTotals{}, shared.NewValidationError("tax rate must be between 0 and 100")
	}

	subtotal := valueobject.RoundCents(quantity.Mul(unitPrice))
	tax := valueobject.Percent(subtotal, taxRate)
	return LineTotals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}, nil
}

// ComputeDocumentTotals sums line subtotals and taxes, applies the discount and returns the document totals.
// total = round2(subtotal + taxTotal - effectiveDiscount), floored at zero.
// An empty discount type is treated as fixed.
func ComputeDocumentTotals(items []LineItem, discountAmount decimal.Decimal, discountType DiscountType) (DocumentTotals, error) {
	if discountType == "" {
		discountType = DiscountTypeFixed
	}
	if !discountType.IsValid() {
		return DocumentTotals{}, shared.NewValidationError("discount type must be 'fixed' or 'percentage'")
	}
	if discountAmount.IsNegative() {
		return DocumentTotals{}, shared.NewValidationError("discount amount cannot be negative")
	}
	if discountType == DiscountTypePercentage && discountAmount.GreaterThan(hundred) {
		return DocumentTotals{}, shared.NewValidationError("percentage discount cannot exceed 100")
	}

	subtotal := decimal.Zero
	taxTotal := decimal.Zero
	for _, item := range items {
		lt, err := ComputeLineTotal(item.Quantity, item.UnitPrice, item.TaxRate)
		if err != nil {
			return DocumentTotals{}, err
		}
		subtotal = subtotal.Add(lt.Subtotal)
		taxTotal = taxTotal.Add(lt.Tax)
	}

	total := valueobject.RoundCents(subtotal.Add(taxTotal).Sub(effectiveDiscount(subtotal, discountAmount, discountType)))
	if total.IsNegative() {
		total = decimal.Zero
	}

	return DocumentTotals{
		Subtotal:       subtotal,
		TaxTotal:       taxTotal,
		DiscountAmount: discountAmount,
		DiscountType:   discountType,
		Total:          total,
	}, nil
}
