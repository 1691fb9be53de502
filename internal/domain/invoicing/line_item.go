package invoicing

import (
	"strings"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is one priced line on a quote or invoice.
// A document's items are replaced wholesale on edit, never patched in place.
type LineItem struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	ProductID   *uuid.UUID      `json:"product_id,omitempty"`
	SortOrder   int             `json:"sort_order"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	Total       decimal.Decimal `json:"total"`
}

// LineItemInput is the caller-supplied shape of a line item.
// It is also what recurring templates store.
type LineItemInput struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	ProductID   *uuid.UUID      `json:"product_id,omitempty"`
}

// NewLineItem validates input and computes the line's money fields
func NewLineItem(input LineItemInput, sortOrder int) (LineItem, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return LineItem{}, shared.NewValidationError("line item description cannot be empty")
	}
	if len(description) > 500 {
		return LineItem{}, shared.NewValidationError("line item description cannot exceed 500 characters")
	}

	totals, err := ComputeLineTotal(input.Quantity, input.UnitPrice, input.TaxRate)
	if err != nil {
		return LineItem{}, err
	}

	return LineItem{
		ID:          uuid.New(),
		Description: description,
		Quantity:    input.Quantity,
		UnitPrice:   input.UnitPrice,
		TaxRate:     input.TaxRate,
		ProductID:   input.ProductID,
		SortOrder:   sortOrder,
		Subtotal:    totals.Subtotal,
		TaxAmount:   totals.Tax,
		Total:       totals.Total,
	}, nil
}

// NewLineItems builds a full item list, numbering sort positions from zero in input order
func NewLineItems(inputs []LineItemInput) ([]LineItem, error) {
	items := make([]LineItem, 0, len(inputs))
	for i, in := range inputs {
		item, err := NewLineItem(in, i)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// ToInput strips identity and computed fields so the item can seed another document
func (li LineItem) ToInput() LineItemInput {
	return LineItemInput{
		Description: li.Description,
		Quantity:    li.Quantity,
		UnitPrice:   li.UnitPrice,
		TaxRate:     li.TaxRate,
		ProductID:   li.ProductID,
	}
}

// LineItemInputs converts items back to inputs, preserving order
func LineItemInputs(items []LineItem) []LineItemInput {
	inputs := make([]LineItemInput, len(items))
	for i, item := range items {
		inputs[i] = item.ToInput()
	}
	return inputs
}
