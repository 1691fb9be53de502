package invoicing

import (
	"strings"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClientInfo identifies who a document is addressed to.
// ClientID and CompanyID reference records managed elsewhere; the name, email and address are snapshots.
type ClientInfo struct {
	ClientID  *uuid.UUID `json:"client_id,omitempty"`
	CompanyID *uuid.UUID `json:"company_id,omitempty"`
	Name      string     `json:"client_name"`
	Email     string     `json:"client_email,omitempty"`
	Address   string     `json:"client_address,omitempty"`
}

// DocumentContent is the editable body shared by quotes, invoices and recurring templates
type DocumentContent struct {
	Client         ClientInfo      `json:"client"`
	Items          []LineItemInput `json:"items"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	DiscountType   DiscountType    `json:"discount_type"`
	Notes          string          `json:"notes,omitempty"`
	Terms          string          `json:"terms,omitempty"`
}

// Validate checks the parts of the content that totals computation does not cover
func (c DocumentContent) Validate() error {
	if len(strings.TrimSpace(c.Client.Name)) > 200 {
		return shared.NewValidationError("client name cannot exceed 200 characters")
	}
	if len(c.Notes) > 5000 || len(c.Terms) > 5000 {
		return shared.NewValidationError("notes and terms cannot exceed 5000 characters")
	}
	return nil
}

// build validates content and returns the materialized items and totals
func (c DocumentContent) build() ([]LineItem, DocumentTotals, error) {
	if err := c.Validate(); err != nil {
		return nil, DocumentTotals{}, err
	}
	items, err := NewLineItems(c.Items)
	if err != nil {
		return nil, DocumentTotals{}, err
	}
	totals, err := ComputeDocumentTotals(items, c.DiscountAmount, c.DiscountType)
	if err != nil {
		return nil, DocumentTotals{}, err
	}
	return items, totals, nil
}

// normalized trims whitespace from the client snapshot
func (c ClientInfo) normalized() ClientInfo {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Address = strings.TrimSpace(c.Address)
	return c
}
