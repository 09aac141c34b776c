// Package billing builds invoices against finite inventory: the stock ledger view,
// the draft builder, invoice numbering and the commit pipeline.
package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryItem is a stock keeping entry owned by one user.
type InventoryItem struct {
	ID           uuid.UUID
	Name         string
	Description  string
	Quantity     decimal.Decimal
	PricePerUnit decimal.Decimal
	Unit         string
	CreatedAt    time.Time
}

// BuyerDetails is embedded by value into an invoice when it is created.
type BuyerDetails struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	GSTIN   string `json:"gstin,omitempty"`
}

// InvoiceItem is one line of an invoice. Name, unit and price are copied from the
// inventory item when the line is staged; InventoryItemID is only a weak reference.
type InvoiceItem struct {
	InventoryItemID uuid.UUID       `json:"inventory_item_id"`
	Name            string          `json:"name"`
	Quantity        decimal.Decimal `json:"quantity"`
	PricePerUnit    decimal.Decimal `json:"price_per_unit"`
	Unit            string          `json:"unit"`
	Total           decimal.Decimal `json:"total"`
}

// Status is the lifecycle state of a committed invoice.
type Status string

const (
	StatusDraft Status = "draft"
	StatusSent  Status = "sent"
	StatusPaid  Status = "paid"
)

// ParseStatus accepts exactly draft, sent or paid.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusDraft, StatusSent, StatusPaid:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Invoice is a committed invoice with its items.
type Invoice struct {
	ID            uuid.UUID
	InvoiceNumber string
	Date          time.Time
	Buyer         BuyerDetails
	Items         []InvoiceItem
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	TaxPercent    decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	Notes         string
	Status        Status
}

// BusinessProfile describes the seller printed on every invoice.
type BusinessProfile struct {
	Name    string
	Address string
	Phone   string
	Email   string
	Logo    string
	GSTIN   string
}

// DefaultBusinessProfile is used until the user fills in their own details.
func DefaultBusinessProfile() BusinessProfile {
	return BusinessProfile{
		Name:    "Your Business Name",
		Address: "123 Business Street, City, State 12345",
		Phone:   "+92 300 1234567",
		Email:   "contact@yourbusiness.com",
	}
}

// Totals are the derived amounts of a draft.
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
}
