package billing

import (
	"fmt"
	"strings"

	"invoicedesk/internal/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Draft is an invoice under construction. It has no identity and is never
// written to the invoice tables; the draft store keeps it between requests.
type Draft struct {
	Buyer      BuyerDetails    `json:"buyer"`
	Items      []InvoiceItem   `json:"items"`
	Notes      string          `json:"notes,omitempty"`
	Discount   decimal.Decimal `json:"discount"`
	TaxPercent decimal.Decimal `json:"tax_percent"`
}

// Totals derives subtotal, discount, tax and total. Tax is charged on the
// discounted subtotal.
func (d Draft) Totals() Totals {
	subtotal := decimal.Zero
	for _, it := range d.Items {
		subtotal = subtotal.Add(it.Total)
	}
	tax, err := money.TaxAmount(subtotal.Sub(d.Discount), d.TaxPercent)
	if err != nil {
		tax = decimal.Zero
	}
	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: d.Discount,
		TaxAmount:      tax,
		Total:          money.GrandTotal(subtotal, d.Discount, tax),
	}
}

// Validate checks everything a commit needs: at least one line, the required
// buyer fields, consistent line totals and a non-negative result.
func (d Draft) Validate() error {
	if len(d.Items) == 0 {
		return ErrEmptyItemList
	}

	required := []struct {
		field string
		value string
	}{
		{"name", d.Buyer.Name},
		{"address", d.Buyer.Address},
		{"phone", d.Buyer.Phone},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &MissingBuyerFieldError{Field: r.field}
		}
	}

	if d.Discount.IsNegative() {
		return fmt.Errorf("%w: discount cannot be negative", ErrInvalidAmount)
	}
	if d.TaxPercent.IsNegative() {
		return fmt.Errorf("%w: tax percent cannot be negative", ErrInvalidAmount)
	}

	for i, it := range d.Items {
		total, err := money.LineTotal(it.Quantity, it.PricePerUnit)
		if err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
		if !total.Equal(it.Total) {
			return fmt.Errorf("%w: line %d total does not match quantity and price", ErrInvalidAmount, i+1)
		}
	}

	if d.Discount.GreaterThan(d.Totals().Subtotal) {
		return fmt.Errorf("%w: discount cannot exceed the subtotal", ErrInvalidAmount)
	}
	return nil
}

func (d Draft) clone() Draft {
	c := d
	c.Items = append([]InvoiceItem(nil), d.Items...)
	return c
}

// Builder stages lines into a draft while checking them against an inventory
// snapshot. It is not safe for concurrent use; one builder serves one request.
type Builder struct {
	draft     Draft
	inventory []InventoryItem
}

// NewBuilder starts an empty draft.
func NewBuilder(inventory []InventoryItem) *Builder {
	return ResumeBuilder(Draft{}, inventory)
}

// ResumeBuilder continues editing a stored draft.
func ResumeBuilder(d Draft, inventory []InventoryItem) *Builder {
	return &Builder{draft: d.clone(), inventory: inventory}
}

// Refresh swaps the inventory snapshot used for stock checks.
func (b *Builder) Refresh(inventory []InventoryItem) {
	b.inventory = inventory
}

// Draft returns a copy of the current state.
func (b *Builder) Draft() Draft {
	return b.draft.clone()
}

func (b *Builder) ledger() StockLedger {
	return NewStockLedger(b.inventory, b.draft.Items)
}

// AddOrMergeItem stages quantity units of an inventory item. A second call for
// the same item grows the existing line instead of adding a new one. On error
// the draft is left unchanged.
func (b *Builder) AddOrMergeItem(id uuid.UUID, quantity decimal.Decimal) error {
	ledger := b.ledger()
	item, ok := ledger.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if !quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be greater than zero", ErrInvalidAmount)
	}

	available, err := ledger.Available(id)
	if err != nil {
		return err
	}
	if quantity.GreaterThan(available) {
		return &InsufficientStockError{ItemID: id, Unit: item.Unit, Requested: quantity, Available: available}
	}

	for i, line := range b.draft.Items {
		if line.InventoryItemID != id {
			continue
		}
		merged := line.Quantity.Add(quantity)
		total, err := money.LineTotal(merged, line.PricePerUnit)
		if err != nil {
			return err
		}
		b.draft.Items[i].Quantity = merged
		b.draft.Items[i].Total = total
		return nil
	}

	total, err := money.LineTotal(quantity, item.PricePerUnit)
	if err != nil {
		return err
	}
	b.draft.Items = append(b.draft.Items, InvoiceItem{
		InventoryItemID: item.ID,
		Name:            item.Name,
		Quantity:        quantity,
		PricePerUnit:    item.PricePerUnit,
		Unit:            item.Unit,
		Total:           total,
	})
	return nil
}

// SetItemQuantity replaces the quantity of one staged line. The line itself is
// left out when computing what is available.
func (b *Builder) SetItemQuantity(index int, quantity decimal.Decimal) error {
	if index < 0 || index >= len(b.draft.Items) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	line := b.draft.Items[index]
	if !quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be greater than zero", ErrInvalidAmount)
	}

	available, err := b.ledger().AvailableExcluding(line.InventoryItemID, index)
	if err != nil {
		return fmt.Errorf("%w: %s", err, line.Name)
	}
	if quantity.GreaterThan(available) {
		return &InsufficientStockError{ItemID: line.InventoryItemID, Unit: line.Unit, Requested: quantity, Available: available}
	}

	total, err := money.LineTotal(quantity, line.PricePerUnit)
	if err != nil {
		return err
	}
	b.draft.Items[index].Quantity = quantity
	b.draft.Items[index].Total = total
	return nil
}

// RemoveItem drops the staged line at index.
func (b *Builder) RemoveItem(index int) error {
	if index < 0 || index >= len(b.draft.Items) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	b.draft.Items = append(b.draft.Items[:index], b.draft.Items[index+1:]...)
	return nil
}

func (b *Builder) SetBuyer(buyer BuyerDetails) {
	b.draft.Buyer = buyer
}

func (b *Builder) SetNotes(notes string) {
	b.draft.Notes = notes
}

func (b *Builder) SetDiscount(discount decimal.Decimal) error {
	if discount.IsNegative() {
		return fmt.Errorf("%w: discount cannot be negative", ErrInvalidAmount)
	}
	b.draft.Discount = discount
	return nil
}

func (b *Builder) SetTaxPercent(percent decimal.Decimal) error {
	if percent.IsNegative() {
		return fmt.Errorf("%w: tax percent cannot be negative", ErrInvalidAmount)
	}
	b.draft.TaxPercent = percent
	return nil
}

// ComputeTotals never mutates the draft and is valid with no lines staged.
func (b *Builder) ComputeTotals() Totals {
	return b.draft.Totals()
}

// ValidateForCommit must pass before the draft is handed to the Coordinator.
func (b *Builder) ValidateForCommit() error {
	return b.draft.Validate()
}

// Availability lists what can still be staged for every inventory item.
func (b *Builder) Availability() map[uuid.UUID]decimal.Decimal {
	ledger := b.ledger()
	out := make(map[uuid.UUID]decimal.Decimal, len(b.inventory))
	for _, item := range b.inventory {
		available, _ := ledger.Available(item.ID)
		out[item.ID] = available
	}
	return out
}
