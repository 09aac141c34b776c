package repository

import (
	"errors"
	"fmt"

	"invoicedesk/internal/billing"
	"invoicedesk/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a record other than an inventory item is missing.
var ErrNotFound = errors.New("record not found")

func inventoryToDomain(m model.InventoryItem) billing.InventoryItem {
	return billing.InventoryItem{
		ID:           m.ID,
		Name:         m.Name,
		Description:  m.Description,
		Quantity:     m.Quantity.Decimal,
		PricePerUnit: m.PricePerUnit.Decimal,
		Unit:         m.Unit,
		CreatedAt:    m.CreatedAt,
	}
}

func inventoryFromDomain(ownerID uuid.UUID, it billing.InventoryItem) model.InventoryItem {
	return model.InventoryItem{
		ID:           it.ID,
		OwnerID:      ownerID,
		Name:         it.Name,
		Description:  it.Description,
		Quantity:     model.NewDecimal(it.Quantity),
		PricePerUnit: model.NewDecimal(it.PricePerUnit),
		Unit:         it.Unit,
		CreatedAt:    it.CreatedAt,
	}
}

func invoiceItemToDomain(m model.InvoiceItem) billing.InvoiceItem {
	return billing.InvoiceItem{
		InventoryItemID: m.InventoryItemID,
		Name:            m.Name,
		Quantity:        m.Quantity.Decimal,
		PricePerUnit:    m.PricePerUnit.Decimal,
		Unit:            m.Unit,
		Total:           m.Total.Decimal,
	}
}

func invoiceItemsFromDomain(invoiceID uuid.UUID, items []billing.InvoiceItem) []model.InvoiceItem {
	rows := make([]model.InvoiceItem, len(items))
	for i, it := range items {
		rows[i] = model.InvoiceItem{
			InvoiceID:       invoiceID,
			Position:        i,
			InventoryItemID: it.InventoryItemID,
			Name:            it.Name,
			Quantity:        model.NewDecimal(it.Quantity),
			PricePerUnit:    model.NewDecimal(it.PricePerUnit),
			Unit:            it.Unit,
			Total:           model.NewDecimal(it.Total),
		}
	}
	return rows
}

// invoiceToDomain expects m.Items to be ordered by position already.
func invoiceToDomain(m model.Invoice) (billing.Invoice, error) {
	status, err := billing.ParseStatus(m.Status)
	if err != nil {
		return billing.Invoice{}, fmt.Errorf("invoice %s: %w", m.InvoiceNumber, err)
	}
	items := make([]billing.InvoiceItem, len(m.Items))
	for i, it := range m.Items {
		items[i] = invoiceItemToDomain(it)
	}
	return billing.Invoice{
		ID:            m.ID,
		InvoiceNumber: m.InvoiceNumber,
		Date:          m.Date.UTC(),
		Buyer: billing.BuyerDetails{
			Name:    m.BuyerName,
			Address: m.BuyerAddress,
			Phone:   m.BuyerPhone,
			Email:   m.BuyerEmail,
			GSTIN:   m.BuyerGSTIN,
		},
		Items:      items,
		Subtotal:   m.Subtotal.Decimal,
		Discount:   m.Discount.Decimal,
		TaxPercent: m.TaxPercent.Decimal,
		Tax:        m.Tax.Decimal,
		Total:      m.Total.Decimal,
		Notes:      m.Notes,
		Status:     status,
	}, nil
}

// invoiceFromDomain maps the header only; items are stored separately.
func invoiceFromDomain(ownerID uuid.UUID, inv billing.Invoice) model.Invoice {
	return model.Invoice{
		ID:            inv.ID,
		OwnerID:       ownerID,
		InvoiceNumber: inv.InvoiceNumber,
		Date:          inv.Date,
		BuyerName:     inv.Buyer.Name,
		BuyerAddress:  inv.Buyer.Address,
		BuyerPhone:    inv.Buyer.Phone,
		BuyerEmail:    inv.Buyer.Email,
		BuyerGSTIN:    inv.Buyer.GSTIN,
		Subtotal:      model.NewDecimal(inv.Subtotal),
		Discount:      model.NewDecimal(inv.Discount),
		TaxPercent:    model.NewDecimal(inv.TaxPercent),
		Tax:           model.NewDecimal(inv.Tax),
		Total:         model.NewDecimal(inv.Total),
		Notes:         inv.Notes,
		Status:        string(inv.Status),
	}
}

func profileToDomain(m model.BusinessProfile) billing.BusinessProfile {
	return billing.BusinessProfile{
		Name:    m.Name,
		Address: m.Address,
		Phone:   m.Phone,
		Email:   m.Email,
		Logo:    m.Logo,
		GSTIN:   m.GSTIN,
	}
}

func profileFromDomain(ownerID uuid.UUID, p billing.BusinessProfile) model.BusinessProfile {
	return model.BusinessProfile{
		OwnerID: ownerID,
		Name:    p.Name,
		Address: p.Address,
		Phone:   p.Phone,
		Email:   p.Email,
		Logo:    p.Logo,
		GSTIN:   p.GSTIN,
	}
}

// InventoryPatch lists the fields of an inventory item to change. Nil fields
// are left alone.
type InventoryPatch struct {
	Name         *string
	Description  *string
	Quantity     *decimal.Decimal
	PricePerUnit *decimal.Decimal
	Unit         *string
}

// Columns maps every present field to its column.
func (p InventoryPatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Quantity != nil {
		cols["quantity"] = model.NewDecimal(*p.Quantity)
	}
	if p.PricePerUnit != nil {
		cols["price_per_unit"] = model.NewDecimal(*p.PricePerUnit)
	}
	if p.Unit != nil {
		cols["unit"] = *p.Unit
	}
	return cols
}

func (p InventoryPatch) Empty() bool {
	return len(p.Columns()) == 0
}

// ProfilePatch lists the business profile fields to change.
type ProfilePatch struct {
	Name    *string
	Address *string
	Phone   *string
	Email   *string
	Logo    *string
	GSTIN   *string
}

func (p ProfilePatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.Address != nil {
		cols["address"] = *p.Address
	}
	if p.Phone != nil {
		cols["phone"] = *p.Phone
	}
	if p.Email != nil {
		cols["email"] = *p.Email
	}
	if p.Logo != nil {
		cols["logo"] = *p.Logo
	}
	if p.GSTIN != nil {
		cols["gstin"] = *p.GSTIN
	}
	return cols
}

// Apply returns base with the present fields replaced.
func (p ProfilePatch) Apply(base billing.BusinessProfile) billing.BusinessProfile {
	if p.Name != nil {
		base.Name = *p.Name
	}
	if p.Address != nil {
		base.Address = *p.Address
	}
	if p.Phone != nil {
		base.Phone = *p.Phone
	}
	if p.Email != nil {
		base.Email = *p.Email
	}
	if p.Logo != nil {
		base.Logo = *p.Logo
	}
	if p.GSTIN != nil {
		base.GSTIN = *p.GSTIN
	}
	return base
}
