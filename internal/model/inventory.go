package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryItem is a stock entry owned by one user. Rows are hard deleted;
// invoice lines keep their own copy of name, unit and price.
type InventoryItem struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID      uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Description  string    `gorm:"type:text" json:"description"`
	Quantity     Decimal   `gorm:"not null;default:0" json:"quantity"`
	PricePerUnit Decimal   `gorm:"not null;default:0" json:"price_per_unit"`
	Unit         string    `gorm:"type:varchar(32);not null" json:"unit"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (m *InventoryItem) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Movement types
const (
	MovementIn     = "IN"
	MovementOut    = "OUT"
	MovementAdjust = "ADJUST"
)

// StockMovement records every change to an item's quantity.
type StockMovement struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"owner_id"`
	InventoryItemID uuid.UUID  `gorm:"type:uuid;not null;index" json:"inventory_item_id"`
	InvoiceID       *uuid.UUID `gorm:"type:uuid;index" json:"invoice_id"` // nil for manual changes
	MovementType    string     `gorm:"type:varchar(10);not null" json:"movement_type"`
	QuantityChanged Decimal    `gorm:"not null" json:"quantity_changed"`
	StockBefore     Decimal    `gorm:"not null" json:"stock_before"`
	StockAfter      Decimal    `gorm:"not null" json:"stock_after"`
	Note            string     `gorm:"type:varchar(255)" json:"note,omitempty"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
}

func (m *StockMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
