package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Invoice is the stored header of a committed invoice. Buyer details are
// embedded as columns.
type Invoice struct {
	ID            uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID       uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_invoices_owner_number,priority:1" json:"owner_id"`
	InvoiceNumber string        `gorm:"type:varchar(30);not null;uniqueIndex:idx_invoices_owner_number,priority:2" json:"invoice_number"`
	Date          time.Time     `gorm:"not null;index" json:"date"`
	BuyerName     string        `gorm:"type:varchar(255);not null" json:"buyer_name"`
	BuyerAddress  string        `gorm:"type:text;not null" json:"buyer_address"`
	BuyerPhone    string        `gorm:"type:varchar(50);not null" json:"buyer_phone"`
	BuyerEmail    string        `gorm:"type:varchar(255)" json:"buyer_email"`
	BuyerGSTIN    string        `gorm:"column:buyer_gstin;type:varchar(50)" json:"buyer_gstin"`
	Subtotal      Decimal       `gorm:"not null" json:"subtotal"`
	Discount      Decimal       `gorm:"not null;default:0" json:"discount"`
	TaxPercent    Decimal       `gorm:"not null;default:0" json:"tax_percent"`
	Tax           Decimal       `gorm:"not null;default:0" json:"tax"`
	Total         Decimal       `gorm:"not null" json:"total"`
	Notes         string        `gorm:"type:text" json:"notes"`
	Status        string        `gorm:"type:varchar(10);not null;default:'draft';index" json:"status"`
	Items         []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (m *Invoice) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// InvoiceItem is one stored invoice line. InventoryItemID has no foreign key so
// deleting inventory never touches invoices.
type InvoiceItem struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID       uuid.UUID `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Position        int       `gorm:"not null" json:"position"`
	InventoryItemID uuid.UUID `gorm:"type:uuid;not null;index" json:"inventory_item_id"`
	Name            string    `gorm:"type:varchar(255);not null" json:"name"`
	Quantity        Decimal   `gorm:"not null" json:"quantity"`
	PricePerUnit    Decimal   `gorm:"not null" json:"price_per_unit"`
	Unit            string    `gorm:"type:varchar(32);not null" json:"unit"`
	Total           Decimal   `gorm:"not null" json:"total"`
}

func (m *InvoiceItem) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// BusinessProfile is the seller block printed on invoices, one per user.
type BusinessProfile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"owner_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Address   string    `gorm:"type:text;not null" json:"address"`
	Phone     string    `gorm:"type:varchar(50);not null" json:"phone"`
	Email     string    `gorm:"type:varchar(255);not null" json:"email"`
	Logo      string    `gorm:"type:text" json:"logo"`
	GSTIN     string    `gorm:"column:gstin;type:varchar(50)" json:"gstin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *BusinessProfile) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
