package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActionCreateInventory     = "CREATE_INVENTORY"
	ActionUpdateInventory     = "UPDATE_INVENTORY"
	ActionDeleteInventory     = "DELETE_INVENTORY"
	ActionCommitInvoice       = "COMMIT_INVOICE"
	ActionUpdateInvoiceStatus = "UPDATE_INVOICE_STATUS"
	ActionUpdateProfile       = "UPDATE_PROFILE"
	ActionSignUp              = "SIGN_UP"
	ActionResetPassword       = "RESET_PASSWORD"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID     `gorm:"type:uuid;index" json:"user_id"`
	User       *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string         `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string         `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string         `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    datatypes.JSON `json:"details" swaggertype:"object"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

func (m *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
