package model

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Decimal is an exact decimal column. Postgres keeps it in an unscaled numeric,
// every other driver in text, so no value ever passes through a float.
type Decimal struct {
	decimal.Decimal
}

func NewDecimal(d decimal.Decimal) Decimal {
	return Decimal{Decimal: d}
}

// GormDataType gorm common data type
func (Decimal) GormDataType() string {
	return "decimal"
}

// GormDBDataType gorm db data type
func (Decimal) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "postgres":
		return "numeric"
	}
	return "text"
}
