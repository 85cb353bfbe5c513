package externalmodel

import (
	"time"

	"github.com/shopspring/decimal"
)

// ImportedFill is a fill row written by the upstream import pipeline.
type ImportedFill struct {
	ID          uint            `gorm:"primaryKey;column:id" json:"id"`
	Source      string          `gorm:"column:source" json:"source"`
	AccountID   string          `gorm:"column:account_id" json:"account_id"`
	Symbol      string          `gorm:"column:symbol" json:"symbol"`
	Action      string          `gorm:"column:action" json:"action"`
	Qty         decimal.Decimal `gorm:"column:qty;type:numeric(20,4)" json:"qty"`
	Price       string          `gorm:"column:price" json:"price"`
	Commission  string          `gorm:"column:commission" json:"commission"`
	ExecutionID string          `gorm:"column:execution_id" json:"execution_id"`
	ExecutedAt  *time.Time      `gorm:"column:executed_at" json:"executed_at,omitempty"`
	ImportedAt  *time.Time      `gorm:"column:imported_at" json:"imported_at,omitempty"`
}

// TableName Ensures that GORM uses the exact table name from the database.
func (ImportedFill) TableName() string {
	return "imported_fills"
}
