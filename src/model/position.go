package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot is a slice of an open position with its own entry price and commission share.
type Lot struct {
	Quantity   int64           `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Commission decimal.Decimal `json:"commission"`
	FillIDs    []string        `json:"fill_ids"`
	OpenedAt   time.Time       `json:"opened_at"`
}

// OpenPosition reports quantity still open after the last available fill.
// The estimate fields are set only when a mark price was supplied.
type OpenPosition struct {
	ID                  uint             `gorm:"primaryKey" json:"-"`
	AccountID           string           `gorm:"size:100;not null;uniqueIndex:idx_open_positions_key" json:"account_id"`
	Instrument          string           `gorm:"size:50;not null;uniqueIndex:idx_open_positions_key" json:"instrument"`
	Side                PositionSide     `gorm:"size:10;not null" json:"side"`
	Quantity            int64            `gorm:"not null" json:"quantity"`
	AveragePrice        decimal.Decimal  `gorm:"type:numeric(20,10);not null" json:"average_price"`
	EntryDate           time.Time        `gorm:"not null" json:"entry_date"`
	Commission          decimal.Decimal  `gorm:"type:numeric(30,10);not null;default:0" json:"commission"`
	PeakQuantity        int64            `gorm:"not null" json:"peak_quantity"`
	EntryFillIDs        []string         `gorm:"serializer:json;type:text" json:"entry_fill_ids"`
	Lots                []Lot            `gorm:"serializer:json;type:text" json:"lots"`
	StillOpen           bool             `gorm:"not null;default:true" json:"still_open"`
	EstimatedClosePrice *decimal.Decimal `gorm:"type:numeric(20,10)" json:"estimated_close_price,omitempty"`
	EstimatedCloseDate  *time.Time       `json:"estimated_close_date,omitempty"`
	UnrealizedPnL       *decimal.Decimal `gorm:"column:unrealized_pnl;type:numeric(30,10)" json:"unrealized_pnl,omitempty"`
	UpdatedAt           time.Time        `json:"-"`
}

// TableName allows you to control the exact table name for open positions.
func (OpenPosition) TableName() string {
	return "open_positions"
}
