package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeStatus separates realized trades from trades whose PnL is blocked.
type TradeStatus string

const (
	TradeStatusClosed TradeStatus = "closed"
	// TradeStatusHeld means the contract spec was invalid; PnL waits for a corrected spec.
	TradeStatusHeld TradeStatus = "held"
)

// TradeLeg is one lot-versus-exit match inside a trade.
type TradeLeg struct {
	Quantity    int64           `json:"quantity"`
	EntryPrice  decimal.Decimal `json:"entry_price"`
	ExitPrice   decimal.Decimal `json:"exit_price"`
	EntryFillID string          `json:"entry_fill_id,omitempty"`
	ExitFillID  string          `json:"exit_fill_id"`
}

// Trade is a closed round trip with realized PnL.
type Trade struct {
	ID             string          `gorm:"primaryKey;size:36" json:"id"`
	AccountID      string          `gorm:"size:100;not null;index" json:"account_id"`
	Instrument     string          `gorm:"size:50;not null;index" json:"instrument"`
	Side           PositionSide    `gorm:"size:10;not null" json:"side"`
	Quantity       int64           `gorm:"not null" json:"quantity"`
	EntryPrice     decimal.Decimal `gorm:"type:numeric(20,10);not null" json:"entry_price"`
	ClosePrice     decimal.Decimal `gorm:"type:numeric(20,10);not null" json:"close_price"`
	EntryDate      time.Time       `gorm:"not null;index" json:"entry_date"`
	CloseDate      time.Time       `gorm:"not null;index" json:"close_date"`
	PnL            decimal.Decimal `gorm:"column:pnl;type:numeric(30,10);not null;default:0" json:"pnl"`
	Commission     decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0" json:"commission"`
	TimeInPosition int64           `gorm:"not null" json:"time_in_position"`
	EntryFillIDs   []string        `gorm:"serializer:json;type:text" json:"entry_fill_ids"`
	ExitFillIDs    []string        `gorm:"serializer:json;type:text" json:"exit_fill_ids"`
	Legs           []TradeLeg      `gorm:"serializer:json;type:text" json:"legs,omitempty"`
	Status         TradeStatus     `gorm:"size:10;not null;default:closed" json:"status"`
	CreatedAt      time.Time       `json:"-"`
}

// TableName allows you to control the exact table name for trades.
func (Trade) TableName() string {
	return "trades"
}

// NetPnL is realized PnL after commission.
func (t Trade) NetPnL() decimal.Decimal {
	return t.PnL.Sub(t.Commission)
}
