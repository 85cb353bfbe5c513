package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SpecSource tells where a contract spec came from.
type SpecSource string

const (
	SpecSourceDefault  SpecSource = "default"
	SpecSourceBuiltin  SpecSource = "builtin"
	SpecSourceOverride SpecSource = "override"
)

// ContractSpec converts price differences of an instrument into money.
// Persisted rows hold user overrides only.
type ContractSpec struct {
	Symbol    string          `gorm:"primaryKey;size:50" json:"symbol"`
	TickSize  decimal.Decimal `gorm:"type:numeric(20,10);not null" json:"tick_size"`
	TickValue decimal.Decimal `gorm:"type:numeric(20,10);not null" json:"tick_value"`
	Source    SpecSource      `gorm:"size:20;not null;default:override" json:"source"`
	UpdatedAt time.Time       `json:"-"`
}

// TableName keeps the table name stable.
func (ContractSpec) TableName() string {
	return "contract_specs"
}

// Validate returns an error wrapping ErrInvalidSpec if the spec would break PnL math.
func (s ContractSpec) Validate() error {
	if !s.TickSize.IsPositive() {
		return fmt.Errorf("%w: %s tick size %s must be positive", ErrInvalidSpec, s.Symbol, s.TickSize)
	}
	if !s.TickValue.IsPositive() {
		return fmt.Errorf("%w: %s tick value %s must be positive", ErrInvalidSpec, s.Symbol, s.TickValue)
	}
	return nil
}
