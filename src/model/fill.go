package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the canonical direction of a fill.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// PositionSide is the direction of an open position or a closed trade.
type PositionSide string

const (
	PositionSideLong  PositionSide = "long"
	PositionSideShort PositionSide = "short"
)

// Valid reports whether s is one of the canonical sides.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// PositionSide returns the side of the position a fill of this side opens.
func (s Side) PositionSide() PositionSide {
	if s == SideSell {
		return PositionSideShort
	}
	return PositionSideLong
}

// Opens reports whether a fill of side s grows a position held on side p.
func (s Side) Opens(p PositionSide) bool {
	return s.PositionSide() == p
}

// Fill is one executed order event, already normalized by a source adapter.
type Fill struct {
	AccountID  string          `json:"account_id"`
	Instrument string          `json:"instrument"`
	Side       Side            `json:"side"`
	Quantity   int64           `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Commission decimal.Decimal `json:"commission"`
	Timestamp  time.Time       `json:"timestamp"`
	FillID     string          `json:"fill_id"`
}

// Validate returns an error wrapping ErrInvalidFill when the fill cannot be matched.
func (f Fill) Validate() error {
	switch {
	case f.Quantity <= 0:
		return fmt.Errorf("%w: quantity %d must be positive", ErrInvalidFill, f.Quantity)
	case !f.Side.Valid():
		return fmt.Errorf("%w: unsupported side %q", ErrInvalidFill, f.Side)
	case f.Timestamp.IsZero():
		return fmt.Errorf("%w: missing timestamp", ErrInvalidFill)
	case strings.TrimSpace(f.AccountID) == "":
		return fmt.Errorf("%w: missing account id", ErrInvalidFill)
	case strings.TrimSpace(f.Instrument) == "":
		return fmt.Errorf("%w: missing instrument", ErrInvalidFill)
	}
	return nil
}
