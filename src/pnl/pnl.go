// Package pnl converts price moves into money using contract specs.
package pnl

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tradeledger/src/model"
)

// divisionPlaces bounds the one inexact step, the division by tick size.
const divisionPlaces = 24

// Places is the precision of a reported PnL.
const Places = 2

// Ticks returns the signed number of ticks the price moved from entry to exit.
func Ticks(entryPrice, exitPrice decimal.Decimal, spec model.ContractSpec) (decimal.Decimal, error) {
	if err := spec.Validate(); err != nil {
		return decimal.Zero, err
	}
	return exitPrice.Sub(entryPrice).DivRound(spec.TickSize, divisionPlaces), nil
}

// Raw returns the unrounded PnL of quantity contracts held on side from entry to exit.
// Raw values are meant to be summed and rounded once with Round.
func Raw(side model.PositionSide, quantity int64, entryPrice, exitPrice decimal.Decimal, spec model.ContractSpec) (decimal.Decimal, error) {
	if err := spec.Validate(); err != nil {
		return decimal.Zero, err
	}
	if quantity <= 0 {
		return decimal.Zero, fmt.Errorf("%w: quantity %d must be positive", model.ErrInvalidFill, quantity)
	}

	raw := exitPrice.Sub(entryPrice).
		Mul(spec.TickValue).
		Mul(decimal.NewFromInt(quantity)).
		DivRound(spec.TickSize, divisionPlaces)
	if side == model.PositionSideShort {
		return raw.Neg(), nil
	}
	return raw, nil
}

// Round applies the reporting precision, half away from zero.
func Round(raw decimal.Decimal) decimal.Decimal {
	return raw.Round(Places)
}

// Calculate returns the realized PnL rounded to cents.
func Calculate(side model.PositionSide, quantity int64, entryPrice, exitPrice decimal.Decimal, spec model.ContractSpec) (decimal.Decimal, error) {
	raw, err := Raw(side, quantity, entryPrice, exitPrice, spec)
	if err != nil {
		return decimal.Zero, err
	}
	return Round(raw), nil
}

