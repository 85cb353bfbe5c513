package pnl

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeledger/src/model"
)

func spec(tickSize, tickValue string) model.ContractSpec {
	return model.ContractSpec{
		Symbol:    "TEST",
		TickSize:  decimal.RequireFromString(tickSize),
		TickValue: decimal.RequireFromString(tickValue),
	}
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name  string
		side  model.PositionSide
		qty   int64
		entry string
		exit  string
		spec  model.ContractSpec
		want  string
	}{
		{name: "long winner", side: model.PositionSideLong, qty: 2, entry: "100", exit: "101", spec: spec("0.25", "5"), want: "40"},
		{name: "short loser", side: model.PositionSideShort, qty: 2, entry: "100", exit: "101", spec: spec("0.25", "5"), want: "-40"},
		{name: "short winner", side: model.PositionSideShort, qty: 1, entry: "4510.25", exit: "4500", spec: spec("0.25", "12.5"), want: "512.5"},
		{name: "flat", side: model.PositionSideLong, qty: 3, entry: "100", exit: "100", spec: spec("0.25", "5"), want: "0"},
		{name: "unit spec", side: model.PositionSideLong, qty: 1, entry: "100", exit: "120", spec: spec("1", "1"), want: "20"},
		{name: "treasury 32nds", side: model.PositionSideLong, qty: 1, entry: "110.5", exit: "110.53125", spec: spec("0.03125", "31.25"), want: "31.25"},
		{name: "third of a cent rounds", side: model.PositionSideLong, qty: 1, entry: "0", exit: "1", spec: spec("3", "1"), want: "0.33"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Calculate(tt.side, tt.qty, decimal.RequireFromString(tt.entry), decimal.RequireFromString(tt.exit), tt.spec)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestCalculate_InvalidSpec(t *testing.T) {
	for _, s := range []model.ContractSpec{spec("0", "5"), spec("0.25", "0"), spec("-1", "5")} {
		_, err := Calculate(model.PositionSideLong, 1, decimal.NewFromInt(100), decimal.NewFromInt(101), s)
		assert.True(t, errors.Is(err, model.ErrInvalidSpec))
	}
}

func TestRaw_SummedBeforeRounding(t *testing.T) {
	s := spec("3", "1")
	one, err := Raw(model.PositionSideLong, 1, decimal.Zero, decimal.NewFromInt(1), s)
	require.NoError(t, err)

	// each leg is 0.333.., rounding per leg would report 0.99
	total := Round(one.Add(one).Add(one))
	assert.True(t, total.Equal(decimal.NewFromInt(1)), "got %s", total)
}

func TestTicks(t *testing.T) {
	got, err := Ticks(decimal.RequireFromString("4500"), decimal.RequireFromString("4498.75"), spec("0.25", "12.5"))
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(-5)))
}
