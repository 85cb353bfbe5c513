package mapper

import (
	"fmt"
	"strconv"

	"tradeledger/src/externalmodel"
	"tradeledger/src/model"
)

// FromImportedFill maps a stored import row into a fill. Rows without an
// execution id get one derived from the table id so trade ids stay stable.
func FromImportedFill(in externalmodel.ImportedFill) (model.Fill, error) {
	var fill model.Fill

	if !in.Qty.Equal(in.Qty.Truncate(0)) {
		return fill, fmt.Errorf("%w: fractional quantity %s", model.ErrInvalidFill, in.Qty)
	}
	qty := in.Qty.IntPart()

	var err error
	switch {
	case in.Action != "":
		if fill.Side, err = ParseSide(in.Action); err != nil {
			return fill, err
		}
	case qty < 0:
		fill.Side = model.SideSell
	default:
		fill.Side = model.SideBuy
	}
	if qty < 0 {
		qty = -qty
	}
	fill.Quantity = qty

	if fill.Price, err = ParsePrice(in.Price); err != nil {
		return fill, err
	}
	commission, err := ParseMoney(in.Commission)
	if err != nil {
		return fill, err
	}
	fill.Commission = commission.Abs()

	if in.ExecutedAt != nil {
		fill.Timestamp = in.ExecutedAt.UTC()
	}
	fill.AccountID = in.AccountID
	fill.Instrument = in.Symbol
	fill.FillID = in.ExecutionID
	if fill.FillID == "" {
		fill.FillID = in.Source + ":" + strconv.FormatUint(uint64(in.ID), 10)
	}
	return fill, fill.Validate()
}

// FromImportedFills maps rows in order. Rows that fail are returned as
// RowError with Line set to the table id.
func FromImportedFills(rows []externalmodel.ImportedFill) ([]model.Fill, []RowError) {
	fills := make([]model.Fill, 0, len(rows))
	var rowErrs []RowError
	for _, row := range rows {
		fill, err := FromImportedFill(row)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: int(row.ID), Err: err})
			continue
		}
		fills = append(fills, fill)
	}
	return fills, rowErrs
}
