package mapper

import (
	"fmt"
	"strings"
	"time"

	"tradeledger/src/model"
)

var tradovateTimeLayouts = []string{
	"01/02/2006 15:04:05",
	"1/2/2006 15:04:05",
	"01/02/2006 15:04",
	"2006-01-02 15:04:05",
}

// TradovateNormalizer reads the Orders export of the Tradovate platform.
// Only filled orders become fills; the export carries no commission column.
type TradovateNormalizer struct {
	Location *time.Location
}

func NewTradovateNormalizer() *TradovateNormalizer {
	return &TradovateNormalizer{Location: time.UTC}
}

func (n *TradovateNormalizer) Source() string { return "tradovate" }

func (n *TradovateNormalizer) Normalize(row Row) (model.Fill, error) {
	var fill model.Fill

	if status := row.Get("status"); status != "" && !strings.EqualFold(status, "filled") {
		return fill, fmt.Errorf("%w: order status %s", ErrSkipRow, status)
	}

	qtyText, err := row.require("filled qty", "filledQty", "Filled Qty", "Quantity")
	if err != nil {
		return fill, err
	}
	if fill.Quantity, err = ParseQuantity(qtyText); err != nil {
		return fill, err
	}
	if fill.Quantity == 0 {
		return fill, fmt.Errorf("%w: nothing filled", ErrSkipRow)
	}

	sideText, err := row.require("side", "B/S")
	if err != nil {
		return fill, err
	}
	if fill.Side, err = ParseSide(sideText); err != nil {
		return fill, err
	}

	priceText, err := row.require("price", "avgPrice", "Avg Fill Price", "decimalFillAvg")
	if err != nil {
		return fill, err
	}
	if fill.Price, err = ParsePrice(priceText); err != nil {
		return fill, err
	}

	tsText, err := row.require("fill time", "Fill Time", "Timestamp")
	if err != nil {
		return fill, err
	}
	if fill.Timestamp, err = ParseTime(tsText, n.Location, tradovateTimeLayouts...); err != nil {
		return fill, err
	}

	commission, err := ParseMoney(row.Get("Commission", "Fees"))
	if err != nil {
		return fill, err
	}
	fill.Commission = commission.Abs()
	fill.AccountID = row.Get("Account")
	fill.Instrument = row.Get("Contract", "Product")
	fill.FillID = row.Get("Fill ID", "orderId", "Order ID")
	return fill, fill.Validate()
}

var _ Normalizer = (*TradovateNormalizer)(nil)
