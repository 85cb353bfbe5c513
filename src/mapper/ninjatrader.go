package mapper

import (
	"time"

	"tradeledger/src/model"
)

var ninjaTraderTimeLayouts = []string{
	"1/2/2006 3:04:05 PM",
	"01/02/2006 03:04:05 PM",
	"1/2/2006 15:04:05",
	"2006-01-02 15:04:05",
}

// NinjaTraderNormalizer reads the Executions grid export. Instruments keep the
// expiry suffix ("ES 12-24"); the resolver maps them to their root.
type NinjaTraderNormalizer struct {
	Location *time.Location
}

func NewNinjaTraderNormalizer() *NinjaTraderNormalizer {
	return &NinjaTraderNormalizer{Location: time.UTC}
}

func (n *NinjaTraderNormalizer) Source() string { return "ninjatrader" }

func (n *NinjaTraderNormalizer) Normalize(row Row) (model.Fill, error) {
	var fill model.Fill

	sideText, err := row.require("action", "Action", "Market pos.")
	if err != nil {
		return fill, err
	}
	if fill.Side, err = ParseSide(sideText); err != nil {
		return fill, err
	}

	qtyText, err := row.require("quantity", "Quantity", "Qty")
	if err != nil {
		return fill, err
	}
	if fill.Quantity, err = ParseQuantity(qtyText); err != nil {
		return fill, err
	}

	priceText, err := row.require("price", "Price")
	if err != nil {
		return fill, err
	}
	if fill.Price, err = ParsePrice(priceText); err != nil {
		return fill, err
	}

	tsText, err := row.require("time", "Time")
	if err != nil {
		return fill, err
	}
	if fill.Timestamp, err = ParseTime(tsText, n.Location, ninjaTraderTimeLayouts...); err != nil {
		return fill, err
	}

	commission, err := ParseMoney(row.Get("Commission"))
	if err != nil {
		return fill, err
	}
	fill.Commission = commission.Abs()
	fill.AccountID = row.Get("Account")
	fill.Instrument = row.Get("Instrument")
	fill.FillID = row.Get("ID", "Execution ID")
	return fill, fill.Validate()
}

var _ Normalizer = (*NinjaTraderNormalizer)(nil)
