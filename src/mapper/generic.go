package mapper

import (
	"time"

	"tradeledger/src/model"
)

var genericTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// GenericNormalizer reads the canonical column set:
// account, instrument, side, quantity, price, commission, timestamp, fill_id.
// A missing side is taken from the sign of the quantity.
type GenericNormalizer struct {
	Location *time.Location
}

func NewGenericNormalizer() *GenericNormalizer {
	return &GenericNormalizer{Location: time.UTC}
}

func (n *GenericNormalizer) Source() string { return "generic" }

func (n *GenericNormalizer) Normalize(row Row) (model.Fill, error) {
	var fill model.Fill

	qtyText, err := row.require("quantity", "quantity", "qty")
	if err != nil {
		return fill, err
	}
	qty, err := ParseQuantity(qtyText)
	if err != nil {
		return fill, err
	}

	sideText := row.Get("side", "action", "b/s")
	switch {
	case sideText != "":
		if fill.Side, err = ParseSide(sideText); err != nil {
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

	priceText, err := row.require("price", "price", "fill_price")
	if err != nil {
		return fill, err
	}
	if fill.Price, err = ParsePrice(priceText); err != nil {
		return fill, err
	}

	commission, err := ParseMoney(row.Get("commission", "fee", "fees"))
	if err != nil {
		return fill, err
	}
	fill.Commission = commission.Abs()

	tsText, err := row.require("timestamp", "timestamp", "time", "date")
	if err != nil {
		return fill, err
	}
	if fill.Timestamp, err = ParseTime(tsText, n.Location, genericTimeLayouts...); err != nil {
		return fill, err
	}

	fill.AccountID = row.Get("account", "account_id")
	fill.Instrument = row.Get("instrument", "symbol", "contract")
	fill.FillID = row.Get("fill_id", "id", "execution_id")
	return fill, fill.Validate()
}

var _ Normalizer = (*GenericNormalizer)(nil)
