// Package emitter assembles trade records from the lots a closing event consumed.
package emitter

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradeledger/src/model"
	"tradeledger/src/pnl"
	"tradeledger/src/utils"
)

var tradeNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("tradeledger.trade"))

// Match is one lot (or part of it) offset by one exit fill.
type Match struct {
	Quantity        int64
	EntryPrice      decimal.Decimal
	EntryCommission decimal.Decimal
	EntryFillIDs    []string
	OpenedAt        time.Time

	ExitPrice      decimal.Decimal
	ExitCommission decimal.Decimal
	ExitFillID     string
	ClosedAt       time.Time

	// RawPnL is the unrounded leg PnL. Ignored when the closing is held.
	RawPnL decimal.Decimal
}

// Closing is everything the matcher knows about one emitted trade.
type Closing struct {
	AccountID  string
	Instrument string
	Side       model.PositionSide
	Matches    []Match
	// Held marks a closing whose contract spec is invalid.
	Held bool
}

// Build turns a closing into a trade. Build is pure; calling it twice
// with the same closing yields the same trade, id included.
func Build(c Closing) model.Trade {
	var (
		quantity   int64
		entryValue decimal.Decimal
		exitValue  decimal.Decimal
		commission decimal.Decimal
		raw        decimal.Decimal
		entryDate  time.Time
		closeDate  time.Time
		entryIDs   []string
		exitIDs    []string
		legs       = make([]model.TradeLeg, 0, len(c.Matches))
	)

	for i, m := range c.Matches {
		q := decimal.NewFromInt(m.Quantity)
		quantity += m.Quantity
		entryValue = entryValue.Add(m.EntryPrice.Mul(q))
		exitValue = exitValue.Add(m.ExitPrice.Mul(q))
		commission = commission.Add(m.EntryCommission).Add(m.ExitCommission)
		raw = raw.Add(m.RawPnL)

		if i == 0 || m.OpenedAt.Before(entryDate) {
			entryDate = m.OpenedAt
		}
		if i == 0 || m.ClosedAt.After(closeDate) {
			closeDate = m.ClosedAt
		}
		entryIDs = appendUnique(entryIDs, m.EntryFillIDs...)
		exitIDs = appendUnique(exitIDs, m.ExitFillID)

		legs = append(legs, model.TradeLeg{
			Quantity:    m.Quantity,
			EntryPrice:  m.EntryPrice,
			ExitPrice:   m.ExitPrice,
			EntryFillID: strings.Join(m.EntryFillIDs, ","),
			ExitFillID:  m.ExitFillID,
		})
	}

	trade := model.Trade{
		AccountID:      c.AccountID,
		Instrument:     c.Instrument,
		Side:           c.Side,
		Quantity:       quantity,
		EntryDate:      entryDate,
		CloseDate:      closeDate,
		Commission:     commission,
		TimeInPosition: utils.SecondsBetween(entryDate, closeDate),
		EntryFillIDs:   entryIDs,
		ExitFillIDs:    exitIDs,
		Legs:           legs,
		Status:         model.TradeStatusClosed,
		PnL:            pnl.Round(raw),
	}
	if quantity > 0 {
		total := decimal.NewFromInt(quantity)
		trade.EntryPrice = entryValue.Div(total)
		trade.ClosePrice = exitValue.Div(total)
	}
	if c.Held {
		trade.Status = model.TradeStatusHeld
		trade.PnL = decimal.Zero
	}
	trade.ID = TradeID(trade)
	return trade
}

// TradeID derives the deterministic id of a trade from its identifying fields.
func TradeID(t model.Trade) string {
	key := strings.Join([]string{
		t.AccountID,
		t.Instrument,
		utils.KeyTime(t.EntryDate),
		utils.KeyTime(t.CloseDate),
		strconv.FormatInt(t.Quantity, 10),
		strings.Join(t.EntryFillIDs, ","),
		strings.Join(t.ExitFillIDs, ","),
	}, "|")
	return uuid.NewSHA1(tradeNamespace, []byte(key)).String()
}

// Reprice recomputes the PnL of a held trade from its legs using spec.
// The id does not change.
func Reprice(t model.Trade, spec model.ContractSpec) (model.Trade, error) {
	raw := decimal.Zero
	for _, leg := range t.Legs {
		legPnL, err := pnl.Raw(t.Side, leg.Quantity, leg.EntryPrice, leg.ExitPrice, spec)
		if err != nil {
			return t, err
		}
		raw = raw.Add(legPnL)
	}
	t.PnL = pnl.Round(raw)
	t.Status = model.TradeStatusClosed
	return t, nil
}

func appendUnique(ids []string, add ...string) []string {
	for _, id := range add {
		if id == "" {
			continue
		}
		seen := false
		for _, existing := range ids {
			if existing == id {
				seen = true
				break
			}
		}
		if !seen {
			ids = append(ids, id)
		}
	}
	return ids
}
