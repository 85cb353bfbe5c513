package mapper

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tradeledger/src/model"
)

var thirtySecond = decimal.NewFromInt(32)

// eighths of a 32nd as written in the third fraction digit
var partialThirtySecond = map[byte]decimal.Decimal{
	'0': decimal.Zero,
	'1': decimal.RequireFromString("0.125"),
	'2': decimal.RequireFromString("0.25"),
	'3': decimal.RequireFromString("0.375"),
	'5': decimal.RequireFromString("0.5"),
	'6': decimal.RequireFromString("0.625"),
	'7': decimal.RequireFromString("0.75"),
	'8': decimal.RequireFromString("0.875"),
}

// ParseSide maps the side conventions of the supported exports onto buy/sell.
func ParseSide(s string) (model.Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "b", "bot", "bought", "long", "buy to cover", "buytocover", "buy to open":
		return model.SideBuy, nil
	case "sell", "s", "sld", "sold", "short", "sell short", "sellshort", "sell to close":
		return model.SideSell, nil
	}
	return "", fmt.Errorf("%w: unsupported side %q", model.ErrInvalidFill, s)
}

// ParseMoney reads amounts like "1.24", "$1.24", "-$0.62", "(2.50)" and "1,234.50".
// An empty string is zero.
func ParseMoney(s string) (decimal.Decimal, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return decimal.Zero, nil
	}
	negative := false
	if strings.HasPrefix(v, "(") && strings.HasSuffix(v, ")") {
		negative = true
		v = strings.TrimSpace(v[1 : len(v)-1])
	}
	if strings.HasPrefix(v, "-") {
		negative = !negative
		v = strings.TrimSpace(v[1:])
	}
	v = strings.TrimPrefix(v, "$")
	v = strings.TrimSpace(strings.TrimSuffix(v, "USD"))
	v = strings.ReplaceAll(v, ",", "")

	amount, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse money %q: %w", s, err)
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, nil
}

// ParsePrice reads decimal prices and the 32nds notation used for treasuries:
// "110'16" is 110 + 16/32 and "110'165" is 110 + 16.5/32.
func ParsePrice(s string) (decimal.Decimal, error) {
	v := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	whole, frac, fractional := strings.Cut(v, "'")
	if !fractional {
		price, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse price %q: %w", s, err)
		}
		return price, nil
	}

	handle, err := decimal.NewFromString(whole)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q: %w", s, err)
	}
	if len(frac) != 2 && len(frac) != 3 {
		return decimal.Zero, fmt.Errorf("parse price %q: want 2 or 3 digits after the tick mark", s)
	}
	n, err := strconv.Atoi(frac[:2])
	if err != nil || n >= 32 {
		return decimal.Zero, fmt.Errorf("parse price %q: bad 32nds %q", s, frac[:2])
	}
	ticks := decimal.NewFromInt(int64(n))
	if len(frac) == 3 {
		part, ok := partialThirtySecond[frac[2]]
		if !ok {
			return decimal.Zero, fmt.Errorf("parse price %q: bad fraction of a 32nd %q", s, frac[2:])
		}
		ticks = ticks.Add(part)
	}
	return handle.Add(ticks.Div(thirtySecond)), nil
}

// ParseQuantity reads a whole contract count such as "3", "-2" or "3.0".
func ParseQuantity(s string) (int64, error) {
	v := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	q, err := decimal.NewFromString(v)
	if err != nil {
		return 0, fmt.Errorf("parse quantity %q: %w", s, err)
	}
	if !q.Equal(q.Truncate(0)) {
		return 0, fmt.Errorf("%w: fractional quantity %q", model.ErrInvalidFill, s)
	}
	return q.IntPart(), nil
}

// ParseTime tries each layout in order. Layouts without a zone are read in loc.
func ParseTime(s string, loc *time.Location, layouts ...string) (time.Time, error) {
	v := strings.TrimSpace(s)
	for _, layout := range layouts {
		if ts, err := time.ParseInLocation(layout, v, loc); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse time %q: no matching layout", s)
}
