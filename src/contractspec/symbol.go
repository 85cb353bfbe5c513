package contractspec

import (
	"regexp"
	"strings"
)

// datedContract matches a futures root followed by a month code and year (ESZ4, MNQH25)
// or by a NinjaTrader style expiry (ES 12-24).
var datedContract = regexp.MustCompile(`^([A-Z0-9]{1,4}?)(?:[FGHJKMNQUVXZ][0-9]{1,2}|\s+[0-9]{2}-[0-9]{2})$`)

// NormalizeSymbol returns the lookup key for an instrument symbol.
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	return strings.TrimSpace(strings.TrimPrefix(s, "/"))
}

// RootSymbol strips a contract expiry from a normalized symbol.
// Symbols without a recognizable expiry are returned unchanged.
func RootSymbol(symbol string) string {
	m := datedContract.FindStringSubmatch(symbol)
	if m == nil {
		return symbol
	}
	return m[1]
}
