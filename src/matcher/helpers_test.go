package matcher

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"tradeledger/src/contractspec"
	"tradeledger/src/model"
)

var t0 = time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func fill(id string, side model.Side, qty int64, price string, minute int) model.Fill {
	return model.Fill{
		AccountID:  "acc-1",
		Instrument: "TEST",
		Side:       side,
		Quantity:   qty,
		Price:      d(price),
		Commission: decimal.Zero,
		Timestamp:  t0.Add(time.Duration(minute) * time.Minute),
		FillID:     id,
	}
}

func withCommission(f model.Fill, commission string) model.Fill {
	f.Commission = d(commission)
	return f
}

func newUnitResolver(t *testing.T) *contractspec.Resolver {
	t.Helper()
	r, err := contractspec.NewResolver(
		model.ContractSpec{TickSize: decimal.NewFromInt(1), TickValue: decimal.NewFromInt(1)},
		model.ContractSpec{Symbol: "TEST", TickSize: decimal.NewFromInt(1), TickValue: decimal.NewFromInt(1), Source: model.SpecSourceBuiltin},
		model.ContractSpec{Symbol: "NQ", TickSize: d("0.25"), TickValue: d("5"), Source: model.SpecSourceBuiltin},
	)
	require.NoError(t, err)
	return r
}

// staticResolver answers every lookup from a fixed map, invalid specs included.
type staticResolver map[string]model.ContractSpec

func (s staticResolver) Resolve(instrument string) (model.ContractSpec, bool) {
	spec, ok := s[instrument]
	return spec, ok
}

func quietOptions() Options {
	l := logger.New()
	l.SetOutput(io.Discard)
	return Options{Log: logger.NewEntry(l)}
}

func match(t *testing.T, resolver SpecResolver, opts Options, fills ...model.Fill) Result {
	t.Helper()
	res, err := MatchFills(context.Background(), fills, resolver, opts)
	require.NoError(t, err)
	return res
}
