package matcher

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeledger/src/model"
)

func TestBook_Incremental(t *testing.T) {
	book := NewBook(newUnitResolver(t), quietOptions())

	assert.Empty(t, book.Apply(fill("f1", model.SideBuy, 3, "100", 0)))
	assert.Empty(t, book.Apply(fill("f2", model.SideBuy, 2, "110", 1)))

	open := book.Snapshot().OpenPositions
	require.Len(t, open, 1)
	assert.Equal(t, int64(5), open[0].Quantity)
	assert.True(t, open[0].AveragePrice.Equal(d("104")))

	trades := book.Apply(fill("f3", model.SideSell, 4, "120", 2))
	require.Len(t, trades, 1)
	assert.Equal(t, int64(4), trades[0].Quantity)

	assert.Nil(t, book.Apply(fill("bad", model.SideSell, -1, "120", 3)))

	snap := book.Snapshot()
	assert.False(t, snap.Complete)
	assert.Len(t, snap.Trades, 1)
	assert.Len(t, snap.OpenPositions, 1)
	assert.Equal(t, 1, snap.SkippedFills)
	assert.Equal(t, 4, snap.FillCount)

	final := book.Close()
	assert.True(t, final.Complete)
	assert.Equal(t, snap.Trades, final.Trades)
	require.Len(t, final.OpenPositions, 1)
	assert.Equal(t, int64(1), final.OpenPositions[0].Quantity)

	assert.Empty(t, book.Snapshot().OpenPositions)
	assert.Empty(t, book.Snapshot().Trades)
}

func TestBook_MatchesBatch(t *testing.T) {
	fills := randomFills(3, 200)
	opts := quietOptions()
	opts.Grouping = GroupingRoundTrip

	book := NewBook(newUnitResolver(t), opts)
	for _, f := range fills {
		book.Apply(f)
	}
	incremental := book.Close()
	batch := match(t, newUnitResolver(t), opts, fills...)

	assert.Equal(t, batch.Trades, incremental.Trades)
	assert.Equal(t, batch.OpenPositions, incremental.OpenPositions)
	assert.Equal(t, batch.UnknownInstruments, incremental.UnknownInstruments)
}

func TestBook_SnapshotExcludesPendingRoundTrip(t *testing.T) {
	opts := quietOptions()
	opts.Grouping = GroupingRoundTrip
	book := NewBook(newUnitResolver(t), opts)

	book.Apply(fill("f1", model.SideBuy, 2, "100", 0))
	assert.Empty(t, book.Apply(fill("f2", model.SideSell, 1, "101", 1)))
	assert.Empty(t, book.Snapshot().Trades)

	final := book.Close()
	require.Len(t, final.Trades, 1)
	assert.Equal(t, []string{"f2"}, final.Trades[0].ExitFillIDs)
}

func TestBook_OverrideWhilePositionOpen(t *testing.T) {
	resolver := newUnitResolver(t)
	book := NewBook(resolver, quietOptions())

	buy := fill("f1", model.SideBuy, 2, "100", 0)
	buy.Instrument = "FOO"
	assert.Empty(t, book.Apply(buy))
	assert.Equal(t, []string{"FOO"}, book.Snapshot().UnknownInstruments)

	require.NoError(t, resolver.Override("FOO", d("0.25"), d("5")))

	sell := fill("f2", model.SideSell, 2, "101", 1)
	sell.Instrument = "FOO"
	trades := book.Apply(sell)
	require.Len(t, trades, 1)
	assert.True(t, trades[0].PnL.Equal(d("40.00")))

	final := book.Close()
	assert.Empty(t, final.UnknownInstruments)
	assert.Empty(t, resolver.Unknown())
}

func TestBook_OverrideReachesSnapshotWithoutNewFills(t *testing.T) {
	resolver := newUnitResolver(t)
	opts := quietOptions()
	opts.MarkPrices = map[string]decimal.Decimal{"FOO": d("101")}
	book := NewBook(resolver, opts)

	buy := fill("f1", model.SideBuy, 1, "100", 0)
	buy.Instrument = "FOO"
	book.Apply(buy)
	require.NoError(t, resolver.Override("FOO", d("0.25"), d("5")))

	snap := book.Snapshot()
	assert.Empty(t, snap.UnknownInstruments)
	require.Len(t, snap.OpenPositions, 1)
	require.NotNil(t, snap.OpenPositions[0].UnrealizedPnL)
	assert.True(t, snap.OpenPositions[0].UnrealizedPnL.Equal(d("20")))
}
