// Package matcher reconstructs positions from fills and emits closed trades.
package matcher

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sourcegraph/conc/pool"

	"tradeledger/src/emitter"
	"tradeledger/src/model"
)

// SpecResolver supplies the contract spec for an instrument and whether it was known.
// Implementations must be safe for concurrent use.
type SpecResolver interface {
	Resolve(instrument string) (model.ContractSpec, bool)
}

// MatchFills matches a batch of fills. Partitions run concurrently and share
// nothing but the resolver. A canceled ctx stops partitions between fills;
// the partial result has Complete=false and the context error is returned.
func MatchFills(ctx context.Context, fills []model.Fill, resolver SpecResolver, opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	opts = opts.withDefaults()
	start := time.Now()

	var (
		groups   = make(map[Key][]sequenced)
		keys     []Key
		rejected []reportedProblem
	)
	for _, sf := range sequence(fills, opts.SortInput) {
		if problem, ok := admit(sf.fill); !ok {
			rejected = append(rejected, reportedProblem{seq: sf.seq, problem: problem})
			opts.Log.WithFields(map[string]interface{}{
				"account_id": sf.fill.AccountID,
				"instrument": sf.fill.Instrument,
				"fill_id":    sf.fill.FillID,
			}).Error(problem.Message)
			continue
		}
		key := keyOf(sf.fill)
		if _, seen := groups[key]; !seen {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], sf)
	}

	workers := pool.NewWithResults[*partition]().WithMaxGoroutines(opts.Workers)
	for _, key := range keys {
		group := groups[key]
		workers.Go(func() *partition {
			return runPartition(ctx, key, group, resolver, opts)
		})
	}
	parts := workers.Wait()

	complete := true
	for _, p := range parts {
		if p.interrupted {
			complete = false
			break
		}
	}
	res := merge(parts, rejected, complete)

	opts.Log.WithFields(map[string]interface{}{
		"fills":      res.FillCount,
		"skipped":    res.SkippedFills,
		"partitions": len(parts),
		"trades":     len(res.Trades),
		"held":       len(res.HeldTrades),
		"open":       len(res.OpenPositions),
		"unknown":    len(res.UnknownInstruments),
		"complete":   res.Complete,
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Info("fills matched")

	if !complete {
		return res, fmt.Errorf("match fills: %w", ctx.Err())
	}
	return res, nil
}

func runPartition(ctx context.Context, key Key, group []sequenced, resolver SpecResolver, opts Options) *partition {
	p := newPartition(key, resolver, opts, group[0].seq)
	for _, sf := range group {
		if ctx.Err() != nil {
			p.interrupted = true
			p.log.WithError(ctx.Err()).Warn("matching interrupted")
			return p
		}
		p.apply(sf)
	}
	p.drain()
	p.log.WithFields(map[string]interface{}{
		"fills":  p.fills,
		"trades": len(p.trades),
		"held":   len(p.held),
	}).Debug("partition matched")
	return p
}

func sequence(fills []model.Fill, sortInput bool) []sequenced {
	out := make([]sequenced, len(fills))
	for i, f := range fills {
		out[i] = sequenced{seq: i, fill: f}
	}
	if sortInput {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].fill.Timestamp.Before(out[j].fill.Timestamp)
		})
		for i := range out {
			out[i].seq = i
		}
	}
	return out
}

// RepriceHeld recomputes held trades against the resolver's current specs.
// Trades whose spec is still invalid are returned in stillHeld.
func RepriceHeld(held []model.Trade, resolver SpecResolver) (repriced, stillHeld []model.Trade) {
	for _, t := range held {
		spec, _ := resolver.Resolve(t.Instrument)
		trade, err := emitter.Reprice(t, spec)
		if err != nil {
			stillHeld = append(stillHeld, t)
			continue
		}
		repriced = append(repriced, trade)
	}
	return repriced, stillHeld
}
