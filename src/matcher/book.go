package matcher

import (
	"tradeledger/src/model"
)

// Book is a caller-owned accumulator for incremental matching. Fills are
// applied in arrival order; SortInput has no effect here. A Book is not safe
// for concurrent use.
type Book struct {
	resolver   SpecResolver
	opts       Options
	partitions map[Key]*partition
	order      []Key
	rejected   []reportedProblem
	seq        int
}

func NewBook(resolver SpecResolver, opts Options) *Book {
	return &Book{
		resolver:   resolver,
		opts:       opts.withDefaults(),
		partitions: make(map[Key]*partition),
	}
}

// Apply feeds one fill and returns the trades it emitted, held trades included.
// Invalid fills are skipped and show up in the next Snapshot or Close.
func (b *Book) Apply(f model.Fill) []model.Trade {
	sf := sequenced{seq: b.seq, fill: f}
	b.seq++

	if problem, ok := admit(f); !ok {
		b.rejected = append(b.rejected, reportedProblem{seq: sf.seq, problem: problem})
		b.opts.Log.WithFields(map[string]interface{}{
			"account_id": f.AccountID,
			"instrument": f.Instrument,
			"fill_id":    f.FillID,
		}).Error(problem.Message)
		return nil
	}

	key := keyOf(f)
	p, ok := b.partitions[key]
	if !ok {
		p = newPartition(key, b.resolver, b.opts, sf.seq)
		b.partitions[key] = p
		b.order = append(b.order, key)
	}

	trades, held := len(p.trades), len(p.held)
	p.apply(sf)

	var out []model.Trade
	for _, t := range p.trades[trades:] {
		out = append(out, t.trade)
	}
	for _, t := range p.held[held:] {
		out = append(out, t.trade)
	}
	return out
}

// Snapshot returns everything emitted so far plus current open positions.
// Round trips still waiting to go flat are not included.
func (b *Book) Snapshot() Result {
	return merge(b.parts(), b.rejected, false)
}

// Close flushes pending round trips, returns the final result and empties the book.
func (b *Book) Close() Result {
	parts := b.parts()
	for _, p := range parts {
		p.drain()
	}
	res := merge(parts, b.rejected, true)

	b.partitions = make(map[Key]*partition)
	b.order = nil
	b.rejected = nil
	b.seq = 0
	return res
}

func (b *Book) parts() []*partition {
	parts := make([]*partition, 0, len(b.order))
	for _, key := range b.order {
		p := b.partitions[key]
		p.resolveSpec()
		parts = append(parts, p)
	}
	return parts
}
