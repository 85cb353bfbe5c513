package matcher

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"tradeledger/src/emitter"
	"tradeledger/src/model"
	"tradeledger/src/pnl"
)

// Key identifies a partition of the fill stream.
type Key struct {
	AccountID  string `json:"account_id"`
	Instrument string `json:"instrument"`
}

func keyOf(f model.Fill) Key {
	return Key{
		AccountID:  strings.TrimSpace(f.AccountID),
		Instrument: strings.TrimSpace(f.Instrument),
	}
}

// sequenced carries the ingestion order of a fill; results are merged by it.
type sequenced struct {
	seq  int
	fill model.Fill
}

type emittedTrade struct {
	seq   int
	trade model.Trade
}

type reportedProblem struct {
	seq     int
	problem model.Problem
}

// partition runs the position state machine for one (account, instrument).
type partition struct {
	key      Key
	opts     Options
	log      *logger.Entry
	resolver SpecResolver
	spec     model.ContractSpec
	known    bool
	specErr  error
	firstSeq int

	pos      *position
	pending  *emitter.Closing
	lastSeen time.Time
	lastSeq  int
	fills    int

	trades      []emittedTrade
	held        []emittedTrade
	problems    []reportedProblem
	interrupted bool
}

func newPartition(key Key, resolver SpecResolver, opts Options, firstSeq int) *partition {
	p := &partition{
		key:      key,
		opts:     opts,
		resolver: resolver,
		firstSeq: firstSeq,
		lastSeq:  firstSeq,
		log: opts.Log.WithFields(map[string]interface{}{
			"account_id": key.AccountID,
			"instrument": key.Instrument,
		}),
	}

	p.resolveSpec()
	if !p.known {
		p.report(firstSeq, model.Problem{
			Kind:  model.ProblemUnknownInstrument,
			Level: model.ProblemLevelWarn,
			Message: fmt.Sprintf("%v: %s, default spec applied (tick size %s, tick value %s)",
				model.ErrUnknownInstrument, p.spec.Symbol, p.spec.TickSize, p.spec.TickValue),
		})
	}
	return p
}

// resolveSpec picks up the resolver's current spec, so an override registered
// while a position is open prices its later closes.
func (p *partition) resolveSpec() {
	p.spec, p.known = p.resolver.Resolve(p.key.Instrument)
	p.specErr = p.spec.Validate()
}

func (p *partition) report(seq int, problem model.Problem) {
	problem.AccountID = p.key.AccountID
	problem.Instrument = p.key.Instrument
	p.problems = append(p.problems, reportedProblem{seq: seq, problem: problem})

	entry := p.log.WithFields(map[string]interface{}{
		"kind":     problem.Kind,
		"fill_id":  problem.FillID,
		"trade_id": problem.TradeID,
	})
	if problem.Level == model.ProblemLevelError {
		entry.Error(problem.Message)
		return
	}
	entry.Warn(problem.Message)
}

// apply feeds one admitted fill through the state machine.
func (p *partition) apply(sf sequenced) {
	f := sf.fill
	p.resolveSpec()
	if f.Timestamp.Before(p.lastSeen) {
		p.report(sf.seq, model.Problem{
			Kind:   model.ProblemOutOfOrder,
			Level:  model.ProblemLevelWarn,
			FillID: f.FillID,
			Message: fmt.Sprintf("fill at %s arrived after a fill at %s, processed in input order",
				f.Timestamp.Format(time.RFC3339), p.lastSeen.Format(time.RFC3339)),
		})
	} else {
		p.lastSeen = f.Timestamp
	}
	p.lastSeq = sf.seq
	p.fills++

	switch {
	case p.pos == nil:
		p.pos = newPosition(f.Side.PositionSide(), newLot(f, f.Quantity, f.Commission))
	case f.Side.Opens(p.pos.side):
		p.pos.push(newLot(f, f.Quantity, f.Commission))
	default:
		p.reduce(sf)
	}
}

// reduce offsets an opposing fill against open lots. A fill larger than the
// position closes it and opens the opposite side with the remainder.
func (p *partition) reduce(sf sequenced) {
	f := sf.fill
	closing := p.pending
	if closing == nil {
		closing = &emitter.Closing{
			AccountID:  p.key.AccountID,
			Instrument: p.key.Instrument,
			Side:       p.pos.side,
			Held:       p.specErr != nil,
		}
	}

	remaining := f.Quantity
	exitCommission := f.Commission
	for remaining > 0 && len(p.pos.lots) > 0 {
		i := p.pos.next(p.opts.LotOrder)
		l := p.pos.lots[i]
		matched := min(l.remaining, remaining)

		entryShare := share(l.commission, matched, l.remaining)
		exitShare := exitCommission
		if matched < remaining {
			exitShare = share(f.Commission, matched, f.Quantity)
		}

		m := emitter.Match{
			Quantity:        matched,
			EntryPrice:      l.price,
			EntryCommission: entryShare,
			EntryFillIDs:    l.fillIDs,
			OpenedAt:        l.openedAt,
			ExitPrice:       f.Price,
			ExitCommission:  exitShare,
			ExitFillID:      f.FillID,
			ClosedAt:        f.Timestamp,
		}
		if !closing.Held {
			legPnL, err := pnl.Raw(closing.Side, matched, l.price, f.Price, p.spec)
			if err != nil {
				closing.Held = true
			} else {
				m.RawPnL = legPnL
			}
		}
		closing.Matches = append(closing.Matches, m)

		l.remaining -= matched
		l.commission = l.commission.Sub(entryShare)
		exitCommission = exitCommission.Sub(exitShare)
		remaining -= matched
		if l.remaining == 0 {
			p.pos.remove(i)
		}
	}

	p.pos.recompute()
	flat := p.pos.quantity == 0
	if flat {
		p.pos = nil
	}

	if p.opts.Grouping == GroupingRoundTrip && !flat {
		p.pending = closing
	} else {
		p.pending = nil
		p.emit(sf.seq, *closing)
	}

	if remaining > 0 {
		p.pos = newPosition(f.Side.PositionSide(), newLot(f, remaining, exitCommission))
	}
}

func (p *partition) emit(seq int, c emitter.Closing) {
	trade := emitter.Build(c)
	if trade.Status == model.TradeStatusHeld {
		p.held = append(p.held, emittedTrade{seq: seq, trade: trade})
		p.report(seq, model.Problem{
			Kind:    model.ProblemInvalidSpec,
			Level:   model.ProblemLevelError,
			TradeID: trade.ID,
			Message: fmt.Sprintf("pnl held: %v", p.specErr),
		})
		return
	}
	p.trades = append(p.trades, emittedTrade{seq: seq, trade: trade})
}

// drain flushes a round trip still waiting for the position to go flat.
func (p *partition) drain() {
	if p.pending == nil {
		return
	}
	closing := *p.pending
	p.pending = nil
	p.emit(p.lastSeq, closing)
}

// openPosition reports the unmatched remainder, if any. It does not change state.
func (p *partition) openPosition() (model.OpenPosition, bool) {
	if p.pos == nil {
		return model.OpenPosition{}, false
	}

	report := model.OpenPosition{
		AccountID:    p.key.AccountID,
		Instrument:   p.key.Instrument,
		Side:         p.pos.side,
		Quantity:     p.pos.quantity,
		AveragePrice: p.pos.avgPrice,
		Commission:   p.pos.commission,
		PeakQuantity: p.pos.peak,
		Lots:         make([]model.Lot, 0, len(p.pos.lots)),
		StillOpen:    true,
	}
	for i, l := range p.pos.lots {
		report.Lots = append(report.Lots, model.Lot{
			Quantity:   l.remaining,
			Price:      l.price,
			Commission: l.commission,
			FillIDs:    append([]string(nil), l.fillIDs...),
			OpenedAt:   l.openedAt,
		})
		report.EntryFillIDs = append(report.EntryFillIDs, l.fillIDs...)
		if i == 0 || l.openedAt.Before(report.EntryDate) {
			report.EntryDate = l.openedAt
		}
	}

	mark, ok := p.opts.markPrice(p.key.Instrument)
	if !ok {
		return report, true
	}
	closeDate := p.opts.MarkTime
	if closeDate.IsZero() {
		closeDate = p.lastSeen
	}
	report.EstimatedClosePrice = &mark
	report.EstimatedCloseDate = &closeDate

	if p.specErr != nil {
		return report, true
	}
	raw := decimal.Zero
	for _, l := range p.pos.lots {
		legPnL, err := pnl.Raw(p.pos.side, l.remaining, l.price, mark, p.spec)
		if err != nil {
			return report, true
		}
		raw = raw.Add(legPnL)
	}
	unrealized := pnl.Round(raw)
	report.UnrealizedPnL = &unrealized
	return report, true
}
