package matcher

import (
	"sort"

	"tradeledger/src/model"
)

// Result is the output of a matching run. Problems never abort a run;
// they are returned next to the trades.
type Result struct {
	Trades             []model.Trade        `json:"trades"`
	HeldTrades         []model.Trade        `json:"held_trades"`
	OpenPositions      []model.OpenPosition `json:"open_positions"`
	UnknownInstruments []string             `json:"unknown_instruments"`
	Problems           []model.Problem      `json:"problems"`
	FillCount          int                  `json:"fill_count"`
	SkippedFills       int                  `json:"skipped_fills"`
	// Complete is false when matching stopped early or the result is a snapshot.
	Complete bool `json:"complete"`
}

// Reject records fills dropped before matching, e.g. rows that failed to
// normalize. They count as read and skipped.
func (r *Result) Reject(problems ...model.Problem) {
	if len(problems) == 0 {
		return
	}
	r.Problems = append(append([]model.Problem{}, problems...), r.Problems...)
	r.FillCount += len(problems)
	r.SkippedFills += len(problems)
}

// admit rejects fills that cannot be matched before they reach a partition.
func admit(f model.Fill) (model.Problem, bool) {
	if err := f.Validate(); err != nil {
		return model.Problem{
			Kind:       model.ProblemInvalidFill,
			Level:      model.ProblemLevelError,
			AccountID:  f.AccountID,
			Instrument: f.Instrument,
			FillID:     f.FillID,
			Message:    err.Error(),
		}, false
	}
	return model.Problem{}, true
}

// merge combines partition outputs in ingestion order so the result does
// not depend on how partitions were scheduled.
func merge(parts []*partition, rejected []reportedProblem, complete bool) Result {
	res := Result{
		Trades:             []model.Trade{},
		HeldTrades:         []model.Trade{},
		OpenPositions:      []model.OpenPosition{},
		UnknownInstruments: []string{},
		Problems:           []model.Problem{},
		SkippedFills:       len(rejected),
		FillCount:          len(rejected),
		Complete:           complete,
	}

	sorted := make([]*partition, len(parts))
	copy(sorted, parts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].firstSeq < sorted[j].firstSeq })

	var (
		trades   []emittedTrade
		held     []emittedTrade
		problems = append([]reportedProblem(nil), rejected...)
		unknown  = map[string]struct{}{}
	)
	for _, p := range sorted {
		res.FillCount += p.fills
		trades = append(trades, p.trades...)
		held = append(held, p.held...)
		problems = append(problems, p.problems...)
		if !p.known {
			unknown[p.spec.Symbol] = struct{}{}
		}
		if open, ok := p.openPosition(); ok {
			res.OpenPositions = append(res.OpenPositions, open)
		}
	}

	for _, t := range sortEmitted(trades) {
		res.Trades = append(res.Trades, t.trade)
	}
	for _, t := range sortEmitted(held) {
		res.HeldTrades = append(res.HeldTrades, t.trade)
	}
	sort.SliceStable(problems, func(i, j int) bool { return problems[i].seq < problems[j].seq })
	for _, p := range problems {
		res.Problems = append(res.Problems, p.problem)
	}
	for symbol := range unknown {
		res.UnknownInstruments = append(res.UnknownInstruments, symbol)
	}
	sort.Strings(res.UnknownInstruments)
	return res
}

func sortEmitted(trades []emittedTrade) []emittedTrade {
	sort.SliceStable(trades, func(i, j int) bool {
		if trades[i].seq != trades[j].seq {
			return trades[i].seq < trades[j].seq
		}
		return trades[i].trade.ID < trades[j].trade.ID
	})
	return trades
}
