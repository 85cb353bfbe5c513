// Package follower keeps trades current while the import pipeline writes new fills.
package follower

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"

	"tradeledger/src/externalmodel"
	"tradeledger/src/mapper"
	"tradeledger/src/matcher"
	"tradeledger/src/model"
	"tradeledger/src/repository"
)

const runSource = "follow"

type fillReader interface {
	FindFills(ctx context.Context, options repository.FillSourceOptions) ([]externalmodel.ImportedFill, error)
}

type specLister interface {
	FindAll(ctx context.Context) ([]model.ContractSpec, error)
}

type specRegistrar interface {
	Register(spec model.ContractSpec) error
}

type resultSaver interface {
	SaveResult(ctx context.Context, source string, res matcher.Result, startedAt time.Time) (*model.MatchRun, error)
}

// Follower polls imported fills by id and applies them to a long-lived Book.
// It starts from the first row, so a restart rebuilds positions from scratch;
// saved trades are keyed by their deterministic id and are not duplicated.
type Follower struct {
	Log    *logger.Entry
	Config Config
	Fills  fillReader
	Store  resultSaver
	Book   *matcher.Book

	// Specs are stored overrides copied into Resolver before every tick,
	// so PUT /contract-specs reaches positions the Book already holds.
	Specs    specLister
	Resolver specRegistrar

	lastID        uint
	savedProblems int
	savedSkipped  int

	// trades applied to the Book and rows rejected before it whose save
	// failed, retried next tick
	unsaved         []model.Trade
	unsavedRejected []model.Problem
}

func New(cfg Config, fills fillReader, store resultSaver, book *matcher.Book) *Follower {
	return &Follower{
		Log:    logger.WithField("component", "follower"),
		Config: cfg,
		Fills:  fills,
		Store:  store,
		Book:   book,
	}
}

// StartLoop ticks every LoopPeriod until ctx is done. The first tick runs at once.
func (f *Follower) StartLoop(ctx context.Context) error {
	ticker := time.NewTicker(f.Config.LoopPeriod)
	defer ticker.Stop()

	for {
		if _, err := f.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			f.Log.WithError(err).Error("follow tick failed")
		}

		select {
		case <-ctx.Done():
			f.Log.Info("loop stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Tick drains every imported fill newer than the last one seen and saves what
// the new fills produced. It returns how many rows were read.
func (f *Follower) Tick(ctx context.Context) (int, error) {
	startedAt := time.Now().UTC()
	var (
		read     int
		fills    int
		rejected = f.unsavedRejected
		emitted  = f.unsaved
	)

	f.reloadSpecs(ctx)

	for {
		after := f.lastID
		rows, err := f.Fills.FindFills(ctx, repository.FillSourceOptions{
			Source:  f.Config.ImportSource,
			AfterID: &after,
			Limit:   f.Config.BatchSize,
		})
		if err != nil {
			f.unsaved, f.unsavedRejected = emitted, rejected
			return read, err
		}
		if len(rows) == 0 {
			break
		}

		batch, rowErrs := mapper.FromImportedFills(rows)
		for _, rowErr := range rowErrs {
			f.Log.WithField("imported_fill_id", rowErr.Line).WithError(rowErr.Err).Warn("Skipping imported fill")
		}
		rejected = append(rejected, mapper.Problems(rowErrs)...)
		for _, fill := range batch {
			emitted = append(emitted, f.Book.Apply(fill)...)
		}

		read += len(rows)
		fills += len(batch)
		f.lastID = rows[len(rows)-1].ID

		if f.Config.BatchSize <= 0 || len(rows) < f.Config.BatchSize {
			break
		}
	}

	if read == 0 && len(emitted) == 0 && len(rejected) == 0 {
		f.Log.Debug("no new fills")
		return 0, nil
	}

	snapshot := f.Book.Snapshot()
	res := matcher.Result{
		Trades:             []model.Trade{},
		HeldTrades:         []model.Trade{},
		OpenPositions:      snapshot.OpenPositions,
		UnknownInstruments: snapshot.UnknownInstruments,
		Problems:           snapshot.Problems[f.savedProblems:],
		FillCount:          fills,
		SkippedFills:       snapshot.SkippedFills - f.savedSkipped,
	}
	res.Reject(rejected...)
	for _, t := range emitted {
		if t.Status == model.TradeStatusHeld {
			res.HeldTrades = append(res.HeldTrades, t)
		} else {
			res.Trades = append(res.Trades, t)
		}
	}

	if _, err := f.Store.SaveResult(ctx, runSource, res, startedAt); err != nil {
		f.unsaved, f.unsavedRejected = emitted, rejected
		return read, err
	}
	f.unsaved, f.unsavedRejected = nil, nil
	f.savedProblems = len(snapshot.Problems)
	f.savedSkipped = snapshot.SkippedFills

	f.Log.WithFields(map[string]interface{}{
		"rows":    read,
		"trades":  len(res.Trades),
		"held":    len(res.HeldTrades),
		"open":    len(res.OpenPositions),
		"last_id": f.lastID,
	}).Info("follow tick saved")
	return read, nil
}

func (f *Follower) reloadSpecs(ctx context.Context) {
	if f.Specs == nil || f.Resolver == nil {
		return
	}
	stored, err := f.Specs.FindAll(ctx)
	if err != nil {
		f.Log.WithError(err).Warn("Failed to reload stored contract specs")
		return
	}
	for _, spec := range stored {
		spec.Source = model.SpecSourceOverride
		if err := f.Resolver.Register(spec); err != nil {
			f.Log.WithField("symbol", spec.Symbol).WithError(err).Warn("Skipping stored contract spec")
		}
	}
}
