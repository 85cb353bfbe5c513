package repository

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tradeledger/src/database"
	"tradeledger/src/matcher"
	"tradeledger/src/model"
)

const saveBatchSize = 200

// TradeRepository persists matching results: trades, open positions and runs.
type TradeRepository struct {
	db *gorm.DB
}

// TradeSearchOptions filters persisted trades. Nil fields are ignored.
type TradeSearchOptions struct {
	AccountID    *string
	Instrument   *string
	Status       *model.TradeStatus
	ClosedAfter  *time.Time
	ClosedBefore *time.Time
	Limit        int
	Offset       int
}

// NewTradeRepository creates a new repository instance using the main read/write database.
func NewTradeRepository() *TradeRepository {
	logger.WithField("component", "TradeRepository").
		Info("Creating new TradeRepository with MainDB")

	return &TradeRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *TradeRepository) WithDB(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// SaveResult stores a matching result in one transaction. Trades are keyed by
// their deterministic id, so saving the same result twice inserts nothing new.
// Open positions of every (account, instrument) in the result are replaced.
func (r *TradeRepository) SaveResult(
	ctx context.Context,
	source string,
	res matcher.Result,
	startedAt time.Time,
) (*model.MatchRun, error) {

	run := &model.MatchRun{
		Source:             source,
		FillCount:          res.FillCount,
		TradeCount:         len(res.Trades),
		HeldCount:          len(res.HeldTrades),
		OpenCount:          len(res.OpenPositions),
		SkippedFills:       res.SkippedFills,
		UnknownInstruments: res.UnknownInstruments,
		Complete:           res.Complete,
		StartedAt:          startedAt,
		FinishedAt:         time.Now().UTC(),
		Problems:           append([]model.Problem(nil), res.Problems...),
	}

	trades := make([]model.Trade, 0, len(res.Trades)+len(res.HeldTrades))
	trades = append(trades, res.Trades...)
	trades = append(trades, res.HeldTrades...)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(trades) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				CreateInBatches(&trades, saveBatchSize).Error; err != nil {
				return err
			}
		}

		if err := replaceOpenPositions(tx, trades, res.OpenPositions); err != nil {
			return err
		}

		return tx.Create(run).Error
	})
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "TradeRepository",
			"op":     "SaveResult",
			"source": source,
		}).WithError(err).Error("Failed to save match result")
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":     "TradeRepository",
		"op":       "SaveResult",
		"run_id":   run.ID,
		"trades":   run.TradeCount,
		"held":     run.HeldCount,
		"open":     run.OpenCount,
		"problems": len(run.Problems),
	}).Info("Match result saved")

	return run, nil
}

// replaceOpenPositions drops stored positions for every key the result touched
// and inserts the result's open positions.
func replaceOpenPositions(tx *gorm.DB, trades []model.Trade, open []model.OpenPosition) error {
	keys := map[matcher.Key]struct{}{}
	for _, t := range trades {
		keys[matcher.Key{AccountID: t.AccountID, Instrument: t.Instrument}] = struct{}{}
	}
	for _, p := range open {
		keys[matcher.Key{AccountID: p.AccountID, Instrument: p.Instrument}] = struct{}{}
	}

	for key := range keys {
		if err := tx.Where("account_id = ? AND instrument = ?", key.AccountID, key.Instrument).
			Delete(&model.OpenPosition{}).Error; err != nil {
			return err
		}
	}
	if len(open) == 0 {
		return nil
	}

	rows := make([]model.OpenPosition, len(open))
	copy(rows, open)
	for i := range rows {
		rows[i].ID = 0
	}
	return tx.CreateInBatches(&rows, saveBatchSize).Error
}

// FindByID fetches a single trade by its id.
// Returns (nil, nil) if the trade is not found.
func (r *TradeRepository) FindByID(ctx context.Context, id string) (*model.Trade, error) {
	var trade model.Trade
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&trade).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.WithFields(map[string]interface{}{
			"repo": "TradeRepository",
			"op":   "FindByID",
			"id":   id,
		}).WithError(err).Error("Failed to fetch trade by ID")
		return nil, err
	}
	return &trade, nil
}

// Search returns trades matching the options, newest close first.
func (r *TradeRepository) Search(ctx context.Context, options TradeSearchOptions) ([]model.Trade, error) {
	query := r.db.WithContext(ctx).Model(&model.Trade{})

	if options.AccountID != nil {
		query = query.Where("account_id = ?", *options.AccountID)
	}
	if options.Instrument != nil {
		query = query.Where("instrument = ?", *options.Instrument)
	}
	if options.Status != nil {
		query = query.Where("status = ?", *options.Status)
	}
	if options.ClosedAfter != nil {
		query = query.Where("close_date >= ?", *options.ClosedAfter)
	}
	if options.ClosedBefore != nil {
		query = query.Where("close_date <= ?", *options.ClosedBefore)
	}

	query = query.Order("close_date DESC, id DESC")
	if options.Limit > 0 {
		query = query.Limit(options.Limit)
	}
	if options.Offset > 0 {
		query = query.Offset(options.Offset)
	}

	var trades []model.Trade
	if err := query.Find(&trades).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "TradeRepository",
			"op":   "Search",
		}).WithError(err).Error("Failed to search trades")
		return nil, err
	}
	return trades, nil
}

// UpdatePricing writes repriced PnL and status back to stored trades.
func (r *TradeRepository) UpdatePricing(ctx context.Context, trades []model.Trade) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range trades {
			if err := tx.Model(&model.Trade{}).
				Where("id = ?", t.ID).
				Updates(map[string]interface{}{
					"pnl":    t.PnL,
					"status": t.Status,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// OpenPositions lists stored open positions of an account, all accounts when empty.
func (r *TradeRepository) OpenPositions(ctx context.Context, accountID string) ([]model.OpenPosition, error) {
	query := r.db.WithContext(ctx).Order("account_id, instrument")
	if accountID != "" {
		query = query.Where("account_id = ?", accountID)
	}
	var positions []model.OpenPosition
	if err := query.Find(&positions).Error; err != nil {
		return nil, err
	}
	return positions, nil
}
