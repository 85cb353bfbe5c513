package repository

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tradeledger/src/database"
	"tradeledger/src/externalmodel"
)

// FillSourceRepository handles read-only access to fills written by the
// upstream import pipeline.
type FillSourceRepository struct {
	db *gorm.DB
}

// FillSourceOptions narrows which imported fills are read. Nil fields are ignored.
type FillSourceOptions struct {
	Source         string
	AccountID      *string
	ExecutedAfter  *time.Time
	ExecutedBefore *time.Time
	// AfterID reads rows with a greater id in id order, for incremental polling.
	AfterID *uint
	Limit   int
}

// NewFillSourceRepository creates a new repository instance.
// It uses the ReadOnlyDB connection by default.
func NewFillSourceRepository() *FillSourceRepository {
	logger.WithField("component", "FillSourceRepository").
		Info("Creating new FillSourceRepository with ReadOnlyDB")

	return &FillSourceRepository{
		db: database.ReadOnlyDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *FillSourceRepository) WithDB(db *gorm.DB) *FillSourceRepository {
	return &FillSourceRepository{db: db}
}

// FindFills returns imported fills in execution order, ties by id.
// With AfterID set the rows come in id order instead.
func (r *FillSourceRepository) FindFills(ctx context.Context, options FillSourceOptions) ([]externalmodel.ImportedFill, error) {
	query := r.db.WithContext(ctx).Model(&externalmodel.ImportedFill{})

	if options.Source != "" {
		query = query.Where("source = ?", options.Source)
	}
	if options.AccountID != nil {
		query = query.Where("account_id = ?", *options.AccountID)
	}
	if options.ExecutedAfter != nil {
		query = query.Where("executed_at >= ?", *options.ExecutedAfter)
	}
	if options.ExecutedBefore != nil {
		query = query.Where("executed_at <= ?", *options.ExecutedBefore)
	}
	if options.AfterID != nil {
		query = query.Where("id > ?", *options.AfterID).Order("id ASC")
	} else {
		query = query.Order("executed_at ASC, id ASC")
	}
	if options.Limit > 0 {
		query = query.Limit(options.Limit)
	}

	var fills []externalmodel.ImportedFill
	if err := query.Find(&fills).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "FillSourceRepository",
			"op":     "FindFills",
			"source": options.Source,
		}).WithError(err).Error("Failed to read imported fills")
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":  "FillSourceRepository",
		"op":    "FindFills",
		"count": len(fills),
	}).Debug("Imported fills fetched")
	return fills, nil
}
