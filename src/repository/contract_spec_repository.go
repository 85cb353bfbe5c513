package repository

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tradeledger/src/database"
	"tradeledger/src/model"
)

// ContractSpecRepository stores user-supplied contract spec overrides.
type ContractSpecRepository struct {
	db *gorm.DB
}

func NewContractSpecRepository() *ContractSpecRepository {
	return &ContractSpecRepository{db: database.MainDB}
}

func (r *ContractSpecRepository) WithDB(db *gorm.DB) *ContractSpecRepository {
	return &ContractSpecRepository{db: db}
}

// FindAll returns every stored override ordered by symbol.
func (r *ContractSpecRepository) FindAll(ctx context.Context) ([]model.ContractSpec, error) {
	var specs []model.ContractSpec
	if err := r.db.WithContext(ctx).Order("symbol").Find(&specs).Error; err != nil {
		return nil, err
	}
	return specs, nil
}

// Upsert validates spec and inserts it or replaces the stored values.
func (r *ContractSpecRepository) Upsert(ctx context.Context, spec *model.ContractSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	spec.Source = model.SpecSourceOverride

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}},
			DoUpdates: clause.AssignmentColumns([]string{"tick_size", "tick_value", "source", "updated_at"}),
		}).
		Create(spec).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "ContractSpecRepository",
			"op":     "Upsert",
			"symbol": spec.Symbol,
		}).WithError(err).Error("Failed to upsert contract spec")
		return err
	}
	return nil
}

// Delete removes an override; the built-in or default spec applies again.
func (r *ContractSpecRepository) Delete(ctx context.Context, symbol string) error {
	return r.db.WithContext(ctx).Where("symbol = ?", symbol).Delete(&model.ContractSpec{}).Error
}
