package migrations

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"tradeledger/src/contractspec"
	"tradeledger/src/model"
)

// DataMigration tracks executed data migrations.
// Table name is fixed to avoid collisions with other models.
type DataMigration struct {
	ID        string    `gorm:"primaryKey;size:200;column:id"`
	AppliedAt time.Time `gorm:"not null;column:applied_at"`
}

func (DataMigration) TableName() string { return "data_migrations" }

func ensureDataMigrationsTable(db *gorm.DB) error {
	return db.AutoMigrate(&DataMigration{})
}

// RunOnce runs fn only if migrationID was not executed before.
// It records the migration as executed only after fn succeeds.
func RunOnce(db *gorm.DB, migrationID string, fn func(*gorm.DB) error) error {
	if db == nil {
		return nil
	}
	if migrationID == "" {
		return fmt.Errorf("migration id is empty")
	}
	if fn == nil {
		return fmt.Errorf("migration %q has nil fn", migrationID)
	}

	if err := ensureDataMigrationsTable(db); err != nil {
		return fmt.Errorf("ensure data migrations table: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var m DataMigration
		err := tx.First(&m, "id = ?", migrationID).Error
		if err == nil {
			// already applied
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check migration %q: %w", migrationID, err)
		}

		if err := fn(tx); err != nil {
			return fmt.Errorf("run migration %q: %w", migrationID, err)
		}

		rec := DataMigration{
			ID:        migrationID,
			AppliedAt: time.Now().UTC(),
		}
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("record migration %q: %w", migrationID, err)
		}
		return nil
	})
}

// Run executes all data migrations that go beyond schema auto-migrations.
// Append new migrations at the bottom with a stable unique id.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	if err := RunOnce(db, "00001_normalize_contract_spec_symbols", normalizeContractSpecSymbols); err != nil {
		return err
	}

	if err := RunOnce(db, "00002_backfill_trade_status", backfillTradeStatus); err != nil {
		return err
	}

	return nil
}

// normalizeContractSpecSymbols rewrites override symbols to the resolver's lookup key.
// When two rows collapse onto one symbol the most recently updated wins.
func normalizeContractSpecSymbols(db *gorm.DB) error {
	var specs []model.ContractSpec
	if err := db.Order("updated_at DESC, symbol").Find(&specs).Error; err != nil {
		return fmt.Errorf("load contract specs: %w", err)
	}

	winners := make(map[string]string, len(specs))
	var losers []string
	for _, spec := range specs {
		symbol := contractspec.NormalizeSymbol(spec.Symbol)
		if _, ok := winners[symbol]; ok {
			losers = append(losers, spec.Symbol)
			continue
		}
		winners[symbol] = spec.Symbol
	}

	// losers go first so a winner can take the normalized key
	for _, stored := range losers {
		if err := db.Where("symbol = ?", stored).Delete(&model.ContractSpec{}).Error; err != nil {
			return fmt.Errorf("drop duplicate spec %q: %w", stored, err)
		}
	}
	for symbol, stored := range winners {
		if symbol == stored {
			continue
		}
		if err := db.Model(&model.ContractSpec{}).
			Where("symbol = ?", stored).
			Update("symbol", symbol).Error; err != nil {
			return fmt.Errorf("rename spec %q: %w", stored, err)
		}
	}
	return nil
}

func backfillTradeStatus(db *gorm.DB) error {
	return db.Model(&model.Trade{}).
		Where("status IS NULL OR status = ''").
		Update("status", model.TradeStatusClosed).Error
}
