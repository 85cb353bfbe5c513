package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tradeledger/src/database/migrations"
	"tradeledger/src/model"
)

// MainDB is the primary read/write database connection used by the application.
var MainDB *gorm.DB

// InitMainDB initializes the main (read/write) database connection and runs migrations.
// This should be called once at application startup (e.g. in main()).
func InitMainDB() error {
	config := GetConfig()
	db, err := Open(config.DatabaseDriver, config.DatabaseURLMain, config.GormLogLevel, false)
	if err != nil {
		return err
	}

	if err := Migrate(db); err != nil {
		return err
	}

	// Assign to the global variable only after a successful migration.
	MainDB = db
	logrus.WithField("driver", config.DatabaseDriver).Info("[database] MainDB connection established")
	return nil
}

// Migrate brings the write-side schema up to date and runs data migrations.
func Migrate(db *gorm.DB) error {
	// Rename legacy columns before AutoMigrate so their data is kept.
	if err := migrations.PrepareLegacyTradeColumns(db); err != nil {
		return fmt.Errorf("failed to prepare legacy trade columns: %w", err)
	}

	// Add here all models that belong to the write-side schema.
	if err := db.AutoMigrate(
		&model.Trade{},
		&model.OpenPosition{},
		&model.ContractSpec{},
		&model.MatchRun{},
		&model.Problem{},
		&migrations.DataMigration{},
	); err != nil {
		return fmt.Errorf("failed to run migrations on MainDB: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("failed to run data migrations on MainDB: %w", err)
	}

	logrus.Info("[database] MainDB migrations completed")
	return nil
}
