package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tradeledger/src/externalmodel"
)

// ReadOnlyDB is the read-only database connection holding fills normalized
// by the upstream import pipeline. The database user for this connection
// should have SELECT-only permissions.
var ReadOnlyDB *gorm.DB

// InitReadOnlyDB initializes the read-only database connection.
// It does not run any migrations and should only be used for reading data.
func InitReadOnlyDB() error {
	config := GetConfig()
	db, err := Open(config.DatabaseDriver, config.DatabaseURLReadOnly, config.GormLogLevel, true)
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB from ReadOnlyDB: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping ReadOnlyDB: %w", err)
	}

	// Test if the table is really reachable
	var count int64
	if err := db.Model(&externalmodel.ImportedFill{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to access %s: %w", externalmodel.ImportedFill{}.TableName(), err)
	}
	logrus.WithFields(map[string]interface{}{"count": count}).Info("[ReadOnlyDB] imported_fills reachable")

	ReadOnlyDB = db
	return nil
}
