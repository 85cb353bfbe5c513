package migrations

import (
	"fmt"

	"gorm.io/gorm"

	"tradeledger/src/model"
)

// legacyTradeColumns maps column names of the first trades schema to the current ones.
var legacyTradeColumns = map[string]string{
	"realized_pnl": "pnl",
	"fees":         "commission",
	"hold_seconds": "time_in_position",
}

// PrepareLegacyTradeColumns renames columns of an older trades table so that
// AutoMigrate keeps their data instead of adding empty columns next to them.
func PrepareLegacyTradeColumns(db *gorm.DB) error {
	migrator := db.Migrator()
	if !migrator.HasTable(&model.Trade{}) {
		return nil
	}

	for legacy, current := range legacyTradeColumns {
		if !migrator.HasColumn(&model.Trade{}, legacy) {
			continue
		}
		if migrator.HasColumn(&model.Trade{}, current) {
			// both exist; leave the legacy column for manual cleanup
			continue
		}
		if err := migrator.RenameColumn(&model.Trade{}, legacy, current); err != nil {
			return fmt.Errorf("rename trades.%s to %s: %w", legacy, current, err)
		}
	}
	return nil
}
