package migrations

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tradeledger/src/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestRunOnce_RecordsAndSkips(t *testing.T) {
	db := newTestDB(t)

	calls := 0
	fn := func(*gorm.DB) error {
		calls++
		return nil
	}
	require.NoError(t, RunOnce(db, "00099_test", fn))
	require.NoError(t, RunOnce(db, "00099_test", fn))
	assert.Equal(t, 1, calls)

	var count int64
	require.NoError(t, db.Model(&DataMigration{}).Where("id = ?", "00099_test").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRunOnce_FailureIsNotRecorded(t *testing.T) {
	db := newTestDB(t)

	boom := errors.New("boom")
	err := RunOnce(db, "00098_fail", func(*gorm.DB) error { return boom })
	assert.True(t, errors.Is(err, boom))

	var count int64
	require.NoError(t, db.Model(&DataMigration{}).Count(&count).Error)
	assert.Zero(t, count)

	assert.Error(t, RunOnce(db, "", func(*gorm.DB) error { return nil }))
	assert.Error(t, RunOnce(db, "00097_nil", nil))
	assert.NoError(t, RunOnce(nil, "00096_nil_db", nil))
}

func TestNormalizeContractSpecSymbols(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.AutoMigrate(&model.ContractSpec{}, &model.Trade{}))

	now := time.Now().UTC()
	specs := []model.ContractSpec{
		{Symbol: "es", TickSize: decimal.RequireFromString("0.25"), TickValue: decimal.RequireFromString("50"), Source: model.SpecSourceOverride},
		{Symbol: "/ES", TickSize: decimal.RequireFromString("0.25"), TickValue: decimal.RequireFromString("12.5"), Source: model.SpecSourceOverride},
		{Symbol: "NQ", TickSize: decimal.RequireFromString("0.25"), TickValue: decimal.RequireFromString("5"), Source: model.SpecSourceOverride},
	}
	for i := range specs {
		require.NoError(t, db.Create(&specs[i]).Error)
		require.NoError(t, db.Model(&model.ContractSpec{}).Where("symbol = ?", specs[i].Symbol).
			Update("updated_at", now.Add(time.Duration(i)*time.Minute)).Error)
	}

	require.NoError(t, Run(db))

	var got []model.ContractSpec
	require.NoError(t, db.Order("symbol").Find(&got).Error)
	require.Len(t, got, 2)
	assert.Equal(t, "ES", got[0].Symbol)
	// "/ES" was updated last and wins
	assert.True(t, got[0].TickValue.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, "NQ", got[1].Symbol)
}

func TestNormalizeContractSpecSymbols_NewerRowNeedsRename(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.AutoMigrate(&model.ContractSpec{}, &model.Trade{}))

	now := time.Now().UTC()
	specs := []model.ContractSpec{
		{Symbol: "ES", TickSize: decimal.RequireFromString("0.25"), TickValue: decimal.RequireFromString("50"), Source: model.SpecSourceOverride},
		{Symbol: "es", TickSize: decimal.RequireFromString("0.25"), TickValue: decimal.RequireFromString("12.5"), Source: model.SpecSourceOverride},
	}
	for i := range specs {
		require.NoError(t, db.Create(&specs[i]).Error)
		require.NoError(t, db.Model(&model.ContractSpec{}).Where("symbol = ?", specs[i].Symbol).
			Update("updated_at", now.Add(time.Duration(i)*time.Minute)).Error)
	}

	require.NoError(t, Run(db))

	var got []model.ContractSpec
	require.NoError(t, db.Find(&got).Error)
	require.Len(t, got, 1)
	assert.Equal(t, "ES", got[0].Symbol)
	assert.True(t, got[0].TickValue.Equal(decimal.RequireFromString("12.5")))
}

func TestPrepareLegacyTradeColumns(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Exec(`CREATE TABLE trades (id varchar(36) PRIMARY KEY, realized_pnl numeric, fees numeric)`).Error)
	require.NoError(t, db.Exec(`INSERT INTO trades (id, realized_pnl, fees) VALUES ('t1', 12.5, 1.24)`).Error)

	require.NoError(t, PrepareLegacyTradeColumns(db))

	m := db.Migrator()
	assert.True(t, m.HasColumn(&model.Trade{}, "pnl"))
	assert.True(t, m.HasColumn(&model.Trade{}, "commission"))
	assert.False(t, m.HasColumn(&model.Trade{}, "realized_pnl"))

	var pnl float64
	require.NoError(t, db.Raw(`SELECT pnl FROM trades WHERE id = 't1'`).Scan(&pnl).Error)
	assert.Equal(t, 12.5, pnl)
}

func TestPrepareLegacyTradeColumns_NoTable(t *testing.T) {
	assert.NoError(t, PrepareLegacyTradeColumns(newTestDB(t)))
}
