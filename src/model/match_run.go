package model

import "time"

// MatchRun records the outcome of one matching pass, e.g. "12 trades imported, 2 fills skipped".
type MatchRun struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Source             string    `gorm:"size:50;index" json:"source"`
	FillCount          int       `gorm:"not null" json:"fill_count"`
	TradeCount         int       `gorm:"not null" json:"trade_count"`
	HeldCount          int       `gorm:"not null" json:"held_count"`
	OpenCount          int       `gorm:"not null" json:"open_count"`
	SkippedFills       int       `gorm:"not null" json:"skipped_fills"`
	UnknownInstruments []string  `gorm:"serializer:json;type:text" json:"unknown_instruments"`
	Complete           bool      `gorm:"not null" json:"complete"`
	StartedAt          time.Time `json:"started_at"`
	FinishedAt         time.Time `json:"finished_at"`

	Problems []Problem `gorm:"foreignKey:RunID" json:"problems,omitempty"`

	CreatedAt time.Time `json:"-"`
}

// TableName allows you to control the exact table name for runs.
func (MatchRun) TableName() string {
	return "match_runs"
}
