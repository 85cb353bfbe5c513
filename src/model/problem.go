package model

import "time"

// ProblemKind classifies a non-fatal issue found while matching.
type ProblemKind string

const (
	ProblemInvalidFill       ProblemKind = "invalid_fill"
	ProblemInvalidSpec       ProblemKind = "invalid_spec"
	ProblemUnknownInstrument ProblemKind = "unknown_instrument"
	ProblemOutOfOrder        ProblemKind = "out_of_order"
)

const (
	ProblemLevelWarn  = "warn"
	ProblemLevelError = "error"
)

// Problem is reported alongside successful results instead of aborting the batch.
// It is persisted for auditing next to the run that produced it.
type Problem struct {
	ID    uint `gorm:"primaryKey" json:"-"`
	RunID uint `gorm:"index" json:"-"`

	Kind  ProblemKind `gorm:"size:50;index" json:"kind"`
	Level string      `gorm:"size:20;index" json:"level"` // warn | error

	AccountID  string `gorm:"size:100" json:"account_id,omitempty"`
	Instrument string `gorm:"size:50" json:"instrument,omitempty"`
	FillID     string `gorm:"size:100" json:"fill_id,omitempty"`
	TradeID    string `gorm:"size:36" json:"trade_id,omitempty"`

	Message string `gorm:"type:text" json:"message"`

	CreatedAt time.Time `json:"-"`
}

// TableName keeps problems next to their runs.
func (Problem) TableName() string {
	return "match_problems"
}
