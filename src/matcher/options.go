package matcher

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

// ErrInvalidOption is returned for unsupported lot orders or groupings.
var ErrInvalidOption = errors.New("invalid matcher option")

// LotOrder picks which open lot an opposing fill consumes first.
type LotOrder string

const (
	LotOrderFIFO LotOrder = "fifo"
	LotOrderLIFO LotOrder = "lifo"
)

// Grouping decides how matched legs are folded into trades.
type Grouping string

const (
	// GroupingPerExit emits one trade for every reducing fill.
	GroupingPerExit Grouping = "per_exit"
	// GroupingRoundTrip emits one trade per flat-to-flat round trip (or reversal).
	GroupingRoundTrip Grouping = "round_trip"
)

const defaultWorkers = 4

// ParseLotOrder accepts "fifo" and "lifo", any case. Empty means fifo.
func ParseLotOrder(s string) (LotOrder, error) {
	switch LotOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", LotOrderFIFO:
		return LotOrderFIFO, nil
	case LotOrderLIFO:
		return LotOrderLIFO, nil
	}
	return "", fmt.Errorf("%w: lot order %q", ErrInvalidOption, s)
}

// ParseGrouping accepts "per_exit" and "round_trip", any case. Empty means per_exit.
func ParseGrouping(s string) (Grouping, error) {
	switch Grouping(strings.ToLower(strings.TrimSpace(s))) {
	case "", GroupingPerExit:
		return GroupingPerExit, nil
	case GroupingRoundTrip:
		return GroupingRoundTrip, nil
	}
	return "", fmt.Errorf("%w: grouping %q", ErrInvalidOption, s)
}

type Options struct {
	LotOrder LotOrder `json:"lot_order,omitempty"`
	Grouping Grouping `json:"grouping,omitempty"`
	// SortInput stable-sorts fills by timestamp before matching.
	// Without it input order is trusted and backward timestamps are reported.
	SortInput bool `json:"sort_input,omitempty"`
	// Workers bounds how many partitions MatchFills runs at once.
	Workers int `json:"workers,omitempty"`

	// MarkPrices estimate the close of positions left open, keyed by instrument.
	MarkPrices map[string]decimal.Decimal `json:"mark_prices,omitempty"`
	// MarkTime is the estimated close date. Zero uses the last fill of the partition.
	MarkTime time.Time `json:"mark_time,omitempty"`

	Log *logger.Entry `json:"-"`
}

// Validate reports unsupported option values.
func (o Options) Validate() error {
	if _, err := ParseLotOrder(string(o.LotOrder)); err != nil {
		return err
	}
	if _, err := ParseGrouping(string(o.Grouping)); err != nil {
		return err
	}
	if o.Workers < 0 {
		return fmt.Errorf("%w: workers %d", ErrInvalidOption, o.Workers)
	}
	return nil
}

func (o Options) withDefaults() Options {
	if lotOrder, err := ParseLotOrder(string(o.LotOrder)); err == nil {
		o.LotOrder = lotOrder
	}
	if grouping, err := ParseGrouping(string(o.Grouping)); err == nil {
		o.Grouping = grouping
	}
	if o.Workers <= 0 {
		o.Workers = defaultWorkers
	}
	if o.Log == nil {
		o.Log = logger.WithField("component", "matcher")
	}
	return o
}

func (o Options) markPrice(instrument string) (decimal.Decimal, bool) {
	if len(o.MarkPrices) == 0 {
		return decimal.Decimal{}, false
	}
	if mark, ok := o.MarkPrices[instrument]; ok {
		return mark, true
	}
	mark, ok := o.MarkPrices[strings.ToUpper(strings.TrimSpace(instrument))]
	return mark, ok
}
