package matcher

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	LotOrder  string `envconfig:"MATCH_LOT_ORDER" default:"fifo"`
	Grouping  string `envconfig:"MATCH_GROUPING" default:"per_exit"`
	SortInput bool   `envconfig:"MATCH_SORT_INPUT" default:"false"`
	Workers   int    `envconfig:"MATCH_WORKERS" default:"4"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}

// Options converts the environment settings into matcher options.
func (c Config) Options() (Options, error) {
	lotOrder, err := ParseLotOrder(c.LotOrder)
	if err != nil {
		return Options{}, err
	}
	grouping, err := ParseGrouping(c.Grouping)
	if err != nil {
		return Options{}, err
	}
	return Options{
		LotOrder:  lotOrder,
		Grouping:  grouping,
		SortInput: c.SortInput,
		Workers:   c.Workers,
	}, nil
}
