package contractspec

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	DefaultTickSize  decimal.Decimal `envconfig:"DEFAULT_TICK_SIZE" default:"1"`
	DefaultTickValue decimal.Decimal `envconfig:"DEFAULT_TICK_VALUE" default:"1"`
	LoadBuiltin      bool            `envconfig:"CONTRACT_SPECS_BUILTIN" default:"true"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
