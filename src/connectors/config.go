package connectors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ContractSpecsURL      string        `envconfig:"CONTRACT_SPECS_URL"`
	ContractSpecsToken    string        `envconfig:"CONTRACT_SPECS_TOKEN"`
	ContractSpecsCacheTTL time.Duration `envconfig:"CONTRACT_SPECS_CACHE_TTL" default:"10m"`
	ContractSpecsTimeout  time.Duration `envconfig:"CONTRACT_SPECS_TIMEOUT" default:"15s"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
