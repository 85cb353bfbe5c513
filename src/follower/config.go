package follower

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// ImportSource limits polling to one upstream source, all sources when empty.
	ImportSource string        `envconfig:"FOLLOW_IMPORT_SOURCE"`
	BatchSize    int           `envconfig:"FOLLOW_BATCH_SIZE" default:"1000"`
	LoopPeriod   time.Duration `envconfig:"FOLLOW_LOOP_PERIOD" default:"30s"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
