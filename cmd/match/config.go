package match

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

const (
	SourceCSV = "csv"
	SourceDB  = "db"
)

type Config struct {
	// Source is "csv" (Input is a file path, "-" for stdin) or "db" (imported_fills).
	Source   string `envconfig:"MATCH_SOURCE" default:"csv"`
	Input    string `envconfig:"MATCH_INPUT" default:"-"`
	Format   string `envconfig:"MATCH_FORMAT" default:"generic"`
	Timezone string `envconfig:"MATCH_TIMEZONE" default:"UTC"`

	// db source filters
	ImportSource string `envconfig:"MATCH_IMPORT_SOURCE"`
	Account      string `envconfig:"MATCH_ACCOUNT"`
	Since        string `envconfig:"MATCH_SINCE"`

	Output      string `envconfig:"MATCH_OUTPUT" default:"-"`
	Persist     bool   `envconfig:"MATCH_PERSIST" default:"false"`
	RemoteSpecs bool   `envconfig:"MATCH_REMOTE_SPECS" default:"false"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
