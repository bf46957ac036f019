package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_COLOURS enables colorized step headers for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
	// E2E_BADGER_DIR keeps the store of a run for inspection, a temp dir otherwise
	BadgerDir string `envconfig:"E2E_BADGER_DIR"`
	// E2E_WAIT bounds every wait on the live feed
	Wait time.Duration `envconfig:"E2E_WAIT" default:"2s"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
