package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full process configuration, loaded from the environment.
type Config struct {
	Addr           string   `env:"ADDR" envDefault:":5000"`
	PostgresURL    string   `env:"POSTGRES_URL,required"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	ImageDir       string   `env:"IMAGE_DIR" envDefault:"images"`
	Debug          bool     `env:"DEBUG" envDefault:"false"`

	// Game policy knobs; the defaults are the shipped behavior.
	RoundTimeout     time.Duration `env:"ROUND_TIMEOUT" envDefault:"180s"`
	RequestTimeout   time.Duration `env:"REQUEST_TIMEOUT" envDefault:"1s"`
	HistorySize      int           `env:"HISTORY_SIZE" envDefault:"50"`
	MinScoredCatalog int           `env:"MIN_SCORED_CATALOG" envDefault:"20"`
	EditThreshold    float64       `env:"EDIT_THRESHOLD" envDefault:"0.5"`
	GestaltThreshold float64       `env:"GESTALT_THRESHOLD" envDefault:"0.6"`
	MaxReveal        int           `env:"MAX_REVEAL" envDefault:"8"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
