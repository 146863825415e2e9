// Package config holds the CLI's layered configuration.
//
// Values are resolved from lowest to highest precedence: built-in defaults,
// an optional YAML file, ICETIME_* environment variables, and finally
// explicitly set command-line flags (applied by the cli package).
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/roach88/icetime/internal/store"
)

// Sentinel error kinds for this package.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

// Config is the resolved CLI configuration.
type Config struct {
	// DataDir is the root of the data layout.
	DataDir string `koanf:"data_dir"`

	// Season selects the season partition, e.g. "20232024".
	Season string `koanf:"season"`

	// GameType is the upstream game-type code (2 regular season, 3 playoffs).
	GameType int `koanf:"game_type"`

	// Workers bounds batch concurrency.
	Workers int `koanf:"workers"`

	// Formats lists output encodings. Entries may be comma-separated.
	Formats []string `koanf:"formats"`

	// MetricsFile, when set, receives batch metrics in Prometheus text format.
	MetricsFile string `koanf:"metrics_file"`

	// KeepUnverified writes timelines that fail reconciliation to the
	// unverified directory.
	KeepUnverified bool `koanf:"keep_unverified"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		DataDir:  "data",
		GameType: 2,
		Workers:  runtime.NumCPU(),
		Formats:  []string{string(store.FormatJSON), string(store.FormatCSV)},
	}
}

// OutputFormats parses Formats.
func (c *Config) OutputFormats() ([]store.Format, error) {
	var names []string
	for _, f := range c.Formats {
		for _, part := range strings.Split(f, ",") {
			if part = strings.TrimSpace(part); part != "" {
				names = append(names, part)
			}
		}
	}
	formats, err := store.ParseFormats(names)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return formats, nil
}

// Validate checks the resolved values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.GameType < 1 || c.GameType > 99 {
		return fmt.Errorf("%w: game_type %d out of range", ErrInvalidConfig, c.GameType)
	}
	if _, err := c.OutputFormats(); err != nil {
		return err
	}
	return nil
}
