// Package loader handles configuration file loading for beacond.
//
// Configuration is YAML with environment variable expansion. Every field
// has a default from the config package; CLI flags in main override the
// file.
package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/xtxerr/beacon/config"
)

// Config is the root configuration structure for beacond.
type Config struct {
	// Listen is the server listen address.
	// Format: "host:port" or ":port"
	// Default: "0.0.0.0:8080"
	Listen string `yaml:"listen"`

	// Database configures the embedded store.
	Database DatabaseConfig `yaml:"database"`

	// Log configures output format and level.
	Log LogConfig `yaml:"log"`

	// Metrics configures the ingest summary loop.
	Metrics MetricsConfig `yaml:"metrics"`
}

// DatabaseConfig configures the embedded SQLite store.
type DatabaseConfig struct {
	// Path is the database file. Created if absent.
	Path string `yaml:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// JSON switches output from text to JSON.
	JSON bool `yaml:"json"`
}

// MetricsConfig configures the periodic ingest summary.
type MetricsConfig struct {
	// IntervalSec is the summary cadence in seconds. Zero disables it.
	IntervalSec int `yaml:"interval_sec"`
}

// DefaultConfig returns a config with all defaults applied.
func DefaultConfig() *Config {
	return &Config{
		Listen: config.DefaultListenAddress,
		Database: DatabaseConfig{
			Path: config.DefaultDatabasePath,
		},
		Log: LogConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			IntervalSec: config.DefaultMetricsIntervalSec,
		},
	}
}

// Load loads configuration from a YAML file. Environment variables in the
// file are expanded before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}
