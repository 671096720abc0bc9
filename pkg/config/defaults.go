package config

import (
	"fmt"
	"strings"
)

// Default configuration values.
const (
	DefaultLogLevel  = "INFO"
	DefaultLogFormat = "text"
	DefaultLogOutput = "stderr"

	DefaultIndexPath = "index.db2.x"
	DefaultDataPath  = "data.db2.x"
)

// GetDefaultConfig returns a Config populated with default values.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in zero values with defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = DefaultLogOutput
	}
	if cfg.Store.IndexPath == "" {
		cfg.Store.IndexPath = DefaultIndexPath
	}
	if cfg.Store.DataPath == "" {
		cfg.Store.DataPath = DefaultDataPath
	}
}

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	switch strings.ToUpper(cfg.Logging.Level) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("invalid logging level %q (want DEBUG, INFO, WARN or ERROR)", cfg.Logging.Level)
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid logging format %q (want text or json)", cfg.Logging.Format)
	}

	if cfg.Store.IndexPath == "" {
		return fmt.Errorf("store.index_path must not be empty")
	}
	if cfg.Store.DataPath == "" {
		return fmt.Errorf("store.data_path must not be empty")
	}
	if cfg.Store.IndexPath == cfg.Store.DataPath {
		return fmt.Errorf("store.index_path and store.data_path must differ")
	}

	return nil
}
