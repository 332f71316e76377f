// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Maintenance MaintenanceConfig `toml:"maintenance"`
	Currency    CurrencyConfig    `toml:"currency"`
	Stats       StatsConfig       `toml:"stats"`
}

// MaintenanceConfig maps default maintenance limits.
type MaintenanceConfig struct {
	RoundsLimit *int `toml:"rounds-limit"`
	DaysLimit   *int `toml:"days-limit"`
}

// CurrencyConfig maps currency settings.
type CurrencyConfig struct {
	Base    *string `toml:"base"`
	Display *string `toml:"display"`
}

// StatsConfig maps report settings.
type StatsConfig struct {
	TrendWindow *int `toml:"trend-window"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// BaseCurrency returns the configured base currency or the fallback.
func (c FileConfig) BaseCurrency(fallback string) string {
	if c.Currency.Base == nil || *c.Currency.Base == "" {
		return fallback
	}
	return *c.Currency.Base
}
