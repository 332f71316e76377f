package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvConfig holds overrides read from the environment.
type EnvConfig struct {
	ConfigPath string `env:"RANGEBOOK_CONFIG"`
	DBPath     string `env:"RANGEBOOK_DB"`
	LogMode    string `env:"RANGEBOOK_LOG" envDefault:"dev"`
	LogLevel   string `env:"RANGEBOOK_LOG_LEVEL" envDefault:"warn"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadEnv reads EnvConfig and fills empty paths with the XDG defaults.
func LoadEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := ParseEnv(&cfg); err != nil {
		return EnvConfig{}, err
	}
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = DefaultConfigPath()
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath()
	}
	return cfg, nil
}
