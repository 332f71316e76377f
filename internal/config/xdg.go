package config

import (
	"os"
	"path/filepath"
)

const appDir = "rangebook"

// DefaultDBPath returns $XDG_DATA_HOME/rangebook/rangebook.db.
func DefaultDBPath() string {
	return appPath("XDG_DATA_HOME", []string{".local", "share"}, "rangebook.db")
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/rangebook/config.toml.
func DefaultConfigPath() string {
	return appPath("XDG_CONFIG_HOME", []string{".config"}, "config.toml")
}

// appPath places file in the app directory under the base directory named by
// envVar, or under homeFallback relative to the home directory when unset.
func appPath(envVar string, homeFallback []string, file string) string {
	base := os.Getenv(envVar)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			home = "."
		}
		base = filepath.Join(append([]string{home}, homeFallback...)...)
	}
	return filepath.Join(base, appDir, file)
}
