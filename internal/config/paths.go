package config

import (
	"os"
	"path/filepath"
)

// DirEnv overrides the configuration directory
const DirEnv = "MAPSTORE_PLUGINS_CONFIG_DIR"

// Dir returns the mapstore-plugins config directory path
// ~/.config/mapstore-plugins/
func Dir() string {
	if dir := os.Getenv(DirEnv); dir != "" {
		return dir
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = "~"
	}
	return filepath.Join(home, ".config", "mapstore-plugins")
}

// ConfigPath returns the config.json file path
// ~/.config/mapstore-plugins/config.json
func ConfigPath() string {
	return filepath.Join(Dir(), "config.json")
}

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
