package config

import (
	"os"
	"path/filepath"
)

// DefaultPath returns $XDG_CONFIG_HOME/canvasport/config.toml, falling back
// to ~/.config/canvasport/config.toml.
func DefaultPath() (string, error) {
	dir, err := xdg("XDG_CONFIG_HOME", ".config")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// CacheDir returns the image cache directory (~/.cache/canvasport/ by default).
func CacheDir() (string, error) {
	return xdg("XDG_CACHE_HOME", ".cache")
}

// DataDir returns the bundle storage directory (~/.local/share/canvasport/ by default).
func DataDir() (string, error) {
	return xdg("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdg(env, fallback string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, appName), nil
}
