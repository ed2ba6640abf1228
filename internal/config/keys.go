package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrUnknownKey is returned for a configuration key that does not exist.
var ErrUnknownKey = errors.New("unknown configuration key")

var storageDrivers = []string{"sqlite", "sqlite3", "memory"}

// Keys returns every configuration key in display order.
func Keys() []string {
	return []string{
		"storage.driver",
		"storage.path",
		"audio.player",
		"audio.sounds_dir",
		"tui.refresh_rate",
		"tui.alt_screen",
		"api.addr",
		"patterns.file",
		"log.debug",
		"log.file",
	}
}

// Get retrieves a configuration value by dot-notation key, formatted for display.
func Get(cfg *Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "storage.driver":
		return cfg.Storage.Driver, nil
	case "storage.path":
		return cfg.Storage.Path, nil
	case "audio.player":
		return cfg.Audio.Player, nil
	case "audio.sounds_dir":
		return cfg.Audio.SoundsDir, nil
	case "tui.refresh_rate":
		return cfg.TUI.RefreshRate.String(), nil
	case "tui.alt_screen":
		return strconv.FormatBool(cfg.TUI.AltScreen), nil
	case "api.addr":
		return cfg.API.Addr, nil
	case "patterns.file":
		return cfg.Patterns.File, nil
	case "log.debug":
		return strconv.FormatBool(cfg.Log.Debug), nil
	case "log.file":
		return cfg.Log.File, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
}

// Set sets a configuration value by dot-notation key, parsing it to the
// key's type.
func Set(cfg *Config, key, value string) error {
	switch strings.ToLower(key) {
	case "storage.driver":
		for _, d := range storageDrivers {
			if value == d {
				cfg.Storage.Driver = value
				return nil
			}
		}
		return fmt.Errorf("invalid storage driver %q (want one of %s)", value, strings.Join(storageDrivers, ", "))
	case "storage.path":
		cfg.Storage.Path = value
	case "audio.player":
		cfg.Audio.Player = value
	case "audio.sounds_dir":
		cfg.Audio.SoundsDir = value
	case "tui.refresh_rate":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for tui.refresh_rate: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("tui.refresh_rate must be positive")
		}
		cfg.TUI.RefreshRate = d
	case "tui.alt_screen":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for tui.alt_screen: %w", err)
		}
		cfg.TUI.AltScreen = b
	case "api.addr":
		cfg.API.Addr = value
	case "patterns.file":
		cfg.Patterns.File = value
	case "log.debug":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for log.debug: %w", err)
		}
		cfg.Log.Debug = b
	case "log.file":
		cfg.Log.File = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return nil
}
