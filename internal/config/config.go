// Package config handles configuration loading and management for breathe.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. BREATHE_API_ADDR.
const EnvPrefix = "BREATHE"

// Config holds all configuration for breathe.
type Config struct {
	Storage  StorageConfig  `mapstructure:"storage"`
	Audio    AudioConfig    `mapstructure:"audio"`
	TUI      TUIConfig      `mapstructure:"tui"`
	API      APIConfig      `mapstructure:"api"`
	Patterns PatternsConfig `mapstructure:"patterns"`
	Log      LogConfig      `mapstructure:"log"`
}

// StorageConfig selects the preference store.
type StorageConfig struct {
	// Driver is sqlite (pure Go), sqlite3 (cgo) or memory.
	Driver string `mapstructure:"driver"`
	// Path is the database file. Empty means the XDG data directory.
	Path string `mapstructure:"path"`
}

// AudioConfig holds audio output settings.
type AudioConfig struct {
	// Player is the command used to play sounds, "bell", "none", or empty to
	// detect one on PATH.
	Player    string `mapstructure:"player"`
	SoundsDir string `mapstructure:"sounds_dir"`
}

// TUIConfig holds TUI display settings.
type TUIConfig struct {
	RefreshRate time.Duration `mapstructure:"refresh_rate"`
	AltScreen   bool          `mapstructure:"alt_screen"`
}

// APIConfig holds the HTTP control API settings.
type APIConfig struct {
	Addr string `mapstructure:"addr"`
}

// PatternsConfig points at the user pattern file.
type PatternsConfig struct {
	File string `mapstructure:"file"`
}

// LogConfig holds debug logging settings.
type LogConfig struct {
	Debug bool   `mapstructure:"debug"`
	File  string `mapstructure:"file"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (BREATHE_STORAGE_DRIVER, ...)
// 2. Project config (.breathe.yaml in current directory or parent)
// 3. User config (~/.config/breathe/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific file. Defaults and
// environment overrides still apply.
func LoadFromPath(path string) (*Config, error) {
	v := newViper()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Storage.Path = expandPath(cfg.Storage.Path)
	cfg.Audio.SoundsDir = expandPath(cfg.Audio.SoundsDir)
	cfg.Patterns.File = expandPath(cfg.Patterns.File)
	cfg.Log.File = expandPath(cfg.Log.File)
	return cfg, nil
}

// Save writes the configuration to the user config file.
func Save(cfg *Config) error {
	return SaveTo(cfg, GetUserConfigPath())
}

// SaveTo writes the configuration to path.
func SaveTo(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.Set("storage.driver", cfg.Storage.Driver)
	v.Set("storage.path", cfg.Storage.Path)
	v.Set("audio.player", cfg.Audio.Player)
	v.Set("audio.sounds_dir", cfg.Audio.SoundsDir)
	v.Set("tui.refresh_rate", cfg.TUI.RefreshRate.String())
	v.Set("tui.alt_screen", cfg.TUI.AltScreen)
	v.Set("api.addr", cfg.API.Addr)
	v.Set("patterns.file", cfg.Patterns.File)
	v.Set("log.debug", cfg.Log.Debug)
	v.Set("log.file", cfg.Log.File)

	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// DefaultPatternsFile returns the default user pattern file.
func DefaultPatternsFile() string {
	return filepath.Join(getUserConfigDir(), "patterns.yaml")
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("audio.player", d.Audio.Player)
	v.SetDefault("audio.sounds_dir", d.Audio.SoundsDir)
	v.SetDefault("tui.refresh_rate", d.TUI.RefreshRate.String())
	v.SetDefault("tui.alt_screen", d.TUI.AltScreen)
	v.SetDefault("api.addr", d.API.Addr)
	v.SetDefault("patterns.file", d.Patterns.File)
	v.SetDefault("log.debug", d.Log.Debug)
	v.SetDefault("log.file", d.Log.File)
}

// getUserConfigDir returns the XDG config directory for breathe.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "breathe")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "breathe")
	}
	return filepath.Join(home, ".config", "breathe")
}

// findProjectConfig searches for .breathe.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".breathe.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandPath expands ${VAR} references and a leading ~/.
func expandPath(s string) string {
	s = os.ExpandEnv(s)
	if strings.HasPrefix(s, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			s = filepath.Join(home, s[2:])
		}
	}
	return s
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Driver: "sqlite",
		},
		TUI: TUIConfig{
			RefreshRate: 50 * time.Millisecond,
			AltScreen:   true,
		},
		API: APIConfig{
			Addr: "127.0.0.1:7878",
		},
		Patterns: PatternsConfig{
			File: DefaultPatternsFile(),
		},
	}
}
