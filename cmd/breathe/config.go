package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/clouxart/breathe/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify breathe configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/breathe/config.yaml
Project-specific overrides can be placed in .breathe.yaml
Environment variables override both, e.g. BREATHE_API_ADDR.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch len(args) {
		case 0:
			return displayAllConfig(out, cfg)
		case 1:
			return displayConfigKey(out, cfg, args[0])
		default:
			return setConfigKey(out, cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(out io.Writer, cfg *config.Config) error {
	for _, key := range config.Keys() {
		value, err := config.Get(cfg, key)
		if err != nil {
			return err
		}
		if value == "" {
			value = "(not set)"
		}
		fmt.Fprintf(out, "%s: %s\n", key, value)
	}
	return nil
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(out io.Writer, cfg *config.Config, key string) error {
	value, err := config.Get(cfg, key)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, value)
	return nil
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(out io.Writer, cfg *config.Config, key, value string) error {
	if err := config.Set(cfg, key, value); err != nil {
		return err
	}

	path := flagConfig
	if path == "" {
		path = config.GetUserConfigPath()
	}
	if err := config.SaveTo(cfg, path); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Fprintf(out, "Set %s = %s\n", key, value)
	return nil
}
