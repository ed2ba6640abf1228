package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	flagEphemeral bool
	flagDebug     bool
	flagConfig    string
)

var rootCmd = &cobra.Command{
	Use:   "breathe",
	Short: "Guided breathing timer",
	Long: `Breathe paces you through breathing patterns such as box breathing
and 4-7-8, with an animated orb, optional sound cues and ambient audio.

With no arguments, launches the interactive TUI.

Other ways to use it:
- breathe run      plain terminal session, good for scripts and small screens
- breathe serve    local HTTP API to drive sessions from other tools
- breathe preview  listen to indicator and ambient sounds`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()
		return runTUI(cmd.Context(), env)
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagEphemeral, "ephemeral", false, "Keep preferences in memory only")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Write a debug log")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default ~/.config/breathe/config.yaml)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(patternsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(versionCmd)
}
