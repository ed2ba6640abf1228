package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statsReset bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the lifetime breath count",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		out := cmd.OutOrStdout()
		if statsReset {
			if err := env.prefs.ResetBreaths(cmd.Context()); err != nil {
				return fmt.Errorf("reset breaths: %w", err)
			}
			fmt.Fprintf(out, "%s Breath count reset\n", color.GreenString("✓"))
			return nil
		}

		total, err := env.prefs.TotalBreaths(cmd.Context())
		if err != nil {
			return fmt.Errorf("read breaths: %w", err)
		}
		fmt.Fprintf(out, "Total breaths: %s\n", color.New(color.Bold).Sprint(total))
		return nil
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsReset, "reset", false, "Reset the lifetime breath count to zero")
}
