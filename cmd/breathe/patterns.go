package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/clouxart/breathe/internal/pattern"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "List breathing patterns",
	Long: `List the selectable breathing patterns.

The built-in patterns come first, then any patterns from the file set by
patterns.file, for example:

  patterns:
    - name: Triangle
      inhale: 4
      hold1: 4
      exhale: 4
      description: Even three-part breath`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		saved := env.prefs.Load(cmd.Context())
		printPatterns(cmd.OutOrStdout(), env.library.All(saved.Custom), saved.PatternIndex)
		return nil
	},
}

// printPatterns writes one line per pattern, marking the selected one.
func printPatterns(out io.Writer, patterns []pattern.Pattern, selected int) {
	dim := color.New(color.Faint)
	for i, p := range patterns {
		marker := " "
		name := p.Name
		if i == selected {
			marker = color.GreenString("*")
			name = color.New(color.Bold).Sprint(p.Name)
		}
		fmt.Fprintf(out, "%s %2d  %-18s %-9s %s\n", marker, i, name, p.String(), dim.Sprint(p.Description))
	}
}
