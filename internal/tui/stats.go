package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/clouxart/breathe/internal/breath"
)

// StatsView renders the session clock and breath counters.
type StatsView struct {
	labelStyle lipgloss.Style
	valueStyle lipgloss.Style
}

// NewStatsView creates a new StatsView.
func NewStatsView() *StatsView {
	return &StatsView{
		labelStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		valueStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Bold(true),
	}
}

// View renders the stats row.
func (s *StatsView) View(snap breath.Snapshot, totalBreaths int) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		s.renderRow("Session", FormatClock(snap.SessionSeconds)),
		"    ",
		s.renderRow("Cycles", fmt.Sprintf("%d", snap.Cycles)),
		"    ",
		s.renderRow("Total breaths", fmt.Sprintf("%d", totalBreaths)),
	)
}

// renderRow renders a label-value pair.
func (s *StatsView) renderRow(label, value string) string {
	return s.labelStyle.Render(label+":") + " " + s.valueStyle.Render(value)
}

// FormatClock renders seconds as m:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
