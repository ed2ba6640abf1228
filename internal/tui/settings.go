package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/clouxart/breathe/internal/pattern"
	"github.com/clouxart/breathe/internal/sound"
)

// settingsRow identifies one editable line of the settings panel.
type settingsRow int

const (
	rowPattern settingsRow = iota
	rowInhale
	rowHold1
	rowExhale
	rowHold2
	rowSound
	rowIndicator
	rowIndicatorVolume
	rowAmbient
	rowAmbientVolume
)

// volumeStep is the change applied by one ←/→ press on a volume row.
const volumeStep = 0.1

var durationRows = map[settingsRow]pattern.Phase{
	rowInhale: pattern.PhaseInhale,
	rowHold1:  pattern.PhaseHold1,
	rowExhale: pattern.PhaseExhale,
	rowHold2:  pattern.PhaseHold2,
}

// settingsState is what the panel displays.
type settingsState struct {
	patterns     []pattern.Pattern
	patternIndex int
	custom       pattern.Pattern
	sound        sound.Config
}

func (s settingsState) customSelected() bool {
	return s.patternIndex == pattern.CustomIndex
}

// Settings is the settings panel. Only the cursor lives here; the values are
// owned by the App.
type Settings struct {
	cursor int
	width  int

	titleStyle    lipgloss.Style
	labelStyle    lipgloss.Style
	selectedStyle lipgloss.Style
	valueStyle    lipgloss.Style
	boxStyle      lipgloss.Style
}

// NewSettings creates the settings panel.
func NewSettings() *Settings {
	return &Settings{
		titleStyle:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4ECDC4")),
		labelStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		selectedStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC857")).Bold(true),
		valueStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
		boxStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 3),
	}
}

// SetWidth sets the available width.
func (s *Settings) SetWidth(width int) {
	s.width = width
}

// rows returns the visible rows. Duration rows only show for the custom
// pattern.
func (s *Settings) rows(st settingsState) []settingsRow {
	rows := []settingsRow{rowPattern}
	if st.customSelected() {
		rows = append(rows, rowInhale, rowHold1, rowExhale, rowHold2)
	}
	rows = append(rows, rowSound)
	if st.sound.Enabled {
		rows = append(rows, rowIndicator)
		if st.sound.PhaseIndicator != sound.SoundNone {
			rows = append(rows, rowIndicatorVolume)
		}
		rows = append(rows, rowAmbient)
		if st.sound.Ambient != sound.AmbientNone {
			rows = append(rows, rowAmbientVolume)
		}
	}
	return rows
}

// Move moves the cursor by delta, wrapping around.
func (s *Settings) Move(delta int, st settingsState) {
	n := len(s.rows(st))
	s.cursor = ((s.cursor+delta)%n + n) % n
}

// Current returns the row under the cursor, clamping the cursor when rows
// disappeared.
func (s *Settings) Current(st settingsState) settingsRow {
	rows := s.rows(st)
	if s.cursor >= len(rows) {
		s.cursor = len(rows) - 1
	}
	return rows[s.cursor]
}

// Reset moves the cursor back to the first row.
func (s *Settings) Reset() {
	s.cursor = 0
}

// View renders the panel.
func (s *Settings) View(st settingsState) string {
	current := s.Current(st)

	var b strings.Builder
	b.WriteString(s.titleStyle.Render("Settings"))
	b.WriteString("\n\n")

	for _, row := range s.rows(st) {
		label, value := s.describe(row, st)
		cursor := "  "
		labelStyle := s.labelStyle
		if row == current {
			cursor = "▸ "
			labelStyle = s.selectedStyle
		}
		b.WriteString(cursor)
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-18s", label)))
		b.WriteString(s.valueStyle.Render(value))
		b.WriteString("\n")
	}

	if st.patternIndex < len(st.patterns) {
		if desc := st.patterns[st.patternIndex].Description; desc != "" {
			b.WriteString("\n")
			b.WriteString(s.labelStyle.Italic(true).Render(desc))
		}
	}

	return s.boxStyle.Render(b.String())
}

func (s *Settings) describe(row settingsRow, st settingsState) (string, string) {
	switch row {
	case rowPattern:
		name := ""
		if st.patternIndex < len(st.patterns) {
			p := st.patterns[st.patternIndex]
			name = fmt.Sprintf("%s (%s)", p.Name, p)
		}
		return "Pattern", "◂ " + name + " ▸"
	case rowInhale, rowHold1, rowExhale, rowHold2:
		ph := durationRows[row]
		return "  " + ph.Label(), fmt.Sprintf("◂ %2ds ▸", st.custom.Duration(ph))
	case rowSound:
		if st.sound.Enabled {
			return "Sound", "on"
		}
		return "Sound", "off"
	case rowIndicator:
		return "Phase indicator", "◂ " + string(st.sound.PhaseIndicator) + " ▸"
	case rowIndicatorVolume:
		return "  Volume", volumeBar(st.sound.IndicatorVolume)
	case rowAmbient:
		return "Ambient", "◂ " + string(st.sound.Ambient) + " ▸"
	case rowAmbientVolume:
		return "  Volume", volumeBar(st.sound.AmbientVolume)
	}
	return "", ""
}

func volumeBar(v float64) string {
	filled := int(v*10 + 0.5)
	return strings.Repeat("■", filled) + strings.Repeat("□", 10-filled) + fmt.Sprintf(" %3d%%", int(v*100+0.5))
}
