package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/clouxart/breathe/internal/breath"
	"github.com/clouxart/breathe/internal/pattern"
)

const (
	orbMinScale = 0.5
	orbIdle     = 0.7
)

var phaseColors = map[pattern.Phase]lipgloss.Color{
	pattern.PhaseIdle:   lipgloss.Color("243"),
	pattern.PhaseInhale: lipgloss.Color("#4ECDC4"),
	pattern.PhaseHold1:  lipgloss.Color("#45B7D1"),
	pattern.PhaseExhale: lipgloss.Color("#96E6A1"),
	pattern.PhaseHold2:  lipgloss.Color("#FFC857"),
}

// OrbScale returns the orb size in [0.5, 1] for a snapshot. The orb grows
// through inhale, stays full on the first hold, shrinks through exhale and
// stays small on the second hold.
func OrbScale(s breath.Snapshot) float64 {
	if !s.Running {
		return orbIdle
	}
	span := 1 - orbMinScale
	switch s.Phase {
	case pattern.PhaseInhale:
		return orbMinScale + span*s.Progress
	case pattern.PhaseHold1:
		return 1
	case pattern.PhaseExhale:
		return 1 - span*s.Progress
	case pattern.PhaseHold2:
		return orbMinScale
	}
	return orbIdle
}

// Orb draws the breathing disc.
type Orb struct {
	// radius is the full-size radius in rows.
	radius int
}

// NewOrb creates an orb with the given full-size radius in rows.
func NewOrb(radius int) *Orb {
	if radius < 2 {
		radius = 2
	}
	return &Orb{radius: radius}
}

// SetRadius changes the full-size radius.
func (o *Orb) SetRadius(radius int) {
	if radius < 2 {
		radius = 2
	}
	o.radius = radius
}

// Height returns the number of rows the orb occupies.
func (o *Orb) Height() int {
	return 2*o.radius + 1
}

// View renders the orb for s. The canvas size is fixed so the layout does not
// jump while the disc grows and shrinks. Cells are twice as tall as they are
// wide, so columns are scaled by two.
func (o *Orb) View(s breath.Snapshot) string {
	r := OrbScale(s) * float64(o.radius)
	color := phaseColors[s.Phase]
	if s.Paused {
		color = lipgloss.Color("240")
	}
	fill := lipgloss.NewStyle().Foreground(color)
	edge := lipgloss.NewStyle().Foreground(color).Faint(true)

	var b strings.Builder
	for y := -o.radius; y <= o.radius; y++ {
		for x := -2 * o.radius; x <= 2*o.radius; x++ {
			d := math.Hypot(float64(x)/2, float64(y))
			switch {
			case d <= r-0.5:
				b.WriteString(fill.Render("█"))
			case d <= r+0.5:
				b.WriteString(edge.Render("░"))
			default:
				b.WriteByte(' ')
			}
		}
		if y < o.radius {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
