package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/clouxart/breathe/internal/pattern"
)

// Header renders the title and the current pattern.
type Header struct {
	width int
}

// NewHeader creates a new Header.
func NewHeader() *Header {
	return &Header{
		width: 80,
	}
}

// SetWidth sets the header width.
func (h *Header) SetWidth(width int) {
	h.width = width
}

// View renders the header for p.
func (h *Header) View(p pattern.Pattern) string {
	colors := []string{"#4ECDC4", "#45B7D1", "#96E6A1", "#FFC857", "#FF8E53", "#FF6B6B", "#96E6A1"}

	var title strings.Builder
	for i, r := range "breathe" {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(colors[i%len(colors)])).Bold(true)
		title.WriteString(style.Render(string(r)))
	}

	subtitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("243")).
		Italic(true).
		Render(fmt.Sprintf("%s (%s)", p.Name, p))

	style := lipgloss.NewStyle().
		Width(h.width).
		Align(lipgloss.Center).
		MarginTop(1).
		PaddingBottom(1)

	return style.Render(lipgloss.JoinVertical(lipgloss.Center, title.String(), subtitle))
}

// Height returns the header height in lines.
func (h *Header) Height() int {
	return 4 // 1 margin + title + subtitle + 1 padding
}
