package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
)

// Footer renders the status message and keyboard hints.
type Footer struct {
	message string
	isError bool
	width   int
	help    help.Model

	errorStyle   lipgloss.Style
	messageStyle lipgloss.Style
}

// NewFooter creates a new Footer instance.
func NewFooter() *Footer {
	return &Footer{
		help: help.New(),

		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),

		messageStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),
	}
}

// SetMessage sets the status message.
func (f *Footer) SetMessage(message string, isError bool) {
	f.message = message
	f.isError = isError
}

// Message returns the current status message.
func (f *Footer) Message() string {
	return f.message
}

// SetWidth sets the footer width.
func (f *Footer) SetWidth(width int) {
	f.width = width
	f.help.Width = width
}

// View renders the footer.
func (f *Footer) View(keys KeyMap) string {
	hints := f.help.View(keys)
	if f.message == "" {
		return hints
	}

	style := f.messageStyle
	if f.isError {
		style = f.errorStyle
	}
	return lipgloss.JoinVertical(lipgloss.Center, style.Render(f.message), hints)
}
