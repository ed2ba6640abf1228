package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap holds the key bindings of the main view and the settings panel.
type KeyMap struct {
	StartStop key.Binding
	Pause     key.Binding
	Pattern   key.Binding
	Settings  key.Binding
	Close     key.Binding
	Reset     key.Binding
	Quit      key.Binding

	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	Preview key.Binding

	settingsOpen bool
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		StartStop: key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "start")),
		Pause:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause")),
		Pattern:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "pattern")),
		Settings:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "settings")),
		Close:     key.NewBinding(key.WithKeys("esc", "s"), key.WithHelp("esc", "close")),
		Reset:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset total")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/↓", "move")),
		Down:    key.NewBinding(key.WithKeys("down", "j")),
		Left:    key.NewBinding(key.WithKeys("left", "h", "-"), key.WithHelp("←/→", "adjust")),
		Right:   key.NewBinding(key.WithKeys("right", "l", "+")),
		Preview: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "preview")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	if k.settingsOpen {
		return []key.Binding{k.Up, k.Left, k.Preview, k.Close, k.Quit}
	}
	return []key.Binding{k.StartStop, k.Pause, k.Pattern, k.Settings, k.Reset, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.StartStop, k.Pause, k.Pattern},
		{k.Settings, k.Close, k.Reset, k.Quit},
		{k.Up, k.Left, k.Preview},
	}
}
