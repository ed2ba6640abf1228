package tui

import (
	"time"

	"github.com/clouxart/breathe/internal/breath"
	"github.com/clouxart/breathe/internal/pattern"
)

// EngineEventMsg wraps an engine event for the TUI.
type EngineEventMsg struct {
	Event breath.Event
}

// PatternsReloadedMsg carries the user patterns after the pattern file changed.
type PatternsReloadedMsg struct {
	Patterns []pattern.Pattern
	Err      error
}

// TotalBreathsMsg reports the lifetime breath count after it was saved.
type TotalBreathsMsg struct {
	Total int
}

// frameMsg redraws the orb between engine events.
type frameMsg time.Time
