package sound

import (
	"io"
	"sync"
)

// Style is the strength of a haptic impact.
type Style int

const (
	Light Style = iota
	Medium
	Heavy
)

// Haptics gives physical feedback where the platform has it.
type Haptics interface {
	Impact(style Style)
}

// TerminalHaptics rings the terminal bell for heavy impacts only.
type TerminalHaptics struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTerminalHaptics returns haptics writing to w.
func NewTerminalHaptics(w io.Writer) *TerminalHaptics {
	return &TerminalHaptics{w: w}
}

// Impact implements Haptics.
func (h *TerminalHaptics) Impact(style Style) {
	if style != Heavy {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	io.WriteString(h.w, "\a")
}

// NopHaptics ignores every impact.
type NopHaptics struct{}

func (NopHaptics) Impact(Style) {}
