// Package pattern defines breathing patterns and the phases they are made of.
package pattern

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Phase is one step of a breathing cycle.
type Phase string

const (
	PhaseIdle   Phase = "idle"
	PhaseInhale Phase = "inhale"
	PhaseHold1  Phase = "hold1"
	PhaseExhale Phase = "exhale"
	PhaseHold2  Phase = "hold2"
)

// CyclePhases lists the phases of one cycle in order.
var CyclePhases = []Phase{PhaseInhale, PhaseHold1, PhaseExhale, PhaseHold2}

// Next returns the phase that follows p in a cycle. Idle starts at inhale.
func (p Phase) Next() Phase {
	switch p {
	case PhaseInhale:
		return PhaseHold1
	case PhaseHold1:
		return PhaseExhale
	case PhaseExhale:
		return PhaseHold2
	default:
		return PhaseInhale
	}
}

// Label returns the instruction shown to the user for the phase.
func (p Phase) Label() string {
	switch p {
	case PhaseInhale:
		return "Breathe in"
	case PhaseHold1:
		return "Hold breath"
	case PhaseExhale:
		return "Breathe out"
	case PhaseHold2:
		return "Hold empty"
	default:
		return "Begin"
	}
}

// Limits on phase durations, in seconds.
const (
	MaxSeconds       = 60
	MaxCustomSeconds = 10
)

var (
	// ErrEmptyPattern is returned for a pattern whose phases are all zero.
	ErrEmptyPattern = errors.New("pattern has no non-zero phase")
	// ErrInvalidDuration is returned for a negative or oversized phase.
	ErrInvalidDuration = errors.New("invalid phase duration")
)

// Pattern is a named set of phase durations in whole seconds.
type Pattern struct {
	Name        string `json:"name" yaml:"name"`
	Inhale      int    `json:"inhale" yaml:"inhale"`
	Hold1       int    `json:"hold1" yaml:"hold1"`
	Exhale      int    `json:"exhale" yaml:"exhale"`
	Hold2       int    `json:"hold2" yaml:"hold2"`
	Description string `json:"description" yaml:"description"`
}

// Duration returns the length of phase in seconds.
func (p Pattern) Duration(phase Phase) int {
	switch phase {
	case PhaseInhale:
		return p.Inhale
	case PhaseHold1:
		return p.Hold1
	case PhaseExhale:
		return p.Exhale
	case PhaseHold2:
		return p.Hold2
	default:
		return 0
	}
}

// ActivePhases returns the phases with a non-zero duration, in cycle order.
func (p Pattern) ActivePhases() []Phase {
	phases := make([]Phase, 0, len(CyclePhases))
	for _, ph := range CyclePhases {
		if p.Duration(ph) > 0 {
			phases = append(phases, ph)
		}
	}
	return phases
}

// CycleSeconds returns the length of one full cycle.
func (p Pattern) CycleSeconds() int {
	return p.Inhale + p.Hold1 + p.Exhale + p.Hold2
}

// Validate checks that every phase is within [0, MaxSeconds] and at least one is non-zero.
func (p Pattern) Validate() error {
	return p.validate(MaxSeconds)
}

// ValidateCustom applies the tighter bound used for user-edited durations.
func (p Pattern) ValidateCustom() error {
	return p.validate(MaxCustomSeconds)
}

func (p Pattern) validate(limit int) error {
	for _, ph := range CyclePhases {
		d := p.Duration(ph)
		if d < 0 || d > limit {
			return fmt.Errorf("%s=%d (allowed 0-%d): %w", ph, d, limit, ErrInvalidDuration)
		}
	}
	if p.CycleSeconds() == 0 {
		return ErrEmptyPattern
	}
	return nil
}

// String renders the durations as "inhale-hold1-exhale-hold2".
func (p Pattern) String() string {
	return fmt.Sprintf("%d-%d-%d-%d", p.Inhale, p.Hold1, p.Exhale, p.Hold2)
}

// WithDuration returns a copy of p with phase set to seconds.
func (p Pattern) WithDuration(phase Phase, seconds int) Pattern {
	switch phase {
	case PhaseInhale:
		p.Inhale = seconds
	case PhaseHold1:
		p.Hold1 = seconds
	case PhaseExhale:
		p.Exhale = seconds
	case PhaseHold2:
		p.Hold2 = seconds
	}
	return p
}

// Parse reads durations in the "4-7-8-0" form. The result is named "Custom".
func Parse(s string) (Pattern, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 4 {
		return Pattern{}, fmt.Errorf("parse pattern %q: want 4 durations separated by '-'", s)
	}
	vals := make([]int, 4)
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Pattern{}, fmt.Errorf("parse pattern %q: %w", s, err)
		}
		vals[i] = n
	}
	p := Pattern{
		Name:        "Custom",
		Inhale:      vals[0],
		Hold1:       vals[1],
		Exhale:      vals[2],
		Hold2:       vals[3],
		Description: "Create your own pattern",
	}
	if err := p.Validate(); err != nil {
		return Pattern{}, fmt.Errorf("parse pattern %q: %w", s, err)
	}
	return p, nil
}

// CustomIndex is the preset slot that holds the user's own durations.
const CustomIndex = 4

// Presets returns the built-in patterns. The slice is a fresh copy.
func Presets() []Pattern {
	return []Pattern{
		{Name: "Box Breathing", Inhale: 4, Hold1: 4, Exhale: 4, Hold2: 4, Description: "Navy SEALs technique for focus"},
		{Name: "4-7-8 Breathing", Inhale: 4, Hold1: 7, Exhale: 8, Hold2: 0, Description: "Dr. Weil's technique for sleep"},
		{Name: "Wim Hof", Inhale: 2, Hold1: 0, Exhale: 2, Hold2: 0, Description: "Quick energizing breaths"},
		{Name: "Calm", Inhale: 5, Hold1: 0, Exhale: 5, Hold2: 0, Description: "Simple relaxation pattern"},
		DefaultCustom(),
	}
}

// DefaultCustom returns the initial value of the custom slot.
func DefaultCustom() Pattern {
	return Pattern{Name: "Custom", Inhale: 4, Hold1: 4, Exhale: 4, Hold2: 4, Description: "Create your own pattern"}
}
