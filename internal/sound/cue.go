package sound

import (
	"time"

	"github.com/clouxart/breathe/internal/pattern"
)

// Wave is an oscillator shape.
type Wave int

const (
	Sine Wave = iota
	Triangle
)

// Voice is one oscillator in a cue. Gain is relative to the indicator volume.
type Voice struct {
	Freq     float64
	Wave     Wave
	Duration time.Duration
	Gain     float64
	Offset   time.Duration
}

// chime notes, played 100ms apart.
var chimeNotes = []float64{659.25, 783.99, 987.77} // E5 G5 B5

const chimeSpacing = 100 * time.Millisecond

// Cues reports whether kind plays at the start of phase.
func Cues(kind SoundType, phase pattern.Phase) bool {
	switch kind {
	case SoundBell, SoundChime, SoundBowl, SoundSingingBowl:
		return phase == pattern.PhaseInhale || phase == pattern.PhaseExhale
	case SoundGong:
		return phase == pattern.PhaseInhale
	default:
		return false
	}
}

// Voices returns the oscillators that make up the cue for kind at phase, or
// nil when the phase is silent.
func Voices(kind SoundType, phase pattern.Phase) []Voice {
	if !Cues(kind, phase) {
		return nil
	}

	switch kind {
	case SoundBell:
		return []Voice{
			{Freq: 523.25, Duration: 1500 * time.Millisecond, Gain: 0.5},  // C5
			{Freq: 1046.5, Duration: 1000 * time.Millisecond, Gain: 0.3},  // C6
			{Freq: 1567.98, Duration: 800 * time.Millisecond, Gain: 0.2}, // G6
		}
	case SoundChime:
		notes := make([]Voice, len(chimeNotes))
		for i := range chimeNotes {
			freq := chimeNotes[i]
			if phase == pattern.PhaseExhale {
				freq = chimeNotes[len(chimeNotes)-1-i]
			}
			notes[i] = Voice{
				Freq:     freq,
				Duration: 800 * time.Millisecond,
				Gain:     0.4,
				Offset:   time.Duration(i) * chimeSpacing,
			}
		}
		return notes
	case SoundBowl:
		return []Voice{
			{Freq: 136.1, Duration: 3 * time.Second, Gain: 0.4},          // C#3
			{Freq: 272.2, Duration: 2500 * time.Millisecond, Gain: 0.3}, // C#4
			{Freq: 544.4, Duration: 2 * time.Second, Gain: 0.2},          // C#5
			{Freq: 816.6, Duration: 1500 * time.Millisecond, Gain: 0.1}, // G#5
		}
	case SoundGong:
		return []Voice{
			{Freq: 55, Duration: 4 * time.Second, Gain: 0.5},                           // A1
			{Freq: 110, Duration: 3500 * time.Millisecond, Gain: 0.4},                  // A2
			{Freq: 220, Duration: 3 * time.Second, Gain: 0.3},                          // A3
			{Freq: 440, Wave: Triangle, Duration: 2500 * time.Millisecond, Gain: 0.2}, // A4
		}
	case SoundSingingBowl:
		return []Voice{
			{Freq: 440, Duration: 3 * time.Second, Gain: 0.4},           // A4
			{Freq: 880, Duration: 2500 * time.Millisecond, Gain: 0.3},  // A5
			{Freq: 1320, Duration: 2 * time.Second, Gain: 0.2},          // E6
			{Freq: 1760, Duration: 1500 * time.Millisecond, Gain: 0.1}, // A6
		}
	}
	return nil
}
