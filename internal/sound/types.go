// Package sound turns engine events into audio cues, ambient loops and
// haptic feedback. Every failure here is logged and swallowed so the cycle
// engine is never held up by a side effect.
package sound

import (
	"fmt"
	"strings"
)

// SoundType is the phase indicator voice.
type SoundType string

const (
	SoundBell        SoundType = "bell"
	SoundChime       SoundType = "chime"
	SoundBowl        SoundType = "bowl"
	SoundGong        SoundType = "gong"
	SoundSingingBowl SoundType = "singing-bowl"
	SoundNone        SoundType = "none"
)

// SoundTypes lists the indicator voices in settings order.
var SoundTypes = []SoundType{SoundBell, SoundChime, SoundBowl, SoundGong, SoundSingingBowl, SoundNone}

// AmbientType is a looping background sound.
type AmbientType string

const (
	AmbientOcean      AmbientType = "ocean"
	AmbientRain       AmbientType = "rain"
	AmbientForest     AmbientType = "forest"
	AmbientBirds      AmbientType = "birds"
	AmbientThunder    AmbientType = "thunder"
	AmbientWind       AmbientType = "wind"
	AmbientWhiteNoise AmbientType = "whitenoise"
	AmbientNone       AmbientType = "none"
)

// AmbientTypes lists the ambient sounds in settings order.
var AmbientTypes = []AmbientType{
	AmbientNone, AmbientOcean, AmbientRain, AmbientForest,
	AmbientBirds, AmbientThunder, AmbientWind, AmbientWhiteNoise,
}

// File returns the file name of the ambient sound inside the sounds directory.
func (a AmbientType) File() string {
	switch a {
	case AmbientNone, "":
		return ""
	case AmbientWhiteNoise:
		return "white-noise.wav"
	default:
		return string(a) + ".mp3"
	}
}

// ParseSoundType parses an indicator voice name.
func ParseSoundType(s string) (SoundType, error) {
	t := SoundType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range SoundTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown sound type %q", s)
}

// ParseAmbientType parses an ambient sound name.
func ParseAmbientType(s string) (AmbientType, error) {
	t := AmbientType(strings.ToLower(strings.TrimSpace(s)))
	if t == "white-noise" {
		t = AmbientWhiteNoise
	}
	for _, known := range AmbientTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown ambient type %q", s)
}

// Config is the persisted sound configuration. JSON names match the stored
// soundConfig value.
type Config struct {
	PhaseIndicator  SoundType   `json:"phaseIndicator"`
	Ambient         AmbientType `json:"ambient"`
	AmbientVolume   float64     `json:"ambientVolume"`
	IndicatorVolume float64     `json:"indicatorVolume"`
	Enabled         bool        `json:"enabled"`
}

// DefaultConfig returns the configuration used before anything is saved.
func DefaultConfig() Config {
	return Config{
		PhaseIndicator:  SoundBell,
		Ambient:         AmbientNone,
		AmbientVolume:   0.3,
		IndicatorVolume: 0.5,
		Enabled:         false,
	}
}

// Normalize clamps volumes to [0, 1] and replaces unknown types with their
// defaults.
func (c Config) Normalize() Config {
	def := DefaultConfig()
	if k, err := ParseSoundType(string(c.PhaseIndicator)); err == nil {
		c.PhaseIndicator = k
	} else {
		c.PhaseIndicator = def.PhaseIndicator
	}
	if a, err := ParseAmbientType(string(c.Ambient)); err == nil {
		c.Ambient = a
	} else {
		c.Ambient = def.Ambient
	}
	c.AmbientVolume = clamp01(c.AmbientVolume)
	c.IndicatorVolume = clamp01(c.IndicatorVolume)
	return c
}

func clamp01(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
