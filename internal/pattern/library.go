package pattern

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// patternsFile is the on-disk layout of a user patterns file:
//
//	patterns:
//	  - name: Triangle
//	    inhale: 4
//	    hold1: 4
//	    exhale: 4
type patternsFile struct {
	Patterns []Pattern `yaml:"patterns"`
}

// LoadFile reads extra patterns from a YAML file. A missing file yields no patterns.
func LoadFile(path string) ([]Pattern, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read patterns file: %w", err)
	}

	var f patternsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse patterns file %s: %w", path, err)
	}

	out := make([]Pattern, 0, len(f.Patterns))
	for i, p := range f.Patterns {
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			p.Name = fmt.Sprintf("Pattern %d", i+1)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p.Name, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// Library is the ordered list of selectable patterns: the presets, with the
// custom slot at CustomIndex, followed by patterns loaded from a file.
type Library struct {
	patterns []Pattern
}

// NewLibrary builds a library from the presets plus extra patterns.
func NewLibrary(extra []Pattern) *Library {
	ps := Presets()
	ps = append(ps, extra...)
	return &Library{patterns: ps}
}

// Len returns the number of selectable patterns.
func (l *Library) Len() int {
	return len(l.patterns)
}

// All returns a copy of the library with custom substituted at CustomIndex.
func (l *Library) All(custom Pattern) []Pattern {
	out := make([]Pattern, len(l.patterns))
	copy(out, l.patterns)
	out[CustomIndex] = custom
	return out
}

// Resolve returns the pattern at index, using custom for the custom slot.
// An out-of-range index falls back to the first preset.
func (l *Library) Resolve(index int, custom Pattern) Pattern {
	if index == CustomIndex {
		return custom
	}
	if index < 0 || index >= len(l.patterns) {
		return l.patterns[0]
	}
	return l.patterns[index]
}

// Next returns the index after index, wrapping to zero.
func (l *Library) Next(index int) int {
	if index < 0 || index >= len(l.patterns)-1 {
		return 0
	}
	return index + 1
}

// Find returns the index of the pattern whose name matches (case-insensitive).
func (l *Library) Find(name string) (int, bool) {
	for i, p := range l.patterns {
		if strings.EqualFold(p.Name, name) {
			return i, true
		}
	}
	return 0, false
}
