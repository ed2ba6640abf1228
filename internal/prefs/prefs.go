// Package prefs persists the user's preferences and breath counter in a
// key-value store. Keys and JSON value shapes match the breathe web app's
// localStorage.
package prefs

import (
	"context"
	"fmt"
	"sync"

	"github.com/clouxart/breathe/internal/breath"
	"github.com/clouxart/breathe/internal/logging"
	"github.com/clouxart/breathe/internal/pattern"
	"github.com/clouxart/breathe/internal/sound"
	"github.com/clouxart/breathe/internal/store"
)

// Storage keys.
const (
	KeyPattern      = "breathingPattern"
	KeyCustom       = "customDurations"
	KeyTotalBreaths = "totalBreaths"
	KeySound        = "soundConfig"
)

// Prefs is the full set of persisted preferences.
type Prefs struct {
	PatternIndex int
	Custom       pattern.Pattern
	TotalBreaths int
	Sound        sound.Config
}

// Defaults returns the preferences used before anything is saved.
func Defaults() Prefs {
	return Prefs{
		PatternIndex: 0,
		Custom:       pattern.DefaultCustom(),
		TotalBreaths: 0,
		Sound:        sound.DefaultConfig(),
	}
}

// durations is the stored shape of the custom pattern.
type durations struct {
	Inhale int `json:"inhale"`
	Hold1  int `json:"hold1"`
	Exhale int `json:"exhale"`
	Hold2  int `json:"hold2"`
}

// Store reads and writes preferences.
type Store struct {
	kv     store.KV
	logger *logging.Logger

	// mu serialises read-modify-write updates of the counter.
	mu sync.Mutex
}

// New returns a Store over kv.
func New(kv store.KV, logger *logging.Logger) *Store {
	return &Store{kv: kv, logger: logger.Named("prefs")}
}

// Load reads every preference. Unreadable or invalid values are logged and
// replaced by their defaults.
func (s *Store) Load(ctx context.Context) Prefs {
	p := Defaults()

	var idx int
	if s.get(ctx, KeyPattern, &idx) {
		if idx >= 0 {
			p.PatternIndex = idx
		}
	}

	var d durations
	if s.get(ctx, KeyCustom, &d) {
		custom := pattern.DefaultCustom()
		custom.Inhale, custom.Hold1, custom.Exhale, custom.Hold2 = d.Inhale, d.Hold1, d.Exhale, d.Hold2
		if err := custom.ValidateCustom(); err != nil {
			s.logger.Warnf("ignoring stored custom pattern %s: %v", custom, err)
		} else {
			p.Custom = custom
		}
	}

	var total int
	if s.get(ctx, KeyTotalBreaths, &total) && total >= 0 {
		p.TotalBreaths = total
	}

	cfg := sound.DefaultConfig()
	if s.get(ctx, KeySound, &cfg) {
		p.Sound = cfg.Normalize()
	}
	return p
}

func (s *Store) get(ctx context.Context, key string, dest any) bool {
	ok, err := s.kv.Get(ctx, key, dest)
	if err != nil {
		s.logger.Warnf("read %s: %v", key, err)
		return false
	}
	return ok
}

// SetPattern stores the selected pattern index.
func (s *Store) SetPattern(ctx context.Context, index int) error {
	if index < 0 {
		return fmt.Errorf("pattern index %d out of range", index)
	}
	return s.kv.Set(ctx, KeyPattern, index)
}

// SetCustom stores the custom pattern durations.
func (s *Store) SetCustom(ctx context.Context, p pattern.Pattern) error {
	if err := p.ValidateCustom(); err != nil {
		return fmt.Errorf("custom pattern: %w", err)
	}
	return s.kv.Set(ctx, KeyCustom, durations{Inhale: p.Inhale, Hold1: p.Hold1, Exhale: p.Exhale, Hold2: p.Hold2})
}

// SetSound stores the sound configuration.
func (s *Store) SetSound(ctx context.Context, cfg sound.Config) error {
	return s.kv.Set(ctx, KeySound, cfg.Normalize())
}

// TotalBreaths returns the lifetime breath count.
func (s *Store) TotalBreaths(ctx context.Context) (int, error) {
	var n int
	if _, err := s.kv.Get(ctx, KeyTotalBreaths, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// AddBreaths adds n to the lifetime count and returns the new total.
func (s *Store) AddBreaths(ctx context.Context, n int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total, err := s.TotalBreaths(ctx)
	if err != nil {
		return 0, fmt.Errorf("read total breaths: %w", err)
	}
	if n <= 0 {
		return total, nil
	}
	total += n
	if err := s.kv.Set(ctx, KeyTotalBreaths, total); err != nil {
		return 0, fmt.Errorf("write total breaths: %w", err)
	}
	return total, nil
}

// ResetBreaths sets the lifetime count back to zero.
func (s *Store) ResetBreaths(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kv.Set(ctx, KeyTotalBreaths, 0)
}

// Count adds the cycles of every finished session to the lifetime total.
// onTotal, if set, receives each new total. It returns when events closes or
// ctx is done.
func (s *Store) Count(ctx context.Context, events <-chan breath.Event, onTotal func(int)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Type != breath.EventStopped || ev.Summary == nil {
				continue
			}
			total, err := s.AddBreaths(ctx, ev.Summary.Cycles)
			if err != nil {
				s.logger.Errorf("save breaths for session %s: %v", ev.Summary.SessionID, err)
				continue
			}
			s.logger.Infof("session %s added %d breaths, total %d", ev.Summary.SessionID, ev.Summary.Cycles, total)
			if onTotal != nil {
				onTotal(total)
			}
		}
	}
}
