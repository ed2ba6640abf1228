package breath

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/clouxart/breathe/internal/pattern"
)

var (
	// ErrAlreadyRunning is returned by Start while a session is active.
	ErrAlreadyRunning = errors.New("session already running")
	// ErrNotRunning is returned by commands that need an active session.
	ErrNotRunning = errors.New("no session running")
)

// Machine is the breathing cycle state machine.
//
// It owns no goroutines and reads no clock: every method takes the current
// time and returns the events it produced. Phase deadlines are chained off the
// previous deadline, never off the time Advance happens to be called, so a
// late caller catches up instead of stretching the schedule.
//
// Machine is not safe for concurrent use; Runner serialises access.
type Machine struct {
	pattern pattern.Pattern
	unit    time.Duration
	newID   func() string

	running bool
	paused  bool
	phase   pattern.Phase

	// deadline is when the current phase ends. While paused it is stale and
	// remaining holds the frozen time left.
	deadline  time.Time
	remaining time.Duration

	cycles    int
	sessionID string
	startedAt time.Time

	// active time = activeBase + (now - activeSince) while unpaused.
	activeBase  time.Duration
	activeSince time.Time

	lastCountdown  int
	lastSessionSec int
}

// MachineOption configures a Machine.
type MachineOption func(*Machine)

// WithUnit sets the length of one pattern "second". Tests shrink it.
func WithUnit(unit time.Duration) MachineOption {
	return func(m *Machine) {
		if unit > 0 {
			m.unit = unit
		}
	}
}

// WithIDGenerator overrides the session ID generator.
func WithIDGenerator(fn func() string) MachineOption {
	return func(m *Machine) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// NewMachine creates an idle machine for p.
func NewMachine(p pattern.Pattern, opts ...MachineOption) (*Machine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	m := &Machine{
		pattern: p,
		unit:    time.Second,
		newID:   func() string { return uuid.New().String() },
		phase:   pattern.PhaseIdle,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Pattern returns the current pattern.
func (m *Machine) Pattern() pattern.Pattern {
	return m.pattern
}

// Running reports whether a session is active.
func (m *Machine) Running() bool {
	return m.running
}

// Paused reports whether the active session is paused.
func (m *Machine) Paused() bool {
	return m.running && m.paused
}

// Start begins a session at the first active phase.
func (m *Machine) Start(now time.Time) ([]Event, error) {
	if m.running {
		return nil, ErrAlreadyRunning
	}

	m.running = true
	m.paused = false
	m.cycles = 0
	m.sessionID = m.newID()
	m.startedAt = now
	m.activeBase = 0
	m.activeSince = now
	m.lastSessionSec = 0

	phaseEvents := m.enter(pattern.PhaseInhale, now, nil)
	return append([]Event{m.event(EventStarted, now)}, phaseEvents...), nil
}

// Stop ends the session and reports what was accomplished.
// Phases that ended before now are counted first.
func (m *Machine) Stop(now time.Time) (Summary, []Event, error) {
	if !m.running {
		return Summary{}, nil, ErrNotRunning
	}

	events := m.Advance(now)
	active := m.active(now)

	summary := Summary{
		SessionID: m.sessionID,
		Pattern:   m.pattern,
		Cycles:    m.cycles,
		Active:    active,
		Seconds:   int(active / m.unit),
		StartedAt: m.startedAt,
		EndedAt:   now,
	}

	m.running = false
	m.paused = false
	m.phase = pattern.PhaseIdle
	m.remaining = 0

	ev := m.event(EventStopped, now)
	ev.Summary = &summary
	events = append(events, ev)
	return summary, events, nil
}

// Pause freezes the current phase and the session clock.
// Pausing an already paused session is a no-op.
func (m *Machine) Pause(now time.Time) ([]Event, error) {
	if !m.running {
		return nil, ErrNotRunning
	}
	if m.paused {
		return nil, nil
	}

	events := m.Advance(now)
	m.remaining = m.deadline.Sub(now)
	m.activeBase += now.Sub(m.activeSince)
	m.paused = true
	return append(events, m.event(EventPaused, now)), nil
}

// Resume continues the current phase with the time it had left when paused.
// Resuming a session that is not paused is a no-op.
func (m *Machine) Resume(now time.Time) ([]Event, error) {
	if !m.running {
		return nil, ErrNotRunning
	}
	if !m.paused {
		return nil, nil
	}

	m.paused = false
	m.deadline = now.Add(m.remaining)
	m.remaining = 0
	m.activeSince = now
	return []Event{m.event(EventResumed, now)}, nil
}

// TogglePause pauses a running session or resumes a paused one.
func (m *Machine) TogglePause(now time.Time) ([]Event, error) {
	if m.paused {
		return m.Resume(now)
	}
	return m.Pause(now)
}

// SetPattern switches to p. An active session restarts its cycle at inhale,
// keeping its cycle count and session time.
func (m *Machine) SetPattern(p pattern.Pattern, now time.Time) ([]Event, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var events []Event
	if m.running && !m.paused {
		events = m.Advance(now)
	}

	m.pattern = p
	events = append(events, m.event(EventPatternChanged, now))
	if !m.running {
		return events, nil
	}

	events = m.enter(pattern.PhaseInhale, now, events)
	if m.paused {
		m.remaining = m.deadline.Sub(now)
	}
	return events, nil
}

// Advance moves through every phase whose deadline has passed and reports a
// tick when the visible countdown or session clock changed.
func (m *Machine) Advance(now time.Time) []Event {
	if !m.running || m.paused {
		return nil
	}

	var events []Event
	for !now.Before(m.deadline) {
		at := m.deadline
		ended := m.phase
		if ended == pattern.PhaseHold2 {
			m.cycles++
			events = append(events, m.event(EventCycle, at))
		}
		events = m.enter(ended.Next(), at, events)
	}

	cd := m.countdown(now)
	ss := int(m.active(now) / m.unit)
	if cd != m.lastCountdown || ss != m.lastSessionSec {
		m.lastCountdown = cd
		m.lastSessionSec = ss
		events = append(events, m.event(EventTick, now))
	}
	return events
}

// NextWake returns the next instant at which Advance would produce an event.
// It returns false while idle or paused.
func (m *Machine) NextWake(now time.Time) (time.Time, bool) {
	if !m.running || m.paused {
		return time.Time{}, false
	}

	next := m.deadline

	// The countdown drops from c to c-1 once remaining <= (c-1) units.
	if c := m.countdown(now); c > 1 {
		if t := m.deadline.Add(-time.Duration(c-1) * m.unit); t.Before(next) {
			next = t
		}
	}

	active := m.active(now)
	if t := now.Add(m.unit - active%m.unit); t.Before(next) {
		next = t
	}

	if next.Before(now) {
		next = now
	}
	return next, true
}

// Snapshot returns the engine state as of now.
func (m *Machine) Snapshot(now time.Time) Snapshot {
	s := Snapshot{
		SessionID: m.sessionID,
		Running:   m.running,
		Paused:    m.running && m.paused,
		Phase:     m.phase,
		Label:     m.phase.Label(),
		Cycles:    m.cycles,
		Pattern:   m.pattern,
	}

	active := m.pattern.ActivePhases()
	s.PhaseTotal = len(active)

	if !m.running {
		s.SessionID = ""
		if len(active) > 0 {
			s.PhaseSeconds = m.pattern.Duration(active[0])
			s.Countdown = s.PhaseSeconds
		}
		return s
	}

	for i, ph := range active {
		if ph == m.phase {
			s.PhaseIndex = i + 1
			break
		}
	}

	s.PhaseSeconds = m.pattern.Duration(m.phase)
	s.Countdown = m.countdown(now)
	s.SessionSeconds = int(m.active(now) / m.unit)

	total := m.phaseLength(m.phase)
	if total > 0 {
		s.Progress = 1 - float64(m.remainingAt(now))/float64(total)
		if s.Progress < 0 {
			s.Progress = 0
		}
		if s.Progress > 1 {
			s.Progress = 1
		}
	}
	return s
}

// enter makes ph (or the first non-zero phase after it) current, starting at
// at. Skipping over hold2 wraps the cycle and counts it.
func (m *Machine) enter(ph pattern.Phase, at time.Time, events []Event) []Event {
	for m.pattern.Duration(ph) == 0 {
		if ph == pattern.PhaseHold2 {
			m.cycles++
			events = append(events, m.event(EventCycle, at))
		}
		ph = ph.Next()
	}

	m.phase = ph
	m.deadline = at.Add(m.phaseLength(ph))
	m.lastCountdown = m.pattern.Duration(ph)
	return append(events, m.event(EventPhase, at))
}

func (m *Machine) event(t EventType, at time.Time) Event {
	return Event{
		Type:     t,
		Phase:    m.phase,
		At:       at,
		Snapshot: m.Snapshot(at),
	}
}

func (m *Machine) phaseLength(ph pattern.Phase) time.Duration {
	return time.Duration(m.pattern.Duration(ph)) * m.unit
}

func (m *Machine) remainingAt(now time.Time) time.Duration {
	if m.paused {
		return m.remaining
	}
	return m.deadline.Sub(now)
}

// countdown is the remaining phase time rounded up to whole units, clamped
// to [1, phase duration].
func (m *Machine) countdown(now time.Time) int {
	rem := m.remainingAt(now)
	c := int((rem + m.unit - 1) / m.unit)
	if limit := m.pattern.Duration(m.phase); c > limit {
		c = limit
	}
	if c < 1 {
		c = 1
	}
	return c
}

func (m *Machine) active(now time.Time) time.Duration {
	if !m.running {
		return 0
	}
	if m.paused {
		return m.activeBase
	}
	return m.activeBase + now.Sub(m.activeSince)
}
