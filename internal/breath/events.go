package breath

import (
	"time"

	"github.com/clouxart/breathe/internal/pattern"
)

// EventType represents the type of engine event.
type EventType string

const (
	// EventStarted indicates a session has started.
	EventStarted EventType = "started"
	// EventPhase indicates a phase with a non-zero duration has begun.
	EventPhase EventType = "phase"
	// EventCycle indicates a full cycle completed (wrap back to inhale).
	EventCycle EventType = "cycle"
	// EventTick indicates the countdown or the session clock changed.
	EventTick EventType = "tick"
	// EventPaused indicates the session was paused.
	EventPaused EventType = "paused"
	// EventResumed indicates the session resumed. The current phase continues
	// with the time it had left.
	EventResumed EventType = "resumed"
	// EventPatternChanged indicates a new pattern was selected.
	EventPatternChanged EventType = "pattern_changed"
	// EventStopped indicates the session ended. Summary is set.
	EventStopped EventType = "stopped"
)

// Event is emitted by the engine on every observable state change.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// Phase is the phase the event refers to.
	Phase pattern.Phase
	// At is the scheduled instant of the event. During catch-up after a late
	// wakeup it can be earlier than the time the event is delivered.
	At time.Time
	// Snapshot is the engine state as of At.
	Snapshot Snapshot
	// Summary is set for EventStopped.
	Summary *Summary
}

// Snapshot is a read-only view of the engine.
type Snapshot struct {
	SessionID      string          `json:"session_id,omitempty"`
	Running        bool            `json:"running"`
	Paused         bool            `json:"paused"`
	Phase          pattern.Phase   `json:"phase"`
	Label          string          `json:"label"`
	Countdown      int             `json:"countdown"`
	PhaseSeconds   int             `json:"phase_seconds"`
	Progress       float64         `json:"progress"`
	PhaseIndex     int             `json:"phase_index"`
	PhaseTotal     int             `json:"phase_total"`
	Cycles         int             `json:"cycles"`
	SessionSeconds int             `json:"session_seconds"`
	Pattern        pattern.Pattern `json:"pattern"`
}

// Summary describes a finished session.
type Summary struct {
	SessionID string          `json:"session_id"`
	Pattern   pattern.Pattern `json:"pattern"`
	Cycles    int             `json:"cycles"`
	Active    time.Duration   `json:"active"`
	Seconds   int             `json:"seconds"`
	StartedAt time.Time       `json:"started_at"`
	EndedAt   time.Time       `json:"ended_at"`
}
