package breath

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/clouxart/breathe/internal/pattern"
)

var t0 = time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

func at(d time.Duration) time.Time {
	return t0.Add(d)
}

func sec(n float64) time.Duration {
	return time.Duration(n * float64(time.Second))
}

func newTestMachine(t *testing.T, timing string) *Machine {
	t.Helper()
	p, err := pattern.Parse(timing)
	if err != nil {
		t.Fatalf("parse %s: %v", timing, err)
	}
	m, err := NewMachine(p, WithIDGenerator(func() string { return "session-1" }))
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	return m
}

// kinds flattens events to "type:phase" strings, dropping ticks.
func kinds(events []Event) []string {
	var out []string
	for _, ev := range events {
		if ev.Type == EventTick {
			continue
		}
		out = append(out, string(ev.Type)+":"+string(ev.Phase))
	}
	return out
}

func TestNewMachine_RejectsEmptyPattern(t *testing.T) {
	_, err := NewMachine(pattern.Pattern{Name: "empty"})
	if !errors.Is(err, pattern.ErrEmptyPattern) {
		t.Errorf("NewMachine() = %v, want ErrEmptyPattern", err)
	}
}

func TestMachine_Start(t *testing.T) {
	m := newTestMachine(t, "4-4-4-4")

	events, err := m.Start(t0)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	want := []string{"started:inhale", "phase:inhale"}
	if diff := cmp.Diff(want, kinds(events)); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}

	snap := m.Snapshot(t0)
	wantSnap := Snapshot{
		SessionID:    "session-1",
		Running:      true,
		Phase:        pattern.PhaseInhale,
		Label:        "Breathe in",
		Countdown:    4,
		PhaseSeconds: 4,
		PhaseIndex:   1,
		PhaseTotal:   4,
		Pattern:      m.Pattern(),
	}
	if diff := cmp.Diff(wantSnap, snap); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}

	if _, err := m.Start(t0); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start() = %v, want ErrAlreadyRunning", err)
	}
}

func TestMachine_IdleSnapshot(t *testing.T) {
	m := newTestMachine(t, "0-7-8-0")
	snap := m.Snapshot(t0)
	if snap.Running || snap.Phase != pattern.PhaseIdle || snap.Label != "Begin" {
		t.Errorf("idle snapshot = %+v", snap)
	}
	if snap.Countdown != 7 {
		t.Errorf("idle countdown = %d, want first active phase duration 7", snap.Countdown)
	}
}

func TestMachine_FullCycle(t *testing.T) {
	m := newTestMachine(t, "4-4-4-4")
	m.Start(t0)

	steps := []struct {
		at        time.Duration
		wantKinds []string
		wantPhase pattern.Phase
		cycles    int
	}{
		{sec(3.9), nil, pattern.PhaseInhale, 0},
		{sec(4), []string{"phase:hold1"}, pattern.PhaseHold1, 0},
		{sec(8), []string{"phase:exhale"}, pattern.PhaseExhale, 0},
		{sec(12), []string{"phase:hold2"}, pattern.PhaseHold2, 0},
		{sec(16), []string{"cycle:hold2", "phase:inhale"}, pattern.PhaseInhale, 1},
	}

	for _, step := range steps {
		events := m.Advance(at(step.at))
		if diff := cmp.Diff(step.wantKinds, kinds(events)); diff != "" {
			t.Errorf("at %v events mismatch (-want +got):\n%s", step.at, diff)
		}
		snap := m.Snapshot(at(step.at))
		if snap.Phase != step.wantPhase {
			t.Errorf("at %v phase = %s, want %s", step.at, snap.Phase, step.wantPhase)
		}
		if snap.Cycles != step.cycles {
			t.Errorf("at %v cycles = %d, want %d", step.at, snap.Cycles, step.cycles)
		}
	}
}

func TestMachine_SkipsZeroPhases(t *testing.T) {
	tests := []struct {
		timing string
		until  time.Duration
		want   []string
		cycles int
	}{
		{
			timing: "4-7-8-0",
			until:  sec(19),
			want:   []string{"phase:hold1", "phase:exhale", "cycle:exhale", "phase:inhale"},
			cycles: 1,
		},
		{
			timing: "2-0-2-0",
			until:  sec(8),
			want:   []string{"phase:exhale", "cycle:exhale", "phase:inhale", "phase:exhale", "cycle:exhale", "phase:inhale"},
			cycles: 2,
		},
		{
			timing: "0-0-3-0",
			until:  sec(6),
			want:   []string{"cycle:exhale", "phase:exhale", "cycle:exhale", "phase:exhale"},
			cycles: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.timing, func(t *testing.T) {
			m := newTestMachine(t, tt.timing)
			m.Start(t0)

			var got []string
			for d := time.Duration(0); d <= tt.until; d += 500 * time.Millisecond {
				got = append(got, kinds(m.Advance(at(d)))...)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("events mismatch (-want +got):\n%s", diff)
			}
			if c := m.Snapshot(at(tt.until)).Cycles; c != tt.cycles {
				t.Errorf("cycles = %d, want %d", c, tt.cycles)
			}
		})
	}
}

func TestMachine_StartSkipsZeroInhale(t *testing.T) {
	m := newTestMachine(t, "0-3-3-0")
	events, _ := m.Start(t0)
	want := []string{"started:hold1", "phase:hold1"}
	if diff := cmp.Diff(want, kinds(events)); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestMachine_NoDrift(t *testing.T) {
	m := newTestMachine(t, "4-4-4-4")
	m.Start(t0)

	// Woken late: the next phase still ends on the original schedule.
	m.Advance(at(sec(4.3)))
	snap := m.Snapshot(at(sec(4.3)))
	if snap.Phase != pattern.PhaseHold1 {
		t.Fatalf("phase = %s, want hold1", snap.Phase)
	}
	if snap.Countdown != 4 {
		t.Errorf("countdown at 4.3s = %d, want 4", snap.Countdown)
	}
	if events := m.Advance(at(sec(7.999))); len(kinds(events)) != 0 {
		t.Errorf("unexpected transition before 8s: %v", kinds(events))
	}
	events := m.Advance(at(sec(8)))
	if diff := cmp.Diff([]string{"phase:exhale"}, kinds(events)); diff != "" {
		t.Errorf("transition at 8s mismatch (-want +got):\n%s", diff)
	}
	if !events[0].At.Equal(at(sec(8))) {
		t.Errorf("phase event At = %v, want %v", events[0].At, at(sec(8)))
	}
}

func TestMachine_CatchUp(t *testing.T) {
	m := newTestMachine(t, "4-4-4-4")
	m.Start(t0)

	events := m.Advance(at(sec(41)))
	snap := m.Snapshot(at(sec(41)))
	if snap.Cycles != 2 {
		t.Errorf("cycles = %d, want 2", snap.Cycles)
	}
	if snap.Phase != pattern.PhaseExhale {
		t.Errorf("phase = %s, want exhale", snap.Phase)
	}
	if snap.Countdown != 3 {
		t.Errorf("countdown = %d, want 3", snap.Countdown)
	}

	last := events[len(events)-1]
	if last.Type != EventTick {
		t.Errorf("last event = %s, want tick", last.Type)
	}
	var phaseAts []time.Duration
	for _, ev := range events {
		if ev.Type == EventPhase {
			phaseAts = append(phaseAts, ev.At.Sub(t0))
		}
	}
	want := []time.Duration{sec(4), sec(8), sec(12), sec(16), sec(20), sec(24), sec(28), sec(32), sec(36), sec(40)}
	if diff := cmp.Diff(want, phaseAts); diff != "" {
		t.Errorf("phase times mismatch (-want +got):\n%s", diff)
	}
}

func TestMachine_Ticks(t *testing.T) {
	m := newTestMachine(t, "4-4-4-4")
	m.Start(t0)

	if events := m.Advance(at(sec(0.5))); len(events) != 0 {
		t.Errorf("events at 0.5s = %v, want none", kinds(events))
	}

	events := m.Advance(at(sec(1)))
	if len(events) != 1 || events[0].Type != EventTick {
		t.Fatalf("events at 1s = %+v, want one tick", events)
	}
	if events[0].Snapshot.Countdown != 3 {
		t.Errorf("countdown = %d, want 3", events[0].Snapshot.Countdown)
	}
	if events[0].Snapshot.SessionSeconds != 1 {
		t.Errorf("session seconds = %d, want 1", events[0].Snapshot.SessionSeconds)
	}
}

func TestMachine_NextWake(t *testing.T) {
	m := newTestMachine(t, "4-4-4-4")
	if _, ok := m.NextWake(t0); ok {
		t.Error("NextWake while idle should be false")
	}

	m.Start(t0)
	next, ok := m.NextWake(at(sec(0.25)))
	if !ok {
		t.Fatal("NextWake while running should be true")
	}
	if want := at(sec(1)); !next.Equal(want) {
		t.Errorf("NextWake = %v, want %v", next.Sub(t0), want.Sub(t0))
	}

	m.Pause(at(sec(2)))
	if _, ok := m.NextWake(at(sec(2))); ok {
		t.Error("NextWake while paused should be false")
	}
}

func TestMachine_PauseResume(t *testing.T) {
	m := newTestMachine(t, "4-4-4-4")
	m.Start(t0)

	events, err := m.Pause(at(sec(2.5)))
	if err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if diff := cmp.Diff([]string{"paused:inhale"}, kinds(events)); diff != "" {
		t.Errorf("pause events mismatch (-want +got):\n%s", diff)
	}

	// Time passes while paused: nothing moves.
	if events := m.Advance(at(sec(9))); events != nil {
		t.Errorf("Advance while paused = %v, want nil", kinds(events))
	}
	snap := m.Snapshot(at(sec(9)))
	if !snap.Paused || snap.Countdown != 2 || snap.SessionSeconds != 2 {
		t.Errorf("paused snapshot = %+v", snap)
	}

	if events, _ := m.Pause(at(sec(9))); events != nil {
		t.Errorf("double Pause events = %v, want nil", kinds(events))
	}

	events, err = m.Resume(at(sec(10)))
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if diff := cmp.Diff([]string{"resumed:inhale"}, kinds(events)); diff != "" {
		t.Errorf("resume events mismatch (-want +got):\n%s", diff)
	}

	// 1.5s were left in inhale.
	if events := m.Advance(at(sec(11.4))); len(kinds(events)) != 0 {
		t.Errorf("transition before 11.5s: %v", kinds(events))
	}
	events = m.Advance(at(sec(11.5)))
	if diff := cmp.Diff([]string{"phase:hold1"}, kinds(events)); diff != "" {
		t.Errorf("transition mismatch (-want +got):\n%s", diff)
	}
	if s := m.Snapshot(at(sec(11.5))).SessionSeconds; s != 4 {
		t.Errorf("session seconds = %d, want 4 (paused time excluded)", s)
	}
}

func TestMachine_TogglePause(t *testing.T) {
	m := newTestMachine(t, "4-4-4-4")
	if _, err := m.TogglePause(t0); !errors.Is(err, ErrNotRunning) {
		t.Errorf("TogglePause idle = %v, want ErrNotRunning", err)
	}
	m.Start(t0)
	m.TogglePause(at(sec(1)))
	if !m.Paused() {
		t.Error("expected paused after first toggle")
	}
	m.TogglePause(at(sec(2)))
	if m.Paused() {
		t.Error("expected running after second toggle")
	}
}

func TestMachine_Stop(t *testing.T) {
	m := newTestMachine(t, "2-0-2-0")
	m.Start(t0)
	m.Advance(at(sec(5)))

	summary, events, err := m.Stop(at(sec(9)))
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if summary.Cycles != 2 {
		t.Errorf("summary cycles = %d, want 2", summary.Cycles)
	}
	if summary.Seconds != 9 || summary.Active != sec(9) {
		t.Errorf("summary time = %d / %v, want 9s", summary.Seconds, summary.Active)
	}
	if summary.SessionID != "session-1" {
		t.Errorf("summary id = %q", summary.SessionID)
	}

	last := events[len(events)-1]
	if last.Type != EventStopped || last.Summary == nil || last.Summary.Cycles != 2 {
		t.Errorf("last event = %+v, want stopped with summary", last)
	}
	if m.Running() {
		t.Error("machine still running after Stop")
	}
	if snap := m.Snapshot(at(sec(9))); snap.Phase != pattern.PhaseIdle {
		t.Errorf("phase after stop = %s, want idle", snap.Phase)
	}

	if _, _, err := m.Stop(at(sec(10))); !errors.Is(err, ErrNotRunning) {
		t.Errorf("second Stop() = %v, want ErrNotRunning", err)
	}
}

func TestMachine_RestartResetsCounters(t *testing.T) {
	m := newTestMachine(t, "2-0-2-0")
	m.Start(t0)
	m.Stop(at(sec(9)))

	m.Start(at(sec(20)))
	snap := m.Snapshot(at(sec(20)))
	if snap.Cycles != 0 || snap.SessionSeconds != 0 {
		t.Errorf("restarted snapshot = %+v, want zeroed counters", snap)
	}
}

func TestMachine_SetPattern(t *testing.T) {
	m := newTestMachine(t, "4-4-4-4")
	m.Start(t0)
	m.Advance(at(sec(17)))

	calm, _ := pattern.Parse("5-0-5-0")
	events, err := m.SetPattern(calm, at(sec(18)))
	if err != nil {
		t.Fatalf("SetPattern failed: %v", err)
	}
	want := []string{"pattern_changed:inhale", "phase:inhale"}
	if diff := cmp.Diff(want, kinds(events)); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}

	snap := m.Snapshot(at(sec(18)))
	if snap.Cycles != 1 {
		t.Errorf("cycles = %d, want 1 (kept)", snap.Cycles)
	}
	if snap.Countdown != 5 || snap.PhaseTotal != 2 {
		t.Errorf("snapshot after switch = %+v", snap)
	}

	if _, err := m.SetPattern(pattern.Pattern{}, at(sec(19))); !errors.Is(err, pattern.ErrEmptyPattern) {
		t.Errorf("SetPattern(empty) = %v, want ErrEmptyPattern", err)
	}
}

func TestMachine_SetPatternWhilePaused(t *testing.T) {
	m := newTestMachine(t, "4-4-4-4")
	m.Start(t0)
	m.Advance(at(sec(6)))
	m.Pause(at(sec(6)))

	calm, _ := pattern.Parse("5-0-5-0")
	m.SetPattern(calm, at(sec(7)))
	m.Resume(at(sec(20)))

	if events := m.Advance(at(sec(24.9))); len(kinds(events)) != 0 {
		t.Errorf("transition before full inhale elapsed: %v", kinds(events))
	}
	events := m.Advance(at(sec(25)))
	if diff := cmp.Diff([]string{"phase:exhale"}, kinds(events)); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestMachine_SetPatternIdle(t *testing.T) {
	m := newTestMachine(t, "4-4-4-4")
	calm, _ := pattern.Parse("5-0-5-0")
	events, err := m.SetPattern(calm, t0)
	if err != nil {
		t.Fatalf("SetPattern failed: %v", err)
	}
	if diff := cmp.Diff([]string{"pattern_changed:idle"}, kinds(events)); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if m.Running() {
		t.Error("SetPattern should not start a session")
	}
}

func TestMachine_Progress(t *testing.T) {
	m := newTestMachine(t, "4-4-4-4")
	m.Start(t0)
	snap := m.Snapshot(at(sec(1)))
	if snap.Progress != 0.25 {
		t.Errorf("progress = %v, want 0.25", snap.Progress)
	}
}

func TestMachine_WithUnit(t *testing.T) {
	p, _ := pattern.Parse("1-1-1-1")
	m, err := NewMachine(p, WithUnit(10*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	m.Start(t0)
	m.Advance(t0.Add(40 * time.Millisecond))
	if c := m.Snapshot(t0.Add(40 * time.Millisecond)).Cycles; c != 1 {
		t.Errorf("cycles = %d, want 1", c)
	}
}
