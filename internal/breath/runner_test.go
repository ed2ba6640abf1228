package breath

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/clouxart/breathe/internal/pattern"
)

const testUnit = 10 * time.Millisecond

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// startRunner runs a 1-1-1-1 machine with a 10ms unit until the test ends.
func startRunner(t *testing.T) (*Runner, <-chan Event) {
	t.Helper()
	p, _ := pattern.Parse("1-1-1-1")
	m, err := NewMachine(p, WithUnit(testUnit))
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	r := NewRunner(m)
	events := r.Subscribe(256)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		if err := <-done; !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
		r.Close()
	})
	return r, events
}

// waitFor reads events until one of type want arrives.
func waitFor(t *testing.T, events <-chan Event, want EventType) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatalf("event channel closed while waiting for %s", want)
			}
			if ev.Type == want {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestRunner_CompletesCycles(t *testing.T) {
	r, events := startRunner(t)

	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitFor(t, events, EventStarted)

	ev := waitFor(t, events, EventCycle)
	if ev.Snapshot.Cycles != 1 {
		t.Errorf("first cycle event cycles = %d, want 1", ev.Snapshot.Cycles)
	}
	ev = waitFor(t, events, EventCycle)
	if ev.Snapshot.Cycles != 2 {
		t.Errorf("second cycle event cycles = %d, want 2", ev.Snapshot.Cycles)
	}

	summary, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if summary.Cycles < 2 {
		t.Errorf("summary cycles = %d, want >= 2", summary.Cycles)
	}
	stopped := waitFor(t, events, EventStopped)
	if stopped.Summary == nil || stopped.Summary.SessionID != summary.SessionID {
		t.Errorf("stopped event summary = %+v, want %+v", stopped.Summary, summary)
	}
}

func TestRunner_PhaseOrder(t *testing.T) {
	r, events := startRunner(t)
	r.Start()

	want := []pattern.Phase{pattern.PhaseInhale, pattern.PhaseHold1, pattern.PhaseExhale, pattern.PhaseHold2, pattern.PhaseInhale}
	var got []pattern.Phase
	for len(got) < len(want) {
		ev := waitFor(t, events, EventPhase)
		got = append(got, ev.Phase)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("phase order = %v, want %v", got, want)
		}
	}
	r.Stop()
}

func TestRunner_PauseHoldsPhase(t *testing.T) {
	r, events := startRunner(t)
	r.Start()
	waitFor(t, events, EventPhase)

	if err := r.Pause(); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	waitFor(t, events, EventPaused)
	before := r.Snapshot()

	time.Sleep(10 * testUnit)

	after := r.Snapshot()
	if after.Phase != before.Phase || after.Cycles != before.Cycles || after.SessionSeconds != before.SessionSeconds {
		t.Errorf("state moved while paused: before=%+v after=%+v", before, after)
	}
	for len(events) > 0 {
		if ev := <-events; ev.Type == EventPhase || ev.Type == EventCycle {
			t.Errorf("unexpected %s event while paused", ev.Type)
		}
	}

	if err := r.Resume(); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	waitFor(t, events, EventResumed)
	waitFor(t, events, EventPhase)
	r.Stop()
}

func TestRunner_CommandsWhileIdle(t *testing.T) {
	r, _ := startRunner(t)

	if err := r.Pause(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Pause() idle = %v, want ErrNotRunning", err)
	}
	if _, err := r.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stop() idle = %v, want ErrNotRunning", err)
	}
	if err := r.SetPattern(pattern.Pattern{}); !errors.Is(err, pattern.ErrEmptyPattern) {
		t.Errorf("SetPattern(empty) = %v, want ErrEmptyPattern", err)
	}
}

func TestRunner_ConcurrentCommands(t *testing.T) {
	r, events := startRunner(t)
	r.Start()

	go func() {
		for range events {
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				r.TogglePause()
				_ = r.Snapshot()
			}
		}()
	}
	wg.Wait()

	if _, err := r.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}
