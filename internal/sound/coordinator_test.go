package sound

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/clouxart/breathe/internal/breath"
	"github.com/clouxart/breathe/internal/pattern"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recordPlayer records clip names. When block is set PlayClip waits for ctx.
type recordPlayer struct {
	mu      sync.Mutex
	clips   []string
	files   []string
	block   bool
	started chan string
}

func newRecordPlayer(block bool) *recordPlayer {
	return &recordPlayer{block: block, started: make(chan string, 16)}
}

func (p *recordPlayer) PlayClip(ctx context.Context, clip Clip) error {
	p.mu.Lock()
	p.clips = append(p.clips, clip.Name)
	p.mu.Unlock()
	p.started <- clip.Name
	if p.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (p *recordPlayer) PlayFile(ctx context.Context, path string) error {
	p.mu.Lock()
	p.files = append(p.files, filepath.Base(path))
	p.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func (p *recordPlayer) played() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.clips...)
}

// fakeAmbient records calls.
type fakeAmbient struct {
	mu    sync.Mutex
	calls []string
}

func (a *fakeAmbient) record(s string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, s)
}

func (a *fakeAmbient) Start(kind AmbientType, _ float64) error {
	a.record("start:" + string(kind))
	return nil
}
func (a *fakeAmbient) Pause()            { a.record("pause") }
func (a *fakeAmbient) Resume()           { a.record("resume") }
func (a *fakeAmbient) Stop()             { a.record("stop") }
func (a *fakeAmbient) SetVolume(float64) { a.record("volume") }

func (a *fakeAmbient) snapshot() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

type countHaptics struct {
	mu     sync.Mutex
	counts map[Style]int
}

func (h *countHaptics) Impact(s Style) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.counts == nil {
		h.counts = make(map[Style]int)
	}
	h.counts[s]++
}

func enabledConfig() Config {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Ambient = AmbientRain
	return cfg
}

func phaseEvent(ph pattern.Phase, at time.Time) breath.Event {
	return breath.Event{
		Type:     breath.EventPhase,
		Phase:    ph,
		At:       at,
		Snapshot: breath.Snapshot{Running: true, Phase: ph},
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestCoordinator_CuesPhases(t *testing.T) {
	now := time.Now()
	player := newRecordPlayer(false)
	amb := &fakeAmbient{}
	hap := &countHaptics{}
	c := NewCoordinator(enabledConfig(), player, amb, WithHaptics(hap), WithNow(func() time.Time { return now }))
	defer c.Close()

	c.Handle(breath.Event{Type: breath.EventStarted, At: now})
	c.Handle(phaseEvent(pattern.PhaseInhale, now))
	c.Handle(phaseEvent(pattern.PhaseHold1, now))
	c.Handle(phaseEvent(pattern.PhaseExhale, now))
	c.Wait()

	got := player.played()
	if len(got) != 2 || got[0] != "bell-inhale" || got[1] != "bell-exhale" {
		t.Errorf("played = %v, want [bell-inhale bell-exhale]", got)
	}
	if calls := amb.snapshot(); !contains(calls, "start:rain") {
		t.Errorf("ambient calls = %v, want start:rain", calls)
	}
	hap.mu.Lock()
	defer hap.mu.Unlock()
	if hap.counts[Medium] != 1 || hap.counts[Light] != 3 {
		t.Errorf("haptics = %v, want 1 medium and 3 light", hap.counts)
	}
}

func TestCoordinator_SkipsCues(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		cfg  func(*Config)
		ev   breath.Event
	}{
		{
			name: "disabled",
			cfg:  func(c *Config) { c.Enabled = false },
			ev:   phaseEvent(pattern.PhaseInhale, now),
		},
		{
			name: "indicator none",
			cfg:  func(c *Config) { c.PhaseIndicator = SoundNone },
			ev:   phaseEvent(pattern.PhaseInhale, now),
		},
		{
			name: "stale",
			cfg:  func(*Config) {},
			ev:   phaseEvent(pattern.PhaseInhale, now.Add(-2*time.Second)),
		},
		{
			name: "paused",
			cfg:  func(*Config) {},
			ev: func() breath.Event {
				ev := phaseEvent(pattern.PhaseInhale, now)
				ev.Snapshot.Paused = true
				return ev
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := enabledConfig()
			tt.cfg(&cfg)
			player := newRecordPlayer(false)
			c := NewCoordinator(cfg, player, &fakeAmbient{}, WithNow(func() time.Time { return now }))
			c.Handle(tt.ev)
			c.Close()
			if got := player.played(); len(got) != 0 {
				t.Errorf("played = %v, want nothing", got)
			}
		})
	}
}

func TestCoordinator_PauseStopsClips(t *testing.T) {
	now := time.Now()
	player := newRecordPlayer(true)
	amb := &fakeAmbient{}
	c := NewCoordinator(enabledConfig(), player, amb, WithNow(func() time.Time { return now }))
	defer c.Close()

	c.Handle(phaseEvent(pattern.PhaseInhale, now))
	select {
	case <-player.started:
	case <-time.After(time.Second):
		t.Fatal("clip never started")
	}

	c.Handle(breath.Event{Type: breath.EventPaused, At: now})

	done := make(chan struct{})
	go func() {
		c.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pause did not cancel the playing clip")
	}

	c.Handle(breath.Event{Type: breath.EventResumed, At: now})
	c.Handle(breath.Event{Type: breath.EventStopped, At: now})

	calls := amb.snapshot()
	for _, want := range []string{"pause", "resume", "stop"} {
		if !contains(calls, want) {
			t.Errorf("ambient calls = %v, missing %s", calls, want)
		}
	}
}

func TestCoordinator_UpdateConfigRestartsAmbient(t *testing.T) {
	amb := &fakeAmbient{}
	c := NewCoordinator(enabledConfig(), Nop{}, amb)
	defer c.Close()

	c.Handle(breath.Event{Type: breath.EventStarted, At: time.Now()})

	cfg := c.Config()
	cfg.Ambient = AmbientOcean
	c.UpdateConfig(cfg)

	deadline := time.Now().Add(2 * time.Second)
	for !contains(amb.snapshot(), "start:ocean") {
		if time.Now().After(deadline) {
			t.Fatalf("ambient never restarted, calls = %v", amb.snapshot())
		}
		time.Sleep(10 * time.Millisecond)
	}

	cfg.AmbientVolume = 0.9
	c.UpdateConfig(cfg)
	if !contains(amb.snapshot(), "volume") {
		t.Errorf("volume change not applied, calls = %v", amb.snapshot())
	}
}

func TestCoordinator_UpdateConfigIdle(t *testing.T) {
	amb := &fakeAmbient{}
	c := NewCoordinator(enabledConfig(), Nop{}, amb)
	defer c.Close()

	cfg := c.Config()
	cfg.Ambient = AmbientOcean
	c.UpdateConfig(cfg)
	time.Sleep(2 * ambientRestartDelay)

	if contains(amb.snapshot(), "start:ocean") {
		t.Error("ambient should not start outside a session")
	}
}

func TestCoordinator_Preview(t *testing.T) {
	cfg := DefaultConfig()
	player := newRecordPlayer(false)
	c := NewCoordinator(cfg, player, &fakeAmbient{})
	defer c.Close()

	if err := c.Preview(SoundGong); !errors.Is(err, ErrDisabled) {
		t.Errorf("Preview while disabled = %v, want ErrDisabled", err)
	}

	cfg.Enabled = true
	c.UpdateConfig(cfg)
	if err := c.Preview(SoundGong); err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	c.Wait()
	if got := player.played(); len(got) != 1 || got[0] != "gong-inhale" {
		t.Errorf("played = %v, want [gong-inhale]", got)
	}
}

func TestCoordinator_Run(t *testing.T) {
	player := newRecordPlayer(false)
	c := NewCoordinator(enabledConfig(), player, nil)
	defer c.Close()

	events := make(chan breath.Event, 2)
	events <- phaseEvent(pattern.PhaseInhale, time.Now())
	close(events)

	if err := c.Run(context.Background(), events); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	c.Wait()
	if len(player.played()) != 1 {
		t.Errorf("played = %v, want one clip", player.played())
	}
}

func TestLoopPlayer(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ocean.mp3"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	player := newRecordPlayer(false)
	l := NewLoopPlayer(player, dir, nil)

	if err := l.Start(AmbientRain, 0.3); !errors.Is(err, ErrNoSoundFile) {
		t.Errorf("Start(missing) = %v, want ErrNoSoundFile", err)
	}

	if err := l.Start(AmbientOcean, 0.3); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if kind, paused := l.Playing(); kind != AmbientOcean || paused {
		t.Errorf("Playing() = %v, %v; want ocean, false", kind, paused)
	}

	l.Pause()
	if _, paused := l.Playing(); !paused {
		t.Error("expected paused")
	}
	l.Resume()
	l.Stop()

	if kind, _ := l.Playing(); kind != AmbientNone {
		t.Errorf("after Stop Playing() = %v, want none", kind)
	}

	player.mu.Lock()
	defer player.mu.Unlock()
	for _, f := range player.files {
		if f != "ocean.mp3" {
			t.Errorf("played file %q, want ocean.mp3", f)
		}
	}
}

func TestCoordinator_CuesPhaseEnteredWhilePaused(t *testing.T) {
	t0 := time.Now()
	now := t0
	player := newRecordPlayer(false)
	c := NewCoordinator(enabledConfig(), player, &fakeAmbient{}, WithNow(func() time.Time { return now }))
	defer c.Close()

	m, err := breath.NewMachine(pattern.Presets()[0])
	if err != nil {
		t.Fatalf("NewMachine failed: %v", err)
	}
	handle := func(events []breath.Event, err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("engine: %v", err)
		}
		for _, ev := range events {
			c.Handle(ev)
		}
	}

	handle(m.Start(now))
	now = t0.Add(time.Second)
	handle(m.Pause(now))
	now = t0.Add(2 * time.Second)
	handle(m.SetPattern(pattern.Presets()[1], now))
	now = t0.Add(10 * time.Second)
	handle(m.Resume(now))
	c.Wait()

	got := player.played()
	if len(got) != 2 || got[0] != "bell-inhale" || got[1] != "bell-inhale" {
		t.Fatalf("played = %v, want [bell-inhale bell-inhale]", got)
	}

	// A plain pause and resume continues the phase without a new cue.
	now = now.Add(time.Second)
	handle(m.Pause(now))
	now = now.Add(time.Second)
	handle(m.Resume(now))
	c.Wait()
	if got := player.played(); len(got) != 2 {
		t.Errorf("played = %v, want no cue after a plain resume", got)
	}
}

func writeSounds(t *testing.T, kinds ...AmbientType) string {
	t.Helper()
	dir := t.TempDir()
	for _, kind := range kinds {
		if err := os.WriteFile(filepath.Join(dir, string(kind)+".mp3"), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestCoordinator_AmbientPreviewKeepsSessionSound(t *testing.T) {
	dir := writeSounds(t, AmbientRain, AmbientOcean)
	player := newRecordPlayer(false)
	session := NewLoopPlayer(player, dir, nil)
	preview := NewLoopPlayer(player, dir, nil)
	c := NewCoordinator(enabledConfig(), player, session, WithPreviewAmbient(preview))
	c.previewLength = 50 * time.Millisecond
	defer c.Close()

	c.Handle(breath.Event{Type: breath.EventStarted, At: time.Now()})
	c.Handle(breath.Event{Type: breath.EventPaused, At: time.Now()})

	if err := c.PreviewAmbient(AmbientOcean); err != nil {
		t.Fatalf("PreviewAmbient failed: %v", err)
	}
	if kind, _ := preview.Playing(); kind != AmbientOcean {
		t.Errorf("preview Playing() = %v, want ocean", kind)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if kind, _ := preview.Playing(); kind == AmbientNone {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("preview never stopped")
		}
		time.Sleep(10 * time.Millisecond)
	}

	c.Handle(breath.Event{Type: breath.EventResumed, At: time.Now()})
	if kind, paused := session.Playing(); kind != AmbientRain || paused {
		t.Errorf("session Playing() = %v, %v; want rain, false", kind, paused)
	}
}

func TestCoordinator_AmbientPreviewReplacesPrevious(t *testing.T) {
	amb := &fakeAmbient{}
	preview := &fakeAmbient{}
	c := NewCoordinator(enabledConfig(), Nop{}, amb, WithPreviewAmbient(preview))
	c.previewLength = 400 * time.Millisecond
	defer c.Close()

	if err := c.PreviewAmbient(AmbientOcean); err != nil {
		t.Fatalf("PreviewAmbient failed: %v", err)
	}
	time.Sleep(250 * time.Millisecond)
	if err := c.PreviewAmbient(AmbientForest); err != nil {
		t.Fatalf("PreviewAmbient failed: %v", err)
	}

	// Past the first preview's length but inside the second's.
	time.Sleep(250 * time.Millisecond)
	calls := preview.snapshot()
	if last := calls[len(calls)-1]; last != "start:forest" {
		t.Errorf("preview calls = %v, want forest still playing", calls)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		calls := preview.snapshot()
		if calls[len(calls)-1] == "stop" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("second preview never stopped, calls = %v", calls)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if calls := amb.snapshot(); len(calls) != 0 {
		t.Errorf("session ambient calls = %v, want none", calls)
	}
}
