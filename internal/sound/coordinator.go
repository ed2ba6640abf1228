package sound

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/clouxart/breathe/internal/breath"
	"github.com/clouxart/breathe/internal/logging"
	"github.com/clouxart/breathe/internal/pattern"
)

const (
	// staleAfter drops cues for phases that began this long ago, such as
	// those replayed when the engine catches up after a stall.
	staleAfter = time.Second
	// ambientRestartDelay is the gap before a changed ambient sound restarts.
	ambientRestartDelay = 100 * time.Millisecond
	// AmbientPreviewLength is how long an ambient preview plays.
	AmbientPreviewLength = 3 * time.Second
)

// ErrDisabled is returned by previews while sound is turned off.
var ErrDisabled = errors.New("sound disabled")

// Coordinator reacts to engine events with cues, ambient sound and haptics.
type Coordinator struct {
	player  Player
	ambient Ambient
	preview Ambient
	haptics Haptics
	logger  *logging.Logger
	now     func() time.Time

	// previewLength bounds an ambient preview.
	previewLength time.Duration

	mu      sync.Mutex
	cfg     Config
	session bool
	paused  bool
	clips   map[string]Clip
	closed  bool

	// pending holds the phase entered while paused; its cue plays on resume.
	pending pattern.Phase

	// ctx is cancelled by Close. clipCancel stops the current phase cues,
	// previewCancel the current preview.
	ctx           context.Context
	cancel        context.CancelFunc
	clipCtx       context.Context
	clipCancel    context.CancelFunc
	previewCancel context.CancelFunc
	previewTimer  *time.Timer
	timers        []*time.Timer
	wg            sync.WaitGroup
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithHaptics sets the haptics implementation.
func WithHaptics(h Haptics) CoordinatorOption {
	return func(c *Coordinator) {
		if h != nil {
			c.haptics = h
		}
	}
}

// WithPreviewAmbient sets the player used by PreviewAmbient. It must not be
// the session's ambient player. Without it ambient previews are silent.
func WithPreviewAmbient(a Ambient) CoordinatorOption {
	return func(c *Coordinator) {
		if a != nil {
			c.preview = a
		}
	}
}

// WithLogger sets the debug logger.
func WithLogger(l *logging.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = l.Named("sound")
	}
}

// WithNow overrides the clock used for the stale cue check.
func WithNow(now func() time.Time) CoordinatorOption {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCoordinator creates a Coordinator. A nil ambient disables background
// sound.
func NewCoordinator(cfg Config, player Player, ambient Ambient, opts ...CoordinatorOption) *Coordinator {
	if player == nil {
		player = Nop{}
	}
	if ambient == nil {
		ambient = nopAmbient{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		player:  player,
		ambient: ambient,
		preview: nopAmbient{},
		haptics: NopHaptics{},
		logger:  logging.Nop(),
		now:     time.Now,
		cfg:     cfg.Normalize(),
		clips:   make(map[string]Clip),
		ctx:     ctx,
		cancel:  cancel,

		previewLength: AmbientPreviewLength,
	}
	c.clipCtx, c.clipCancel = context.WithCancel(ctx)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run handles events until the channel closes or ctx is done.
func (c *Coordinator) Run(ctx context.Context, events <-chan breath.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			c.Handle(ev)
		}
	}
}

// Handle reacts to a single engine event.
func (c *Coordinator) Handle(ev breath.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	switch ev.Type {
	case breath.EventStarted:
		c.session = true
		c.paused = false
		c.pending = ""
		c.haptics.Impact(Medium)
		c.startAmbientLocked()
	case breath.EventPhase:
		if ev.Snapshot.Paused {
			c.pending = ev.Phase
			return
		}
		c.pending = ""
		c.haptics.Impact(Light)
		c.cueLocked(ev.Phase, ev.At)
	case breath.EventPaused:
		c.paused = true
		c.ambient.Pause()
		c.stopClipsLocked()
	case breath.EventResumed:
		c.paused = false
		c.ambient.Resume()
		if phase := c.pending; phase != "" {
			c.pending = ""
			c.haptics.Impact(Light)
			c.cueLocked(phase, c.now())
		}
	case breath.EventStopped:
		c.session = false
		c.paused = false
		c.pending = ""
		c.ambient.Stop()
		c.stopClipsLocked()
		c.haptics.Impact(Medium)
	}
}

// Config returns the active configuration.
func (c *Coordinator) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// UpdateConfig applies cfg. Changing the ambient sound during a session
// restarts it after a short gap; volume changes apply immediately.
func (c *Coordinator) UpdateConfig(cfg Config) {
	cfg = cfg.Normalize()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	old := c.cfg
	c.cfg = cfg

	if !cfg.Enabled {
		c.ambient.Stop()
		c.stopPreviewLocked()
		c.stopClipsLocked()
		return
	}
	if !c.session || c.paused {
		return
	}

	if cfg.Ambient != old.Ambient || cfg.Enabled != old.Enabled {
		c.ambient.Stop()
		if cfg.Ambient != AmbientNone {
			c.afterLocked(ambientRestartDelay, func() {
				if c.session && !c.paused {
					c.startAmbientLocked()
				}
			})
		}
		return
	}
	if cfg.AmbientVolume != old.AmbientVolume {
		c.ambient.SetVolume(cfg.AmbientVolume)
	}
}

// Preview plays a one-off sample of an indicator voice. A new preview cancels
// the previous one.
func (c *Coordinator) Preview(kind SoundType) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return context.Canceled
	}
	if !c.cfg.Enabled {
		return ErrDisabled
	}
	if kind == SoundNone {
		return nil
	}

	if c.previewCancel != nil {
		c.previewCancel()
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.previewCancel = cancel

	phase := pattern.PhaseInhale
	clip := c.clipLocked(kind, phase, c.cfg.IndicatorVolume)
	c.playLocked(ctx, clip)
	return nil
}

// PreviewAmbient plays kind for a few seconds on the preview player, leaving
// the session's ambient sound alone. A new preview replaces the previous one.
func (c *Coordinator) PreviewAmbient(kind AmbientType) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return context.Canceled
	}
	if !c.cfg.Enabled {
		return ErrDisabled
	}
	if kind == AmbientNone {
		return nil
	}

	c.stopPreviewLocked()
	if err := c.preview.Start(kind, c.cfg.AmbientVolume); err != nil {
		return fmt.Errorf("preview %s: %w", kind, err)
	}
	var t *time.Timer
	t = c.afterLocked(c.previewLength, func() {
		// A timer that fired while a newer preview took the lock is stale.
		if c.previewTimer != t {
			return
		}
		c.previewTimer = nil
		c.preview.Stop()
	})
	c.previewTimer = t
	return nil
}

// Wait blocks until every clip in flight has finished playing.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Close cancels every clip and timer and stops the ambient sound.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for _, t := range c.timers {
		t.Stop()
	}
	c.timers = nil
	c.previewTimer = nil
	c.cancel()
	c.ambient.Stop()
	c.preview.Stop()
	c.mu.Unlock()

	c.wg.Wait()
}

func (c *Coordinator) cueLocked(phase pattern.Phase, at time.Time) {
	cfg := c.cfg
	if !cfg.Enabled || cfg.PhaseIndicator == SoundNone {
		return
	}
	if !Cues(cfg.PhaseIndicator, phase) {
		return
	}
	if age := c.now().Sub(at); age > staleAfter {
		c.logger.Debugf("skipping stale %s cue (%s old)", phase, age)
		return
	}
	c.playLocked(c.clipCtx, c.clipLocked(cfg.PhaseIndicator, phase, cfg.IndicatorVolume))
}

// clipLocked renders a cue, caching by voice, phase and volume.
func (c *Coordinator) clipLocked(kind SoundType, phase pattern.Phase, volume float64) Clip {
	key := fmt.Sprintf("%s/%s/%.2f", kind, phase, volume)
	if clip, ok := c.clips[key]; ok {
		return clip
	}
	clip := Render(string(kind)+"-"+string(phase), Voices(kind, phase), volume)
	c.clips[key] = clip
	return clip
}

func (c *Coordinator) playLocked(ctx context.Context, clip Clip) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.player.PlayClip(ctx, clip); err != nil && ctx.Err() == nil {
			c.logger.Warnf("play %s: %v", clip.Name, err)
		}
	}()
}

func (c *Coordinator) stopClipsLocked() {
	c.clipCancel()
	c.clipCtx, c.clipCancel = context.WithCancel(c.ctx)
}

func (c *Coordinator) startAmbientLocked() {
	cfg := c.cfg
	if !cfg.Enabled || cfg.Ambient == AmbientNone {
		return
	}
	if err := c.ambient.Start(cfg.Ambient, cfg.AmbientVolume); err != nil {
		c.logger.Warnf("start ambient: %v", err)
	}
}

// stopPreviewLocked ends the ambient preview and cancels its timer.
func (c *Coordinator) stopPreviewLocked() {
	if c.previewTimer != nil {
		c.previewTimer.Stop()
		c.dropTimerLocked(c.previewTimer)
		c.previewTimer = nil
	}
	c.preview.Stop()
}

// afterLocked runs fn with c.mu held after d, unless the coordinator closes
// first.
func (c *Coordinator) afterLocked(d time.Duration, fn func()) *time.Timer {
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.dropTimerLocked(t)
		if c.closed {
			return
		}
		fn()
	})
	c.timers = append(c.timers, t)
	return t
}

func (c *Coordinator) dropTimerLocked(t *time.Timer) {
	for i, other := range c.timers {
		if other == t {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			return
		}
	}
}

type nopAmbient struct{}

func (nopAmbient) Start(AmbientType, float64) error { return nil }
func (nopAmbient) Pause()                           {}
func (nopAmbient) Resume()                          {}
func (nopAmbient) Stop()                            {}
func (nopAmbient) SetVolume(float64)                {}
