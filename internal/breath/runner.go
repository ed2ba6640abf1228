package breath

import (
	"context"
	"sync"
	"time"

	"github.com/clouxart/breathe/internal/logging"
	"github.com/clouxart/breathe/internal/pattern"
)

// Runner drives a Machine in real time and publishes its events.
//
// Commands may be called from any goroutine. Events are emitted while the
// machine lock is held, so every subscriber sees them in the order the
// machine produced them.
type Runner struct {
	mu      sync.Mutex
	machine *Machine
	emitter *Emitter
	logger  *logging.Logger
	now     func() time.Time

	// wake nudges Run to recompute its timer after a command.
	wake chan struct{}
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithEmitter sets the emitter used to publish events.
func WithEmitter(e *Emitter) RunnerOption {
	return func(r *Runner) {
		if e != nil {
			r.emitter = e
		}
	}
}

// WithLogger sets the debug logger.
func WithLogger(l *logging.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l.Named("breath")
	}
}

// NewRunner creates a Runner for machine.
func NewRunner(machine *Machine, opts ...RunnerOption) *Runner {
	r := &Runner{
		machine: machine,
		emitter: NewEmitter(),
		logger:  logging.Nop(),
		now:     time.Now,
		wake:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Subscribe returns a channel receiving every event published from now on.
func (r *Runner) Subscribe(buffer int) <-chan Event {
	return r.emitter.Subscribe(buffer)
}

// Emitter returns the emitter events are published on.
func (r *Runner) Emitter() *Emitter {
	return r.emitter
}

// Run advances the machine on schedule until ctx is cancelled.
// A single timer is kept and stopped on every iteration and on return.
func (r *Runner) Run(ctx context.Context) error {
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		r.mu.Lock()
		now := r.now()
		r.publish(r.machine.Advance(now))
		next, scheduled := r.machine.NextWake(now)
		r.mu.Unlock()

		var fire <-chan time.Time
		if scheduled {
			timer.Reset(next.Sub(r.now()))
			fire = timer.C
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.wake:
		case <-fire:
		}
		timer.Stop()
	}
}

// Start begins a session.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	events, err := r.machine.Start(r.now())
	if err != nil {
		return err
	}
	r.logger.Infof("session started pattern=%s (%s)", r.machine.Pattern().Name, r.machine.Pattern())
	r.publish(events)
	r.poke()
	return nil
}

// Stop ends the session and returns its summary.
func (r *Runner) Stop() (Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	summary, events, err := r.machine.Stop(r.now())
	if err != nil {
		return Summary{}, err
	}
	r.logger.Infof("session %s stopped cycles=%d active=%s", summary.SessionID, summary.Cycles, summary.Active)
	r.publish(events)
	r.poke()
	return summary, nil
}

// Pause pauses the active session.
func (r *Runner) Pause() error {
	return r.command("pause", r.machine.Pause)
}

// Resume resumes a paused session.
func (r *Runner) Resume() error {
	return r.command("resume", r.machine.Resume)
}

// TogglePause flips between paused and running.
func (r *Runner) TogglePause() error {
	return r.command("toggle", r.machine.TogglePause)
}

// SetPattern switches the pattern, restarting an active cycle at inhale.
func (r *Runner) SetPattern(p pattern.Pattern) error {
	return r.command("pattern", func(now time.Time) ([]Event, error) {
		return r.machine.SetPattern(p, now)
	})
}

// Snapshot returns the current engine state.
func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machine.Snapshot(r.now())
}

// Close closes every subscriber channel. Call it after Run has returned.
func (r *Runner) Close() {
	r.emitter.Close()
}

func (r *Runner) command(name string, fn func(time.Time) ([]Event, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	events, err := fn(r.now())
	if err != nil {
		r.logger.Debugf("%s rejected: %v", name, err)
		return err
	}
	r.publish(events)
	r.poke()
	return nil
}

// publish must be called with r.mu held.
func (r *Runner) publish(events []Event) {
	for _, ev := range events {
		if ev.Type != EventTick {
			r.logger.Debugf("%s phase=%s cycles=%d countdown=%d", ev.Type, ev.Phase, ev.Snapshot.Cycles, ev.Snapshot.Countdown)
		}
		r.emitter.Emit(ev)
	}
}

func (r *Runner) poke() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}
