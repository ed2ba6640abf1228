package sound

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/clouxart/breathe/internal/logging"
)

// ErrNoSoundFile is returned when an ambient sound file is missing.
var ErrNoSoundFile = errors.New("ambient sound file not found")

// Ambient plays a looping background sound.
type Ambient interface {
	Start(kind AmbientType, volume float64) error
	Pause()
	Resume()
	Stop()
	SetVolume(volume float64)
}

// minLoop is the shortest playback that is looped again. A player that
// returns faster cannot play files, so looping stops.
const minLoop = 500 * time.Millisecond

// LoopPlayer loops ambient files from a sounds directory through a Player.
// Resume restarts the file from the beginning.
type LoopPlayer struct {
	player Player
	dir    string
	logger *logging.Logger

	mu     sync.Mutex
	kind   AmbientType
	path   string
	volume float64
	paused bool
	cancel context.CancelFunc
	done   chan struct{}
}

// NewLoopPlayer returns a LoopPlayer reading files from dir.
func NewLoopPlayer(player Player, dir string, logger *logging.Logger) *LoopPlayer {
	return &LoopPlayer{
		player: player,
		dir:    dir,
		logger: logger.Named("ambient"),
		kind:   AmbientNone,
	}
}

// DefaultSoundsDir returns the directory ambient files are looked up in.
func DefaultSoundsDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "breathe", "sounds")
}

// Start replaces any playing sound with kind. AmbientNone just stops.
func (l *LoopPlayer) Start(kind AmbientType, volume float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stopLocked()
	l.kind = AmbientNone
	l.paused = false
	if kind == AmbientNone || kind == "" {
		return nil
	}

	path := filepath.Join(l.dir, kind.File())
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s", ErrNoSoundFile, path)
	}

	l.kind = kind
	l.path = path
	l.volume = clamp01(volume)
	l.startLocked()
	l.logger.Debugf("started %s", kind)
	return nil
}

// Pause stops playback but remembers the current sound.
func (l *LoopPlayer) Pause() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.kind == AmbientNone || l.paused {
		return
	}
	l.paused = true
	l.stopLocked()
}

// Resume restarts a paused sound.
func (l *LoopPlayer) Resume() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.kind == AmbientNone || !l.paused {
		return
	}
	l.paused = false
	l.startLocked()
}

// Stop stops playback and forgets the sound.
func (l *LoopPlayer) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()
	l.kind = AmbientNone
	l.paused = false
}

// SetVolume records the volume. Command players have no volume control, so
// it only affects players that read it.
func (l *LoopPlayer) SetVolume(volume float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.volume = clamp01(volume)
}

// Playing returns the current sound and whether it is paused.
func (l *LoopPlayer) Playing() (AmbientType, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.kind, l.paused
}

func (l *LoopPlayer) startLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	l.cancel = cancel
	l.done = done
	go l.loop(ctx, l.path, done)
}

// stopLocked cancels the loop and waits for it to exit.
func (l *LoopPlayer) stopLocked() {
	if l.cancel == nil {
		return
	}
	l.cancel()
	<-l.done
	l.cancel = nil
	l.done = nil
}

func (l *LoopPlayer) loop(ctx context.Context, path string, done chan struct{}) {
	defer close(done)
	for {
		began := time.Now()
		err := l.player.PlayFile(ctx, path)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			l.logger.Warnf("play %s: %v", path, err)
			return
		}
		if time.Since(began) < minLoop {
			return
		}
	}
}
