// Package watch reloads the user pattern file when it changes on disk.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/clouxart/breathe/internal/logging"
	"github.com/clouxart/breathe/internal/pattern"
)

// DefaultDebounce collapses the burst of events an editor save produces.
const DefaultDebounce = 200 * time.Millisecond

// ReloadFunc receives the patterns read after a change, or the load error.
type ReloadFunc func(patterns []pattern.Pattern, err error)

// Watcher watches one pattern file.
type Watcher struct {
	path     string
	onReload ReloadFunc
	debounce time.Duration
	logger   *logging.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}
	stopped chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the debug logger.
func WithLogger(l *logging.Logger) Option {
	return func(w *Watcher) {
		w.logger = l.Named("watch")
	}
}

// New starts watching path. The parent directory is watched so the file may
// be created, replaced or removed after the watcher starts.
func New(path string, onReload ReloadFunc, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	w := &Watcher{
		path:     abs,
		onReload: onReload,
		debounce: DefaultDebounce,
		logger:   logging.Nop(),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create pattern directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	w.watcher = watcher

	go w.loop()
	return w, nil
}

// Path returns the watched file.
func (w *Watcher) Path() string {
	return w.path
}

func (w *Watcher) loop() {
	defer close(w.stopped)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			w.logger.Debugf("%s %s", event.Op, event.Name)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			patterns, err := pattern.LoadFile(w.path)
			if err != nil {
				w.logger.Warnf("reload %s: %v", w.path, err)
			}
			w.onReload(patterns, err)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warnf("watcher error: %v", err)
		}
	}
}

// Close stops watching and waits for the watch goroutine to exit.
// Calling it again, from any goroutine, returns the first result.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
		w.closeErr = w.watcher.Close()
		<-w.stopped
	})
	return w.closeErr
}
