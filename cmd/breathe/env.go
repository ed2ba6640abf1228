package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/clouxart/breathe/internal/breath"
	"github.com/clouxart/breathe/internal/config"
	"github.com/clouxart/breathe/internal/logging"
	"github.com/clouxart/breathe/internal/pattern"
	"github.com/clouxart/breathe/internal/prefs"
	"github.com/clouxart/breathe/internal/sound"
	"github.com/clouxart/breathe/internal/store"
)

// deps holds what every command needs: configuration, logger and stores.
type deps struct {
	cfg     *config.Config
	logger  *logging.Logger
	kv      store.KV
	prefs   *prefs.Store
	library *pattern.Library
}

// setup loads configuration and opens the preference store.
func setup(ctx context.Context) (*deps, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if flagDebug {
		cfg.Log.Debug = true
	}
	if flagEphemeral {
		cfg.Storage.Driver = store.DriverMemory
	}

	logPath := ""
	if cfg.Log.Debug {
		logPath = cfg.Log.File
		if logPath == "" {
			logPath = logging.DefaultPath()
		}
	}
	logger, err := logging.New(logPath, cfg.Log.Debug)
	if err != nil {
		log.Printf("[breathe] debug log disabled: %v", err)
		logger = logging.Nop()
	}

	path := cfg.Storage.Path
	if path == "" {
		path = store.DefaultPath()
	}
	kv, err := store.Open(cfg.Storage.Driver, path)
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("open preferences: %w", err)
	}
	logger.Infof("store driver=%s path=%s", cfg.Storage.Driver, path)

	e := &deps{
		cfg:    cfg,
		logger: logger,
		kv:     kv,
		prefs:  prefs.New(kv, logger),
	}
	e.library = e.loadLibrary()
	return e, nil
}

func loadConfig() (*config.Config, error) {
	if flagConfig != "" {
		if _, err := os.Stat(flagConfig); errors.Is(err, os.ErrNotExist) {
			// config set creates the file
			return config.Default(), nil
		}
		cfg, err := config.LoadFromPath(flagConfig)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", flagConfig, err)
		}
		return cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// loadLibrary reads the user pattern file. A broken file is reported and
// the presets are used alone.
func (e *deps) loadLibrary() *pattern.Library {
	extra, err := pattern.LoadFile(e.cfg.Patterns.File)
	if err != nil {
		log.Printf("[patterns] %v", err)
		e.logger.Warnf("load patterns: %v", err)
		return pattern.NewLibrary(nil)
	}
	return pattern.NewLibrary(extra)
}

// Close releases the store and the log file.
func (e *deps) Close() {
	if err := e.kv.Close(); err != nil {
		log.Printf("[store] close: %v", err)
	}
	e.logger.Close()
}

// newPlayer returns the configured audio player.
func (e *deps) newPlayer() sound.Player {
	player, err := sound.DetectPlayer(e.cfg.Audio.Player)
	if err != nil {
		log.Printf("[sound] %v, using terminal bell", err)
		return sound.NewBellPlayer(os.Stderr)
	}
	return player
}

// newCoordinator builds the sound coordinator for cfg.
func (e *deps) newCoordinator(cfg sound.Config) *sound.Coordinator {
	player := e.newPlayer()
	dir := e.cfg.Audio.SoundsDir
	if dir == "" {
		dir = sound.DefaultSoundsDir()
	}
	return sound.NewCoordinator(cfg, player, sound.NewLoopPlayer(player, dir, e.logger),
		sound.WithPreviewAmbient(sound.NewLoopPlayer(player, dir, e.logger)),
		sound.WithHaptics(sound.NewTerminalHaptics(os.Stderr)),
		sound.WithLogger(e.logger),
	)
}

// session is a runner together with the subscribers that outlive its Run
// loop: the breath counter and the sound coordinator.
type session struct {
	runner    *breath.Runner
	sound     *sound.Coordinator
	consumers errgroup.Group
}

// newSession creates a runner for p. onTotal receives the lifetime breath
// count after each finished session.
func (e *deps) newSession(p pattern.Pattern, soundCfg sound.Config, onTotal func(int)) (*session, error) {
	m, err := breath.NewMachine(p)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	s := &session{
		runner: breath.NewRunner(m, breath.WithLogger(e.logger)),
		sound:  e.newCoordinator(soundCfg),
	}

	// Both consumers exit when the runner closes their channels, so the
	// stopped event of the final session is always counted.
	counted := s.runner.Subscribe(16)
	cues := s.runner.Subscribe(64)
	s.consumers.Go(func() error {
		return e.prefs.Count(context.Background(), counted, onTotal)
	})
	s.consumers.Go(func() error {
		return s.sound.Run(context.Background(), cues)
	})
	return s, nil
}

// finish stops an active session, closes the runner and waits for the
// consumers. Call it after the Run loop has returned.
func (s *session) finish() (breath.Summary, bool) {
	summary, err := s.runner.Stop()
	stopped := err == nil
	if err != nil && !errors.Is(err, breath.ErrNotRunning) {
		log.Printf("[breath] stop: %v", err)
	}
	s.runner.Close()
	if err := s.consumers.Wait(); err != nil {
		log.Printf("[breath] subscriber: %v", err)
	}
	s.sound.Close()
	return summary, stopped
}

// runLoop runs the runner until ctx is done. The returned channel yields
// Run's result, with cancellation reported as nil.
func (s *session) runLoop(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		err := s.runner.Run(ctx)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		done <- err
	}()
	return done
}
