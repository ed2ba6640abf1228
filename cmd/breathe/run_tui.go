package main

import (
	"context"
	"fmt"
	"io"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/clouxart/breathe/internal/breath"
	"github.com/clouxart/breathe/internal/pattern"
	"github.com/clouxart/breathe/internal/tui"
	"github.com/clouxart/breathe/internal/watch"
)

// runTUI runs the interactive breathing UI until the user quits.
func runTUI(ctx context.Context, env *deps) (retErr error) {
	// Suppress log output while TUI is active (it corrupts the display)
	originalOutput := log.Writer()
	log.SetOutput(io.Discard)
	defer log.SetOutput(originalOutput)

	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("PANIC in runTUI: %v", r)
		}
	}()

	saved := env.prefs.Load(ctx)
	initial := env.library.Resolve(saved.PatternIndex, saved.Custom)

	var program *tea.Program
	sess, err := env.newSession(initial, saved.Sound, func(total int) {
		program.Send(tui.TotalBreathsMsg{Total: total})
	})
	if err != nil {
		return err
	}
	events := sess.runner.Subscribe(64)

	app := tui.NewApp(tui.Options{
		Engine:      sess.runner,
		Store:       env.prefs,
		Sound:       sess.sound,
		Library:     env.library,
		Initial:     saved,
		RefreshRate: env.cfg.TUI.RefreshRate,
		Context:     ctx,
	})
	program = tui.NewProgram(app, env.cfg.TUI.AltScreen)

	go forwardEventsToTUI(program, events)

	if env.cfg.Patterns.File != "" {
		w, err := watch.New(env.cfg.Patterns.File, func(ps []pattern.Pattern, err error) {
			program.Send(tui.PatternsReloadedMsg{Patterns: ps, Err: err})
		}, watch.WithLogger(env.logger))
		if err != nil {
			env.logger.Warnf("pattern file not watched: %v", err)
		} else {
			defer w.Close()
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	runDone := sess.runLoop(runCtx)

	_, tuiErr := program.Run()

	cancel()
	runErr := <-runDone
	sess.finish()

	if tuiErr != nil {
		return fmt.Errorf("run tui: %w", tuiErr)
	}
	if runErr != nil {
		return fmt.Errorf("run engine: %w", runErr)
	}
	return nil
}

// forwardEventsToTUI converts engine events to TUI messages. It returns when
// the runner closes the channel.
func forwardEventsToTUI(program *tea.Program, events <-chan breath.Event) {
	for ev := range events {
		if ev.Type == breath.EventTick {
			continue
		}
		program.Send(tui.EngineEventMsg{Event: ev})
	}
}
