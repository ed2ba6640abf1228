package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/clouxart/breathe/internal/api"
	"github.com/clouxart/breathe/internal/pattern"
	"github.com/clouxart/breathe/internal/watch"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the engine behind a local HTTP API",
	Long: `Run the breathing engine headless and control it over HTTP.

Endpoints:
  GET    /health           liveness
  GET    /state            current engine snapshot
  POST   /session/start    start a session
  POST   /session/stop     stop and return the session summary
  POST   /session/pause    pause
  POST   /session/resume   resume
  PUT    /pattern          {"index": n}, {"name": "Calm"} or {"pattern": "4-7-8-0"}
  GET    /patterns         selectable patterns
  GET    /stats            lifetime and session breath counts
  DELETE /stats            reset the lifetime count

Sound cues play on the machine running the server.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()
		addr := serveAddr
		if addr == "" {
			addr = env.cfg.API.Addr
		}
		return runServe(cmd.Context(), env, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from api.addr)")
}

func runServe(ctx context.Context, env *deps, addr string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	saved := env.prefs.Load(ctx)
	sess, err := env.newSession(env.library.Resolve(saved.PatternIndex, saved.Custom), saved.Sound, func(total int) {
		log.Printf("[serve] lifetime breaths: %d", total)
	})
	if err != nil {
		return err
	}

	server := api.NewServer(sess.runner, env.prefs, env.library, api.WithLogger(env.logger))

	if env.cfg.Patterns.File != "" {
		w, err := watch.New(env.cfg.Patterns.File, func(ps []pattern.Pattern, err error) {
			if err != nil {
				log.Printf("[patterns] reload failed: %v", err)
				return
			}
			server.SetLibrary(pattern.NewLibrary(ps))
			log.Printf("[patterns] reloaded %d patterns", len(ps))
		}, watch.WithLogger(env.logger))
		if err != nil {
			log.Printf("[patterns] not watching %s: %v", env.cfg.Patterns.File, err)
		} else {
			defer w.Close()
		}
	}

	log.Printf("[serve] listening on http://%s", addr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sess.runner.Run(gctx)
	})
	g.Go(func() error {
		return server.ListenAndServe(gctx, addr)
	})

	err = g.Wait()
	if summary, stopped := sess.finish(); stopped {
		log.Printf("[serve] stopped session %s after %d breaths", summary.SessionID, summary.Cycles)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
