package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/clouxart/breathe/internal/sound"
)

var previewCmd = &cobra.Command{
	Use:   "preview <indicator|ambient> <type>",
	Short: "Play a sample of a sound",
	Long: `Play a sample of a phase indicator or an ambient sound, using the
saved volumes and the configured audio player.

Indicators: bell, chime, bowl, gong, singing-bowl
Ambient:    ocean, rain, forest, birds, thunder, wind, whitenoise

Ambient files are read from audio.sounds_dir (<type>.mp3, white-noise.wav).`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"indicator", "ambient"},
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		cfg := env.prefs.Load(cmd.Context()).Sound
		cfg.Enabled = true
		coord := env.newCoordinator(cfg)
		defer coord.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return playPreview(ctx, coord, args[0], args[1])
	},
}

// playPreview plays one sample and waits for it to finish.
func playPreview(ctx context.Context, coord *sound.Coordinator, what, name string) error {
	switch strings.ToLower(what) {
	case "indicator", "sound":
		kind, err := sound.ParseSoundType(name)
		if err != nil {
			return err
		}
		if err := coord.Preview(kind); err != nil {
			return fmt.Errorf("preview %s: %w", kind, err)
		}
		done := make(chan struct{})
		go func() {
			coord.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
		}
		return nil
	case "ambient":
		kind, err := sound.ParseAmbientType(name)
		if err != nil {
			return err
		}
		if err := coord.PreviewAmbient(kind); err != nil {
			return err
		}
		select {
		case <-time.After(sound.AmbientPreviewLength):
		case <-ctx.Done():
		}
		return nil
	default:
		return fmt.Errorf("unknown preview %q (want indicator or ambient)", what)
	}
}
