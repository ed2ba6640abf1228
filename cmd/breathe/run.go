package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/clouxart/breathe/internal/breath"
	"github.com/clouxart/breathe/internal/pattern"
	"github.com/clouxart/breathe/internal/prefs"
	"github.com/clouxart/breathe/internal/tui"
)

var (
	runPattern  string
	runCycles   int
	runDuration time.Duration
	runMute     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a session in plain terminal mode",
	Long: `Run a breathing session that prints one line per phase.

The pattern is the saved selection unless --pattern names another one.
--pattern accepts a pattern name ("Box Breathing"), a library index ("1")
or durations in seconds ("4-7-8-0").

The session runs until --cycles or --duration is reached, or until ctrl+c.
Completed breaths are added to the lifetime total either way.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()
		return runPlain(cmd.Context(), env, cmd.OutOrStdout())
	},
}

func init() {
	runCmd.Flags().StringVarP(&runPattern, "pattern", "p", "", "Pattern name, index or durations (e.g. 4-7-8-0)")
	runCmd.Flags().IntVarP(&runCycles, "cycles", "n", 0, "Stop after this many breaths (0 = no limit)")
	runCmd.Flags().DurationVarP(&runDuration, "duration", "d", 0, "Stop after this much breathing time (0 = no limit)")
	runCmd.Flags().BoolVar(&runMute, "mute", false, "Disable sound for this session")
}

// runLimits ends a plain session.
type runLimits struct {
	cycles   int
	duration time.Duration
}

// reached reports whether ev completes the session.
func (l runLimits) reached(ev breath.Event) bool {
	if l.cycles > 0 && ev.Type == breath.EventCycle && ev.Snapshot.Cycles >= l.cycles {
		return true
	}
	if l.duration > 0 && time.Duration(ev.Snapshot.SessionSeconds)*time.Second >= l.duration {
		return true
	}
	return false
}

func runPlain(ctx context.Context, env *deps, out io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if runCycles < 0 || runDuration < 0 {
		return fmt.Errorf("--cycles and --duration must not be negative")
	}

	saved := env.prefs.Load(ctx)
	p, err := resolvePattern(runPattern, env.library, saved)
	if err != nil {
		return err
	}

	soundCfg := saved.Sound
	if runMute {
		soundCfg.Enabled = false
	}

	sess, err := env.newSession(p, soundCfg, nil)
	if err != nil {
		return err
	}
	events := sess.runner.Subscribe(64)

	runCtx, cancel := context.WithCancel(context.Background())
	runDone := sess.runLoop(runCtx)

	printer := newPhasePrinter(out)
	printer.header(p, runLimits{cycles: runCycles, duration: runDuration})

	if err := sess.runner.Start(); err != nil {
		cancel()
		<-runDone
		sess.finish()
		return fmt.Errorf("start session: %w", err)
	}

	followSession(ctx, events, runLimits{cycles: runCycles, duration: runDuration}, printer)

	cancel()
	runErr := <-runDone
	summary, stopped := sess.finish()
	if runErr != nil {
		return fmt.Errorf("run engine: %w", runErr)
	}
	if stopped {
		total, err := env.prefs.TotalBreaths(context.Background())
		if err != nil {
			env.logger.Warnf("read total breaths: %v", err)
		}
		printer.summary(summary, total)
	}
	return nil
}

// followSession prints events until the limits are reached, ctx is done or
// the channel closes.
func followSession(ctx context.Context, events <-chan breath.Event, limits runLimits, printer *phasePrinter) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			printer.event(ev)
			if limits.reached(ev) {
				return
			}
		}
	}
}

// resolvePattern picks the pattern for a plain session. An empty arg means
// the saved selection.
func resolvePattern(arg string, lib *pattern.Library, saved prefs.Prefs) (pattern.Pattern, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return lib.Resolve(saved.PatternIndex, saved.Custom), nil
	}
	if i, ok := lib.Find(arg); ok {
		return lib.Resolve(i, saved.Custom), nil
	}
	if i, err := strconv.Atoi(arg); err == nil {
		if i < 0 || i >= lib.Len() {
			return pattern.Pattern{}, fmt.Errorf("pattern index %d out of range (0-%d)", i, lib.Len()-1)
		}
		return lib.Resolve(i, saved.Custom), nil
	}
	p, err := pattern.Parse(arg)
	if err != nil {
		return pattern.Pattern{}, fmt.Errorf("unknown pattern %q (see 'breathe patterns'): %w", arg, err)
	}
	return p, nil
}

// phasePrinter writes the plain mode output.
type phasePrinter struct {
	out    io.Writer
	phases map[pattern.Phase]*color.Color
	dim    *color.Color
	bold   *color.Color
}

func newPhasePrinter(out io.Writer) *phasePrinter {
	return &phasePrinter{
		out: out,
		phases: map[pattern.Phase]*color.Color{
			pattern.PhaseInhale: color.New(color.FgCyan, color.Bold),
			pattern.PhaseHold1:  color.New(color.FgYellow, color.Bold),
			pattern.PhaseExhale: color.New(color.FgGreen, color.Bold),
			pattern.PhaseHold2:  color.New(color.FgMagenta, color.Bold),
		},
		dim:  color.New(color.Faint),
		bold: color.New(color.Bold),
	}
}

func (p *phasePrinter) header(pat pattern.Pattern, limits runLimits) {
	line := fmt.Sprintf("%s %s", p.bold.Sprint(pat.Name), p.dim.Sprintf("(%s)", pat))
	switch {
	case limits.cycles > 0:
		line += p.dim.Sprintf(" for %d breaths", limits.cycles)
	case limits.duration > 0:
		line += p.dim.Sprintf(" for %s", limits.duration)
	}
	fmt.Fprintln(p.out, line)
	fmt.Fprintln(p.out, p.dim.Sprint("Press ctrl+c to stop."))
	fmt.Fprintln(p.out)
}

func (p *phasePrinter) event(ev breath.Event) {
	switch ev.Type {
	case breath.EventPhase:
		c, ok := p.phases[ev.Phase]
		if !ok {
			c = p.bold
		}
		fmt.Fprintf(p.out, "%s  %s %s\n",
			p.dim.Sprintf("[%s]", tui.FormatClock(ev.Snapshot.SessionSeconds)),
			c.Sprintf("%-12s", ev.Phase.Label()),
			p.dim.Sprintf("%ds", ev.Snapshot.PhaseSeconds))
	case breath.EventCycle:
		fmt.Fprintln(p.out, p.dim.Sprintf("         breath %d", ev.Snapshot.Cycles))
	}
}

func (p *phasePrinter) summary(s breath.Summary, total int) {
	fmt.Fprintln(p.out)
	fmt.Fprintf(p.out, "%s %d breaths in %s (lifetime %d)\n",
		color.GreenString("✓ Session complete:"), s.Cycles, tui.FormatClock(s.Seconds), total)
}
