package sound

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/kballard/go-shellquote"

	"github.com/clouxart/breathe/internal/exec"
)

// Player plays rendered clips and sound files.
type Player interface {
	PlayClip(ctx context.Context, clip Clip) error
	PlayFile(ctx context.Context, path string) error
}

// knownPlayers are tried in order by DetectPlayer.
var knownPlayers = [][]string{
	{"paplay"},
	{"aplay", "-q"},
	{"afplay"},
	{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
}

// CommandPlayer plays audio by running an external command with the file
// path appended to its arguments. Cancelling ctx kills the command.
type CommandPlayer struct {
	args   []string
	runner exec.CommandRunner
}

// NewCommandPlayer parses a command line such as "aplay -q". Arguments
// follow shell quoting rules.
func NewCommandPlayer(command string) (*CommandPlayer, error) {
	return newCommandPlayer(exec.NewRunner(), command)
}

func newCommandPlayer(runner exec.CommandRunner, command string) (*CommandPlayer, error) {
	args, err := shellquote.Split(command)
	if err != nil {
		return nil, fmt.Errorf("parse player command %q: %w", command, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("empty player command")
	}
	if _, err := runner.LookPath(args[0]); err != nil {
		return nil, fmt.Errorf("player %s: %w", args[0], err)
	}
	return &CommandPlayer{args: args, runner: runner}, nil
}

// Command returns the player command line.
func (p *CommandPlayer) Command() string {
	return shellquote.Join(p.args...)
}

// PlayClip writes clip to a temporary WAV file and plays it.
func (p *CommandPlayer) PlayClip(ctx context.Context, clip Clip) error {
	f, err := os.CreateTemp("", "breathe-*.wav")
	if err != nil {
		return fmt.Errorf("create clip file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(clip.Data); err != nil {
		f.Close()
		return fmt.Errorf("write clip file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close clip file: %w", err)
	}
	return p.PlayFile(ctx, f.Name())
}

// PlayFile plays path and waits for the command to finish.
func (p *CommandPlayer) PlayFile(ctx context.Context, path string) error {
	args := append(append([]string{}, p.args[1:]...), path)
	out, err := p.runner.Run(ctx, p.args[0], args...)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("run %s: %w: %s", p.args[0], err, msg)
		}
		return fmt.Errorf("run %s: %w", p.args[0], err)
	}
	return nil
}

// BellPlayer rings the terminal bell for every clip. Files are ignored.
type BellPlayer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewBellPlayer returns a BellPlayer writing to w.
func NewBellPlayer(w io.Writer) *BellPlayer {
	return &BellPlayer{w: w}
}

// PlayClip implements Player.
func (p *BellPlayer) PlayClip(_ context.Context, _ Clip) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := io.WriteString(p.w, "\a")
	return err
}

// PlayFile implements Player.
func (p *BellPlayer) PlayFile(_ context.Context, _ string) error {
	return nil
}

// Nop is a silent Player.
type Nop struct{}

func (Nop) PlayClip(context.Context, Clip) error   { return nil }
func (Nop) PlayFile(context.Context, string) error { return nil }

// DetectPlayer returns a player for command, or the first known player found
// on PATH when command is empty. It falls back to a BellPlayer on stderr.
func DetectPlayer(command string) (Player, error) {
	if command != "" {
		switch command {
		case "none":
			return Nop{}, nil
		case "bell":
			return NewBellPlayer(os.Stderr), nil
		}
		return NewCommandPlayer(command)
	}
	for _, args := range knownPlayers {
		if p, err := NewCommandPlayer(strings.Join(args, " ")); err == nil {
			return p, nil
		}
	}
	return NewBellPlayer(os.Stderr), nil
}
