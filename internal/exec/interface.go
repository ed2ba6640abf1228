// Package exec provides an interface for running the external programs that
// play audio.
package exec

import (
	"context"
)

// CommandRunner defines the interface for running external commands.
// This abstraction allows mocking command execution in tests.
type CommandRunner interface {
	// Run executes a command, waits for it, and returns combined
	// stdout/stderr output. Cancelling ctx kills the command.
	Run(ctx context.Context, name string, args ...string) (output []byte, err error)

	// LookPath reports the path of an executable found on PATH.
	LookPath(name string) (string, error)
}
