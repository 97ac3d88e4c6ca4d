// Package player runs the external video player and drives a queue through it.
package player

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// DefaultBinary is the player looked up on PATH when none is configured.
const DefaultBinary = "mpv"

// Player plays one file synchronously and reports the process exit code.
type Player interface {
	Play(ctx context.Context, path string) (int, error)
}

// ToolError is returned when the player could not be run at all, as opposed
// to running and exiting non-zero.
type ToolError struct {
	Tool string
	Err  error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("player: run %s: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// MPV runs mpv fullscreen with its terminal output and subtitles off.
type MPV struct {
	Binary string
	// Extra arguments are placed before the file name.
	Extra []string
}

// Args returns the command line for path, without the binary.
func (m MPV) Args(path string) []string {
	args := []string{"--fullscreen", "--no-terminal", "--sub-visibility=no"}
	args = append(args, m.Extra...)
	return append(args, "--", path)
}

func (m MPV) binary() string {
	if m.Binary == "" {
		return DefaultBinary
	}
	return m.Binary
}

// Play blocks until the player exits.
func (m MPV) Play(ctx context.Context, path string) (int, error) {
	cmd := exec.CommandContext(ctx, m.binary(), m.Args(path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if ctx.Err() != nil {
		return -1, ctx.Err()
	}
	var exit *exec.ExitError
	if errors.As(err, &exit) {
		return exit.ExitCode(), nil
	}
	if err != nil {
		return -1, &ToolError{Tool: m.binary(), Err: err}
	}
	return 0, nil
}
