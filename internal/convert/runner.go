package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// LaunchReason distinguishes why the engine never started.
type LaunchReason string

const (
	LaunchEngineNotFound LaunchReason = "engine_not_found"
	LaunchSpawnFailed    LaunchReason = "spawn_failed"
)

// LaunchError reports that the external engine could not be started.
// No partial output exists when this error is returned.
type LaunchError struct {
	Reason LaunchReason
	Engine string
	Err    error
}

// Error formats launch failures for logs and UI.
func (e *LaunchError) Error() string {
	if e.Reason == LaunchEngineNotFound {
		return fmt.Sprintf("engine not found on PATH: %s", e.Engine)
	}
	return fmt.Sprintf("failed to launch %s: %v", e.Engine, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *LaunchError) Unwrap() error {
	return e.Err
}

// EngineError reports a non-zero engine exit, with the trailing output
// lines kept for diagnosis. The destination file may exist but must be
// treated as incomplete.
type EngineError struct {
	ExitCode int
	Tail     []string
	Err      error
}

// Error formats the failed run for logs and UI.
func (e *EngineError) Error() string {
	return fmt.Sprintf("engine exited with code %d", e.ExitCode)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// engineProcess is a started external engine exposing its combined
// output stream and a reaping Wait.
type engineProcess interface {
	// Output is the merged stdout+stderr stream. It reaches EOF once
	// the process has closed both descriptors.
	Output() io.Reader
	// Wait reaps the process and reports its exit code alongside the
	// wait error. It must be called on every path so no child is left
	// as a zombie.
	Wait() (int, error)
}

// engineSpawner abstracts process creation so tests can script engine
// output and exit codes without a real transcoder.
type engineSpawner interface {
	Spawn(ctx context.Context, name string, args []string) (engineProcess, error)
}

// execSpawner launches real processes via os/exec. Stdout and stderr
// share one pipe so the line order seen by the reader matches the order
// the engine produced bytes.
type execSpawner struct{}

type execProcess struct {
	cmd *exec.Cmd
	out *os.File
}

func (p *execProcess) Output() io.Reader {
	return p.out
}

func (p *execProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	_ = p.out.Close()
	return exitCode(err), err
}

// Spawn starts the engine with the literal argument vector. No shell is
// ever involved, so filenames with metacharacters pass through intact.
func (s *execSpawner) Spawn(ctx context.Context, name string, args []string) (engineProcess, error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return nil, err
	}

	// The child holds its own descriptor copies; closing ours lets the
	// read side hit EOF as soon as the child exits or is killed.
	_ = pw.Close()

	return &execProcess{cmd: cmd, out: pr}, nil
}

// exitCode extracts the engine's exit status from a Wait error.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
