package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"

	cerrors "github.com/ksyq12/hostcheck/internal/errors"
)

// DefaultMaxOutput caps each captured stream when none is configured.
const DefaultMaxOutput = 1 << 20

// waitDelay bounds how long Wait blocks on pipes held open by
// grandchildren after the process group has been killed.
const waitDelay = 500 * time.Millisecond

// Command describes one subprocess invocation.
type Command struct {
	Line    string        // passed to the shell verbatim
	Dir     string        // working directory; empty means the current one
	Timeout time.Duration // zero means no limit beyond ctx
	Env     []string      // KEY=VALUE pairs appended to the current environment
}

// ExecutionResult is the captured outcome of one subprocess.
// It is created once by Launch and never modified afterwards.
type ExecutionResult struct {
	RunID     string
	ExitCode  int // -1 when the process was killed
	Stdout    string
	Stderr    string
	Truncated bool // a stream exceeded the capture limit
	TimedOut  bool
	Duration  time.Duration
}

// ProcessLauncher starts subprocesses and waits for them.
type ProcessLauncher interface {
	// Launch runs cmd to completion or until its timeout elapses.
	// A non-nil error means the process never ran (or ctx was cancelled);
	// a non-zero exit or timeout is reported in the result instead.
	Launch(ctx context.Context, cmd Command) (*ExecutionResult, error)

	// LookPath searches for an executable in the directories named by PATH.
	LookPath(file string) (string, error)
}

// SystemLauncher runs command lines through a shell.
type SystemLauncher struct {
	Shell     []string // e.g. ["/bin/sh", "-c"]
	MaxOutput int      // bytes per stream
}

// NewSystemLauncher creates a launcher using the given shell argv prefix.
func NewSystemLauncher(shell []string, maxOutput int) *SystemLauncher {
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutput
	}
	return &SystemLauncher{Shell: shell, MaxOutput: maxOutput}
}

// Launch implements ProcessLauncher.
func (l *SystemLauncher) Launch(ctx context.Context, cmd Command) (*ExecutionResult, error) {
	if cmd.Line == "" {
		return nil, cerrors.Validation("command is empty")
	}
	if len(l.Shell) == 0 {
		return nil, cerrors.Wrap(cerrors.ErrCodeSpawn, "no shell configured", nil)
	}

	runCtx := ctx
	cancel := func() {}
	if cmd.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, cmd.Timeout)
	}
	defer cancel()

	argv := append(append([]string{}, l.Shell...), cmd.Line)
	c := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	c.Dir = cmd.Dir
	c.Env = append(os.Environ(), cmd.Env...)
	c.WaitDelay = waitDelay
	configureProcess(c)

	var stdout, stderr bytes.Buffer
	outW := &limitWriter{buf: &stdout, limit: l.MaxOutput}
	errW := &limitWriter{buf: &stderr, limit: l.MaxOutput}
	c.Stdout = outW
	c.Stderr = errW

	runID := uuid.New().String()
	start := time.Now()
	runErr := c.Run()
	elapsed := time.Since(start)

	result := &ExecutionResult{
		RunID:     runID,
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Truncated: outW.dropped || errW.dropped,
		Duration:  elapsed,
	}

	if runErr == nil {
		return result, nil
	}

	// Our own deadline fired; the process group has been killed.
	if ctx.Err() == nil && runCtx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		result.ExitCode = -1
		return result, nil
	}
	if ctx.Err() != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInternal, "launch cancelled", ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	if errors.Is(runErr, exec.ErrWaitDelay) {
		// Exited, but a grandchild kept the pipes open past waitDelay.
		return result, nil
	}

	return nil, cerrors.Wrap(cerrors.ErrCodeSpawn, fmt.Sprintf("starting %s", argv[0]), runErr)
}

// LookPath implements ProcessLauncher.
func (l *SystemLauncher) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// limitWriter writes up to limit bytes to buf, then silently discards the rest.
type limitWriter struct {
	buf     *bytes.Buffer
	limit   int
	dropped bool
}

func (w *limitWriter) Write(p []byte) (int, error) {
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		w.dropped = w.dropped || len(p) > 0
		return len(p), nil
	}
	if len(p) > remaining {
		// Report everything as consumed so the copy goroutine keeps draining.
		w.buf.Write(p[:remaining])
		w.dropped = true
		return len(p), nil
	}
	return w.buf.Write(p)
}
