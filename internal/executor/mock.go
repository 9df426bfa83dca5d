package executor

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MockLauncher is a ProcessLauncher for tests. It is safe for concurrent use.
type MockLauncher struct {
	LaunchFunc   func(ctx context.Context, cmd Command) (*ExecutionResult, error)
	LookPathFunc func(file string) (string, error)

	mu    sync.Mutex
	calls []Command
}

// Launch records cmd and calls LaunchFunc. Without LaunchFunc it
// returns an empty, successful result.
func (m *MockLauncher) Launch(ctx context.Context, cmd Command) (*ExecutionResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, cmd)
	m.mu.Unlock()

	if m.LaunchFunc != nil {
		return m.LaunchFunc(ctx, cmd)
	}
	return &ExecutionResult{RunID: uuid.New().String()}, nil
}

// LookPath calls LookPathFunc, defaulting to /usr/bin/<file>.
func (m *MockLauncher) LookPath(file string) (string, error) {
	if m.LookPathFunc != nil {
		return m.LookPathFunc(file)
	}
	return "/usr/bin/" + file, nil
}

// Calls returns a copy of the recorded commands in launch order.
func (m *MockLauncher) Calls() []Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Command(nil), m.calls...)
}

// Respond is a LaunchFunc that always returns a result with the given output.
func Respond(stdout, stderr string, exitCode int) func(context.Context, Command) (*ExecutionResult, error) {
	return func(context.Context, Command) (*ExecutionResult, error) {
		return &ExecutionResult{
			RunID:    uuid.New().String(),
			ExitCode: exitCode,
			Stdout:   stdout,
			Stderr:   stderr,
		}, nil
	}
}
