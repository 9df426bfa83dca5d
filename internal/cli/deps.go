package cli

import (
	"bufio"
	"os"

	"github.com/ksyq12/hostcheck/internal/config"
	"github.com/ksyq12/hostcheck/internal/executor"
	"github.com/ksyq12/hostcheck/internal/platform"
)

// Dependencies aggregates all CLI external dependencies for testability
type Dependencies struct {
	ConfigLoader    ConfigLoader
	LauncherFactory LauncherFactory
	StdinReader     StdinReader
}

// ConfigLoader handles configuration loading
type ConfigLoader interface {
	// Load reads the config at path, or the default location when path is empty.
	Load(path string) (*config.Config, error)
}

// LauncherFactory creates the process launcher cases run through
type LauncherFactory interface {
	Create(cfg *config.Config) (executor.ProcessLauncher, error)
}

// StdinReader reads from stdin
type StdinReader interface {
	ReadString(delim byte) (string, error)
}

// Package-level dependencies (can be overridden for testing)
var deps = &Dependencies{
	ConfigLoader:    &realConfigLoader{},
	LauncherFactory: &realLauncherFactory{},
	StdinReader:     &realStdinReader{},
}

// SetDeps replaces the package dependencies (for testing)
func SetDeps(d *Dependencies) {
	deps = d
}

// GetDeps returns the current dependencies (for testing)
func GetDeps() *Dependencies {
	return deps
}

// Real implementations that delegate to existing functions

type realConfigLoader struct{}

func (r *realConfigLoader) Load(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

type realLauncherFactory struct{}

func (r *realLauncherFactory) Create(cfg *config.Config) (executor.ProcessLauncher, error) {
	shell, err := platform.DetectShell(cfg.Shell)
	if err != nil {
		return nil, err
	}
	return executor.NewSystemLauncher(shell, cfg.MaxOutput), nil
}

type realStdinReader struct {
	reader *bufio.Reader
}

func (r *realStdinReader) ReadString(delim byte) (string, error) {
	if r.reader == nil {
		r.reader = bufio.NewReader(os.Stdin)
	}
	return r.reader.ReadString(delim)
}
