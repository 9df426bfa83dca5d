package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ksyq12/hostcheck/internal/config"
	"github.com/ksyq12/hostcheck/internal/output"
	"github.com/spf13/cobra"
)

// errCasesFailed is returned by run when at least one case failed. The
// per-case report has already been printed, so Execute only sets the
// exit status.
var errCasesFailed = errors.New("one or more cases failed")

// loadConfig loads the tool config from --config or the default location
func loadConfig() (*config.Config, error) {
	cfg, err := deps.ConfigLoader.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// loadSuites loads every suite file, stopping at the first invalid one
func loadSuites(paths []string, cfg *config.Config) ([]*config.Suite, error) {
	suites := make([]*config.Suite, 0, len(paths))
	for _, p := range paths {
		s, err := config.LoadSuite(p, cfg)
		if err != nil {
			return nil, err
		}
		suites = append(suites, s)
	}
	return suites, nil
}

// outputResult handles JSON or human-readable output
func outputResult(data interface{}, successMsg string, args ...interface{}) error {
	if jsonOutput {
		return output.JSON(data)
	}
	output.Success(successMsg, args...)
	return nil
}

// shellBuiltins never need to be on PATH.
var shellBuiltins = map[string]bool{
	":": true, ".": true, "[": true, "cd": true, "echo": true, "exit": true,
	"export": true, "false": true, "printf": true, "set": true, "test": true,
	"true": true, "exec": true, "source": true,
}

// commandBinary returns the program a command line starts, skipping
// leading VAR=value assignments. It returns "" for shell builtins.
func commandBinary(line string) string {
	for _, field := range strings.Fields(line) {
		if strings.Contains(field, "=") && !strings.HasPrefix(field, "=") {
			continue
		}
		if shellBuiltins[field] {
			return ""
		}
		return field
	}
	return ""
}

// commandContext returns the context of cmd, or Background when cmd
// was not started through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}
