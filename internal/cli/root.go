package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/ksyq12/hostcheck/internal/logger"
	"github.com/spf13/cobra"
)

var (
	jsonOutput bool
	verbose    bool
	configPath string
	version    = "dev"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "hostcheck",
	Short: "Process assertion test runner for provisioned hosts",
	Long: `hostcheck runs suites of test cases against live hosts.

Each case runs one shell command, waits for it to exit (killing it when its
timeout elapses), and checks its stdout, stderr and exit status against a
list of predicates. Typical checks are the TLS certificate served for a host
name, whether SSLv3 handshakes are refused, and whether provisioning succeeds.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	// Initialize logger based on verbose flag (parsed by cobra)
	cobra.OnInitialize(func() {
		logger.Init(verbose)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errCasesFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(1)
	}
}

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging for debugging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/hostcheck/config.yaml)")
}
