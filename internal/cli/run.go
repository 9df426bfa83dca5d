package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/ksyq12/hostcheck/internal/config"
	"github.com/ksyq12/hostcheck/internal/output"
	"github.com/ksyq12/hostcheck/internal/report"
	"github.com/ksyq12/hostcheck/internal/runner"
	"github.com/spf13/cobra"
)

var (
	runParallel int
	runTimeout  string
	runFormat   string
	runFilter   string
	runFailFast bool
	runOutput   string
	runQuiet    bool
)

var runCmd = &cobra.Command{
	Use:   "run <suite.yaml>...",
	Short: "Run the cases of one or more suites",
	Long: `Run every case of the given suite files and report the outcomes.

A case fails with one of four kinds:
  process_error       the command could not be started
  timeout             the command was killed after its timeout
  predicate_mismatch  an expectation on stdout/stderr did not hold
  non_zero_exit       the command exited non-zero (unless allow_failure)

The exit status is 1 when any case failed.

Examples:
  hostcheck run suites/sni.yaml
  hostcheck run suites/*.yaml --parallel 4
  hostcheck run sni.yaml --filter production --format junit --output report.xml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVarP(&runParallel, "parallel", "p", 0, "Cases to run at once (default from config)")
	runCmd.Flags().StringVarP(&runTimeout, "timeout", "t", "", "Timeout for cases that set none (e.g. 90s, or milliseconds)")
	runCmd.Flags().StringVarP(&runFormat, "format", "f", "", "Report format: text, json, junit (default from config)")
	runCmd.Flags().StringVar(&runFilter, "filter", "", "Only run cases whose name contains this substring")
	runCmd.Flags().BoolVar(&runFailFast, "fail-fast", false, "Stop starting new cases after the first failure")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "Write the report to a file instead of stdout")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "Only report failed and skipped cases")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyRunFlags(cfg); err != nil {
		return err
	}

	suites, err := loadSuites(args, cfg)
	if err != nil {
		return err
	}

	reporter, err := report.New(cfg.Format)
	if err != nil {
		return err
	}
	if text, ok := reporter.(*report.Text); ok {
		text.Quiet = runQuiet
	}

	launcher, err := deps.LauncherFactory.Create(cfg)
	if err != nil {
		return fmt.Errorf("failed to create launcher: %w", err)
	}
	r := runner.New(launcher, cfg)
	r.FailFast = runFailFast

	ctx := commandContext(cmd)
	var results []*runner.SuiteResult
	for _, s := range suites {
		filtered := s.Filter(runFilter)
		if len(filtered.Cases) == 0 {
			output.Warn("No case in %s matches %q", s.Name, runFilter)
			continue
		}
		results = append(results, r.RunSuite(ctx, filtered))
		if runFailFast && report.Failed(results) {
			break
		}
	}

	if err := writeReport(reporter, results); err != nil {
		return err
	}

	if report.Failed(results) {
		return errCasesFailed
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

// applyRunFlags overrides config values with the flags that were given.
func applyRunFlags(cfg *config.Config) error {
	if runParallel > 0 {
		cfg.Parallel = runParallel
	}
	if runTimeout != "" {
		d, err := config.ParseDuration(runTimeout)
		if err != nil {
			return err
		}
		if d <= 0 {
			return fmt.Errorf("--timeout must be positive")
		}
		cfg.DefaultTimeout = d
	}
	switch {
	case runFormat != "":
		cfg.Format = runFormat
	case jsonOutput:
		cfg.Format = config.FormatJSON
	}
	if !config.IsValidFormat(cfg.Format) {
		return fmt.Errorf("invalid format %q (valid: %v)", cfg.Format, config.ValidFormats())
	}
	return nil
}

func writeReport(reporter report.Reporter, results []*runner.SuiteResult) error {
	var w io.Writer = output.Writer()
	if runOutput != "" {
		f, err := os.Create(runOutput)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := reporter.Report(w, results); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if runOutput != "" {
		t := report.Tally(results)
		summary := output.Success
		if t.Failed > 0 {
			summary = output.Error
		}
		summary("%d passed, %d failed, %d skipped (report written to %s)", t.Passed, t.Failed, t.Skipped, runOutput)
	}
	return nil
}
