package cli

import (
	"fmt"
	"os"

	"github.com/ksyq12/hostcheck/internal/config"
	"github.com/ksyq12/hostcheck/internal/report"
	"github.com/ksyq12/hostcheck/internal/runner"
	"github.com/ksyq12/hostcheck/internal/ssl"
	"github.com/spf13/cobra"
)

var (
	checkPort   int
	checkCN     string
	checkPoodle bool
)

var checkCmd = &cobra.Command{
	Use:   "check <host>...",
	Short: "Check the TLS certificate of hosts without a suite file",
	Long: `Connect to each host with openssl s_client and check the subject CN of
the certificate it serves for that name. --poodle also checks that an
SSLv3-only handshake is refused (CVE-2014-3566).

Report and timeout flags behave as in run.

Examples:
  hostcheck check local.example.com
  hostcheck check production.example.com --cn example.com --poodle`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().IntVar(&checkPort, "port", 0, "TLS port (default 443)")
	checkCmd.Flags().StringVar(&checkCN, "cn", "", "Expected subject CN (default: the host)")
	checkCmd.Flags().BoolVar(&checkPoodle, "poodle", false, "Also check that SSLv3 is refused")
	checkCmd.Flags().StringVarP(&runTimeout, "timeout", "t", "", "Timeout per case (e.g. 60s, or milliseconds)")
	checkCmd.Flags().StringVarP(&runFormat, "format", "f", "", "Report format: text, json, junit (default from config)")
	checkCmd.Flags().StringVarP(&runOutput, "output", "o", "", "Write the report to a file instead of stdout")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyRunFlags(cfg); err != nil {
		return err
	}

	workdir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determining working directory: %w", err)
	}

	suites := make([]*config.Suite, 0, len(args))
	for _, host := range args {
		s, err := ssl.CheckSuite(ssl.CheckOptions{
			Host:    host,
			Port:    checkPort,
			CN:      checkCN,
			Poodle:  checkPoodle,
			Workdir: workdir,
			Timeout: cfg.DefaultTimeout.Std(),
		})
		if err != nil {
			return err
		}
		suites = append(suites, s)
	}

	reporter, err := report.New(cfg.Format)
	if err != nil {
		return err
	}
	launcher, err := deps.LauncherFactory.Create(cfg)
	if err != nil {
		return fmt.Errorf("failed to create launcher: %w", err)
	}
	r := runner.New(launcher, cfg)

	ctx := commandContext(cmd)
	var results []*runner.SuiteResult
	for _, s := range suites {
		results = append(results, r.RunSuite(ctx, s))
	}

	if err := writeReport(reporter, results); err != nil {
		return err
	}
	if report.Failed(results) {
		return errCasesFailed
	}
	return ctx.Err()
}
