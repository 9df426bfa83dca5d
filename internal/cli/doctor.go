package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/ksyq12/hostcheck/internal/config"
	"github.com/ksyq12/hostcheck/internal/output"
	"github.com/ksyq12/hostcheck/internal/platform"
	"github.com/ksyq12/hostcheck/internal/ssl"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor [suite.yaml]...",
	Short: "Check system status and diagnose issues",
	Long: `Run diagnostic checks on the system and on suite files.

Checks:
  - Shell used to run case commands
  - OpenSSL installation (needed by sni and poodle suites)
  - Configuration file validity
  - For each suite given: the file loads and every command's program is on PATH

Examples:
  hostcheck doctor
  hostcheck doctor suites/*.yaml --json`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// CheckResult represents a single diagnostic check result
type CheckResult struct {
	Status  string `json:"status"` // "success", "warning", "error"
	Message string `json:"message"`
}

// SuiteStatus represents the checks of one suite file
type SuiteStatus struct {
	Path   string        `json:"path"`
	Name   string        `json:"name,omitempty"`
	Checks []CheckResult `json:"checks"`
}

// DoctorReport contains all diagnostic results
type DoctorReport struct {
	SystemRequirements []CheckResult `json:"system_requirements"`
	Configuration      []CheckResult `json:"configuration"`
	Suites             []SuiteStatus `json:"suites"`
}

// HasErrors reports whether any check failed.
func (r *DoctorReport) HasErrors() bool {
	all := append(append([]CheckResult{}, r.SystemRequirements...), r.Configuration...)
	for _, s := range r.Suites {
		all = append(all, s.Checks...)
	}
	for _, c := range all {
		if c.Status == "error" {
			return true
		}
	}
	return false
}

func runDoctor(cmd *cobra.Command, args []string) error {
	report := &DoctorReport{Suites: []SuiteStatus{}}

	cfg, err := deps.ConfigLoader.Load(configPath)
	if err != nil {
		report.Configuration = append(report.Configuration, CheckResult{
			Status:  "error",
			Message: fmt.Sprintf("Config invalid: %v", err),
		})
		cfg = config.New()
	} else {
		report.Configuration = checkConfiguration(cfg)
	}

	report.SystemRequirements = checkSystemRequirements(cmd, cfg)
	for _, path := range args {
		report.Suites = append(report.Suites, checkSuite(path, cfg))
	}

	if jsonOutput {
		if err := output.JSON(report); err != nil {
			return err
		}
	} else {
		displayDoctorResults(report)
	}

	if report.HasErrors() {
		return fmt.Errorf("doctor found problems")
	}
	return nil
}

func checkSystemRequirements(cmd *cobra.Command, cfg *config.Config) []CheckResult {
	results := []CheckResult{}

	if shell, err := platform.DetectShell(cfg.Shell); err == nil {
		results = append(results, CheckResult{
			Status:  "success",
			Message: fmt.Sprintf("Shell %s (%s)", strings.Join(shell, " "), platform.Platform()),
		})
	} else {
		results = append(results, CheckResult{Status: "error", Message: err.Error()})
	}

	if v, err := ssl.Version(commandContext(cmd)); err == nil {
		results = append(results, CheckResult{
			Status:  "success",
			Message: fmt.Sprintf("OpenSSL installed (%s)", v),
		})
	} else {
		results = append(results, CheckResult{
			Status:  "warning",
			Message: "OpenSSL not available (needed by sni and poodle suites)",
		})
	}

	return results
}

func checkConfiguration(cfg *config.Config) []CheckResult {
	results := []CheckResult{}

	path := configPath
	if path == "" {
		path, _ = config.ConfigPath()
	}
	if _, err := os.Stat(path); err == nil {
		displayPath := strings.Replace(path, os.Getenv("HOME"), "~", 1)
		results = append(results, CheckResult{
			Status:  "success",
			Message: fmt.Sprintf("Config file loaded (%s)", displayPath),
		})
	} else {
		results = append(results, CheckResult{
			Status:  "success",
			Message: "No config file, using defaults",
		})
	}

	results = append(results, CheckResult{
		Status: "success",
		Message: fmt.Sprintf("Default timeout %s, parallel %d, format %s",
			cfg.DefaultTimeout, cfg.Parallel, cfg.Format),
	})
	return results
}

func checkSuite(path string, cfg *config.Config) SuiteStatus {
	status := SuiteStatus{Path: path, Checks: []CheckResult{}}

	s, err := config.LoadSuite(path, cfg)
	if err != nil {
		status.Checks = append(status.Checks, CheckResult{Status: "error", Message: err.Error()})
		return status
	}
	status.Name = s.Name

	launcher, err := deps.LauncherFactory.Create(cfg)
	if err != nil {
		status.Checks = append(status.Checks, CheckResult{Status: "error", Message: err.Error()})
		return status
	}

	seen := map[string]bool{}
	for _, tc := range s.Cases {
		if !seen["dir:"+tc.Workdir] {
			seen["dir:"+tc.Workdir] = true
			if _, err := os.Stat(tc.Workdir); err != nil {
				status.Checks = append(status.Checks, CheckResult{
					Status:  "warning",
					Message: fmt.Sprintf("workdir %s missing (case %q)", tc.Workdir, tc.Name),
				})
			}
		}

		bin := commandBinary(tc.Command)
		if bin == "" || seen[bin] {
			continue
		}
		seen[bin] = true
		if _, err := launcher.LookPath(bin); err != nil {
			status.Checks = append(status.Checks, CheckResult{
				Status:  "error",
				Message: fmt.Sprintf("%s not found on PATH (case %q)", bin, tc.Name),
			})
		}
	}

	if len(status.Checks) == 0 {
		status.Checks = append(status.Checks, CheckResult{
			Status:  "success",
			Message: fmt.Sprintf("%d cases, all programs and workdirs found", len(s.Cases)),
		})
	}
	return status
}

func displayDoctorResults(report *DoctorReport) {
	output.Print("Checking system requirements...")
	for _, check := range report.SystemRequirements {
		displayCheck(check)
	}
	output.Print("")

	output.Print("Checking configuration...")
	for _, check := range report.Configuration {
		displayCheck(check)
	}

	for _, s := range report.Suites {
		output.Print("")
		output.Print("Checking suite %s...", s.Path)
		for _, check := range s.Checks {
			displayCheck(check)
		}
	}
}

func displayCheck(check CheckResult) {
	switch check.Status {
	case "success":
		output.Success("%s", check.Message)
	case "warning":
		output.Warn("%s", check.Message)
	case "error":
		output.Error("%s", check.Message)
	}
}
