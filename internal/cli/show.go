package cli

import (
	"strings"

	"github.com/ksyq12/hostcheck/internal/output"
	"github.com/ksyq12/hostcheck/internal/predicate"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <suite.yaml> <case>",
	Short: "Show details of a case",
	Long: `Show the resolved settings and expectations of one case.

Examples:
  hostcheck show suites/sni.yaml "local host should serve local cert"
  hostcheck show suites/poodle.yaml "not vulnerable to CVE-2014-3566 (SSLv3 POODLE)" --json`,
	Args: cobra.ExactArgs(2),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

// showDetail represents the resolved case for output
type showDetail struct {
	Suite        string                `json:"suite"`
	Case         string                `json:"case"`
	Command      string                `json:"command"`
	Workdir      string                `json:"workdir"`
	TimeoutMS    int64                 `json:"timeout_ms"`
	AllowFailure bool                  `json:"allow_failure"`
	Env          []string              `json:"env,omitempty"`
	Expect       []predicate.Predicate `json:"expect"`
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	suites, err := loadSuites(args[:1], cfg)
	if err != nil {
		return err
	}
	s := suites[0]

	tc, err := s.Case(args[1])
	if err != nil {
		return err
	}

	detail := showDetail{
		Suite:        s.Name,
		Case:         tc.Name,
		Command:      tc.Command,
		Workdir:      tc.Workdir,
		TimeoutMS:    tc.Timeout.Std().Milliseconds(),
		AllowFailure: tc.AllowFailure,
		Env:          tc.EnvList(),
		Expect:       tc.Expect,
	}
	if detail.Expect == nil {
		detail.Expect = []predicate.Predicate{}
	}

	if jsonOutput {
		return output.JSON(detail)
	}

	output.Print("Suite:         %s", detail.Suite)
	output.Print("Case:          %s", detail.Case)
	output.Print("Command:       %s", detail.Command)
	output.Print("Workdir:       %s", detail.Workdir)
	output.Print("Timeout:       %s", tc.Timeout)
	output.Print("Allow failure: %s", yesNo(detail.AllowFailure))
	if len(detail.Env) > 0 {
		output.Print("Env:           %s", strings.Join(detail.Env, " "))
	}

	if len(tc.Expect) == 0 {
		output.Print("Expect:        exit status 0")
		return nil
	}
	output.Print("Expect:")
	for i, p := range tc.Expect {
		output.Print("  %d. %s", i+1, p.Describe())
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
