package cli

import (
	"strconv"

	"github.com/ksyq12/hostcheck/internal/output"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list <suite.yaml>...",
	Aliases: []string{"ls"},
	Short:   "List the cases of suites",
	Long: `List the cases defined in one or more suite files.

Examples:
  hostcheck list suites/sni.yaml
  hostcheck ls suites/*.yaml --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

type caseListItem struct {
	Suite        string `json:"suite"`
	Case         string `json:"case"`
	Command      string `json:"command"`
	TimeoutMS    int64  `json:"timeout_ms"`
	AllowFailure bool   `json:"allow_failure"`
	Predicates   int    `json:"predicates"`

	timeout string
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	suites, err := loadSuites(args, cfg)
	if err != nil {
		return err
	}

	items := make([]caseListItem, 0)
	for _, s := range suites {
		for _, tc := range s.Cases {
			items = append(items, caseListItem{
				Suite:        s.Name,
				Case:         tc.Name,
				Command:      tc.Command,
				TimeoutMS:    tc.Timeout.Std().Milliseconds(),
				AllowFailure: tc.AllowFailure,
				Predicates:   len(tc.Expect),
				timeout:      tc.Timeout.String(),
			})
		}
	}

	if jsonOutput {
		return output.JSON(items)
	}

	headers := []string{"SUITE", "CASE", "TIMEOUT", "ALLOW FAILURE", "PREDICATES"}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.Suite,
			item.Case,
			item.timeout,
			yesNo(item.AllowFailure),
			strconv.Itoa(item.Predicates),
		})
	}

	output.Table(headers, rows)
	return nil
}
