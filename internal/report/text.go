package report

import (
	"io"
	"time"

	"github.com/ksyq12/hostcheck/internal/output"
	"github.com/ksyq12/hostcheck/internal/runner"
)

// Text prints one colored line per case, failure diagnostics indented
// below it, and a summary line per suite.
type Text struct {
	// Quiet omits passing cases.
	Quiet bool
}

// Report implements Reporter.
func (t *Text) Report(w io.Writer, results []*runner.SuiteResult) error {
	prev := output.Writer()
	output.SetOutput(w)
	defer output.SetOutput(prev)

	for i, r := range results {
		if i > 0 {
			output.Print("")
		}
		output.Info("%s (%s)", r.Suite, r.RunID)

		for _, o := range r.Outcomes {
			switch o.Status {
			case runner.StatusSucceeded:
				if !t.Quiet {
					output.Success("%s (%s)", o.Case, o.Duration.Round(time.Millisecond))
				}
			case runner.StatusSkipped:
				output.Skip("%s: skipped", o.Case)
			default:
				output.Error("%s: %s [%s]", o.Case, o.Summary(), o.Kind)
				output.Block("    ", o.Diagnostic)
			}
		}

		passed, failed, skipped := r.Counts()
		summary := output.Success
		if failed > 0 {
			summary = output.Error
		}
		summary("%d passed, %d failed, %d skipped in %s",
			passed, failed, skipped, r.Duration.Round(time.Millisecond))
	}
	return nil
}
