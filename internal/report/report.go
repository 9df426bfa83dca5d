// Package report renders suite results for people and for CI systems.
//
// Every reporter writes the outcomes of one or more suite runs to an
// io.Writer. The text reporter is meant for terminals, JSON for scripts,
// and JUnit XML for CI servers that collect test reports.
package report

import (
	"encoding/json"
	"io"

	"github.com/ksyq12/hostcheck/internal/config"
	cerrors "github.com/ksyq12/hostcheck/internal/errors"
	"github.com/ksyq12/hostcheck/internal/runner"
)

// Reporter writes suite results to w.
type Reporter interface {
	Report(w io.Writer, results []*runner.SuiteResult) error
}

// New returns the reporter for a config format name.
func New(format string) (Reporter, error) {
	switch format {
	case "", config.FormatText:
		return &Text{}, nil
	case config.FormatJSON:
		return &JSON{}, nil
	case config.FormatJUnit:
		return &JUnit{}, nil
	default:
		return nil, cerrors.Validation("unknown report format %q (valid: %v)", format, config.ValidFormats())
	}
}

// Totals sums case counts over every suite.
type Totals struct {
	Suites  int `json:"suites"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Tally counts the outcomes in results.
func Tally(results []*runner.SuiteResult) Totals {
	t := Totals{Suites: len(results)}
	for _, r := range results {
		p, f, s := r.Counts()
		t.Passed += p
		t.Failed += f
		t.Skipped += s
	}
	return t
}

// Failed reports whether any case in any suite failed.
func Failed(results []*runner.SuiteResult) bool {
	return Tally(results).Failed > 0
}

// JSON writes results as a single JSON document.
type JSON struct{}

type jsonReport struct {
	Totals Totals                `json:"totals"`
	Suites []*runner.SuiteResult `json:"suites"`
}

// Report implements Reporter.
func (JSON) Report(w io.Writer, results []*runner.SuiteResult) error {
	if results == nil {
		results = []*runner.SuiteResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{Totals: Tally(results), Suites: results})
}
