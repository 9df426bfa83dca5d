package report

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/ksyq12/hostcheck/internal/runner"
)

// JUnit writes results in the JUnit XML format understood by most CI
// servers. Timeouts and process errors are reported as <error>, predicate
// mismatches and exit status failures as <failure>.
type JUnit struct{}

type junitSuites struct {
	XMLName  xml.Name     `xml:"testsuites"`
	Tests    int          `xml:"tests,attr"`
	Failures int          `xml:"failures,attr"`
	Errors   int          `xml:"errors,attr"`
	Skipped  int          `xml:"skipped,attr"`
	Time     string       `xml:"time,attr"`
	Suites   []junitSuite `xml:"testsuite"`
}

type junitSuite struct {
	Name      string      `xml:"name,attr"`
	ID        string      `xml:"id,attr,omitempty"`
	Tests     int         `xml:"tests,attr"`
	Failures  int         `xml:"failures,attr"`
	Errors    int         `xml:"errors,attr"`
	Skipped   int         `xml:"skipped,attr"`
	Time      string      `xml:"time,attr"`
	Timestamp string      `xml:"timestamp,attr,omitempty"`
	Cases     []junitCase `xml:"testcase"`
}

type junitCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *junitMessage `xml:"failure,omitempty"`
	Error     *junitMessage `xml:"error,omitempty"`
	Skipped   *junitMessage `xml:"skipped,omitempty"`
}

type junitMessage struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr,omitempty"`
	Body    string `xml:",chardata"`
}

// Report implements Reporter.
func (JUnit) Report(w io.Writer, results []*runner.SuiteResult) error {
	doc := junitSuites{}
	var total time.Duration

	for _, r := range results {
		s := junitSuite{
			Name: r.Suite,
			ID:   r.RunID,
			Time: seconds(r.Duration),
		}
		if !r.Started.IsZero() {
			s.Timestamp = r.Started.UTC().Format("2006-01-02T15:04:05")
		}

		for _, o := range r.Outcomes {
			c := junitCase{Name: o.Case, Classname: r.Suite, Time: seconds(o.Duration)}
			switch o.Status {
			case runner.StatusSkipped:
				c.Skipped = &junitMessage{Message: o.Diagnostic}
				s.Skipped++
			case runner.StatusFailed:
				msg := &junitMessage{Message: o.Summary(), Type: string(o.Kind), Body: o.Diagnostic}
				if o.Kind == runner.KindTimeout || o.Kind == runner.KindProcessError {
					c.Error = msg
					s.Errors++
				} else {
					c.Failure = msg
					s.Failures++
				}
			}
			s.Cases = append(s.Cases, c)
		}
		s.Tests = len(s.Cases)

		doc.Tests += s.Tests
		doc.Failures += s.Failures
		doc.Errors += s.Errors
		doc.Skipped += s.Skipped
		total += r.Duration
		doc.Suites = append(doc.Suites, s)
	}
	doc.Time = seconds(total)

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding junit report: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
