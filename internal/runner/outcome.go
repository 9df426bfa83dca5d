package runner

import (
	"fmt"
	"time"

	cerrors "github.com/ksyq12/hostcheck/internal/errors"
)

// Status is the lifecycle state of a single case run.
type Status string

// Pending and Running are transient; the rest are terminal.
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped" // never started (fail-fast or cancellation)
)

// FailureKind says why a case failed.
type FailureKind string

// Failure kinds. KindNone accompanies every non-failed status.
const (
	KindNone              FailureKind = ""
	KindProcessError      FailureKind = "process_error"
	KindTimeout           FailureKind = "timeout"
	KindNonZeroExit       FailureKind = "non_zero_exit"
	KindPredicateMismatch FailureKind = "predicate_mismatch"
)

// Outcome is the verdict for one case.
type Outcome struct {
	Case            string        `json:"case"`
	Status          Status        `json:"status"`
	Kind            FailureKind   `json:"kind,omitempty"`
	RunID           string        `json:"run_id,omitempty"`
	ExitCode        int           `json:"exit_code"`
	FailedPredicate string        `json:"failed_predicate,omitempty"`
	Diagnostic      string        `json:"diagnostic,omitempty"`
	Duration        time.Duration `json:"duration_ns"`
}

// Passed reports whether the case succeeded.
func (o Outcome) Passed() bool {
	return o.Status == StatusSucceeded
}

// Err converts a failed outcome into a categorized error, nil otherwise.
func (o Outcome) Err() error {
	if o.Status != StatusFailed {
		return nil
	}

	var code cerrors.ErrorCode
	switch o.Kind {
	case KindProcessError:
		code = cerrors.ErrCodeSpawn
	case KindTimeout:
		code = cerrors.ErrCodeTimeout
	case KindNonZeroExit:
		code = cerrors.ErrCodeNonZeroExit
	case KindPredicateMismatch:
		code = cerrors.ErrCodePredicateMismatch
	default:
		code = cerrors.ErrCodeInternal
	}
	return cerrors.WrapCase(code, o.Case, o.Summary(), nil)
}

// Summary is a one-line description of the outcome.
func (o Outcome) Summary() string {
	switch o.Status {
	case StatusSucceeded:
		return fmt.Sprintf("passed in %s", o.Duration.Round(time.Millisecond))
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
	default:
		return string(o.Status)
	}

	switch o.Kind {
	case KindTimeout:
		return fmt.Sprintf("timed out after %s", o.Duration.Round(time.Millisecond))
	case KindNonZeroExit:
		return fmt.Sprintf("exited with status %d", o.ExitCode)
	case KindPredicateMismatch:
		return "expected " + o.FailedPredicate
	case KindProcessError:
		return "process error"
	default:
		return "failed"
	}
}

// SuiteResult collects the outcomes of one suite run, in case order.
type SuiteResult struct {
	Suite    string        `json:"suite"`
	Path     string        `json:"path,omitempty"`
	RunID    string        `json:"run_id"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration_ns"`
	Outcomes []Outcome     `json:"outcomes"`
}

// Counts returns the number of passed, failed and skipped cases.
func (r *SuiteResult) Counts() (passed, failed, skipped int) {
	for _, o := range r.Outcomes {
		switch o.Status {
		case StatusSucceeded:
			passed++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	return passed, failed, skipped
}

// Failed reports whether any case failed.
func (r *SuiteResult) Failed() bool {
	_, failed, _ := r.Counts()
	return failed > 0
}
