// Package runner executes test cases and decides their outcome.
//
// Each case spawns exactly one process through an executor.ProcessLauncher.
// Once the process has exited or been killed, its output is checked
// against the case's predicates in order, stopping at the first one that
// does not hold. The verdict follows this precedence:
//
//  1. the process could not be started        -> process_error
//  2. the timeout elapsed                      -> timeout
//  3. a predicate is false                     -> predicate_mismatch
//  4. non-zero exit and allow_failure is false -> non_zero_exit
//  5. otherwise                                -> succeeded
//
// A failing predicate therefore always wins over the exit status. Cases
// are never retried.
package runner

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ksyq12/hostcheck/internal/config"
	"github.com/ksyq12/hostcheck/internal/executor"
	"github.com/ksyq12/hostcheck/internal/logger"
	"github.com/ksyq12/hostcheck/internal/predicate"
)

// exitCommandNotFound is what POSIX shells return when the command
// line names a program that is not on PATH.
const exitCommandNotFound = 127

// Runner runs cases through a launcher.
type Runner struct {
	Launcher executor.ProcessLauncher
	Parallel int  // cases in flight at once; <1 means 1
	Excerpt  int  // bytes of each stream quoted in diagnostics; <1 means unbounded
	FailFast bool // stop starting new cases after the first failure
}

// New creates a Runner with settings taken from cfg.
func New(l executor.ProcessLauncher, cfg *config.Config) *Runner {
	if cfg == nil {
		cfg = config.New()
	}
	return &Runner{
		Launcher: l,
		Parallel: cfg.Parallel,
		Excerpt:  cfg.Excerpt,
	}
}

// Run executes one case and returns its terminal outcome.
func (r *Runner) Run(ctx context.Context, tc *config.TestCase) Outcome {
	log := logger.With(map[string]interface{}{"case": tc.Name})
	log.Debug("spawning %q in %s (timeout %s)", tc.Command, tc.Workdir, tc.Timeout)

	res, err := r.Launcher.Launch(ctx, executor.Command{
		Line:    tc.Command,
		Dir:     tc.Workdir,
		Timeout: tc.Timeout.Std(),
		Env:     tc.EnvList(),
	})
	if err != nil {
		log.Warn("could not start process: %v", err)
		return Outcome{
			Case:       tc.Name,
			Status:     StatusFailed,
			Kind:       KindProcessError,
			ExitCode:   -1,
			Diagnostic: err.Error(),
		}
	}

	log = log.With(map[string]interface{}{"run_id": res.RunID})
	out := evaluate(tc, res, r.Excerpt)
	log.Info("%s (exit %d, %s)", out.Summary(), res.ExitCode, res.Duration.Round(time.Millisecond))
	return out
}

// evaluate decides the outcome of a finished process.
func evaluate(tc *config.TestCase, res *executor.ExecutionResult, excerpt int) Outcome {
	o := Outcome{
		Case:     tc.Name,
		RunID:    res.RunID,
		ExitCode: res.ExitCode,
		Duration: res.Duration,
	}
	captured := predicate.Output{Stdout: res.Stdout, Stderr: res.Stderr, ExitCode: res.ExitCode}
	both := []predicate.Stream{predicate.Stdout, predicate.Stderr}

	if res.TimedOut {
		o.Status = StatusFailed
		o.Kind = KindTimeout
		o.Diagnostic = fmt.Sprintf("killed after exceeding the %s timeout\n%s",
			tc.Timeout, streamDump(captured, both, excerpt, res.Truncated))
		return o
	}

	for _, p := range tc.Expect {
		ok, err := p.Eval(captured)
		if ok && err == nil {
			continue
		}
		o.Status = StatusFailed
		o.Kind = KindPredicateMismatch
		o.FailedPredicate = p.Describe()

		var b strings.Builder
		fmt.Fprintf(&b, "expected %s\n", o.FailedPredicate)
		if err != nil {
			fmt.Fprintf(&b, "evaluation error: %v\n", err)
		}
		b.WriteString(streamDump(captured, p.Streams(), excerpt, res.Truncated))
		o.Diagnostic = b.String()
		return o
	}

	if res.ExitCode != 0 && !tc.AllowFailure {
		o.Status = StatusFailed
		o.Kind = KindNonZeroExit
		if res.ExitCode == exitCommandNotFound {
			o.Kind = KindProcessError
		}
		o.Diagnostic = fmt.Sprintf("exited with status %d\n%s",
			res.ExitCode, streamDump(captured, both, excerpt, res.Truncated))
		return o
	}

	o.Status = StatusSucceeded
	return o
}

// RunSuite runs every case of s, at most Parallel at a time. Outcomes
// are returned in case order; a failing case never stops its siblings
// unless FailFast is set, in which case cases not yet started are skipped.
func (r *Runner) RunSuite(ctx context.Context, s *config.Suite) *SuiteResult {
	result := &SuiteResult{
		Suite:    s.Name,
		Path:     s.Path,
		RunID:    uuid.New().String(),
		Started:  time.Now(),
		Outcomes: make([]Outcome, len(s.Cases)),
	}
	logger.DebugFields("running suite", map[string]interface{}{
		"suite":    s.Name,
		"cases":    len(s.Cases),
		"parallel": r.parallel(),
		"run_id":   result.RunID,
	})

	sem := make(chan struct{}, r.parallel())
	var wg sync.WaitGroup
	var stop atomic.Bool

	for i, tc := range s.Cases {
		result.Outcomes[i] = Outcome{Case: tc.Name, Status: StatusPending}

		acquired := false
		select {
		case sem <- struct{}{}:
			acquired = true
		case <-ctx.Done():
		}
		if ctx.Err() != nil || stop.Load() {
			if acquired {
				<-sem
			}
			result.Outcomes[i] = skipped(tc.Name, ctx.Err())
			continue
		}

		result.Outcomes[i].Status = StatusRunning
		wg.Add(1)
		go func(i int, tc *config.TestCase) {
			defer wg.Done()
			defer func() { <-sem }()

			out := r.Run(ctx, tc)
			if !out.Passed() && r.FailFast {
				stop.Store(true)
			}
			result.Outcomes[i] = out
		}(i, tc)
	}

	wg.Wait()
	result.Duration = time.Since(result.Started)
	return result
}

func skipped(name string, cause error) Outcome {
	o := Outcome{Case: name, Status: StatusSkipped}
	if cause != nil {
		o.Diagnostic = cause.Error()
	} else {
		o.Diagnostic = "not started after an earlier failure"
	}
	return o
}

func (r *Runner) parallel() int {
	if r.Parallel < 1 {
		return 1
	}
	return r.Parallel
}
