package runner

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksyq12/hostcheck/internal/config"
	cerrors "github.com/ksyq12/hostcheck/internal/errors"
	"github.com/ksyq12/hostcheck/internal/executor"
	"github.com/ksyq12/hostcheck/internal/predicate"
)

const handshakeFailure = "routines:SSL3_READ_BYTES:sslv3 alert handshake failure"

func testCase(name, command string, expect ...predicate.Predicate) *config.TestCase {
	return &config.TestCase{
		Name:    name,
		Command: command,
		Workdir: "/work",
		Timeout: config.Duration(5 * time.Second),
		Expect:  expect,
	}
}

func TestRun(t *testing.T) {
	tests := []struct {
		name         string
		launch       func(context.Context, executor.Command) (*executor.ExecutionResult, error)
		tc           *config.TestCase
		wantStatus   Status
		wantKind     FailureKind
		wantDiagnose string
	}{
		{
			name:       "matching stdout succeeds",
			launch:     executor.Respond("CN=local.example.com\n", "", 0),
			tc:         testCase("local", "echo", predicate.Contains(predicate.Stdout, "CN=local.example.com")),
			wantStatus: StatusSucceeded,
		},
		{
			name:         "missing text is a predicate mismatch",
			launch:       executor.Respond("CN=other.example.com\n", "", 0),
			tc:           testCase("other", "echo", predicate.Contains(predicate.Stdout, "CN=local.example.com")),
			wantStatus:   StatusFailed,
			wantKind:     KindPredicateMismatch,
			wantDiagnose: "CN=other.example.com",
		},
		{
			name:       "no predicates and zero exit succeeds",
			launch:     executor.Respond("", "", 0),
			tc:         testCase("noop", "true"),
			wantStatus: StatusSucceeded,
		},
		{
			name:         "non-zero exit fails by default",
			launch:       executor.Respond("", "boom\n", 1),
			tc:           testCase("exit", "exit 1"),
			wantStatus:   StatusFailed,
			wantKind:     KindNonZeroExit,
			wantDiagnose: "exited with status 1",
		},
		{
			name:       "stderr predicate",
			launch:     executor.Respond("", "140:error:"+handshakeFailure+":s3_pkt.c\n", 1),
			tc:         allowFailure(testCase("poodle", "openssl", predicate.Contains(predicate.Stderr, handshakeFailure))),
			wantStatus: StatusSucceeded,
		},
		{
			name:       "predicate mismatch wins over non-zero exit",
			launch:     executor.Respond("", "", 2),
			tc:         testCase("both", "x", predicate.Contains(predicate.Stdout, "ok")),
			wantStatus: StatusFailed,
			wantKind:   KindPredicateMismatch,
		},
		{
			name:         "command not found",
			launch:       executor.Respond("", "sh: 1: opensll: not found\n", 127),
			tc:           testCase("typo", "opensll version"),
			wantStatus:   StatusFailed,
			wantKind:     KindProcessError,
			wantDiagnose: "not found",
		},
		{
			name: "timeout",
			launch: func(context.Context, executor.Command) (*executor.ExecutionResult, error) {
				return &executor.ExecutionResult{TimedOut: true, ExitCode: -1, Duration: 100 * time.Millisecond}, nil
			},
			tc:           testCase("sleep", "sleep 10", predicate.Contains(predicate.Stdout, "never")),
			wantStatus:   StatusFailed,
			wantKind:     KindTimeout,
			wantDiagnose: "timeout",
		},
		{
			name: "spawn error",
			launch: func(context.Context, executor.Command) (*executor.ExecutionResult, error) {
				return nil, cerrors.Wrap(cerrors.ErrCodeSpawn, "starting /bin/sh", errors.New("chdir /missing: no such file or directory"))
			},
			tc:           testCase("spawn", "true"),
			wantStatus:   StatusFailed,
			wantKind:     KindProcessError,
			wantDiagnose: "chdir /missing",
		},
		{
			name:         "evaluation error is a mismatch",
			launch:       executor.Respond("x", "", 0),
			tc:           testCase("bad", "x", predicate.Expr("stdout")),
			wantStatus:   StatusFailed,
			wantKind:     KindPredicateMismatch,
			wantDiagnose: "evaluation error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Runner{Launcher: &executor.MockLauncher{LaunchFunc: tt.launch}}
			out := r.Run(context.Background(), tt.tc)

			assert.Equal(t, tt.tc.Name, out.Case)
			assert.Equal(t, tt.wantStatus, out.Status)
			assert.Equal(t, tt.wantKind, out.Kind)
			assert.Equal(t, tt.wantStatus == StatusSucceeded, out.Passed())
			if tt.wantDiagnose != "" {
				assert.Contains(t, out.Diagnostic, tt.wantDiagnose)
			}
		})
	}
}

func allowFailure(tc *config.TestCase) *config.TestCase {
	tc.AllowFailure = true
	return tc
}

func TestRun_PassesCommand(t *testing.T) {
	mock := &executor.MockLauncher{}
	tc := testCase("cmd", "bundle exec cap production evolve:provision")
	tc.Env = map[string]string{"B": "2", "A": "1"}

	(&Runner{Launcher: mock}).Run(context.Background(), tc)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, executor.Command{
		Line:    "bundle exec cap production evolve:provision",
		Dir:     "/work",
		Timeout: 5 * time.Second,
		Env:     []string{"A=1", "B=2"},
	}, calls[0])
}

func TestRun_ShortCircuitsPredicates(t *testing.T) {
	tc := testCase("order", "x",
		predicate.Contains(predicate.Stdout, "first"),
		predicate.Contains(predicate.Stdout, "second"),
		predicate.Matches(predicate.Stdout, "("),
	)
	r := &Runner{Launcher: &executor.MockLauncher{LaunchFunc: executor.Respond("first", "", 0)}}

	out := r.Run(context.Background(), tc)
	assert.Equal(t, KindPredicateMismatch, out.Kind)
	assert.Equal(t, `stdout contains "second"`, out.FailedPredicate)
	assert.NotContains(t, out.Diagnostic, "evaluation error", "later predicates must not run")
}

func TestRun_DiagnosticIsBounded(t *testing.T) {
	long := strings.Repeat("a", 10000)
	r := &Runner{
		Launcher: &executor.MockLauncher{LaunchFunc: executor.Respond(long, "", 0)},
		Excerpt:  100,
	}

	out := r.Run(context.Background(), testCase("long", "x", predicate.Contains(predicate.Stdout, "b")))
	assert.Less(t, len(out.Diagnostic), 400)
	assert.Contains(t, out.Diagnostic, "bytes omitted")
	assert.Contains(t, out.Diagnostic, "--- stdout (10000 bytes) ---")
	assert.NotContains(t, out.Diagnostic, "--- stderr", "only the stream the predicate reads is shown")
}

func TestRun_Idempotent(t *testing.T) {
	r := &Runner{Launcher: &executor.MockLauncher{LaunchFunc: executor.Respond("CN=local.example.com\n", "", 0)}}
	tc := testCase("same", "echo CN=local.example.com", predicate.Contains(predicate.Stdout, "CN=local.example.com"))

	first := r.Run(context.Background(), tc)
	second := r.Run(context.Background(), tc)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.Kind, second.Kind)
}

func TestOutcome_Err(t *testing.T) {
	tests := []struct {
		kind FailureKind
		want error
	}{
		{KindProcessError, cerrors.ErrSpawn},
		{KindTimeout, cerrors.ErrTimeout},
		{KindNonZeroExit, cerrors.ErrNonZeroExit},
		{KindPredicateMismatch, cerrors.ErrPredicateMismatch},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := Outcome{Case: "c", Status: StatusFailed, Kind: tt.kind}.Err()
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), `case "c"`)
		})
	}

	assert.NoError(t, Outcome{Status: StatusSucceeded}.Err())
	assert.NoError(t, Outcome{Status: StatusSkipped}.Err())
}

func suiteOf(cases ...*config.TestCase) *config.Suite {
	return &config.Suite{Name: "suite", Cases: cases}
}

func TestRunSuite(t *testing.T) {
	mock := &executor.MockLauncher{
		LaunchFunc: func(_ context.Context, cmd executor.Command) (*executor.ExecutionResult, error) {
			if cmd.Line == "fail" {
				return &executor.ExecutionResult{ExitCode: 1}, nil
			}
			return &executor.ExecutionResult{Stdout: cmd.Line}, nil
		},
	}
	s := suiteOf(testCase("a", "a"), testCase("b", "fail"), testCase("c", "c"))

	res := (&Runner{Launcher: mock, Parallel: 2}).RunSuite(context.Background(), s)

	require.Len(t, res.Outcomes, 3)
	assert.Equal(t, "a", res.Outcomes[0].Case)
	assert.Equal(t, "b", res.Outcomes[1].Case)
	assert.Equal(t, "c", res.Outcomes[2].Case)
	assert.True(t, res.Outcomes[0].Passed())
	assert.Equal(t, KindNonZeroExit, res.Outcomes[1].Kind)
	assert.True(t, res.Outcomes[2].Passed(), "a failure must not abort siblings")
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "suite", res.Suite)

	passed, failed, skipped := res.Counts()
	assert.Equal(t, [3]int{2, 1, 0}, [3]int{passed, failed, skipped})
	assert.True(t, res.Failed())
	assert.Len(t, mock.Calls(), 3)
}

func TestRunSuite_ParallelBound(t *testing.T) {
	var inFlight, peak atomic.Int32
	mock := &executor.MockLauncher{
		LaunchFunc: func(context.Context, executor.Command) (*executor.ExecutionResult, error) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			inFlight.Add(-1)
			return &executor.ExecutionResult{}, nil
		},
	}

	var cases []*config.TestCase
	for _, name := range []string{"1", "2", "3", "4", "5", "6", "7", "8"} {
		cases = append(cases, testCase(name, "x"))
	}

	res := (&Runner{Launcher: mock, Parallel: 3}).RunSuite(context.Background(), suiteOf(cases...))
	assert.False(t, res.Failed())
	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Greater(t, peak.Load(), int32(1))
}

func TestRunSuite_FailFast(t *testing.T) {
	mock := &executor.MockLauncher{LaunchFunc: executor.Respond("", "", 1)}
	s := suiteOf(testCase("a", "x"), testCase("b", "x"), testCase("c", "x"))

	res := (&Runner{Launcher: mock, Parallel: 1, FailFast: true}).RunSuite(context.Background(), s)

	assert.Equal(t, StatusFailed, res.Outcomes[0].Status)
	assert.Equal(t, StatusSkipped, res.Outcomes[1].Status)
	assert.Equal(t, StatusSkipped, res.Outcomes[2].Status)
	assert.Len(t, mock.Calls(), 1)

	_, failed, skipped := res.Counts()
	assert.Equal(t, 1, failed)
	assert.Equal(t, 2, skipped)
}

func TestRunSuite_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := &executor.MockLauncher{}
	res := (&Runner{Launcher: mock}).RunSuite(ctx, suiteOf(testCase("a", "x"), testCase("b", "x")))

	for _, o := range res.Outcomes {
		assert.Equal(t, StatusSkipped, o.Status)
	}
	assert.Empty(t, mock.Calls())
	assert.False(t, res.Failed())
}

func TestNew(t *testing.T) {
	cfg := config.New()
	cfg.Parallel = 4
	cfg.Excerpt = 64

	r := New(&executor.MockLauncher{}, cfg)
	assert.Equal(t, 4, r.Parallel)
	assert.Equal(t, 64, r.Excerpt)
	assert.Equal(t, 1, New(nil, nil).parallel())
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", Excerpt("short", 10))
	assert.Equal(t, "unbounded", Excerpt("unbounded", 0))

	got := Excerpt("0123456789abcdefghij", 10)
	assert.True(t, strings.HasPrefix(got, "01234\n"))
	assert.True(t, strings.HasSuffix(got, "\nfghij"))
	assert.Contains(t, got, "(10 bytes omitted)")
}
