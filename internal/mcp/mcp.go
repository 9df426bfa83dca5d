// Package mcp provides the hostcheck MCP server, exposing suite listing
// and case execution as tools.
package mcp

import (
	"context"
	_ "embed"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ksyq12/hostcheck/internal/config"
	"github.com/ksyq12/hostcheck/internal/logger"
	"github.com/ksyq12/hostcheck/internal/runner"
	"github.com/ksyq12/hostcheck/internal/ssl"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers.
type handler struct {
	cfg     *config.Config
	runner  *runner.Runner
	results *resultStore
	workdir string
}

// NewServer creates an MCP server with all hostcheck tools registered.
// Relative suite paths are resolved against workdir.
func NewServer(cfg *config.Config, r *runner.Runner, workdir, version string) *mcp.Server {
	h := &handler{
		cfg:     cfg,
		runner:  r,
		results: newResultStore(defaultStoreSize),
		workdir: workdir,
	}

	s := mcp.NewServer(&mcp.Implementation{Name: "hostcheck", Version: version}, &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "hostcheck_list_cases",
		Description: "List the cases of a suite file with their command, timeout and predicates.",
	}, h.listHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "hostcheck_run_suite",
		Description: `Run every case of a suite file and summarise the outcomes.

Cases whose name contains filter are run; all cases when filter is empty.
Results are stored for drill-down via hostcheck_inspect.`,
	}, h.runSuiteHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "hostcheck_run_case",
		Description: "Run a single named case from a suite file and return its outcome with the full diagnostic.",
	}, h.runCaseHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "hostcheck_check_tls",
		Description: `Check a TLS endpoint without a suite file.

Runs openssl s_client against host and expects the served certificate to
have subject CN=cn (cn defaults to host). With poodle set, also checks
that an SSLv3-only handshake is refused. Results are stored for
hostcheck_inspect.`,
	}, h.checkTLSHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "hostcheck_inspect",
		Description: "Show the full diagnostic of one case from an earlier hostcheck_run_suite result.",
	}, h.inspectHandler)

	return s
}

type suiteParams struct {
	Suite string `json:"suite" jsonschema:"path of the suite YAML file"`
}

type runSuiteParams struct {
	Suite    string `json:"suite" jsonschema:"path of the suite YAML file"`
	Filter   string `json:"filter,omitempty" jsonschema:"only run cases whose name contains this substring"`
	FailFast bool   `json:"fail_fast,omitempty" jsonschema:"stop starting new cases after the first failure"`
}

type runCaseParams struct {
	Suite string `json:"suite" jsonschema:"path of the suite YAML file"`
	Case  string `json:"case" jsonschema:"exact name of the case to run"`
}

type checkTLSParams struct {
	Host   string `json:"host" jsonschema:"host name to connect to and send as SNI"`
	Port   int    `json:"port,omitempty" jsonschema:"TLS port, 443 when omitted"`
	CN     string `json:"cn,omitempty" jsonschema:"expected certificate subject CN, the host when omitted"`
	Poodle bool   `json:"poodle,omitempty" jsonschema:"also check that SSLv3 is refused"`
}

type inspectParams struct {
	RunID string `json:"run_id" jsonschema:"the run ID from a hostcheck_run_suite result"`
	Case  string `json:"case" jsonschema:"name of the case to inspect"`
}

func (h *handler) loadSuite(path string) (*config.Suite, error) {
	if path == "" {
		return nil, fmt.Errorf("suite is required")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(h.workdir, path)
	}
	return config.LoadSuite(path, h.cfg)
}

func (h *handler) listHandler(ctx context.Context, req *mcp.CallToolRequest, params suiteParams) (*mcp.CallToolResult, any, error) {
	s, err := h.loadSuite(params.Suite)
	if err != nil {
		return errorResult(err.Error())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Suite: %s (%d cases)\n", s.Name, len(s.Cases))
	for _, tc := range s.Cases {
		fmt.Fprintf(&b, "\n- %s\n  command: %s\n  timeout: %s\n", tc.Name, tc.Command, tc.Timeout)
		if tc.AllowFailure {
			b.WriteString("  allow_failure: true\n")
		}
		for _, p := range tc.Expect {
			fmt.Fprintf(&b, "  expect: %s\n", p.Describe())
		}
	}
	return textResult(b.String())
}

func (h *handler) runSuiteHandler(ctx context.Context, req *mcp.CallToolRequest, params runSuiteParams) (*mcp.CallToolResult, any, error) {
	s, err := h.loadSuite(params.Suite)
	if err != nil {
		return errorResult(err.Error())
	}
	s = s.Filter(params.Filter)
	if len(s.Cases) == 0 {
		return errorResult(fmt.Sprintf("no case in %s matches %q", params.Suite, params.Filter))
	}

	r := *h.runner
	r.FailFast = params.FailFast
	result := r.RunSuite(ctx, s)
	h.results.put(result)
	logger.DebugFields("mcp suite run", map[string]interface{}{"suite": s.Name, "run_id": result.RunID})

	return textResult(formatSuite(result))
}

func (h *handler) runCaseHandler(ctx context.Context, req *mcp.CallToolRequest, params runCaseParams) (*mcp.CallToolResult, any, error) {
	s, err := h.loadSuite(params.Suite)
	if err != nil {
		return errorResult(err.Error())
	}
	tc, err := s.Case(params.Case)
	if err != nil {
		return errorResult(err.Error())
	}

	out := h.runner.Run(ctx, tc)
	return textResult(formatOutcome(out))
}

func (h *handler) checkTLSHandler(ctx context.Context, req *mcp.CallToolRequest, params checkTLSParams) (*mcp.CallToolResult, any, error) {
	s, err := ssl.CheckSuite(ssl.CheckOptions{
		Host:    params.Host,
		Port:    params.Port,
		CN:      params.CN,
		Poodle:  params.Poodle,
		Workdir: h.workdir,
		Timeout: h.cfg.DefaultTimeout.Std(),
	})
	if err != nil {
		return errorResult(err.Error())
	}

	result := h.runner.RunSuite(ctx, s)
	h.results.put(result)
	return textResult(formatSuite(result))
}

func (h *handler) inspectHandler(ctx context.Context, req *mcp.CallToolRequest, params inspectParams) (*mcp.CallToolResult, any, error) {
	if params.RunID == "" {
		return errorResult("run_id is required")
	}
	result, ok := h.results.get(params.RunID)
	if !ok {
		return errorResult(fmt.Sprintf("run %s not found (only the last %d runs are kept)", params.RunID, h.results.size))
	}
	for _, o := range result.Outcomes {
		if o.Case == params.Case {
			return textResult(formatOutcome(o))
		}
	}
	return errorResult(fmt.Sprintf("case %q not found in run %s", params.Case, params.RunID))
}

func formatSuite(r *runner.SuiteResult) string {
	var b strings.Builder
	passed, failed, skipped := r.Counts()
	fmt.Fprintf(&b, "Run: %s\nSuite: %s\n%d passed, %d failed, %d skipped in %s\n",
		r.RunID, r.Suite, passed, failed, skipped, r.Duration.Round(time.Millisecond))
	for _, o := range r.Outcomes {
		switch o.Status {
		case runner.StatusSucceeded:
			fmt.Fprintf(&b, "PASS %s\n", o.Case)
		case runner.StatusSkipped:
			fmt.Fprintf(&b, "SKIP %s\n", o.Case)
		default:
			fmt.Fprintf(&b, "FAIL %s: %s [%s]\n", o.Case, o.Summary(), o.Kind)
		}
	}
	return b.String()
}

func formatOutcome(o runner.Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Case: %s\nStatus: %s\n", o.Case, o.Status)
	if o.Kind != runner.KindNone {
		fmt.Fprintf(&b, "Kind: %s\n", o.Kind)
	}
	if o.RunID != "" {
		fmt.Fprintf(&b, "Run: %s\n", o.RunID)
	}
	fmt.Fprintf(&b, "Exit code: %d\nDuration: %s\n", o.ExitCode, o.Duration.Round(time.Millisecond))
	if o.Diagnostic != "" {
		fmt.Fprintf(&b, "\n%s", o.Diagnostic)
	}
	return b.String()
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
