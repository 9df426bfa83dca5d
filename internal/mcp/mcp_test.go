package mcp

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ksyq12/hostcheck/internal/config"
	"github.com/ksyq12/hostcheck/internal/executor"
	"github.com/ksyq12/hostcheck/internal/runner"
)

const suiteYAML = `name: sni
cases:
  - name: local host should serve local cert
    command: openssl s_client -connect local.example.com:443 -servername local.example.com
    allow_failure: true
    expect:
      - contains: {stream: stdout, text: CN=local.example.com}
  - name: production host should serve production cert
    command: openssl s_client -connect production.example.com:443 -servername production.example.com
    allow_failure: true
    expect:
      - contains: {stream: stdout, text: CN=example.com}
`

// setup creates a hostcheck MCP server + client over in-memory transports.
// Every launched command prints the certificate of local.example.com.
func setup(t *testing.T) (*mcp.ClientSession, *executor.MockLauncher, string) {
	t.Helper()
	ctx := context.Background()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "sni.yaml"), []byte(suiteYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	launcher := &executor.MockLauncher{
		LaunchFunc: executor.Respond("subject=/CN=local.example.com\n", "", 1),
	}
	cfg := config.New()
	server := NewServer(cfg, runner.New(launcher, cfg), dir, "test")

	ct, st := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, st, nil)
	if err != nil {
		t.Fatalf("server.Connect: %v", err)
	}

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}

	t.Cleanup(func() {
		_ = cs.Close()
		_ = ss.Wait()
	})

	return cs, launcher, dir
}

func callTool(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	return res
}

func resultText(r *mcp.CallToolResult) string {
	var parts []string
	for _, c := range r.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func TestListTools(t *testing.T) {
	cs, _, _ := setup(t)

	res, err := cs.ListTools(context.Background(), &mcp.ListToolsParams{})
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"hostcheck_list_cases", "hostcheck_run_suite", "hostcheck_run_case", "hostcheck_check_tls", "hostcheck_inspect"} {
		if !names[want] {
			t.Errorf("tool %s not registered", want)
		}
	}
}

func TestListCases(t *testing.T) {
	cs, launcher, _ := setup(t)

	res := callTool(t, cs, "hostcheck_list_cases", map[string]any{"suite": "sni.yaml"})
	if res.IsError {
		t.Fatalf("unexpected error: %s", resultText(res))
	}
	text := resultText(res)
	for _, want := range []string{
		"Suite: sni (2 cases)",
		"- local host should serve local cert",
		`expect: stdout contains "CN=example.com"`,
		"allow_failure: true",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in:\n%s", want, text)
		}
	}
	if len(launcher.Calls()) != 0 {
		t.Error("listing must not run anything")
	}
}

func TestListCases_Errors(t *testing.T) {
	cs, _, _ := setup(t)

	if res := callTool(t, cs, "hostcheck_list_cases", map[string]any{"suite": ""}); !res.IsError {
		t.Error("expected error for empty suite")
	}
	if res := callTool(t, cs, "hostcheck_list_cases", map[string]any{"suite": "missing.yaml"}); !res.IsError {
		t.Error("expected error for missing suite")
	}
}

var runIDPattern = regexp.MustCompile(`Run: ([0-9a-f-]{36})`)

func TestRunSuiteAndInspect(t *testing.T) {
	cs, launcher, dir := setup(t)

	res := callTool(t, cs, "hostcheck_run_suite", map[string]any{"suite": filepath.Join(dir, "sni.yaml")})
	if res.IsError {
		t.Fatalf("unexpected error: %s", resultText(res))
	}
	text := resultText(res)
	if !strings.Contains(text, "1 passed, 1 failed, 0 skipped") {
		t.Errorf("unexpected summary:\n%s", text)
	}
	if !strings.Contains(text, "PASS local host should serve local cert") {
		t.Errorf("expected local to pass:\n%s", text)
	}
	if !strings.Contains(text, "FAIL production host should serve production cert") ||
		!strings.Contains(text, "[predicate_mismatch]") {
		t.Errorf("expected production mismatch:\n%s", text)
	}
	if len(launcher.Calls()) != 2 {
		t.Errorf("expected 2 launches, got %d", len(launcher.Calls()))
	}

	m := runIDPattern.FindStringSubmatch(text)
	if m == nil {
		t.Fatalf("no run id in:\n%s", text)
	}

	res = callTool(t, cs, "hostcheck_inspect", map[string]any{
		"run_id": m[1],
		"case":   "production host should serve production cert",
	})
	if res.IsError {
		t.Fatalf("unexpected error: %s", resultText(res))
	}
	if !strings.Contains(resultText(res), "subject=/CN=local.example.com") {
		t.Errorf("diagnostic should quote stdout:\n%s", resultText(res))
	}

	if res := callTool(t, cs, "hostcheck_inspect", map[string]any{"run_id": m[1], "case": "nope"}); !res.IsError {
		t.Error("expected error for unknown case")
	}
	if res := callTool(t, cs, "hostcheck_inspect", map[string]any{"run_id": "unknown", "case": "nope"}); !res.IsError {
		t.Error("expected error for unknown run")
	}
}

func TestRunSuite_Filter(t *testing.T) {
	cs, launcher, _ := setup(t)

	res := callTool(t, cs, "hostcheck_run_suite", map[string]any{"suite": "sni.yaml", "filter": "local"})
	if res.IsError {
		t.Fatalf("unexpected error: %s", resultText(res))
	}
	if !strings.Contains(resultText(res), "1 passed, 0 failed, 0 skipped") {
		t.Errorf("unexpected summary:\n%s", resultText(res))
	}
	if len(launcher.Calls()) != 1 {
		t.Errorf("expected 1 launch, got %d", len(launcher.Calls()))
	}

	if res := callTool(t, cs, "hostcheck_run_suite", map[string]any{"suite": "sni.yaml", "filter": "staging"}); !res.IsError {
		t.Error("expected error when nothing matches")
	}
}

func TestRunCase(t *testing.T) {
	cs, launcher, _ := setup(t)

	res := callTool(t, cs, "hostcheck_run_case", map[string]any{
		"suite": "sni.yaml",
		"case":  "local host should serve local cert",
	})
	if res.IsError {
		t.Fatalf("unexpected error: %s", resultText(res))
	}
	if !strings.Contains(resultText(res), "Status: succeeded") {
		t.Errorf("unexpected outcome:\n%s", resultText(res))
	}
	calls := launcher.Calls()
	if len(calls) != 1 || !strings.Contains(calls[0].Line, "-servername local.example.com") {
		t.Errorf("unexpected calls %+v", calls)
	}

	if res := callTool(t, cs, "hostcheck_run_case", map[string]any{"suite": "sni.yaml", "case": "nope"}); !res.IsError {
		t.Error("expected error for unknown case")
	}
}

func TestCheckTLS(t *testing.T) {
	cs, launcher, dir := setup(t)

	res := callTool(t, cs, "hostcheck_check_tls", map[string]any{"host": "local.example.com", "poodle": true})
	if res.IsError {
		t.Fatalf("unexpected error: %s", resultText(res))
	}
	text := resultText(res)
	if !strings.Contains(text, "PASS local.example.com should serve CN=local.example.com") {
		t.Errorf("expected certificate check to pass:\n%s", text)
	}
	if !strings.Contains(text, "FAIL local.example.com is not vulnerable to CVE-2014-3566 (SSLv3 POODLE)") {
		t.Errorf("expected SSLv3 check to fail:\n%s", text)
	}

	calls := launcher.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 launches, got %d", len(calls))
	}
	if calls[0].Dir != dir || calls[0].Timeout != config.DefaultTimeout {
		t.Errorf("unexpected command %+v", calls[0])
	}
	if !strings.HasSuffix(calls[1].Line, "-ssl3") {
		t.Errorf("unexpected SSLv3 command %q", calls[1].Line)
	}

	if !runIDPattern.MatchString(text) {
		t.Errorf("no run id in:\n%s", text)
	}

	if res := callTool(t, cs, "hostcheck_check_tls", map[string]any{"host": ""}); !res.IsError {
		t.Error("expected error for empty host")
	}
}

func TestResultStore(t *testing.T) {
	s := newResultStore(2)
	s.put(&runner.SuiteResult{RunID: "a"})
	s.put(&runner.SuiteResult{RunID: "b"})
	s.put(&runner.SuiteResult{RunID: "c"})

	if _, ok := s.get("a"); ok {
		t.Error("oldest result should be evicted")
	}
	for _, id := range []string{"b", "c"} {
		if _, ok := s.get(id); !ok {
			t.Errorf("result %s missing", id)
		}
	}
}
