package cli

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRunList(t *testing.T) {
	suite := writeSuite(t, "sni.yaml", sniSuite)

	t.Run("table", func(t *testing.T) {
		h := NewTestHelper(t)

		if err := runList(nil, []string{suite}); err != nil {
			t.Fatalf("runList failed: %v", err)
		}

		out := h.Output.String()
		for _, want := range []string{
			"SUITE", "CASE", "TIMEOUT",
			"local host should serve local cert",
			"production host should serve production cert",
			"1m0s", "5s", "yes",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		h := NewTestHelper(t)
		jsonOutput = true

		if err := runList(nil, []string{suite}); err != nil {
			t.Fatalf("runList failed: %v", err)
		}

		var items []caseListItem
		if err := json.Unmarshal(h.Output.Bytes(), &items); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(items))
		}
		if items[1].TimeoutMS != 5000 || items[1].Predicates != 1 || !items[1].AllowFailure {
			t.Errorf("unexpected item %+v", items[1])
		}
	})

	t.Run("missing file", func(t *testing.T) {
		NewTestHelper(t)
		if err := runList(nil, []string{"/nonexistent/suite.yaml"}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("config error", func(t *testing.T) {
		h := NewTestHelper(t)
		h.MockConfig.LoadErr = errBadConfig
		if err := runList(nil, []string{suite}); err == nil {
			t.Error("expected error")
		}
	})
}
