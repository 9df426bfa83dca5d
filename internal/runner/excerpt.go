package runner

import (
	"fmt"
	"strings"

	"github.com/ksyq12/hostcheck/internal/predicate"
)

// Excerpt shortens s to at most limit bytes, keeping its head and tail.
// A non-positive limit returns s unchanged.
func Excerpt(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	head := limit / 2
	tail := limit - head
	omitted := len(s) - head - tail
	return fmt.Sprintf("%s\n... (%d bytes omitted) ...\n%s", s[:head], omitted, s[len(s)-tail:])
}

// streamDump renders the named streams for a failure diagnostic.
func streamDump(out predicate.Output, streams []predicate.Stream, limit int, truncated bool) string {
	var b strings.Builder
	for _, s := range streams {
		text := out.Text(s)
		fmt.Fprintf(&b, "--- %s (%d bytes) ---\n", s, len(text))
		if text == "" {
			b.WriteString("(empty)\n")
			continue
		}
		b.WriteString(Excerpt(text, limit))
		if !strings.HasSuffix(text, "\n") {
			b.WriteString("\n")
		}
	}
	if truncated {
		b.WriteString("(capture truncated at the output limit)\n")
	}
	return b.String()
}
