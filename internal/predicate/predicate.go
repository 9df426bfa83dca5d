// Package predicate defines the expectations a test case places on the
// output of its process.
//
// A Predicate is a tagged variant rather than a closure so that it can be
// described in diagnostics, validated when a suite is loaded, and emitted
// as JSON in reports. Leaves inspect one stream:
//
//	predicate.Contains(predicate.Stdout, "CN=local.example.com")
//	predicate.Matches(predicate.Stderr, `alert handshake failure`)
//	predicate.Expr(`exit_code != 0 && stderr.contains("SSL3")`)
//
// and composites combine them:
//
//	predicate.Or(
//	    predicate.Contains(predicate.Stderr, "routines:SSL3_READ_BYTES:sslv3 alert handshake failure"),
//	    predicate.Contains(predicate.Stderr, "ssl3_read_bytes:sslv3 alert handshake failure"),
//	)
package predicate

import (
	"fmt"
	"regexp"
	"strings"
)

// Stream selects which captured text a leaf predicate inspects.
type Stream string

// Streams a leaf predicate can read.
const (
	Stdout   Stream = "stdout"
	Stderr   Stream = "stderr"
	Combined Stream = "output" // stdout followed by stderr
)

// Kind tags the variant held by a Predicate.
type Kind string

// Predicate kinds.
const (
	KindContains Kind = "contains"
	KindMatches  Kind = "matches"
	KindExpr     Kind = "expr"
	KindNot      Kind = "not"
	KindAnd      Kind = "and"
	KindOr       Kind = "or"
)

// Output is the captured text a predicate is evaluated against.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Text returns the content of the given stream.
func (o Output) Text(s Stream) string {
	switch s {
	case Stderr:
		return o.Stderr
	case Combined:
		return o.Stdout + o.Stderr
	default:
		return o.Stdout
	}
}

// Predicate is a boolean check on process output.
type Predicate struct {
	Kind        Kind        `json:"kind"`
	Stream      Stream      `json:"stream,omitempty"`
	Text        string      `json:"text,omitempty"`
	Pattern     string      `json:"pattern,omitempty"`
	Expr        string      `json:"expr,omitempty"`
	Operands    []Predicate `json:"operands,omitempty"`
	Description string      `json:"description,omitempty"`
}

// Contains is true iff text occurs anywhere in the stream.
func Contains(s Stream, text string) Predicate {
	return Predicate{Kind: KindContains, Stream: s, Text: text}
}

// Matches is true iff the regular expression matches the stream.
func Matches(s Stream, pattern string) Predicate {
	return Predicate{Kind: KindMatches, Stream: s, Pattern: pattern}
}

// Expr is true iff the CEL expression evaluates to true.
// The expression sees stdout, stderr and exit_code.
func Expr(src string) Predicate {
	return Predicate{Kind: KindExpr, Expr: src}
}

// Not negates p.
func Not(p Predicate) Predicate {
	return Predicate{Kind: KindNot, Operands: []Predicate{p}}
}

// And is true iff every operand is true.
func And(ps ...Predicate) Predicate {
	return Predicate{Kind: KindAnd, Operands: ps}
}

// Or is true iff at least one operand is true.
func Or(ps ...Predicate) Predicate {
	return Predicate{Kind: KindOr, Operands: ps}
}

// WithDescription returns a copy of p that describes itself as desc.
func (p Predicate) WithDescription(desc string) Predicate {
	p.Description = desc
	return p
}

// Eval evaluates p against out. Composites short-circuit.
func (p Predicate) Eval(out Output) (bool, error) {
	switch p.Kind {
	case KindContains:
		return strings.Contains(out.Text(p.Stream), p.Text), nil
	case KindMatches:
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return false, fmt.Errorf("invalid pattern %q: %w", p.Pattern, err)
		}
		return re.MatchString(out.Text(p.Stream)), nil
	case KindExpr:
		return evalExpr(p.Expr, out)
	case KindNot:
		if len(p.Operands) != 1 {
			return false, fmt.Errorf("not: want 1 operand, got %d", len(p.Operands))
		}
		ok, err := p.Operands[0].Eval(out)
		return !ok, err
	case KindAnd:
		for _, op := range p.Operands {
			ok, err := op.Eval(out)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case KindOr:
		for _, op := range p.Operands {
			ok, err := op.Eval(out)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("unknown predicate kind %q", p.Kind)
	}
}

// Describe renders p for humans, preferring an explicit Description.
func (p Predicate) Describe() string {
	if p.Description != "" {
		return p.Description
	}
	switch p.Kind {
	case KindContains:
		return fmt.Sprintf("%s contains %q", p.stream(), p.Text)
	case KindMatches:
		return fmt.Sprintf("%s matches /%s/", p.stream(), p.Pattern)
	case KindExpr:
		return fmt.Sprintf("expr(%s)", p.Expr)
	case KindNot:
		if len(p.Operands) == 1 {
			return fmt.Sprintf("not (%s)", p.Operands[0].Describe())
		}
	case KindAnd, KindOr:
		parts := make([]string, len(p.Operands))
		for i, op := range p.Operands {
			parts[i] = "(" + op.Describe() + ")"
		}
		return strings.Join(parts, " "+string(p.Kind)+" ")
	}
	return string(p.Kind)
}

// Streams returns the streams p reads, in first-seen order.
// Expressions count as reading both stdout and stderr.
func (p Predicate) Streams() []Stream {
	seen := map[Stream]bool{}
	var out []Stream
	var walk func(Predicate)
	walk = func(q Predicate) {
		add := func(s Stream) {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
		switch q.Kind {
		case KindContains, KindMatches:
			add(q.stream())
		case KindExpr:
			add(Stdout)
			add(Stderr)
		default:
			for _, op := range q.Operands {
				walk(op)
			}
		}
	}
	walk(p)
	return out
}

// Validate reports the first structural problem in p.
func (p Predicate) Validate() error {
	switch p.Kind {
	case KindContains:
		if p.Text == "" {
			return fmt.Errorf("contains: text must not be empty")
		}
		return validateStream(p.Stream)
	case KindMatches:
		if _, err := regexp.Compile(p.Pattern); err != nil {
			return fmt.Errorf("matches: invalid pattern %q: %w", p.Pattern, err)
		}
		return validateStream(p.Stream)
	case KindExpr:
		if _, err := compileExpr(p.Expr); err != nil {
			return fmt.Errorf("expr: %w", err)
		}
		return nil
	case KindNot:
		if len(p.Operands) != 1 {
			return fmt.Errorf("not: want 1 operand, got %d", len(p.Operands))
		}
		return p.Operands[0].Validate()
	case KindAnd, KindOr:
		if len(p.Operands) == 0 {
			return fmt.Errorf("%s: needs at least one operand", p.Kind)
		}
		for i, op := range p.Operands {
			if err := op.Validate(); err != nil {
				return fmt.Errorf("%s[%d]: %w", p.Kind, i, err)
			}
		}
		return nil
	case "":
		return fmt.Errorf("predicate kind is empty")
	default:
		return fmt.Errorf("unknown predicate kind %q", p.Kind)
	}
}

func (p Predicate) stream() Stream {
	if p.Stream == "" {
		return Stdout
	}
	return p.Stream
}

func validateStream(s Stream) error {
	switch s {
	case "", Stdout, Stderr, Combined:
		return nil
	default:
		return fmt.Errorf("unknown stream %q (want stdout, stderr or output)", s)
	}
}
