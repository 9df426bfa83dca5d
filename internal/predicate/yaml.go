package predicate

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type streamText struct {
	Stream Stream `yaml:"stream"`
	Text   string `yaml:"text"`
}

type streamPattern struct {
	Stream  Stream `yaml:"stream"`
	Pattern string `yaml:"pattern"`
}

// UnmarshalYAML decodes the suite-file form of a predicate. Each
// mapping holds exactly one of contains, matches, expr, not, and, or,
// plus an optional description:
//
//	- contains: {stream: stdout, text: CN=example.com}
//	- or:
//	    - contains: {stream: stderr, text: alert handshake failure}
//	    - expr: exit_code == 1
//	  description: handshake rejected
func (p *Predicate) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: predicate must be a mapping", node.Line)
	}

	var raw struct {
		Contains    *streamText    `yaml:"contains"`
		Matches     *streamPattern `yaml:"matches"`
		Expr        *string        `yaml:"expr"`
		Not         *Predicate     `yaml:"not"`
		And         []Predicate    `yaml:"and"`
		Or          []Predicate    `yaml:"or"`
		Description string         `yaml:"description"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	var kinds []Kind
	var out Predicate
	if raw.Contains != nil {
		kinds = append(kinds, KindContains)
		out = Contains(defaultStream(raw.Contains.Stream), raw.Contains.Text)
	}
	if raw.Matches != nil {
		kinds = append(kinds, KindMatches)
		out = Matches(defaultStream(raw.Matches.Stream), raw.Matches.Pattern)
	}
	if raw.Expr != nil {
		kinds = append(kinds, KindExpr)
		out = Expr(*raw.Expr)
	}
	if raw.Not != nil {
		kinds = append(kinds, KindNot)
		out = Not(*raw.Not)
	}
	if raw.And != nil {
		kinds = append(kinds, KindAnd)
		out = And(raw.And...)
	}
	if raw.Or != nil {
		kinds = append(kinds, KindOr)
		out = Or(raw.Or...)
	}

	switch len(kinds) {
	case 0:
		return fmt.Errorf("line %d: predicate needs one of contains, matches, expr, not, and, or", node.Line)
	case 1:
	default:
		return fmt.Errorf("line %d: predicate has more than one kind: %v", node.Line, kinds)
	}

	out.Description = raw.Description
	*p = out
	return nil
}

func defaultStream(s Stream) Stream {
	if s == "" {
		return Stdout
	}
	return s
}
