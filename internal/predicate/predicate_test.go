package predicate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const handshakeFailure = "routines:SSL3_READ_BYTES:sslv3 alert handshake failure"

func TestEval(t *testing.T) {
	out := Output{
		Stdout:   "subject=/CN=local.example.com\n",
		Stderr:   "140:error:" + handshakeFailure + ":s3_pkt.c:1472\n",
		ExitCode: 1,
	}

	tests := []struct {
		name string
		p    Predicate
		want bool
	}{
		{"contains stdout hit", Contains(Stdout, "CN=local.example.com"), true},
		{"contains stdout miss", Contains(Stdout, "CN=other.example.com"), false},
		{"contains reads only its stream", Contains(Stdout, handshakeFailure), false},
		{"contains stderr", Contains(Stderr, handshakeFailure), true},
		{"contains combined", Contains(Combined, "s3_pkt.c"), true},
		{"empty stream defaults to stdout", Predicate{Kind: KindContains, Text: "subject="}, true},
		{"matches", Matches(Stdout, `CN=\w+\.example\.com`), true},
		{"matches miss", Matches(Stderr, `^OK$`), false},
		{"not", Not(Contains(Stdout, "CN=other")), true},
		{"double negation means must contain", Not(Not(Contains(Stdout, "CN=local.example.com"))), true},
		{"double negation miss", Not(Not(Contains(Stdout, "CN=other.example.com"))), false},
		{"and all true", And(Contains(Stdout, "CN="), Contains(Stderr, "error")), true},
		{"and one false", And(Contains(Stdout, "CN="), Contains(Stderr, "nope")), false},
		{"or one true", Or(Contains(Stderr, "nope"), Contains(Stderr, handshakeFailure)), true},
		{"or none true", Or(Contains(Stderr, "nope"), Contains(Stderr, "nada")), false},
		{"expr", Expr(`exit_code == 1 && stdout.contains("CN=local")`), true},
		{"expr false", Expr(`exit_code == 0`), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.p.Eval(out)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEval_ShortCircuit(t *testing.T) {
	broken := Matches(Stdout, "(")

	ok, err := Or(Contains(Stdout, "x"), broken).Eval(Output{Stdout: "x"})
	require.NoError(t, err, "or should stop at the first true operand")
	assert.True(t, ok)

	ok, err = And(Contains(Stdout, "y"), broken).Eval(Output{Stdout: "x"})
	require.NoError(t, err, "and should stop at the first false operand")
	assert.False(t, ok)

	_, err = And(Contains(Stdout, "x"), broken).Eval(Output{Stdout: "x"})
	assert.Error(t, err)
}

func TestEval_Errors(t *testing.T) {
	tests := []struct {
		name string
		p    Predicate
	}{
		{"bad pattern", Matches(Stdout, "[")},
		{"non bool expr", Expr(`stdout`)},
		{"bad expr", Expr(`stdout +`)},
		{"unknown kind", Predicate{Kind: "xor"}},
		{"not without operand", Predicate{Kind: KindNot}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.p.Eval(Output{})
			assert.Error(t, err)
		})
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		p    Predicate
		want string
	}{
		{"contains", Contains(Stdout, "CN=example.com"), `stdout contains "CN=example.com"`},
		{"matches", Matches(Stderr, `alert \w+`), `stderr matches /alert \w+/`},
		{"expr", Expr("exit_code == 0"), "expr(exit_code == 0)"},
		{"not", Not(Contains(Stdout, "x")), `not (stdout contains "x")`},
		{"or", Or(Contains(Stderr, "a"), Contains(Stderr, "b")), `(stderr contains "a") or (stderr contains "b")`},
		{"and", And(Contains(Stdout, "a"), Expr("true")), `(stdout contains "a") and (expr(true))`},
		{"explicit", Contains(Stdout, "x").WithDescription("serves the local cert"), "serves the local cert"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.Describe())
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       Predicate
		wantErr bool
	}{
		{"contains ok", Contains(Stdout, "x"), false},
		{"contains empty text", Contains(Stdout, ""), true},
		{"bad stream", Contains("stdin", "x"), true},
		{"matches bad pattern", Matches(Stdout, "("), true},
		{"expr ok", Expr(`stderr.contains("x")`), false},
		{"expr empty", Expr(""), true},
		{"expr unknown variable", Expr(`status == 0`), true},
		{"expr non bool", Expr(`exit_code + 1`), true},
		{"and empty", And(), true},
		{"or nested bad", Or(Contains(Stdout, "x"), Matches(Stdout, "(")), true},
		{"not ok", Not(Contains(Stderr, "x")), false},
		{"empty kind", Predicate{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStreams(t *testing.T) {
	p := And(Contains(Stderr, "a"), Or(Contains(Stdout, "b"), Contains(Stderr, "c")))
	assert.Equal(t, []Stream{Stderr, Stdout}, p.Streams())
	assert.Equal(t, []Stream{Stdout, Stderr}, Expr("true").Streams())
}

func TestUnmarshalYAML(t *testing.T) {
	src := `
- contains: {stream: stdout, text: CN=local.example.com}
- matches: {pattern: "CN=.*"}
- expr: exit_code == 0
- not:
    contains: {stream: stderr, text: error}
- or:
    - contains: {stream: stderr, text: "routines:SSL3_READ_BYTES:sslv3 alert handshake failure"}
    - contains: {stream: stderr, text: "ssl3_read_bytes:sslv3 alert handshake failure"}
  description: SSLv3 handshake rejected
`
	var ps []Predicate
	require.NoError(t, yaml.Unmarshal([]byte(src), &ps))
	require.Len(t, ps, 5)

	assert.Equal(t, Contains(Stdout, "CN=local.example.com"), ps[0])
	assert.Equal(t, Stdout, ps[1].Stream, "stream defaults to stdout")
	assert.Equal(t, KindExpr, ps[2].Kind)
	assert.Equal(t, KindNot, ps[3].Kind)
	assert.Equal(t, Contains(Stderr, "error"), ps[3].Operands[0])
	assert.Equal(t, KindOr, ps[4].Kind)
	assert.Len(t, ps[4].Operands, 2)
	assert.Equal(t, "SSLv3 handshake rejected", ps[4].Describe())

	for _, p := range ps {
		assert.NoError(t, p.Validate())
	}
}

func TestUnmarshalYAML_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"scalar", `- contains`},
		{"no kind", `- description: nothing`},
		{"two kinds", `- {contains: {text: a}, expr: "true"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ps []Predicate
			assert.Error(t, yaml.Unmarshal([]byte(tt.src), &ps))
		})
	}
}

func TestJSON(t *testing.T) {
	data, err := json.Marshal(Not(Contains(Stderr, "x")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"not","operands":[{"kind":"contains","stream":"stderr","text":"x"}]}`, string(data))
}
