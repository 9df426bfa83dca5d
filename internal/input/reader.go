// Package input reads interactive answers from the user.
package input

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Reader is an interface for reading user input
type Reader interface {
	ReadString(delim byte) (string, error)
}

// StdinReader wraps bufio.Reader for os.Stdin
type StdinReader struct {
	reader *bufio.Reader
}

// NewStdinReader creates a new StdinReader
func NewStdinReader() *StdinReader {
	return NewReader(os.Stdin)
}

// NewReader creates a StdinReader over any stream.
func NewReader(r io.Reader) *StdinReader {
	return &StdinReader{reader: bufio.NewReader(r)}
}

// ReadString reads until delimiter
func (r *StdinReader) ReadString(delim byte) (string, error) {
	return r.reader.ReadString(delim)
}

// StringReader is a simple reader for testing.
// Each input string should already include the delimiter that will be used
// in ReadString calls (e.g., "yes\n" for newline delimiter).
type StringReader struct {
	inputs []string
	index  int
}

// NewStringReader creates a reader from strings.
func NewStringReader(inputs ...string) *StringReader {
	return &StringReader{inputs: inputs}
}

// ReadString returns the next pre-configured string, or io.EOF.
func (r *StringReader) ReadString(delim byte) (string, error) {
	if r.index >= len(r.inputs) {
		return "", io.EOF
	}
	result := r.inputs[r.index]
	r.index++
	return result, nil
}

// Confirm writes prompt followed by " [y/N]: " to w and reports whether
// the answer was yes. End of input counts as no.
func Confirm(r Reader, w io.Writer, prompt string) (bool, error) {
	fmt.Fprintf(w, "%s [y/N]: ", prompt)
	answer, err := readLine(r)
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

// Ask writes prompt to w and returns the trimmed answer, or def when the
// answer is empty.
func Ask(r Reader, w io.Writer, prompt, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(w, "%s [%s]: ", prompt, def)
	} else {
		fmt.Fprintf(w, "%s: ", prompt)
	}
	answer, err := readLine(r)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

func readLine(r Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
