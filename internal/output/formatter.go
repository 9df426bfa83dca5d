// Package output prints human-readable and JSON results to the terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	warnColor    = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	dimColor     = color.New(color.Faint)
)

var (
	mu     sync.Mutex
	writer io.Writer = os.Stdout
)

// SetOutput redirects all output. nil restores os.Stdout.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	writer = w
}

// Writer returns the current output destination.
func Writer() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return writer
}

// JSON outputs data as indented JSON
func JSON(data interface{}) error {
	encoder := json.NewEncoder(Writer())
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Table outputs data as a formatted table
func Table(headers []string, rows [][]string) {
	if len(headers) == 0 {
		return
	}
	w := Writer()

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	line := func(cells []string) {
		padded := make([]string, len(headers))
		for i := range headers {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			padded[i] = fmt.Sprintf("%-*s", widths[i], cell)
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(padded, "  "), " "))
	}

	line(headers)
	sep := make([]string, len(headers))
	for i, width := range widths {
		sep[i] = strings.Repeat("-", width)
	}
	line(sep)
	for _, row := range rows {
		line(row)
	}
}

// Success prints a success message
func Success(format string, args ...interface{}) {
	_, _ = successColor.Fprintf(Writer(), "✓ "+format+"\n", args...)
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	_, _ = errorColor.Fprintf(Writer(), "✗ "+format+"\n", args...)
}

// Warn prints a warning message
func Warn(format string, args ...interface{}) {
	_, _ = warnColor.Fprintf(Writer(), "! "+format+"\n", args...)
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	_, _ = infoColor.Fprintf(Writer(), "→ "+format+"\n", args...)
}

// Skip prints a message for something that did not run.
func Skip(format string, args ...interface{}) {
	_, _ = dimColor.Fprintf(Writer(), "- "+format+"\n", args...)
}

// Print prints a plain message
func Print(format string, args ...interface{}) {
	fmt.Fprintf(Writer(), format+"\n", args...)
}

// Block prints multi-line text indented by prefix, dimmed.
func Block(prefix, text string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}
	w := Writer()
	for _, l := range strings.Split(text, "\n") {
		_, _ = dimColor.Fprintln(w, prefix+l)
	}
}
