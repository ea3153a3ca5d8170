// Package output renders command results as text, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Format represents an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Writer handles output in the specified format.
type Writer struct {
	format  Format
	w       io.Writer
	success *color.Color
	failure *color.Color
}

// NewWriter creates a new output writer. Status marks are colored only when w
// is a terminal and NO_COLOR is unset.
func NewWriter(w io.Writer, format Format) *Writer {
	out := &Writer{
		format:  format,
		w:       w,
		success: color.New(color.FgGreen, color.Bold),
		failure: color.New(color.FgRed, color.Bold),
	}
	if !supportsColor(w) {
		out.success.DisableColor()
		out.failure.DisableColor()
	}
	return out
}

func supportsColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) && os.Getenv("NO_COLOR") == ""
}

// Success prints a line starting with a check mark.
func (w *Writer) Success(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(w.w, "%s %s\n", w.success.Sprint("✓"), fmt.Sprintf(format, args...))
}

// Failure prints a line starting with a cross.
func (w *Writer) Failure(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(w.w, "%s %s\n", w.failure.Sprint("✗"), fmt.Sprintf(format, args...))
}

// Format returns the configured format.
func (w *Writer) Format() Format {
	return w.format
}

// Structured reports whether results are encoded rather than printed as text.
func (w *Writer) Structured() bool {
	return w.format == FormatJSON || w.format == FormatYAML
}

// Out returns the underlying writer for free-form text.
func (w *Writer) Out() io.Writer {
	return w.w
}

// Write outputs v in the configured format. In text format a fmt.Stringer
// prints itself; anything else falls back to %+v.
func (w *Writer) Write(v interface{}) error {
	return w.Render(v, nil)
}

// Render encodes v for JSON and YAML, and calls text for text format. A nil
// text func behaves like Write.
func (w *Writer) Render(v interface{}, text func(io.Writer) error) error {
	switch w.format {
	case FormatJSON:
		enc := json.NewEncoder(w.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}

	if text != nil {
		return text(w.w)
	}
	if s, ok := v.(fmt.Stringer); ok {
		_, err := fmt.Fprintln(w.w, s.String())
		return err
	}
	_, err := fmt.Fprintf(w.w, "%+v\n", v)
	return err
}

// ParseFormat parses a format string into a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format: %s", s)
	}
}
