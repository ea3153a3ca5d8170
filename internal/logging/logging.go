// Package logging builds the structured logger handed to every component.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/adamancini/hoist/internal/types"
)

// Options controls where logs go and how much is written.
type Options struct {
	Level   types.LogLevel // Configured level; Verbose and Quiet override it
	Verbose bool
	Quiet   bool
	Stderr  io.Writer // Defaults to os.Stderr
	File    string    // Also written when Stderr is not a terminal; empty disables
}

// New returns a logger for opts and a closer for the log file, if one was
// opened. The file is truncated on each start.
func New(opts Options) (*log.Logger, io.Closer, error) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	var w io.Writer = stderr
	closer := io.Closer(nopCloser{})

	if opts.File != "" && !IsTerminal(stderr) {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.Create(opts.File)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		w = io.MultiWriter(stderr, f)
		closer = f
	}

	logger := log.NewWithOptions(w, log.Options{
		Prefix:          "hoist",
		Level:           Level(opts),
		ReportTimestamp: true,
	})
	return logger, closer, nil
}

// Level resolves the effective level for opts.
func Level(opts Options) log.Level {
	switch {
	case opts.Verbose:
		return log.DebugLevel
	case opts.Quiet:
		return log.ErrorLevel
	}

	switch opts.Level.Default() {
	case types.LogLevelDebug:
		return log.DebugLevel
	case types.LogLevelWarn:
		return log.WarnLevel
	case types.LogLevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Discard returns a logger that writes nothing.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
