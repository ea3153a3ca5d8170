package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/adamancini/hoist/internal/types"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want log.Level
	}{
		{"default", Options{}, log.InfoLevel},
		{"configured debug", Options{Level: types.LogLevelDebug}, log.DebugLevel},
		{"configured warn", Options{Level: types.LogLevelWarn}, log.WarnLevel},
		{"configured error", Options{Level: types.LogLevelError}, log.ErrorLevel},
		{"verbose wins", Options{Level: types.LogLevelError, Verbose: true}, log.DebugLevel},
		{"quiet", Options{Quiet: true}, log.ErrorLevel},
		{"verbose beats quiet", Options{Verbose: true, Quiet: true}, log.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Level(tt.opts); got != tt.want {
				t.Errorf("Level() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewWritesToStderr(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Options{Stderr: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer closer.Close()

	logger.Info("update staged", "tag", "v2.0")
	logger.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "update staged") || !strings.Contains(out, "tag=v2.0") {
		t.Errorf("output = %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Error("debug message written at info level")
	}
}

func TestNewAlsoWritesFileWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "nested", "hoist.log")

	logger, closer, err := New(Options{Stderr: &buf, File: path, Quiet: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("not written")
	logger.Error("finalize failed", "error", "locked")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "finalize failed") {
		t.Errorf("log file = %q", data)
	}
	if strings.Contains(string(data), "not written") {
		t.Error("info message written under quiet")
	}
	if !strings.Contains(buf.String(), "finalize failed") {
		t.Errorf("stderr = %q", buf.String())
	}
}

func TestNewLogFileUnwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := New(Options{Stderr: &bytes.Buffer{}, File: filepath.Join(blocker, "hoist.log")}); err == nil {
		t.Error("New() expected error for a log path under a regular file")
	}
}

func TestIsTerminal(t *testing.T) {
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("buffer reported as terminal")
	}
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if IsTerminal(f) {
		t.Error("regular file reported as terminal")
	}
}
