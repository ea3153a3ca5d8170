package update

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/adamancini/hoist/internal/types"
)

// Recorder stores finalized updates.
type Recorder interface {
	Record(tag, target string) error
}

// FinalizeOptions configures Finalize.
type FinalizeOptions struct {
	Journal Recorder // Optional
	Log     *log.Logger
}

// Finalize moves a staged update over the executable it replaces. exePath is
// the running executable: either the tmp_ staged binary started with
// FinalizeFlag, or the target itself when the platform allows renaming over
// a running binary.
//
// The pending marker names both paths. Without one, a tmp_ executable falls
// back to its own name with the prefix stripped.
func Finalize(exePath string, opts FinalizeOptions) (*Finalized, error) {
	logger := opts.Log
	if logger == nil {
		logger = log.New(io.Discard)
	}

	dir, base := filepath.Split(exePath)
	target := exePath
	if trimmed, ok := strings.CutPrefix(base, stagedPrefix); ok && trimmed != "" {
		target = filepath.Join(dir, trimmed)
	}

	m, err := ReadMarker(target)
	if err != nil {
		return nil, err
	}

	staged := StagedPath(target)
	var tag string
	switch {
	case m != nil:
		staged, target, tag = m.Staged, m.Target, m.Tag
	case target == exePath:
		return nil, types.Errorf(types.ErrFilesystem, "finalize", "%s is not a staged executable", exePath)
	}

	logger.Debug("finalizing update", "from", staged, "to", target, "tag", tag)

	if err := os.Rename(staged, target); err != nil {
		if isCrossDevice(err) {
			return nil, types.NewError(types.ErrCrossDevice, "finalize", err)
		}
		return nil, types.NewError(types.ErrFilesystem, "finalize", err)
	}

	if err := RemoveMarker(target); err != nil {
		logger.Warn("update applied but marker remains", "error", err)
	}

	if opts.Journal != nil {
		if err := opts.Journal.Record(tag, target); err != nil {
			logger.Warn("failed to record update", "error", err)
		}
	}

	logger.Info("update applied", "path", target, "tag", tag)
	return &Finalized{From: staged, To: target, Tag: tag}, nil
}

// FinalizePending applies an update staged for exePath when this platform
// can rename over a running binary. It returns (nil, nil) when nothing is
// pending or the swap must wait for a FinalizeFlag launch.
func FinalizePending(exePath string, opts FinalizeOptions) (*Finalized, error) {
	if !canReplaceRunning() || PendingState(exePath) != StatePendingRestart {
		return nil, nil
	}
	if _, err := os.Stat(StagedPath(exePath)); errors.Is(err, os.ErrNotExist) {
		// Marker without a staged binary: stale, drop it.
		return nil, RemoveMarker(exePath)
	}
	return Finalize(exePath, opts)
}
