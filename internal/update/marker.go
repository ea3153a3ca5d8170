package update

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/adamancini/hoist/internal/types"
)

// stagedPrefix is prepended to the executable name to form the staged path.
const stagedPrefix = "tmp_"

// Marker records a staged update waiting for the next launch. Its presence on
// disk is what puts the sequencer in StatePendingRestart.
type Marker struct {
	Staged   string    `toml:"staged"`
	Target   string    `toml:"target"`
	Tag      string    `toml:"tag"`
	StagedAt time.Time `toml:"staged_at"`
}

// StagedPath returns the tmp_ sibling of the executable at target.
func StagedPath(target string) string {
	return filepath.Join(filepath.Dir(target), stagedPrefix+filepath.Base(target))
}

// MarkerPath returns where the pending marker for target lives.
func MarkerPath(target string) string {
	return filepath.Join(filepath.Dir(target), "."+filepath.Base(target)+".pending.toml")
}

// WriteMarker persists m next to its target. The file is written under a
// temporary name and renamed so a reader never sees half a marker.
func WriteMarker(m Marker) error {
	data, err := toml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding pending marker: %w", err)
	}

	path := MarkerPath(m.Target)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return types.NewError(types.ErrFilesystem, "write marker", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return types.NewError(types.ErrFilesystem, "write marker", err)
	}
	return nil
}

// ReadMarker loads the pending marker for target. A missing marker returns
// (nil, nil).
func ReadMarker(target string) (*Marker, error) {
	data, err := os.ReadFile(MarkerPath(target))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, types.NewError(types.ErrFilesystem, "read marker", err)
	}

	var m Marker
	if err := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&m); err != nil {
		return nil, types.NewError(types.ErrDeserialization, "read marker", err)
	}
	if m.Staged == "" || m.Target == "" {
		return nil, types.Errorf(types.ErrDeserialization, "read marker", "%s: staged and target are required", MarkerPath(target))
	}
	return &m, nil
}

// RemoveMarker deletes the pending marker for target if it exists.
func RemoveMarker(target string) error {
	if err := os.Remove(MarkerPath(target)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return types.NewError(types.ErrFilesystem, "remove marker", err)
	}
	return nil
}
