package update

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/adamancini/hoist/internal/download"
	"github.com/adamancini/hoist/internal/types"
)

// FinalizeFlag is the launch flag telling a staged binary to move itself
// into place before normal startup.
const FinalizeFlag = "self-update-temp"

// ErrNoRelease is returned by Stage when the release endpoint yields nothing.
var ErrNoRelease = errors.New("no release available")

// Sequencer stages a new release beside the running executable. The swap
// itself happens in Finalize, in the next process.
type Sequencer struct {
	locator    *Locator
	downloader *download.Downloader
	exePath    string
	binaryName string
	staging    bool
	now        func() time.Time
	log        *log.Logger
}

// NewSequencer creates a Sequencer that replaces the executable at exePath
// with the release asset named binaryName.
func NewSequencer(locator *Locator, downloader *download.Downloader, exePath, binaryName string, logger *log.Logger) *Sequencer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Sequencer{
		locator:    locator,
		downloader: downloader,
		exePath:    exePath,
		binaryName: binaryName,
		now:        time.Now,
		log:        logger,
	}
}

// State reports where the update sequence is. Pending-restart is read from
// disk, so it survives the process that staged the update.
func (s *Sequencer) State() State {
	if s.staging {
		return StateStaging
	}
	return PendingState(s.exePath)
}

// PendingState returns StatePendingRestart when an update is staged for the
// executable at exePath, StateIdle otherwise.
func PendingState(exePath string) State {
	if m, err := ReadMarker(exePath); err == nil && m != nil {
		return StatePendingRestart
	}
	return StateIdle
}

// Stage looks up the latest release and stages it. It returns ErrNoRelease
// when the release endpoint gives no usable answer.
func (s *Sequencer) Stage(ctx context.Context) (*Staged, error) {
	release, ok := s.locator.FetchLatest(ctx)
	if !ok {
		return nil, ErrNoRelease
	}
	return s.StageRelease(ctx, release)
}

// StageRelease downloads the matching asset of release to the tmp_ sibling of
// the executable, marks it executable and writes the pending marker. On
// failure nothing is left behind and the sequencer is idle again.
func (s *Sequencer) StageRelease(ctx context.Context, release *Release) (_ *Staged, err error) {
	asset, err := SelectAsset(release, s.binaryName)
	if err != nil {
		return nil, err
	}

	staged := StagedPath(s.exePath)
	s.staging = true
	defer func() {
		s.staging = false
		if err != nil {
			_ = os.Remove(staged)
			_ = RemoveMarker(s.exePath)
		}
	}()

	s.log.Info("staging update", "tag", release.Tag, "asset", asset.Name, "path", staged)

	res, err := s.downloader.DownloadFile(ctx, asset.DownloadURL, staged)
	if err != nil {
		return nil, err
	}

	if err := markExecutable(staged); err != nil {
		return nil, types.NewError(types.ErrFilesystem, "set permissions", err)
	}

	m := Marker{
		Staged:   staged,
		Target:   s.exePath,
		Tag:      release.Tag,
		StagedAt: s.now().UTC().Truncate(time.Second),
	}
	if err := WriteMarker(m); err != nil {
		return nil, err
	}

	s.log.Info("update staged, restart to apply", "tag", release.Tag, "bytes", res.Written)
	return &Staged{
		Path:     staged,
		Target:   s.exePath,
		Tag:      release.Tag,
		Bytes:    res.Written,
		StagedAt: m.StagedAt,
	}, nil
}

// ResolveExecutable returns the real path of the running executable.
func ResolveExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating executable: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolving executable: %w", err)
	}
	return resolved, nil
}

// Relaunch starts the staged binary with FinalizeFlag and the given
// arguments. The caller is expected to exit afterwards.
func Relaunch(staged string, args []string) (*os.Process, error) {
	argv := append(append([]string{}, args...), "--"+FinalizeFlag)

	cmd := exec.Command(staged, argv...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", staged, err)
	}
	return cmd.Process, nil
}
