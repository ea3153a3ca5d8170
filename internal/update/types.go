package update

import "time"

// Release is the metadata of one published release.
type Release struct {
	Tag    string         `json:"tag" yaml:"tag"`                         // Opaque version label, e.g. "v2.0"
	Name   string         `json:"name,omitempty" yaml:"name,omitempty"`   // Human-readable release name
	Notes  string         `json:"notes,omitempty" yaml:"notes,omitempty"` // Release notes/changelog
	URL    string         `json:"url,omitempty" yaml:"url,omitempty"`     // Release page
	Assets []ReleaseAsset `json:"assets" yaml:"assets"`
}

// ReleaseAsset is one downloadable file attached to a release.
type ReleaseAsset struct {
	Name        string `json:"name" yaml:"name"`                 // Exact filename as published
	DownloadURL string `json:"download_url" yaml:"download_url"` // Absolute URL
}

// UpdateInfo describes the outcome of an update check.
type UpdateInfo struct {
	Available      bool   `json:"available" yaml:"available"`             // Whether the release is newer than the running build
	CurrentVersion string `json:"current_version" yaml:"current_version"` // Currently installed version
	LatestVersion  string `json:"latest_version" yaml:"latest_version"`   // Tag of the latest release
	ReleaseURL     string `json:"release_url,omitempty" yaml:"release_url,omitempty"`
	ReleaseNotes   string `json:"release_notes,omitempty" yaml:"release_notes,omitempty"`
	AssetName      string `json:"asset_name,omitempty" yaml:"asset_name,omitempty"`
	AssetURL       string `json:"asset_url,omitempty" yaml:"asset_url,omitempty"` // Direct download URL for the binary

	Release *Release `json:"-" yaml:"-"`
}

// Platform describes the current system platform
type Platform struct {
	OS   string // Operating system (darwin, linux, windows)
	Arch string // Architecture (amd64, arm64)
}

// State is a step of the self-update sequence.
type State int

const (
	// StateIdle means no update is being staged or waiting.
	StateIdle State = iota
	// StateStaging means an update is being downloaded next to the executable.
	StateStaging
	// StatePendingRestart means a staged update waits for the next launch.
	StatePendingRestart
)

// String returns the name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStaging:
		return "staging"
	case StatePendingRestart:
		return "pending-restart"
	default:
		return "unknown"
	}
}

// Staged describes an update that has been written beside the executable.
type Staged struct {
	Path     string    `json:"path" yaml:"path"`     // tmp_<exe> path
	Target   string    `json:"target" yaml:"target"` // Executable it will replace
	Tag      string    `json:"tag" yaml:"tag"`
	Bytes    int64     `json:"bytes" yaml:"bytes"`
	StagedAt time.Time `json:"staged_at" yaml:"staged_at"`
}

// Finalized describes a staged update that has been renamed into place.
type Finalized struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
	Tag  string `json:"tag,omitempty" yaml:"tag,omitempty"`
}
