package update

import (
	"fmt"
	"runtime"
	"slices"
)

// supportedPlatforms lists the OS/arch pairs that releases are built for.
var supportedPlatforms = map[string][]string{
	"darwin":  {"amd64", "arm64"},
	"linux":   {"amd64", "arm64"},
	"windows": {"amd64"},
}

// Detect returns the current platform (OS and architecture)
func Detect() Platform {
	return Platform{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}
}

// BinaryName returns the published asset name for this platform,
// e.g. "hoist-darwin-arm64" or "hoist-windows-amd64.exe".
func (p Platform) BinaryName() string {
	name := fmt.Sprintf("hoist-%s-%s", p.OS, p.Arch)
	if p.OS == "windows" {
		name += ".exe"
	}
	return name
}

// IsSupported returns true if releases are published for this platform.
func (p Platform) IsSupported() bool {
	archs, ok := supportedPlatforms[p.OS]
	if !ok {
		return false
	}
	return slices.Contains(archs, p.Arch)
}
