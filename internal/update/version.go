package update

import (
	"cmp"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Patch is optional so short tags like "v2.0" still compare.
var versionRegex = regexp.MustCompile(`^v?(\d+)\.(\d+)(?:\.(\d+))?(?:-([a-zA-Z0-9.-]+))?$`)

// Version represents a semantic version
type Version struct {
	Major      int
	Minor      int
	Patch      int
	Prerelease string
}

// ParseVersion parses a release tag or build version.
// Supports formats like "2.0", "v0.8.2", "0.9.0-rc.1"
func ParseVersion(s string) (*Version, error) {
	matches := versionRegex.FindStringSubmatch(strings.TrimSpace(s))
	if matches == nil {
		return nil, fmt.Errorf("invalid version format: %q", s)
	}

	v := &Version{Prerelease: matches[4]}
	v.Major, _ = strconv.Atoi(matches[1])
	v.Minor, _ = strconv.Atoi(matches[2])
	if matches[3] != "" {
		v.Patch, _ = strconv.Atoi(matches[3])
	}
	return v, nil
}

// String returns the string representation
func (v *Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	return s
}

// Compare returns 1 if v > other, 0 if equal and -1 if v < other.
// A stable version sorts above any prerelease of the same number.
func (v *Version) Compare(other *Version) int {
	if c := cmp.Compare(v.Major, other.Major); c != 0 {
		return c
	}
	if c := cmp.Compare(v.Minor, other.Minor); c != 0 {
		return c
	}
	if c := cmp.Compare(v.Patch, other.Patch); c != 0 {
		return c
	}

	switch {
	case v.Prerelease == other.Prerelease:
		return 0
	case v.Prerelease == "":
		return 1
	case other.Prerelease == "":
		return -1
	default:
		return cmp.Compare(v.Prerelease, other.Prerelease)
	}
}

// IsGreaterThan returns true if v > other
func (v *Version) IsGreaterThan(other *Version) bool {
	return v.Compare(other) > 0
}

// IsNewer reports whether latest should replace current. Labels that are not
// versions (a "dev" build, a dated tag) are compared as opaque strings: any
// difference counts as newer.
func IsNewer(current, latest string) bool {
	cur, errCur := ParseVersion(current)
	lat, errLat := ParseVersion(latest)
	if errCur != nil || errLat != nil {
		return NormalizeVersion(current) != NormalizeVersion(latest)
	}
	return lat.IsGreaterThan(cur)
}

// NormalizeVersion removes the 'v' prefix if present
func NormalizeVersion(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), "v")
}
