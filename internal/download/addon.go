package download

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
)

// ErrNoPackage is returned for an addon without a download URL.
var ErrNoPackage = errors.New("addon has no release package to download")

// ErrInvalidAddonID is returned for an ID that is not a plain file name.
var ErrInvalidAddonID = errors.New("invalid addon id")

// addonIDPattern keeps addon IDs usable as plain file names.
var addonIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// ValidateAddonID checks that id names a file directly inside the addon
// directory.
func ValidateAddonID(id string) error {
	if !addonIDPattern.MatchString(id) {
		return fmt.Errorf("%w '%s' (letters, digits, '.', '_' and '-' only)", ErrInvalidAddonID, id)
	}
	return nil
}

// Addon is the part of an addon's metadata needed to fetch its archive.
type Addon struct {
	ID          string `yaml:"id" toml:"id" json:"id"`
	Version     string `yaml:"version,omitempty" toml:"version,omitempty" json:"version,omitempty"`
	DownloadURL string `yaml:"url" toml:"url" json:"url"`
}

// AddonResult is the outcome of one addon download.
type AddonResult struct {
	Addon Addon  `json:"addon" yaml:"addon"`
	Path  string `json:"path,omitempty" yaml:"path,omitempty"`
	Bytes int64  `json:"bytes" yaml:"bytes"`
	Err   error  `json:"-" yaml:"-"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// DownloadAddon streams the addon archive to <dir>/<addon.ID>. The transfer has
// no timeout and no length check; a broken stream still fails the download.
func (d *Downloader) DownloadAddon(ctx context.Context, addon Addon, dir string) (*Result, error) {
	if err := ValidateAddonID(addon.ID); err != nil {
		return nil, err
	}
	if addon.DownloadURL == "" {
		return nil, ErrNoPackage
	}

	d.log.Debug("downloading addon", "id", addon.ID, "version", addon.Version)

	return d.Fetch(ctx, Request{
		URL:    addon.DownloadURL,
		Dest:   filepath.Join(dir, addon.ID),
		Verify: NoVerify{},
	})
}

// DownloadAddons downloads each addon in turn. A failure is recorded on that
// addon's result and does not stop the remaining downloads.
func (d *Downloader) DownloadAddons(ctx context.Context, addons []Addon, dir string) []AddonResult {
	results := make([]AddonResult, 0, len(addons))

	for _, addon := range addons {
		r := AddonResult{Addon: addon}

		res, err := d.DownloadAddon(ctx, addon, dir)
		if err != nil {
			d.log.Error("addon download failed", "id", addon.ID, "error", err)
			r.Err = err
			r.Error = err.Error()
		} else {
			r.Path = res.Path
			r.Bytes = res.Written
		}

		results = append(results, r)
	}

	return results
}

// Failed returns the results that carry an error.
func Failed(results []AddonResult) []AddonResult {
	var failed []AddonResult
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}
