package download

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/adamancini/hoist/internal/types"
)

func TestDownloadAddon_CreatesDirectoryAndFile(t *testing.T) {
	archive := bytes.Repeat([]byte("zipdata"), 3000) // spans several chunks
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	}))
	defer server.Close()

	dir := filepath.Join(t.TempDir(), "cache", "addons")
	addon := Addon{ID: "WeakAuras", Version: "3.1.2", DownloadURL: server.URL + "/WeakAuras 3.1.2.zip"}

	res, err := newTestDownloader().DownloadAddon(context.Background(), addon, dir)
	if err != nil {
		t.Fatalf("DownloadAddon() error = %v", err)
	}

	wantPath := filepath.Join(dir, "WeakAuras")
	if res.Path != wantPath {
		t.Errorf("Path = %s, want %s", res.Path, wantPath)
	}

	got, err := os.ReadFile(wantPath)
	if err != nil {
		t.Fatalf("reading addon archive: %v", err)
	}
	if !bytes.Equal(got, archive) {
		t.Errorf("archive content mismatch: got %d bytes, want %d", len(got), len(archive))
	}
}

func TestDownloadAddon_NoPackage(t *testing.T) {
	_, err := newTestDownloader().DownloadAddon(context.Background(), Addon{ID: "Details"}, t.TempDir())
	if !errors.Is(err, ErrNoPackage) {
		t.Errorf("expected ErrNoPackage, got: %v", err)
	}
}

func TestDownloadAddon_TruncatedStreamFails(t *testing.T) {
	server := serveShort(4096, 1000)
	defer server.Close()

	dir := t.TempDir()
	_, err := newTestDownloader().DownloadAddon(context.Background(), Addon{ID: "Bagnon", DownloadURL: server.URL}, dir)
	if !errors.Is(err, types.ErrIncompleteTransfer) {
		t.Fatalf("expected incomplete transfer, got: %v", err)
	}

	if _, statErr := os.Stat(filepath.Join(dir, "Bagnon")); !os.IsNotExist(statErr) {
		t.Error("truncated archive should not be left on disk")
	}
}

func TestDownloadAddons_ContinuesAfterFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	addons := []Addon{
		{ID: "First", DownloadURL: server.URL + "/first"},
		{ID: "Broken", DownloadURL: server.URL + "/missing"},
		{ID: "Last", DownloadURL: server.URL + "/last"},
	}

	dir := t.TempDir()
	results := newTestDownloader().DownloadAddons(context.Background(), addons, dir)

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	failed := Failed(results)
	if len(failed) != 1 || failed[0].Addon.ID != "Broken" {
		t.Fatalf("failed = %+v, want only Broken", failed)
	}
	if failed[0].Error == "" {
		t.Error("failed result should carry an error message")
	}

	for _, id := range []string{"First", "Last"} {
		if _, err := os.Stat(filepath.Join(dir, id)); err != nil {
			t.Errorf("%s should have been downloaded: %v", id, err)
		}
	}
}

func TestValidateAddonID(t *testing.T) {
	tests := []struct {
		id      string
		wantErr bool
	}{
		{"WeakAuras", false},
		{"deadly-boss-mods", false},
		{"v1.2_beta", false},
		{"", true},
		{".", true},
		{"..", true},
		{"../x", true},
		{"a/b", true},
		{`a\b`, true},
		{"/etc", true},
		{".hidden", true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			err := ValidateAddonID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateAddonID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidAddonID) {
				t.Errorf("expected ErrInvalidAddonID, got: %v", err)
			}
		})
	}
}

func TestDownloadAddon_RejectsIDOutsideDir(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write([]byte("x"))
	}))
	defer server.Close()

	root := t.TempDir()
	dir := filepath.Join(root, "addons")

	for _, id := range []string{"../escaped", ".", "a/b"} {
		_, err := newTestDownloader().DownloadAddon(context.Background(), Addon{ID: id, DownloadURL: server.URL}, dir)
		if !errors.Is(err, ErrInvalidAddonID) {
			t.Errorf("DownloadAddon(%q) error = %v, want ErrInvalidAddonID", id, err)
		}
	}

	if requests != 0 {
		t.Errorf("server saw %d requests, want none", requests)
	}
	if _, err := os.Stat(filepath.Join(root, "escaped")); !os.IsNotExist(err) {
		t.Error("file written outside the addon directory")
	}
}
