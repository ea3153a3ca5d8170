// Package download streams HTTP response bodies to files. Every download goes
// through one code path; callers pick how the result is verified.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/adamancini/hoist/internal/transport"
	"github.com/adamancini/hoist/internal/types"
)

// chunkSize is the read buffer used while streaming a body to disk.
const chunkSize = 8 * 1024

// Target is a destination path plus the byte length the server announced.
type Target struct {
	Path           string
	ExpectedLength int64 // -1 when unknown or not checked
}

// Request describes one download.
type Request struct {
	URL     string
	Dest    string
	Headers map[string]string
	Timeout time.Duration // Zero leaves the transfer unbounded
	Verify  Verifier      // Nil means NoVerify

	// RateLimit caps the transfer in bytes per second. Zero uses the
	// downloader's default, which is unlimited unless set with WithRateLimit.
	RateLimit int64
}

// Result reports a finished download.
type Result struct {
	Path    string
	Written int64
}

// Downloader streams response bodies to files.
type Downloader struct {
	client    *transport.Client
	rateLimit int64
	log       *log.Logger
}

// New creates a Downloader that sends requests through client.
func New(client *transport.Client, logger *log.Logger) *Downloader {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Downloader{client: client, log: logger}
}

// WithRateLimit caps every download that does not set its own limit.
func (d *Downloader) WithRateLimit(bytesPerSec int64) *Downloader {
	d.rateLimit = bytesPerSec
	return d
}

// DownloadFile fetches url into dest and fails unless the bytes written equal
// the response's Content-Length. Redirects are followed.
func (d *Downloader) DownloadFile(ctx context.Context, url, dest string) (*Result, error) {
	d.log.Debug("downloading file", "url", url)

	res, err := d.Fetch(ctx, Request{
		URL:     url,
		Dest:    dest,
		Headers: map[string]string{"Accept": "application/octet-stream"},
		Verify:  LengthCheck{},
	})
	if err != nil {
		return nil, err
	}

	d.log.Debug("file saved", "path", res.Path, "bytes", res.Written)
	return res, nil
}

// Fetch performs one single-attempt download. The destination directory is
// created if needed. On any failure the partially written file is removed, so
// a truncated transfer is never left behind looking complete.
func (d *Downloader) Fetch(ctx context.Context, req Request) (*Result, error) {
	verify := req.Verify
	if verify == nil {
		verify = NoVerify{}
	}

	resp, err := d.client.Request(ctx, req.URL, transport.Options{
		Headers: req.Headers,
		Timeout: req.Timeout,
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, types.Errorf(types.ErrNetwork, "download", "unexpected status %d from %s", resp.StatusCode, req.URL)
	}

	target := Target{Path: req.Dest, ExpectedLength: verify.Expected(resp)}

	if err := os.MkdirAll(filepath.Dir(target.Path), 0755); err != nil {
		return nil, types.NewError(types.ErrFilesystem, "create directory", err)
	}

	file, err := os.Create(target.Path)
	if err != nil {
		return nil, types.NewError(types.ErrFilesystem, "create file", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = file.Close()
			if rmErr := os.Remove(target.Path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				d.log.Warn("failed to remove partial download", "path", target.Path, "error", rmErr)
			}
		}
	}()

	limit := req.RateLimit
	if limit == 0 {
		limit = d.rateLimit
	}

	written, err := copyChunks(file, throttle(ctx, resp.Body, limit))
	if err != nil {
		d.log.Error("download interrupted", "url", req.URL, "written", written, "error", err)
		return nil, err
	}

	if err := verify.Verify(target, written); err != nil {
		return nil, err
	}

	if err := file.Sync(); err != nil {
		return nil, types.NewError(types.ErrFilesystem, "sync file", err)
	}
	committed = true
	if err := file.Close(); err != nil {
		_ = os.Remove(target.Path)
		return nil, types.NewError(types.ErrFilesystem, "close file", err)
	}

	if err := checkOnDisk(target.Path, written); err != nil {
		_ = os.Remove(target.Path)
		return nil, err
	}

	return &Result{Path: target.Path, Written: written}, nil
}

// copyChunks appends the body to dst in chunkSize pieces until end of stream.
// A read failure is an incomplete transfer; a write failure is a filesystem
// error.
func copyChunks(dst io.Writer, body io.Reader) (int64, error) {
	buf := make([]byte, chunkSize)
	var written int64

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			w, writeErr := dst.Write(buf[:n])
			written += int64(w)
			if writeErr != nil {
				return written, types.NewError(types.ErrFilesystem, "write file", writeErr)
			}
		}
		if errors.Is(readErr, io.EOF) {
			return written, nil
		}
		if readErr != nil {
			return written, types.NewError(types.ErrIncompleteTransfer, "download",
				fmt.Errorf("stream ended after %d bytes: %w", written, readErr))
		}
	}
}

// checkOnDisk confirms the file holds exactly the bytes that were written.
func checkOnDisk(path string, written int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return types.NewError(types.ErrFilesystem, "stat file", err)
	}
	if info.Size() != written {
		return types.Errorf(types.ErrIntegrity, "download",
			"%s holds %d bytes, wrote %d", path, info.Size(), written)
	}
	return nil
}
