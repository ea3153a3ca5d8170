// Package transport issues single HTTP requests for the downloader and the
// release locator.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/adamancini/hoist/internal/types"
)

// maxRedirects bounds how many hops a request follows. Release assets usually
// redirect once to a CDN host.
const maxRedirects = 10

// Options configures a single request.
type Options struct {
	Headers map[string]string // Extra request headers
	Timeout time.Duration     // Bounds the whole request including the body; zero means none
}

// Client sends requests through one shared *http.Client.
type Client struct {
	http      *http.Client
	userAgent string
	log       *log.Logger
}

// Option configures a Client during construction.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its redirect policy is
// left untouched.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithUserAgent sets the User-Agent header sent unless a request overrides it.
func WithUserAgent(ua string) Option {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) Option {
	return func(cl *Client) {
		cl.log = l
	}
}

// NewClient creates a Client that follows redirects transparently.
func NewClient(opts ...Option) *Client {
	c := &Client{
		userAgent: "hoist/dev",
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = log.New(io.Discard)
	}
	if c.http == nil {
		// Transparent gzip would strip Content-Length, which the length check needs.
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.DisableCompression = true
		c.http = &http.Client{Transport: tr, CheckRedirect: c.followRedirect}
	}
	return c
}

// Request issues a GET for rawURL. Spaces in the URL are percent-encoded
// first. The caller must close the response body. Non-2xx statuses are
// returned as responses, not errors.
func (c *Client) Request(ctx context.Context, rawURL string, opts Options) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, rawURL, nil, opts)
}

// PostJSON serializes payload as JSON and POSTs it to rawURL with
// content-type application/json. Otherwise it behaves like Request.
func (c *Client) PostJSON(ctx context.Context, rawURL string, payload interface{}, opts Options) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request payload: %w", err)
	}

	headers := make(map[string]string, len(opts.Headers)+1)
	headers["Content-Type"] = "application/json"
	for k, v := range opts.Headers {
		headers[k] = v
	}
	opts.Headers = headers

	return c.do(ctx, http.MethodPost, rawURL, body, opts)
}

// EncodeURL percent-encodes literal spaces, which show up in some download URLs.
func EncodeURL(rawURL string) string {
	return strings.ReplaceAll(rawURL, " ", "%20")
}

func (c *Client) do(ctx context.Context, method, rawURL string, body []byte, opts Options) (*http.Response, error) {
	reqURL := EncodeURL(rawURL)

	cancel := context.CancelFunc(func() {})
	if opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		cancel()
		return nil, types.NewError(types.ErrNetwork, "build request", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	for name, value := range opts.Headers {
		req.Header.Set(name, value)
	}

	c.log.Debug("sending request", "method", method, "url", reqURL)

	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		return nil, types.NewError(types.ErrNetwork, strings.ToLower(method)+" "+reqURL, err)
	}

	// The deadline has to outlive Do so it also bounds reading the body.
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}

	c.log.Debug("received response", "url", reqURL, "status", resp.StatusCode, "length", resp.ContentLength)
	return resp, nil
}

func (c *Client) followRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return errors.New("stopped after too many redirects")
	}
	c.log.Debug("following redirect", "to", req.URL.Redacted())
	return nil
}

// cancelOnClose releases the request context once the body is done.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
