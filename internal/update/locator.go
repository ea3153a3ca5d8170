package update

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/adamancini/hoist/internal/transport"
	"github.com/adamancini/hoist/internal/types"
)

// DefaultReleaseURL is the endpoint describing the latest published release.
const DefaultReleaseURL = "https://api.github.com/repos/adamancini/hoist/releases/latest"

const defaultLocatorTimeout = 30 * time.Second

//go:embed release.schema.json
var releaseSchemaJSON []byte

var releaseSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(releaseSchemaJSON))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("release.schema.json", doc); err != nil {
		return nil, err
	}
	return c.Compile("release.schema.json")
})

// latestRelease is the wire shape served by the release endpoint.
type latestRelease struct {
	TagName string `json:"tag_name"`
	Name    string `json:"name"`
	Body    string `json:"body"`
	HTMLURL string `json:"html_url"`
	Assets  []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// Locator finds the latest release and the asset built for this platform.
type Locator struct {
	client   *transport.Client
	endpoint string
	token    string        // Optional, raises API rate limits
	timeout  time.Duration // Bounds the metadata request
	log      *log.Logger
}

// NewLocator creates a Locator querying endpoint. An empty endpoint means
// DefaultReleaseURL.
func NewLocator(client *transport.Client, endpoint string, logger *log.Logger) *Locator {
	if endpoint == "" {
		endpoint = DefaultReleaseURL
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Locator{
		client:   client,
		endpoint: endpoint,
		timeout:  defaultLocatorTimeout,
		log:      logger,
	}
}

// WithToken sets a bearer token sent with the metadata request.
func (l *Locator) WithToken(token string) *Locator {
	l.token = token
	return l
}

// WithTimeout overrides how long the metadata request may take.
func (l *Locator) WithTimeout(d time.Duration) *Locator {
	l.timeout = d
	return l
}

// TokenFromEnv returns the API token from HOIST_GITHUB_TOKEN or GITHUB_TOKEN.
func TokenFromEnv() string {
	if tok := strings.TrimSpace(os.Getenv("HOIST_GITHUB_TOKEN")); tok != "" {
		return tok
	}
	return strings.TrimSpace(os.Getenv("GITHUB_TOKEN"))
}

// FetchLatest returns the latest release. Every failure is logged and
// reported as false: a broken update check must never stop the program.
func (l *Locator) FetchLatest(ctx context.Context) (*Release, bool) {
	release, err := l.fetch(ctx)
	if err != nil {
		l.log.Debug("no release found", "endpoint", l.endpoint, "error", err)
		return nil, false
	}
	return release, true
}

func (l *Locator) fetch(ctx context.Context) (*Release, error) {
	headers := map[string]string{"Accept": "application/vnd.github+json"}
	if l.token != "" {
		headers["Authorization"] = "Bearer " + l.token
	}

	resp, err := l.client.Request(ctx, l.endpoint, transport.Options{
		Headers: headers,
		Timeout: l.timeout,
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, types.Errorf(types.ErrNetwork, "fetch release", "release endpoint returned status %d", resp.StatusCode)
	}

	return ParseRelease(resp.Body)
}

// ParseRelease decodes release metadata. Bodies that do not match the
// expected shape fail with types.ErrDeserialization.
func ParseRelease(r io.Reader) (*Release, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, types.NewError(types.ErrDeserialization, "read release", err)
	}

	schema, err := releaseSchema()
	if err != nil {
		return nil, fmt.Errorf("compiling release schema: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, types.NewError(types.ErrDeserialization, "parse release", err)
	}
	if err := schema.Validate(inst); err != nil {
		return nil, types.NewError(types.ErrDeserialization, "validate release", err)
	}

	var wire latestRelease
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, types.NewError(types.ErrDeserialization, "decode release", err)
	}

	release := &Release{
		Tag:    wire.TagName,
		Name:   wire.Name,
		Notes:  wire.Body,
		URL:    wire.HTMLURL,
		Assets: make([]ReleaseAsset, 0, len(wire.Assets)),
	}
	for _, a := range wire.Assets {
		release.Assets = append(release.Assets, ReleaseAsset{Name: a.Name, DownloadURL: a.BrowserDownloadURL})
	}
	return release, nil
}

// SelectAsset returns the asset whose name is exactly binaryName.
func SelectAsset(release *Release, binaryName string) (*ReleaseAsset, error) {
	if release != nil {
		for i := range release.Assets {
			if release.Assets[i].Name == binaryName {
				return &release.Assets[i], nil
			}
		}
	}
	return nil, types.Errorf(types.ErrAssetNotFound, "select asset", "no binary available for this build (%s)", binaryName)
}

// Check compares the latest release with currentVersion and picks the asset
// named binaryName. When no release can be found the result reports no
// update and a nil error. A release without a matching asset is an
// ErrAssetNotFound error.
func (l *Locator) Check(ctx context.Context, currentVersion, binaryName string) (*UpdateInfo, error) {
	info := &UpdateInfo{CurrentVersion: NormalizeVersion(currentVersion)}

	release, ok := l.FetchLatest(ctx)
	if !ok {
		return info, nil
	}

	info.LatestVersion = NormalizeVersion(release.Tag)
	info.ReleaseURL = release.URL
	info.ReleaseNotes = release.Notes
	info.Release = release

	asset, err := SelectAsset(release, binaryName)
	if err != nil {
		return info, err
	}

	info.Available = IsNewer(currentVersion, release.Tag)
	info.AssetName = asset.Name
	info.AssetURL = asset.DownloadURL

	l.log.Debug("release checked", "current", info.CurrentVersion, "latest", info.LatestVersion, "available", info.Available)
	return info, nil
}
