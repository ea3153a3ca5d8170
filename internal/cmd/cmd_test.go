package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/adamancini/hoist/internal/update"
)

const (
	testAsset   = "app"
	testPayload = "new hoist binary"
)

// testEnv is an isolated home, data directory and executable.
type testEnv struct {
	home    string
	dataDir string
	exe     string
	config  string
	stderr  string // From the last run
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("HOIST_CONFIG", "")
	t.Setenv("HOIST_DATA_DIR", "")
	t.Setenv("HOIST_GITHUB_TOKEN", "")
	t.Setenv("GITHUB_TOKEN", "")

	binDir := filepath.Join(home, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatal(err)
	}
	exe := filepath.Join(binDir, "hoist")
	writeFile(t, exe, "old hoist binary")

	return &testEnv{home: home, dataDir: filepath.Join(home, "data"), exe: exe}
}

// withConfig writes a YAML config file used by every subsequent run.
func (e *testEnv) withConfig(t *testing.T, content string) {
	t.Helper()
	e.config = filepath.Join(e.home, "config.yaml")
	writeFile(t, e.config, content)
}

// run executes hoist with args and returns stdout.
func (e *testEnv) run(t *testing.T, exe string, args ...string) (string, error) {
	t.Helper()
	a := newApp(BuildInfo{Version: "1.0.0", Commit: "abc123", Date: "2026-01-01"})
	a.executable = func() (string, error) { return exe, nil }
	defer a.close()

	full := []string{"--data-directory", e.dataDir}
	if e.config != "" {
		full = append(full, "--config", e.config)
	}
	full = append(full, args...)

	var stdout, stderr bytes.Buffer
	root := newRootCmd(a)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(full)

	err := root.Execute()
	e.stderr = stderr.String()
	return stdout.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// newReleaseServer serves a release tagged tag whose only asset is testAsset.
func newReleaseServer(t *testing.T, tag string) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{
			"tag_name": %q,
			"name": "Release %s",
			"body": "Bug fixes",
			"html_url": "https://example.com/releases/%s",
			"assets": [{"name": %q, "browser_download_url": %q}]
		}`, tag, tag, tag, testAsset, srv.URL+"/download/"+testAsset)
	})
	mux.HandleFunc("/download/"+testAsset, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testPayload))
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func releaseConfig(srv *httptest.Server) string {
	return fmt.Sprintf("release_url: %s/releases/latest\nbinary_name: %s\n", srv.URL, testAsset)
}

func TestVersion_Plain(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, env.exe, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if want := "hoist version 1.0.0 (commit abc123, built 2026-01-01)\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestVersion_JSON(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, env.exe, "-o", "json", "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	var got BuildInfo
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if got.Version != "1.0.0" || got.Commit != "abc123" {
		t.Errorf("got %+v", got)
	}
}

func TestVersion_Check(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		want string
	}{
		{name: "newer release", tag: "v1.1.0", want: "Latest version: 1.1.0 available"},
		{name: "same release", tag: "v1.0.0", want: "Already running latest version"},
		{name: "older release", tag: "v0.9.0", want: "Already running latest version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.withConfig(t, releaseConfig(newReleaseServer(t, tt.tag)))

			out, err := env.run(t, env.exe, "version", "--check")
			if err != nil {
				t.Fatalf("version --check error = %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out)
			}
			if _, err := os.Stat(update.StagedPath(env.exe)); !os.IsNotExist(err) {
				t.Error("--check must not stage anything")
			}
		})
	}
}

func TestVersion_CheckNoRelease(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	env := newTestEnv(t)
	env.withConfig(t, releaseConfig(srv))

	out, err := env.run(t, env.exe, "version", "--check")
	if err != nil {
		t.Fatalf("version --check error = %v", err)
	}
	if !strings.Contains(out, "No release information available") {
		t.Errorf("output = %s", out)
	}
}

func TestVersion_CheckMissingAsset(t *testing.T) {
	srv := newReleaseServer(t, "v1.1.0")
	env := newTestEnv(t)
	env.withConfig(t, fmt.Sprintf("release_url: %s/releases/latest\nbinary_name: other\n", srv.URL))

	_, err := env.run(t, env.exe, "version", "--check")
	if err == nil || !strings.Contains(err.Error(), "no binary available for this build (other)") {
		t.Errorf("error = %v", err)
	}
}

func TestVersion_UpdateStages(t *testing.T) {
	env := newTestEnv(t)
	env.withConfig(t, releaseConfig(newReleaseServer(t, "v1.1.0")))

	out, err := env.run(t, env.exe, "-o", "json", "version", "--update", "--yes")
	if err != nil {
		t.Fatalf("version --update error = %v", err)
	}

	var result struct {
		Available bool           `json:"available"`
		Staged    *update.Staged `json:"staged"`
		State     string         `json:"state"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if !result.Available || result.Staged == nil {
		t.Fatalf("result = %+v", result)
	}
	if result.State != update.StatePendingRestart.String() {
		t.Errorf("State = %s", result.State)
	}
	if result.Staged.Tag != "v1.1.0" || result.Staged.Bytes != int64(len(testPayload)) {
		t.Errorf("Staged = %+v", result.Staged)
	}

	if got := readFile(t, update.StagedPath(env.exe)); got != testPayload {
		t.Errorf("staged content = %q", got)
	}
	if got := readFile(t, env.exe); got != "old hoist binary" {
		t.Error("running executable must not change until restart")
	}
	m, err := update.ReadMarker(env.exe)
	if err != nil || m == nil {
		t.Fatalf("ReadMarker() = %v, %v", m, err)
	}
	if m.Tag != "v1.1.0" || m.Target != env.exe {
		t.Errorf("marker = %+v", m)
	}
}

func TestVersion_UpdateUpToDate(t *testing.T) {
	env := newTestEnv(t)
	env.withConfig(t, releaseConfig(newReleaseServer(t, "v1.0.0")))

	out, err := env.run(t, env.exe, "version", "--update", "--yes")
	if err != nil {
		t.Fatalf("version --update error = %v", err)
	}
	if !strings.Contains(out, "Already running latest version") {
		t.Errorf("output = %s", out)
	}
	if _, err := os.Stat(update.StagedPath(env.exe)); !os.IsNotExist(err) {
		t.Error("nothing should be staged")
	}
}

func TestVersion_UpdateBrokenDownload(t *testing.T) {
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, `{"tag_name":"v2.0","assets":[{"name":%q,"browser_download_url":%q}]}`,
			testAsset, srv.URL+"/download/"+testAsset)
	})
	mux.HandleFunc("/download/"+testAsset, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1024")
		_, _ = w.Write(make([]byte, 900))
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	env := newTestEnv(t)
	env.withConfig(t, releaseConfig(srv))

	if _, err := env.run(t, env.exe, "version", "--update", "--yes"); err == nil {
		t.Fatal("expected error for truncated download")
	}
	if _, err := os.Stat(update.StagedPath(env.exe)); !os.IsNotExist(err) {
		t.Error("partial staged file left behind")
	}
	if update.PendingState(env.exe) != update.StateIdle {
		t.Error("marker left behind after failed staging")
	}
}

func TestStartup_FinalizeFlag(t *testing.T) {
	env := newTestEnv(t)
	staged := update.StagedPath(env.exe)
	writeFile(t, staged, testPayload)
	if err := update.WriteMarker(update.Marker{
		Staged:   staged,
		Target:   env.exe,
		Tag:      "v1.1.0",
		StagedAt: time.Now().UTC().Truncate(time.Second),
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := env.run(t, staged, "version", "--"+update.FinalizeFlag); err != nil {
		t.Fatalf("finalize run error = %v", err)
	}
	if !strings.Contains(env.stderr, "now running") {
		t.Errorf("log missing \"now running\":\n%s", env.stderr)
	}

	if got := readFile(t, env.exe); got != testPayload {
		t.Errorf("executable content = %q, want new binary", got)
	}
	if _, err := os.Stat(staged); !os.IsNotExist(err) {
		t.Error("staged file still present")
	}
	if update.PendingState(env.exe) != update.StateIdle {
		t.Error("marker still present")
	}

	out, err := env.run(t, env.exe, "-o", "json", "history")
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	var entries []struct {
		Tag    string `json:"tag"`
		Target string `json:"target"`
	}
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("history output is not JSON: %v\n%s", err, out)
	}
	if len(entries) != 1 || entries[0].Tag != "v1.1.0" || entries[0].Target != env.exe {
		t.Errorf("history = %+v", entries)
	}
}

func TestStartup_FinalizeFlagNotStaged(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, env.exe, "version", "--"+update.FinalizeFlag)
	if err == nil || !strings.Contains(err.Error(), "self-update failed") {
		t.Errorf("error = %v", err)
	}
}

func TestStartup_AppliesPendingUpdate(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("a running binary cannot be replaced on windows")
	}

	env := newTestEnv(t)
	env.withConfig(t, releaseConfig(newReleaseServer(t, "v1.1.0")))

	if _, err := env.run(t, env.exe, "version", "--update", "--yes"); err != nil {
		t.Fatalf("version --update error = %v", err)
	}
	if _, err := env.run(t, env.exe, "version"); err != nil {
		t.Fatalf("version error = %v", err)
	}
	// This process is still the old binary.
	if !strings.Contains(env.stderr, "update applied, active from next start") {
		t.Errorf("log missing next-start notice:\n%s", env.stderr)
	}
	if strings.Contains(env.stderr, "now running") {
		t.Errorf("old process claims to run the new version:\n%s", env.stderr)
	}

	if got := readFile(t, env.exe); got != testPayload {
		t.Errorf("executable content = %q, want new binary", got)
	}
	if update.PendingState(env.exe) != update.StateIdle {
		t.Error("marker still present after restart")
	}
}

func TestStartup_StaleMarker(t *testing.T) {
	env := newTestEnv(t)
	if err := update.WriteMarker(update.Marker{
		Staged: update.StagedPath(env.exe),
		Target: env.exe,
		Tag:    "v1.1.0",
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := env.run(t, env.exe, "version"); err != nil {
		t.Fatalf("version error = %v", err)
	}
	if got := readFile(t, env.exe); got != "old hoist binary" {
		t.Errorf("executable changed: %q", got)
	}
	if runtime.GOOS != "windows" && update.PendingState(env.exe) != update.StateIdle {
		t.Error("stale marker not removed")
	}
}

func TestHistory_Empty(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, env.exe, "history")
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	if !strings.Contains(out, "No updates recorded.") {
		t.Errorf("output = %s", out)
	}
}

func TestConfig_Show(t *testing.T) {
	env := newTestEnv(t)
	env.withConfig(t, "binary_name: custom\nrequest_timeout: 5s\n")

	out, err := env.run(t, env.exe, "config")
	if err != nil {
		t.Fatalf("config error = %v", err)
	}
	for _, want := range []string{"# " + env.config, "binary_name: custom", "request_timeout: 5s", "data_dir: " + env.dataDir} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConfig_PathWithoutFile(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.run(t, env.exe, "config", "path"); err == nil {
		t.Error("expected error when no config file is in use")
	}
}

func TestCompletion(t *testing.T) {
	env := newTestEnv(t)

	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		out, err := env.run(t, env.exe, "completion", shell)
		if err != nil {
			t.Errorf("completion %s error = %v", shell, err)
			continue
		}
		if !strings.Contains(out, "hoist") {
			t.Errorf("completion %s output does not mention hoist", shell)
		}
	}
}

func TestConfigInit(t *testing.T) {
	for _, name := range []string{"minimal", "addons", "full"} {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t)
			path := filepath.Join(env.home, "out", "config.yaml")

			out, err := env.run(t, env.exe, "config", "init", "--template", name, "--path", path)
			if err != nil {
				t.Fatalf("config init error = %v", err)
			}
			if !strings.Contains(out, "Created "+path) {
				t.Errorf("output = %s", out)
			}

			env.config = path
			if _, err := env.run(t, env.exe, "config"); err != nil {
				t.Errorf("written config does not load: %v", err)
			}
		})
	}
}

func TestConfigInit_DefaultPathAndOverwrite(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.run(t, env.exe, "config", "init"); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	path := filepath.Join(env.home, ".config", "hoist", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written to %s: %v", path, err)
	}

	// Picked up by discovery on the next run.
	out, err := env.run(t, env.exe, "config", "path")
	if err != nil || strings.TrimSpace(out) != path {
		t.Errorf("config path = %q, %v", out, err)
	}

	if _, err := env.run(t, env.exe, "config", "init", "--template", "addons"); err == nil {
		t.Error("expected error when file exists without --force")
	}
	if _, err := env.run(t, env.exe, "config", "init", "--template", "addons", "--force"); err != nil {
		t.Fatalf("config init --force error = %v", err)
	}
	if !strings.Contains(readFile(t, path), "weakauras@") {
		t.Error("--force did not overwrite the file")
	}
}

func TestConfigInit_UnknownTemplate(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.run(t, env.exe, "config", "init", "--template", "nope", "--path", filepath.Join(env.home, "c.yaml")); err == nil {
		t.Error("expected error for unknown template")
	}
}
