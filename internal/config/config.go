// Package config loads hoist's settings and resolves where they live.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adamancini/hoist/internal/download"
	"github.com/adamancini/hoist/internal/types"
)

// ErrNotFound is returned by Find when no config file exists in any of the
// standard locations.
var ErrNotFound = errors.New("no config file found in standard locations")

// Defaults applied to fields left empty.
const (
	DefaultRequestTimeout = 30 * time.Second
	DefaultHistoryKeep    = 10
)

// Config is built once at startup and passed to every component that needs it.
type Config struct {
	DataDir        string           `yaml:"data_dir" toml:"data_dir" json:"data_dir"`
	AddonDir       string           `yaml:"addon_dir" toml:"addon_dir" json:"addon_dir"`
	ReleaseURL     string           `yaml:"release_url,omitempty" toml:"release_url,omitempty" json:"release_url,omitempty"` // Empty uses the public release endpoint
	BinaryName     string           `yaml:"binary_name,omitempty" toml:"binary_name,omitempty" json:"binary_name,omitempty"` // Empty uses the platform asset name
	RequestTimeout time.Duration    `yaml:"request_timeout" toml:"request_timeout" json:"request_timeout"`
	UserAgent      string           `yaml:"user_agent,omitempty" toml:"user_agent,omitempty" json:"user_agent,omitempty"`
	LogFile        string           `yaml:"log_file,omitempty" toml:"log_file,omitempty" json:"log_file,omitempty"`
	LogLevel       types.LogLevel   `yaml:"log_level,omitempty" toml:"log_level,omitempty" json:"log_level,omitempty"`
	Addons         []download.Addon `yaml:"addons,omitempty" toml:"addons,omitempty" json:"addons,omitempty"`
	HistoryKeep    int              `yaml:"history_keep" toml:"history_keep" json:"history_keep"`
	RateLimit      int64            `yaml:"rate_limit,omitempty" toml:"rate_limit,omitempty" json:"rate_limit,omitempty"` // Bytes per second; zero is unlimited

	// Path is the file the config was loaded from; empty for defaults.
	Path string `yaml:"-" toml:"-" json:"-"`
}

// Default returns the configuration used when no file exists.
func Default() (*Config, error) {
	c := &Config{}
	if err := c.applyDefaults(); err != nil {
		return nil, err
	}
	return c, nil
}

// HistoryDir is where the update journal is kept.
func (c *Config) HistoryDir() string {
	return filepath.Join(c.DataDir, "history")
}

// LogPath returns the log file used when stderr is not a terminal.
func (c *Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(c.DataDir, "hoist.log")
}

// SetDataDir points the data directory elsewhere. The addon directory
// follows unless it was configured explicitly.
func (c *Config) SetDataDir(dir string) {
	if c.AddonDir == "" || c.AddonDir == filepath.Join(c.DataDir, "addons") {
		c.AddonDir = filepath.Join(dir, "addons")
	}
	c.DataDir = dir
}

func (c *Config) applyDefaults() error {
	if c.DataDir == "" {
		dir, err := defaultDataDir()
		if err != nil {
			return err
		}
		c.DataDir = dir
	}
	if c.AddonDir == "" {
		c.AddonDir = filepath.Join(c.DataDir, "addons")
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.LogLevel == "" {
		c.LogLevel = types.LogLevel("").Default()
	}
	if c.HistoryKeep == 0 {
		c.HistoryKeep = DefaultHistoryKeep
	}
	return nil
}

func defaultDataDir() (string, error) {
	if dir := os.Getenv("HOIST_DATA_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".hoist"), nil
}

// Find searches for a config file in the standard locations.
// Returns the path to the first file found, or ErrNotFound.
func Find(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("specified config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	// Check HOIST_CONFIG environment variable
	if envPath := os.Getenv("HOIST_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	searchPaths := []string{
		filepath.Join(xdgConfig, "hoist"),
		filepath.Join(home, ".hoist"),
	}

	fileNames := []string{
		"config.yaml",
		"config.yml",
		"config.toml",
		"config.json",
	}

	for _, dir := range searchPaths {
		for _, name := range fileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}

	return "", ErrNotFound
}

// DefaultPath is where config init writes a new file:
// $XDG_CONFIG_HOME/hoist/config.yaml.
func DefaultPath() (string, error) {
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to determine home directory: %w", err)
		}
		xdgConfig = filepath.Join(home, ".config")
	}
	return filepath.Join(xdgConfig, "hoist", "config.yaml"), nil
}

// Load reads, parses and validates the config file at path.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	format := detectFormat(path, content)
	if format == FormatUnknown {
		return nil, fmt.Errorf("unable to detect file format for %s", path)
	}

	c, err := parse(content, format)
	if err != nil {
		return nil, err
	}
	c.Path = path

	if err := c.applyDefaults(); err != nil {
		return nil, err
	}
	if err := Validate(c); err != nil {
		return nil, err
	}

	return c, nil
}

// Discover finds and loads the config. A missing file is not an error: the
// defaults are returned instead.
func Discover(explicitPath string) (*Config, error) {
	path, err := Find(explicitPath)
	if errors.Is(err, ErrNotFound) {
		return Default()
	}
	if err != nil {
		return nil, err
	}
	return Load(path)
}
