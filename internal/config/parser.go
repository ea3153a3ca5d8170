package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/adamancini/hoist/internal/download"
	"github.com/adamancini/hoist/internal/types"
)

// Format represents the file format of a config file.
type Format int

const (
	FormatUnknown Format = iota
	FormatYAML
	FormatTOML
	FormatJSON
)

// detectFormat determines the file format based on extension or content.
func detectFormat(path string, content []byte) Format {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	}

	// Content sniffing for extensionless files
	return sniffFormat(content)
}

// sniffFormat attempts to detect format from content.
func sniffFormat(content []byte) Format {
	trimmed := strings.TrimSpace(string(content))

	if strings.HasPrefix(trimmed, "{") {
		return FormatJSON
	}

	// TOML has [tables] or key = value; YAML has key: value
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") || strings.Contains(line, " = ") {
			return FormatTOML
		}
		if strings.Contains(line, ":") && !strings.Contains(line, "=") {
			return FormatYAML
		}
	}

	return FormatUnknown
}

// rawConfig is an intermediate representation for parsing. Durations arrive
// as strings and addons may be written in short form.
type rawConfig struct {
	DataDir        string        `yaml:"data_dir" toml:"data_dir" json:"data_dir"`
	AddonDir       string        `yaml:"addon_dir" toml:"addon_dir" json:"addon_dir"`
	ReleaseURL     string        `yaml:"release_url" toml:"release_url" json:"release_url"`
	BinaryName     string        `yaml:"binary_name" toml:"binary_name" json:"binary_name"`
	RequestTimeout string        `yaml:"request_timeout" toml:"request_timeout" json:"request_timeout"`
	UserAgent      string        `yaml:"user_agent" toml:"user_agent" json:"user_agent"`
	LogFile        string        `yaml:"log_file" toml:"log_file" json:"log_file"`
	LogLevel       string        `yaml:"log_level" toml:"log_level" json:"log_level"`
	Addons         []interface{} `yaml:"addons" toml:"addons" json:"addons"`
	HistoryKeep    int           `yaml:"history_keep" toml:"history_keep" json:"history_keep"`
	RateLimit      int64         `yaml:"rate_limit" toml:"rate_limit" json:"rate_limit"`
}

// parseAddons converts the flexible addon format to Addon structs.
// Addons can be specified as:
//   - Simple string: "id@url" (e.g., "weakauras@https://example.com/wa.zip")
//   - Struct with id, url and optional version fields
func parseAddons(raw []interface{}) ([]download.Addon, error) {
	addons := make([]download.Addon, 0, len(raw))

	for i, item := range raw {
		switch v := item.(type) {
		case string:
			id, url, ok := strings.Cut(v, "@")
			if !ok {
				return nil, fmt.Errorf("addon[%d]: %q is not in id@url form", i, v)
			}
			addons = append(addons, download.Addon{ID: id, DownloadURL: url})

		case map[string]interface{}:
			addon := download.Addon{}

			if id, ok := v["id"].(string); ok {
				addon.ID = id
			} else {
				return nil, fmt.Errorf("addon[%d]: missing or invalid 'id' field", i)
			}
			if url, ok := v["url"].(string); ok {
				addon.DownloadURL = url
			}
			if version, ok := v["version"].(string); ok {
				addon.Version = version
			}

			addons = append(addons, addon)

		default:
			return nil, fmt.Errorf("addon[%d]: invalid format (expected string or object)", i)
		}
	}

	return addons, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns in content.
func expandEnvVars(content []byte) []byte {
	return envVarPattern.ReplaceAllFunc(content, func(match []byte) []byte {
		parts := envVarPattern.FindSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		value := os.Getenv(string(parts[1]))
		if value == "" && len(parts) >= 3 && len(parts[2]) > 0 {
			value = string(parts[2])
		}
		return []byte(value)
	})
}

// parse parses the content according to the specified format.
func parse(content []byte, format Format) (*Config, error) {
	content = expandEnvVars(content)

	var raw rawConfig

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(content, &raw); err != nil {
			return nil, fmt.Errorf("YAML parse error: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(content, &raw); err != nil {
			return nil, fmt.Errorf("TOML parse error: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(content, &raw); err != nil {
			return nil, fmt.Errorf("JSON parse error: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown file format")
	}

	addons, err := parseAddons(raw.Addons)
	if err != nil {
		return nil, err
	}

	c := &Config{
		DataDir:     raw.DataDir,
		AddonDir:    raw.AddonDir,
		ReleaseURL:  raw.ReleaseURL,
		BinaryName:  raw.BinaryName,
		UserAgent:   raw.UserAgent,
		LogFile:     raw.LogFile,
		LogLevel:    types.LogLevel(strings.ToLower(raw.LogLevel)),
		Addons:      addons,
		HistoryKeep: raw.HistoryKeep,
		RateLimit:   raw.RateLimit,
	}

	if raw.RequestTimeout != "" {
		d, err := time.ParseDuration(raw.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("request_timeout: %w", err)
		}
		c.RequestTimeout = d
	}

	return c, nil
}
