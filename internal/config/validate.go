package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/adamancini/hoist/internal/download"
	"github.com/adamancini/hoist/internal/transport"
)

// ValidationError represents a config validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the config for required fields and valid values.
func Validate(c *Config) error {
	var errors []string

	if c.DataDir == "" {
		errors = append(errors, ValidationError{Field: "data_dir", Message: "data directory is required"}.Error())
	}

	if c.ReleaseURL != "" {
		if err := validateURL("release_url", c.ReleaseURL); err != nil {
			errors = append(errors, err.Error())
		}
	}

	if c.RequestTimeout < 0 {
		errors = append(errors, ValidationError{Field: "request_timeout", Message: "must not be negative"}.Error())
	}

	if c.HistoryKeep < 0 {
		errors = append(errors, ValidationError{Field: "history_keep", Message: "must not be negative"}.Error())
	}

	if c.RateLimit < 0 {
		errors = append(errors, ValidationError{Field: "rate_limit", Message: "must not be negative"}.Error())
	}

	if err := c.LogLevel.Validate(); err != nil {
		errors = append(errors, ValidationError{Field: "log_level", Message: err.Error()}.Error())
	}

	seen := make(map[string]bool, len(c.Addons))
	for i, a := range c.Addons {
		if err := validateAddon(i, a); err != nil {
			errors = append(errors, err.Error())
			continue
		}
		if seen[a.ID] {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("addons[%d].id", i),
				Message: fmt.Sprintf("duplicate addon id '%s'", a.ID),
			}.Error())
		}
		seen[a.ID] = true
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func validateAddon(index int, a download.Addon) error {
	if a.ID == "" {
		return ValidationError{
			Field:   fmt.Sprintf("addons[%d].id", index),
			Message: "id is required",
		}
	}

	if err := download.ValidateAddonID(a.ID); err != nil {
		return ValidationError{
			Field:   fmt.Sprintf("addons[%d].id", index),
			Message: err.Error(),
		}
	}

	// An addon without a url is allowed; downloading it reports no package.
	if a.DownloadURL != "" {
		return validateURL(fmt.Sprintf("addons[%d].url", index), a.DownloadURL)
	}

	return nil
}

func validateURL(field, raw string) error {
	u, err := url.Parse(transport.EncodeURL(raw))
	if err != nil {
		return ValidationError{Field: field, Message: fmt.Sprintf("invalid url: %v", err)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ValidationError{Field: field, Message: fmt.Sprintf("unsupported scheme '%s' (must be http or https)", u.Scheme)}
	}
	if u.Host == "" {
		return ValidationError{Field: field, Message: "url has no host"}
	}
	return nil
}
