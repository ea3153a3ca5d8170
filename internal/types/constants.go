// Package types provides type-safe constants and error kinds shared across hoist.
//
// This package centralizes enumerated types used throughout the codebase,
// replacing magic strings with typed constants that provide compile-time safety
// and validation methods.
package types

import (
	"fmt"
	"strings"
)

// VerifyMode selects how a finished download is checked before it is reported
// as successful.
type VerifyMode string

const (
	// VerifyNone accepts whatever arrived before end of stream.
	VerifyNone VerifyMode = "none"
	// VerifyLength compares the Content-Length header to the bytes written.
	VerifyLength VerifyMode = "length"
)

// AllVerifyModes returns all valid verify modes.
func AllVerifyModes() []VerifyMode {
	return []VerifyMode{VerifyNone, VerifyLength}
}

// Validate checks if the VerifyMode is a valid value.
// Empty mode is valid and means VerifyNone.
func (m VerifyMode) Validate() error {
	switch m {
	case VerifyNone, VerifyLength, "":
		return nil
	default:
		return fmt.Errorf("invalid verify mode '%s' (must be none or length)", m)
	}
}

// String returns the string representation of the VerifyMode.
func (m VerifyMode) String() string {
	return string(m)
}

// Default returns VerifyNone for an empty mode.
func (m VerifyMode) Default() VerifyMode {
	if m == "" {
		return VerifyNone
	}
	return m
}

// ParseVerifyMode parses a string into a VerifyMode.
// Returns an error if the string is not a valid verify mode.
func ParseVerifyMode(s string) (VerifyMode, error) {
	m := VerifyMode(strings.ToLower(s))
	if err := m.Validate(); err != nil {
		return "", err
	}
	return m.Default(), nil
}

// LogLevel is the minimum severity written by the logger.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// AllLogLevels returns all valid log levels.
func AllLogLevels() []LogLevel {
	return []LogLevel{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError}
}

// Validate checks if the LogLevel is a valid value.
// Empty level is valid and means LogLevelInfo.
func (l LogLevel) Validate() error {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError, "":
		return nil
	default:
		return fmt.Errorf("invalid log level '%s' (must be debug, info, warn, or error)", l)
	}
}

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	return string(l)
}

// Default returns LogLevelInfo for an empty level.
func (l LogLevel) Default() LogLevel {
	if l == "" {
		return LogLevelInfo
	}
	return l
}

// ParseLogLevel parses a string into a LogLevel.
func ParseLogLevel(s string) (LogLevel, error) {
	l := LogLevel(strings.ToLower(s))
	if err := l.Validate(); err != nil {
		return "", err
	}
	return l.Default(), nil
}
