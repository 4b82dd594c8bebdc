package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNothingPending is returned by RetryPending when no failed save is buffered.
	ErrNothingPending = errors.New("no unsaved configuration to retry")
)

// ConfigurationError describes a problem with a configuration file handled
// locally, such as an import, together with actionable suggestions.
type ConfigurationError struct {
	FilePath    string   `json:"filePath"`
	ErrorType   string   `json:"errorType"` // parse, io, format, validation
	Message     string   `json:"message"`
	Details     string   `json:"details,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Err         error    `json:"-"`
}

// Error implements the error interface
func (ce *ConfigurationError) Error() string {
	if ce.FilePath == "" {
		return fmt.Sprintf("[%s] %s", ce.ErrorType, ce.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", ce.ErrorType, ce.FilePath, ce.Message)
}

// Unwrap returns the underlying error.
func (ce *ConfigurationError) Unwrap() error {
	return ce.Err
}

// DetailedError returns a multi-line message including details and suggestions.
func (ce *ConfigurationError) DetailedError() string {
	parts := []string{ce.Error()}
	if ce.Details != "" {
		parts = append(parts, fmt.Sprintf("  Details: %s", ce.Details))
	}
	if len(ce.Suggestions) > 0 {
		parts = append(parts, "  Suggestions:")
		for _, s := range ce.Suggestions {
			parts = append(parts, fmt.Sprintf("    - %s", s))
		}
	}
	return strings.Join(parts, "\n")
}

// ReloadError is returned by Save when the document was written but the
// follow-up reload failed. The save itself succeeded.
type ReloadError struct {
	Err error
}

func (e *ReloadError) Error() string {
	return fmt.Sprintf("configuration saved, but reloading it failed: %v", e.Err)
}

func (e *ReloadError) Unwrap() error {
	return e.Err
}
