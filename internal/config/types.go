// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInvalidVersionSpec is returned when MinVersion is not a
	// dot-separated numeric version.
	ErrInvalidVersionSpec = errors.New("invalid version spec")
)

type (
	// Config holds the application configuration.
	Config struct {
		// PipelineFile is the default pipeline description path used when
		// the -p flag is not given.
		PipelineFile string `json:"pipeline_file" mapstructure:"pipeline_file"`
		// SingularityBinary overrides the tool binary invoked for all
		// phases. Empty means "singularity" resolved via PATH.
		SingularityBinary string `json:"singularity_binary" mapstructure:"singularity_binary"`
		// MinVersion overrides the minimum tool version accepted by the
		// availability check.
		MinVersion VersionSpec `json:"min_singularity_version" mapstructure:"min_singularity_version"`
		// NoColor disables colored output and markdown rendering.
		NoColor bool `json:"no_color" mapstructure:"no_color"`
	}

	// VersionSpec is a dot-separated numeric version string like "2.2".
	VersionSpec string

	// InvalidVersionSpecError is returned when a VersionSpec value is not
	// a dot-separated numeric version. It wraps ErrInvalidVersionSpec for
	// errors.Is() compatibility.
	InvalidVersionSpecError struct {
		Value VersionSpec
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// String returns the string representation of the VersionSpec.
func (v VersionSpec) String() string { return string(v) }

// IsValid returns whether the VersionSpec is a non-empty dot-separated
// numeric version, and a list of validation errors if it is not. The zero
// value ("") is valid and means "use the built-in minimum".
func (v VersionSpec) IsValid() (bool, []error) {
	if v == "" {
		return true, nil
	}
	for _, part := range strings.Split(string(v), ".") {
		if part == "" {
			return false, []error{&InvalidVersionSpecError{Value: v}}
		}
		for _, r := range part {
			if r < '0' || r > '9' {
				return false, []error{&InvalidVersionSpecError{Value: v}}
			}
		}
	}
	return true, nil
}

// Error implements the error interface for InvalidVersionSpecError.
func (e *InvalidVersionSpecError) Error() string {
	return fmt.Sprintf("invalid version spec %q: must be dot-separated numbers like \"2.2\"", e.Value)
}

// Unwrap returns ErrInvalidVersionSpec for errors.Is() compatibility.
func (e *InvalidVersionSpecError) Unwrap() error { return ErrInvalidVersionSpec }

// IsValid returns whether the Config has valid fields. It delegates to
// MinVersion.IsValid(); the path and bool fields need no validation.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.MinVersion.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		PipelineFile:      "pipeline.yaml",
		SingularityBinary: "", // resolved via PATH
		MinVersion:        "", // use the built-in minimum
		NoColor:           false,
	}
}
