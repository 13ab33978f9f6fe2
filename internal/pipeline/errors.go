// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrParse is the sentinel error wrapped by ParseError.
	ErrParse = errors.New("malformed pipeline description")

	// ErrFormat is the sentinel error wrapped by FormatError.
	ErrFormat = errors.New("invalid pipeline description")
)

type (
	// ParseError reports a document that is not well-formed YAML.
	ParseError struct {
		Filename string
		Detail   string
	}

	// FormatError reports a well-formed document that violates the
	// description schema: a missing required attribute, an unsupported
	// format_version, a malformed bind spec, or a bad build variant.
	FormatError struct {
		Detail string
	}

	// LoadError is the single error kind surfaced by Load. It wraps the
	// specific ParseError or FormatError and signals "do not proceed to
	// any phase".
	LoadError struct {
		Cause error
	}
)

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %s: %s", e.Filename, e.Detail)
}

// Unwrap returns ErrParse so callers can use errors.Is for classification.
func (e *ParseError) Unwrap() error { return ErrParse }

// Error implements the error interface.
func (e *FormatError) Error() string {
	return "pipeline description error: " + e.Detail
}

// Unwrap returns ErrFormat so callers can use errors.Is for classification.
func (e *FormatError) Unwrap() error { return ErrFormat }

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("unable to load pipeline description: %v", e.Cause)
}

// Unwrap returns the parse or format error behind the load failure.
func (e *LoadError) Unwrap() error { return e.Cause }
