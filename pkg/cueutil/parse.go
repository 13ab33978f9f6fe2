// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
)

// DefaultMaxFileSize caps the size of user-supplied documents to keep a
// pathological input from exhausting memory during CUE evaluation.
const DefaultMaxFileSize int64 = 1 << 20 // 1 MiB

type (
	// Option configures a DecodeYAML call.
	Option func(*options)

	options struct {
		filename    string
		maxFileSize int64
	}

	// Result contains the outcome of a successful decode.
	Result[T any] struct {
		// Value is the decoded Go struct.
		Value *T

		// Unified is the unified CUE value, available for callers that
		// need to extract extra metadata beyond the decoded struct.
		Unified cue.Value
	}

	// SyntaxError reports a document that is not well-formed YAML. It is
	// distinct from validation failures so callers can classify malformed
	// input separately from schema violations.
	SyntaxError struct {
		Filename string
		Err      error
	}
)

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %v", e.Filename, e.Err)
}

// Unwrap returns the underlying YAML parser error.
func (e *SyntaxError) Unwrap() error { return e.Err }

// WithFilename sets the filename used in error messages.
func WithFilename(name string) Option {
	return func(o *options) { o.filename = name }
}

// WithMaxFileSize overrides the default document size limit.
func WithMaxFileSize(size int64) Option {
	return func(o *options) { o.maxFileSize = size }
}

// DecodeYAML extracts a YAML document, unifies it with the root definition
// of the embedded CUE schema, validates the result with concrete values
// required, and decodes it into T.
//
// A malformed document is reported as *SyntaxError; a well-formed document
// that violates the schema is reported as a validation error carrying the
// CUE path of the offending field (see FormatError).
func DecodeYAML[T any](schema, data []byte, schemaPath string, opts ...Option) (*Result[T], error) {
	o := options{maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(&o)
	}
	filename := o.filename
	if filename == "" {
		filename = "<input>"
	}

	if int64(len(data)) > o.maxFileSize {
		return nil, fmt.Errorf("%s: document size %d bytes exceeds maximum %d bytes",
			filename, len(data), o.maxFileSize)
	}

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return nil, &SyntaxError{Filename: filename, Err: err}
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}
	schemaRoot := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if schemaRoot.Err() != nil {
		return nil, fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, schemaRoot.Err())
	}

	docValue := ctx.BuildFile(file)
	if docValue.Err() != nil {
		return nil, FormatError(docValue.Err(), filename)
	}

	unified := schemaRoot.Unify(docValue)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, FormatError(err, filename)
	}

	var result T
	if err := unified.Decode(&result); err != nil {
		return nil, FormatError(err, filename)
	}

	return &Result[T]{Value: &result, Unified: unified}, nil
}
