// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"sgpipe/pkg/cueutil"
)

//go:embed pipeline_schema.cue
var schemaBytes []byte

// rawDescription mirrors the document structure for CUE decoding. It is
// converted to the public Description after the Go-level checks pass.
type rawDescription struct {
	FormatVersion int               `json:"format_version"`
	Name          string            `json:"name"`
	Version       string            `json:"version"`
	Author        string            `json:"author"`
	Source        string            `json:"source"`
	Substitutions map[string]string `json:"substitutions"`
	Binds         []string          `json:"binds"`
	Build         rawBuild          `json:"build"`
	Run           rawRun            `json:"run"`
	Test          rawTest           `json:"test"`
}

type rawBuild struct {
	Type        string          `json:"type"`
	Source      string          `json:"source"`
	Options     string          `json:"options"`
	Size        int             `json:"size"`
	Credentials *rawCredentials `json:"credentials"`
	Commands    []string        `json:"commands"`
}

type rawCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type rawRun struct {
	Commands []string `json:"commands"`
}

type rawTest struct {
	TestFiles        []string `json:"test_files"`
	PrepareCommands  []string `json:"prepare_commands"`
	ValidateCommands []string `json:"validate_commands"`
}

type loadOptions struct {
	filename string
}

// LoadOption configures a Load call.
type LoadOption func(*loadOptions)

// WithFilename sets the document name used in diagnostics.
func WithFilename(name string) LoadOption {
	return func(o *loadOptions) { o.filename = name }
}

// Load parses and validates a pipeline description document.
//
// Any failure is returned as a *LoadError wrapping either a *ParseError
// (malformed YAML) or a *FormatError (schema violation). On success the
// returned Description is complete and immutable.
func Load(data []byte, opts ...LoadOption) (*Description, error) {
	o := loadOptions{filename: "pipeline.yaml"}
	for _, opt := range opts {
		opt(&o)
	}

	result, err := cueutil.DecodeYAML[rawDescription](
		schemaBytes, data, "#Pipeline", cueutil.WithFilename(o.filename))
	if err != nil {
		var syntaxErr *cueutil.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, &LoadError{Cause: &ParseError{
				Filename: o.filename,
				Detail:   syntaxErr.Err.Error(),
			}}
		}
		return nil, &LoadError{Cause: &FormatError{Detail: err.Error()}}
	}

	raw := result.Value
	if raw.FormatVersion != SupportedFormatVersion {
		return nil, &LoadError{Cause: &FormatError{Detail: fmt.Sprintf(
			"unsupported format_version %d (supported: %d)",
			raw.FormatVersion, SupportedFormatVersion)}}
	}

	// The schema guarantees test is present; an empty mapping decodes
	// with every field nil and is rejected here, matching the rule that
	// run and test must be non-empty.
	if raw.Test.TestFiles == nil && raw.Test.PrepareCommands == nil && raw.Test.ValidateCommands == nil {
		return nil, &LoadError{Cause: &FormatError{Detail: "attribute \"test\" must not be empty"}}
	}

	binds, err := parseBinds(raw.Binds)
	if err != nil {
		return nil, &LoadError{Cause: err}
	}

	desc := &Description{
		FormatVersion: raw.FormatVersion,
		Name:          raw.Name,
		Version:       raw.Version,
		Author:        raw.Author,
		Source:        raw.Source,
		Substitutions: raw.Substitutions,
		Binds:         binds,
		Build: BuildSpec{
			Type:     BuildType(raw.Build.Type),
			Source:   raw.Build.Source,
			Options:  raw.Build.Options,
			Size:     raw.Build.Size,
			Commands: raw.Build.Commands,
		},
		Run: RunSpec{Commands: raw.Run.Commands},
		Test: TestSpec{
			TestFiles:        raw.Test.TestFiles,
			PrepareCommands:  raw.Test.PrepareCommands,
			ValidateCommands: raw.Test.ValidateCommands,
		},
	}
	if raw.Build.Credentials != nil {
		desc.Build.Credentials = &Credentials{
			Username: raw.Build.Credentials.Username,
			Password: raw.Build.Credentials.Password,
		}
	}

	return desc, nil
}

// parseBinds splits "source:dest" bind specs. Exactly two non-empty
// components are required; anything else is a format error.
func parseBinds(specs []string) ([]Bind, error) {
	binds := make([]Bind, 0, len(specs))
	for _, spec := range specs {
		parts := strings.Split(spec, ":")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, &FormatError{Detail: fmt.Sprintf(
				"bind spec %q is not of the form source:dest", spec)}
		}
		binds = append(binds, Bind{Source: parts[0], Dest: parts[1]})
	}
	return binds, nil
}
