// SPDX-License-Identifier: MPL-2.0

// Package singularity locates the Singularity executable and verifies that
// its version is supported before any phase runs.
package singularity

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

const (
	// DefaultBinary is the executable name looked up in PATH.
	DefaultBinary = "singularity"

	// MinSupportedVersion is the oldest Singularity release the command
	// templates are known to work with.
	MinSupportedVersion = "2.2"
)

// ErrUnavailable is the sentinel error wrapped by ToolError. A missing
// executable, a failed version query and an unsupported version are all
// reported through this one error kind.
var ErrUnavailable = errors.New("singularity unavailable or unsupported")

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// It allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// ToolError reports why the tool cannot be used.
	ToolError struct {
		Reason string
	}

	// Tool is a handle on the Singularity executable.
	Tool struct {
		binary      string
		binaryPath  string
		minVersion  string
		execCommand ExecCommandFunc
	}

	// Option configures a Tool.
	Option func(*Tool)
)

// Error implements the error interface.
func (e *ToolError) Error() string {
	return "error when running `singularity`: " + e.Reason
}

// Unwrap returns ErrUnavailable so callers can use errors.Is for classification.
func (e *ToolError) Unwrap() error { return ErrUnavailable }

// WithBinary overrides the executable name or path to look up.
func WithBinary(binary string) Option {
	return func(t *Tool) { t.binary = binary }
}

// WithBinaryPath bypasses PATH lookup entirely, for tests.
func WithBinaryPath(path string) Option {
	return func(t *Tool) { t.binaryPath = path }
}

// WithMinVersion overrides the minimum supported version.
func WithMinVersion(version string) Option {
	return func(t *Tool) { t.minVersion = version }
}

// WithExecCommand injects the exec.Cmd factory, for tests.
func WithExecCommand(f ExecCommandFunc) Option {
	return func(t *Tool) { t.execCommand = f }
}

// New creates a Tool handle. The executable is resolved immediately; use
// Available or Check to find out whether the resolution succeeded.
func New(opts ...Option) *Tool {
	t := &Tool{
		binary:      DefaultBinary,
		minVersion:  MinSupportedVersion,
		execCommand: exec.CommandContext,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.binaryPath == "" {
		t.binaryPath, _ = exec.LookPath(t.binary)
	}
	return t
}

// Name returns the configured executable name.
func (t *Tool) Name() string { return t.binary }

// Available reports whether the executable was found.
func (t *Tool) Available() bool { return t.binaryPath != "" }

// Version runs `singularity --version` and returns its trimmed output.
func (t *Tool) Version(ctx context.Context) (string, error) {
	if !t.Available() {
		return "", &ToolError{Reason: fmt.Sprintf("executable %q not found in PATH", t.binary)}
	}
	out, err := t.execCommand(ctx, t.binaryPath, "--version").Output()
	if err != nil {
		return "", &ToolError{Reason: fmt.Sprintf("version query failed: %v", err)}
	}
	return strings.TrimSpace(string(out)), nil
}

// Check verifies that the tool exists, answers a version query and meets
// the minimum supported version. It returns the reported version string.
func (t *Tool) Check(ctx context.Context) (string, error) {
	version, err := t.Version(ctx)
	if err != nil {
		return "", err
	}

	parsed, err := parseVersion(version)
	if err != nil {
		return "", &ToolError{Reason: fmt.Sprintf("cannot parse version output %q", version)}
	}
	minimum, err := parseVersion(t.minVersion)
	if err != nil {
		return "", &ToolError{Reason: fmt.Sprintf("invalid minimum version %q", t.minVersion)}
	}

	if compareVersions(parsed, minimum) < 0 {
		return "", &ToolError{Reason: fmt.Sprintf(
			"version %s is below the minimum supported %s", version, t.minVersion)}
	}

	return version, nil
}
