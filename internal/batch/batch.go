// SPDX-License-Identifier: MPL-2.0

// Package batch executes ordered lists of command templates with
// fail-fast semantics.
//
// Each command is expanded against a freshly built substitution context
// and handed to the shell as a single line. The executor inspects only the
// exit status; the subprocess streams are passed through. Commands are
// assumed to have externally visible side effects that cannot be safely
// undone, so there is no retry and no rollback: the first non-zero exit
// stops the batch.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"os/exec"
	"slices"

	"github.com/charmbracelet/log"

	"sgpipe/internal/subst"
)

// ExecCommandFunc is the function signature for creating exec.Cmd.
// It allows injection of mock implementations for testing.
type ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

type (
	// Runner executes batches for one pipeline. The zero value is not
	// usable; construct with New.
	Runner struct {
		builder     *subst.Builder
		logger      *log.Logger
		dryRun      bool
		shell       string
		execCommand ExecCommandFunc
		stdout      io.Writer
		stderr      io.Writer
		stdin       io.Reader
	}

	// Option configures a Runner.
	Option func(*Runner)

	// Batch is one ordered list of command templates together with its
	// phase-supplied extra substitutions and environment overlay.
	Batch struct {
		// Commands are the templates to expand and execute, in order.
		Commands []string
		// Extra are the lowest-precedence substitutions (e.g. the build
		// phase's source, options, size and docker_name).
		Extra map[string]string
		// Env is an overlay added to the subprocess environment. It is
		// passed per invocation instead of mutating the ambient process
		// environment.
		Env map[string]string
	}

	// Result reports the outcome of a batch. A zero Code with step 0
	// signals full success; a non-zero Code always carries the 1-based
	// index of the first failing step.
	Result struct {
		Code int
		Step int
	}
)

// WithDryRun makes the runner print expanded commands instead of
// executing them.
func WithDryRun(dryRun bool) Option {
	return func(r *Runner) { r.dryRun = dryRun }
}

// WithLogger sets the progress logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithShell overrides the shell used to interpret command lines.
func WithShell(shell string) Option {
	return func(r *Runner) { r.shell = shell }
}

// WithExecCommand injects the exec.Cmd factory, for tests.
func WithExecCommand(f ExecCommandFunc) Option {
	return func(r *Runner) { r.execCommand = f }
}

// WithIO redirects the runner's subprocess and dry-run streams.
func WithIO(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		r.stdin = stdin
		r.stdout = stdout
		r.stderr = stderr
	}
}

// New creates a Runner over the given substitution builder.
func New(builder *subst.Builder, opts ...Option) *Runner {
	r := &Runner{
		builder:     builder,
		logger:      log.Default(),
		shell:       "/bin/sh",
		execCommand: exec.CommandContext,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		stdin:       os.Stdin,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Expand expands every command of a batch without executing anything.
// It returns the exact lines Run would execute, in order.
func (r *Runner) Expand(commands []string, extra map[string]string) ([]string, error) {
	sctx := r.builder.Build(extra)
	lines := make([]string, 0, len(commands))
	for _, tmpl := range commands {
		line, err := subst.Expand(tmpl, sctx)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// Run executes a batch in order, stopping at the first failure.
//
// In dry-run mode each expanded command is printed and no process is
// spawned. A failed expansion aborts with an error; a command exiting
// non-zero stops the batch and is reported through the Result, not as an
// error.
func (r *Runner) Run(ctx context.Context, b Batch) (Result, error) {
	sctx := r.builder.Build(b.Extra)

	for i, tmpl := range b.Commands {
		step := i + 1

		line, err := subst.Expand(tmpl, sctx)
		if err != nil {
			return Result{}, err
		}

		if r.dryRun {
			r.logger.Info("dry run", "step", step)
			fmt.Fprintln(r.stdout, line)
			continue
		}

		r.logger.Info("executing", "step", step, "command", line)

		cmd := r.execCommand(ctx, r.shell, "-c", line)
		if len(b.Env) > 0 {
			cmd.Env = append(os.Environ(), envToSlice(b.Env)...)
		}
		cmd.Stdout = r.stdout
		cmd.Stderr = r.stderr
		cmd.Stdin = r.stdin

		if err := cmd.Run(); err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				return Result{Code: exitErr.ExitCode(), Step: step}, nil
			}
			return Result{}, fmt.Errorf("failed to execute step %d: %w", step, err)
		}
	}

	return Result{}, nil
}

// envToSlice renders an overlay as KEY=VALUE pairs in sorted key order.
func envToSlice(env map[string]string) []string {
	pairs := make([]string, 0, len(env))
	for _, k := range slices.Sorted(maps.Keys(env)) {
		pairs = append(pairs, k+"="+env[k])
	}
	return pairs
}
