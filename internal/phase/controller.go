// SPDX-License-Identifier: MPL-2.0

// Package phase sequences the build, run and test phases of a pipeline.
//
// Phases are independently invocable guarded transitions, not a strict
// linear machine: each phase checks its own preconditions (existing image,
// bind sources, test files) and delegates command execution to the batch
// runner. A dry-run controller reproduces the exact command sequence
// without touching the filesystem or spawning processes.
package phase

import (
	"os"

	"github.com/charmbracelet/log"

	"sgpipe/internal/batch"
	"sgpipe/internal/pipeline"
	"sgpipe/internal/subst"
)

type (
	// Controller drives the phases of one loaded pipeline description.
	Controller struct {
		desc      *pipeline.Description
		runner    *batch.Runner
		logger    *log.Logger
		tool      string
		imageFile string
		dryRun    bool
		noBind    bool
	}

	// Option configures a Controller.
	Option func(*settings)

	settings struct {
		tool          string
		imageOverride string
		dryRun        bool
		noBind        bool
		logger        *log.Logger
		batchOpts     []batch.Option
	}
)

// WithTool overrides the container tool executable used in the composed
// exec/run command prefixes and in the build command templates.
func WithTool(tool string) Option {
	return func(s *settings) { s.tool = tool }
}

// WithImageOverride sets an explicit image filename instead of the one
// derived from the description's name and version.
func WithImageOverride(image string) Option {
	return func(s *settings) { s.imageOverride = image }
}

// WithDryRun makes every phase print commands instead of executing them
// and suppresses filesystem precondition checks and artifact mutation.
func WithDryRun(dryRun bool) Option {
	return func(s *settings) { s.dryRun = dryRun }
}

// WithNoBind omits bind flags from the substitution context and skips the
// bind source precondition checks.
func WithNoBind(noBind bool) Option {
	return func(s *settings) { s.noBind = noBind }
}

// WithLogger sets the progress logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithBatchOptions forwards options to the underlying batch runner, for
// tests that inject a command factory or redirect IO.
func WithBatchOptions(opts ...batch.Option) Option {
	return func(s *settings) { s.batchOpts = append(s.batchOpts, opts...) }
}

// New creates a Controller for a loaded description. The image filename is
// computed once here and immutable afterwards.
func New(desc *pipeline.Description, opts ...Option) *Controller {
	s := settings{
		tool:   "singularity",
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(&s)
	}

	imageFile := desc.ImageFile(s.imageOverride)

	binds := desc.Binds
	if s.noBind {
		binds = nil
	}

	builder := &subst.Builder{
		Tool:  s.tool,
		Image: imageFile,
		Binds: binds,
		User:  desc.Substitutions,
	}

	batchOpts := append([]batch.Option{
		batch.WithLogger(s.logger),
		batch.WithDryRun(s.dryRun),
	}, s.batchOpts...)

	return &Controller{
		desc:      desc,
		runner:    batch.New(builder, batchOpts...),
		logger:    s.logger,
		tool:      s.tool,
		imageFile: imageFile,
		dryRun:    s.dryRun,
		noBind:    s.noBind,
	}
}

// ImageFile returns the sanitized target image filename.
func (c *Controller) ImageFile() string { return c.imageFile }

// filesExist reports whether every listed path exists. An empty list is
// vacuously satisfied.
func filesExist(paths []string) bool {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

// missingFiles returns the subset of paths that do not exist.
func missingFiles(paths []string) []string {
	var missing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			missing = append(missing, p)
		}
	}
	return missing
}
