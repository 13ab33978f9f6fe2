// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"sgpipe/internal/issue"
	"sgpipe/internal/phase"
	"sgpipe/internal/pipeline"
	"sgpipe/internal/singularity"

	"github.com/charmbracelet/log"
)

// issueStyle returns the glamour style path for issue rendering.
func issueStyle() string {
	if appConfig != nil && appConfig.NoColor {
		return "notty"
	}
	return "dark"
}

// reportIssue renders a catalog entry to stderr.
func reportIssue(id issue.Id) {
	rendered, _ := issue.Get(id).Render(issueStyle())
	fmt.Fprint(os.Stderr, rendered)
}

// ensureTool resolves the Singularity executable and verifies its version.
// On failure it renders the matching issue and returns the probe error.
func ensureTool(ctx context.Context) (*singularity.Tool, error) {
	var opts []singularity.Option
	if singularityBinary != "" {
		opts = append(opts, singularity.WithBinary(singularityBinary))
	}
	if appConfig != nil && appConfig.MinVersion != "" {
		opts = append(opts, singularity.WithMinVersion(appConfig.MinVersion.String()))
	}

	tool := singularity.New(opts...)
	version, err := tool.Check(ctx)
	if err != nil {
		if !tool.Available() {
			reportIssue(issue.SingularityNotFoundId)
		} else {
			reportIssue(issue.SingularityUnsupportedId)
		}
		fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("Error:"), err)
		return nil, err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Using %s version %s\n", tool.Name(), version)
	}
	return tool, nil
}

// loadDescription reads and validates the pipeline description file.
// On failure it renders the matching issue and returns the load error.
func loadDescription() (*pipeline.Description, error) {
	data, err := os.ReadFile(pipelineFile)
	if err != nil {
		reportIssue(issue.PipelineNotFoundId)
		return nil, issue.NewErrorContext().
			WithOperation("open pipeline description").
			WithResource(pipelineFile).
			WithSuggestion("Run 'sgpipe template > pipeline.yaml' to create one").
			WithSuggestion("Use -p to point at an existing description").
			Wrap(err).
			BuildError()
	}

	desc, err := pipeline.Load(data, pipeline.WithFilename(pipelineFile))
	if err != nil {
		reportIssue(issue.PipelineInvalidId)
		return nil, err
	}
	return desc, nil
}

// newController builds the phase controller for the loaded description,
// honoring the global flag set.
func newController(desc *pipeline.Description, noBind bool) *phase.Controller {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "sgpipe",
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}

	tool := singularityBinary
	if tool == "" {
		tool = singularity.DefaultBinary
	}

	return phase.New(desc,
		phase.WithTool(tool),
		phase.WithImageOverride(imageOverride),
		phase.WithDryRun(dryRun),
		phase.WithNoBind(noBind),
		phase.WithLogger(logger),
	)
}

// phaseExitError converts a phase failure into an ExitError carrying the
// step's exit code when one is known.
func phaseExitError(err error) error {
	if err == nil {
		return nil
	}
	var stepErr *phase.StepError
	if errors.As(err, &stepErr) && stepErr.Code != 0 {
		return &ExitError{Code: stepErr.Code, Err: err}
	}
	return &ExitError{Code: 1, Err: err}
}
