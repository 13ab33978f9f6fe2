// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for sgpipe.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"sgpipe/internal/config"
	"sgpipe/internal/issue"
	"sgpipe/internal/singularity"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string
	// pipelineFile is the pipeline description path
	pipelineFile string
	// imageOverride replaces the image filename derived from the description
	imageOverride string
	// dryRun prints the expanded command sequence without executing it
	dryRun bool
	// singularityBinary overrides the tool executable
	singularityBinary string

	// appConfig is the loaded configuration, nil until initRootConfig runs.
	appConfig *config.Config

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "sgpipe",
		Short: "A wrapper around Singularity to build, run and test scientific pipelines",
		Long: TitleStyle.Render("sgpipe") + SubtitleStyle.Render(" - build, run and test scientific pipelines") + `

sgpipe drives Singularity containers through a declarative pipeline
description: a YAML document declaring how to build an image, which
commands to run inside it, and how to validate the results.

Command templates support {exec}, {run}, {image} and {binds}
substitutions plus any user-defined keys from the description.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Generate a starter description: sgpipe template > pipeline.yaml
  2. Edit it for your pipeline
  3. Run: sgpipe build && sgpipe run && sgpipe test

` + SubtitleStyle.Render("Examples:") + `
  sgpipe build              Build the container image
  sgpipe run                Execute the run phase
  sgpipe test --skip-run    Validate existing output only
  sgpipe check              Expand and syntax-check all commands
  sgpipe template           Print a starter pipeline.yaml`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/sgpipe/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&pipelineFile, "pipeline", "p", "pipeline.yaml", "pipeline description file")
	rootCmd.PersistentFlags().StringVarP(&imageOverride, "image", "i", "", "singularity image file (default: derived from the description)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "output the intended command sequence without executing it")
	rootCmd.PersistentFlags().StringVar(&singularityBinary, "singularity", "", "singularity executable to invoke (default: singularity from PATH)")

	// Add subcommands
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(templateCmd)
}

// getVersionString returns a formatted version string for display,
// including the detected Singularity version.
func getVersionString() string {
	singularityVersion := "unknown/unsupported"
	if v, err := singularity.New().Check(context.Background()); err == nil {
		singularityVersion = v
	}

	if Version == "dev" {
		return fmt.Sprintf("dev (built from source)\nSingularity version %s", singularityVersion)
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)\nSingularity version %s", Version, Commit, BuildDate, singularityVersion)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootConfig reads the config file and applies its values to flags
// that were not set explicitly.
func initRootConfig() {
	cfg, _, err := config.Load(config.LoadOptions{ConfigFilePath: cfgFile})
	if err != nil {
		// Config problems never abort a run; defaults still work.
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
		return
	}
	appConfig = cfg

	flags := rootCmd.PersistentFlags()
	if !flags.Changed("pipeline") && cfg.PipelineFile != "" {
		pipelineFile = cfg.PipelineFile
	}
	if !flags.Changed("singularity") && cfg.SingularityBinary != "" {
		singularityBinary = cfg.SingularityBinary
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
