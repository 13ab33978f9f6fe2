// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	runNoBind bool

	// runCmd executes the run phase inside the built image
	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Execute the pipeline's run commands",
		Long: `Execute the run section's commands in order, stopping at the first
failure. Each command is expanded against the description's substitutions
before execution; {exec} and {run} invoke singularity on the built image
with the declared binds.`,
		RunE: runRun,
	}
)

func init() {
	runCmd.Flags().BoolVar(&runNoBind, "no-bind", false, "omit runtime bind arguments")
}

func runRun(cmd *cobra.Command, args []string) error {
	if _, err := ensureTool(cmd.Context()); err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	desc, err := loadDescription()
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	ctl := newController(desc, runNoBind)
	if err := ctl.Run(cmd.Context()); err != nil {
		return phaseExitError(err)
	}

	if !dryRun {
		fmt.Printf("%s Pipeline run finished\n", SuccessStyle.Render("✓"))
	}
	return nil
}
