// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	testForce   bool
	testSkipRun bool
	testNoBind  bool

	// testCmd runs the pipeline and validates its output
	testCmd = &cobra.Command{
		Use:   "test",
		Short: "Run the pipeline and validate its output",
		Long: `Prepare the declared test files if any are missing (or --force is
given), execute the run phase, then execute the validate commands.

With --skip-run the run phase is omitted and only existing output is
validated.`,
		RunE: runTest,
	}
)

func init() {
	testCmd.Flags().BoolVarP(&testForce, "force", "f", false, "regenerate test data even when the declared files exist")
	testCmd.Flags().BoolVar(&testSkipRun, "skip-run", false, "skip the run phase, only validate existing output")
	testCmd.Flags().BoolVar(&testNoBind, "no-bind", false, "omit runtime bind arguments")
}

func runTest(cmd *cobra.Command, args []string) error {
	if _, err := ensureTool(cmd.Context()); err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	desc, err := loadDescription()
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	ctl := newController(desc, testNoBind)
	if err := ctl.Test(cmd.Context(), testForce, testSkipRun); err != nil {
		return phaseExitError(err)
	}

	if !dryRun {
		fmt.Printf("%s Pipeline test passed\n", SuccessStyle.Render("✓"))
	}
	return nil
}
