// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// checkCmd expands and syntax-checks every command without executing anything
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the description and print the expanded commands",
	Long: `Load the description, expand every build, run and test command against
the substitution context, and parse each resulting line as shell. Nothing
is executed; unresolved placeholders and shell syntax errors are reported.`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	if _, err := ensureTool(cmd.Context()); err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	desc, err := loadDescription()
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	ctl := newController(desc, false)
	batches, err := ctl.Check()
	if err != nil {
		return phaseExitError(err)
	}

	for _, b := range batches {
		if len(b.Commands) == 0 {
			continue
		}
		fmt.Println(SubtitleStyle.Render(b.Name + ":"))
		for _, line := range b.Commands {
			fmt.Printf("  %s\n", CmdStyle.Render(line))
		}
	}

	fmt.Printf("%s Description is valid\n", SuccessStyle.Render("✓"))
	return nil
}
