// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	buildForce bool

	// buildCmd builds the container image declared by the description
	buildCmd = &cobra.Command{
		Use:   "build",
		Short: "Build the container image",
		Long: `Build the container image according to the description's build section.

An existing image file is kept as-is unless --force is given, in which
case it is deleted and rebuilt from scratch.`,
		RunE: runBuild,
	}
)

func init() {
	buildCmd.Flags().BoolVarP(&buildForce, "force", "f", false, "delete an existing image and rebuild")
}

func runBuild(cmd *cobra.Command, args []string) error {
	if _, err := ensureTool(cmd.Context()); err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	desc, err := loadDescription()
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	ctl := newController(desc, false)
	if err := ctl.Build(cmd.Context(), buildForce); err != nil {
		return phaseExitError(err)
	}

	if !dryRun {
		fmt.Printf("%s Built %s\n", SuccessStyle.Render("✓"), ctl.ImageFile())
	}
	return nil
}
