// SPDX-License-Identifier: MPL-2.0

package phase

import (
	"context"

	"sgpipe/internal/batch"
)

// Test validates the pipeline. Declared test files are (re)created by the
// prepare commands when any is missing or force is set; a prepare batch
// that fails to materialize the declared files is fatal. Unless skipRun is
// set the run phase executes next, and the validation commands conclude.
func (c *Controller) Test(ctx context.Context, force, skipRun bool) error {
	c.logger.Info("testing pipeline", "name", c.desc.Name)

	files := c.desc.Test.TestFiles
	if !filesExist(files) || force {
		c.logger.Info("(re)creating test files")

		// The prepare batch's exit status is deliberately not checked:
		// what matters is whether the declared files materialized.
		if _, err := c.runner.Run(ctx, batch.Batch{Commands: c.desc.Test.PrepareCommands}); err != nil {
			return err
		}

		if !c.dryRun && !filesExist(files) {
			return &NotGeneratedError{Files: missingFiles(files)}
		}
	} else {
		c.logger.Info("test files already exist and will be reused")
	}

	if skipRun {
		c.logger.Info("skipping run stage")
	} else {
		if err := c.Run(ctx); err != nil {
			return err
		}
	}

	c.logger.Info("running validation stage")

	res, err := c.runner.Run(ctx, batch.Batch{Commands: c.desc.Test.ValidateCommands})
	if err != nil {
		return err
	}
	if res.Code != 0 {
		return &StepError{Phase: "test validation", Step: res.Step, Code: res.Code}
	}

	c.logger.Info("pipeline validated successfully", "name", c.desc.Name)
	return nil
}
