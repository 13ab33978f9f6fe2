// SPDX-License-Identifier: MPL-2.0

package phase

import (
	"context"
	"os"

	"sgpipe/internal/batch"
)

// Run executes the description's run commands. The image must exist as a
// regular file and every bind source must exist as a directory; both
// checks are skipped entirely in dry-run mode, and the bind check is
// skipped when binds are disabled.
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info("running pipeline", "name", c.desc.Name)

	if !c.dryRun {
		fi, err := os.Stat(c.imageFile)
		if err != nil || fi.IsDir() {
			return &MissingPathError{Kind: "image", Path: c.imageFile}
		}
		if !c.noBind {
			for _, bind := range c.desc.Binds {
				fi, err := os.Stat(bind.Source)
				if err != nil || !fi.IsDir() {
					return &MissingPathError{Kind: "bind source", Path: bind.Source}
				}
			}
		}
	}

	res, err := c.runner.Run(ctx, batch.Batch{Commands: c.desc.Run.Commands})
	if err != nil {
		return err
	}
	if res.Code != 0 {
		return &StepError{Phase: "run", Step: res.Step, Code: res.Code}
	}

	c.logger.Info("successfully ran pipeline", "name", c.desc.Name)
	return nil
}
