// SPDX-License-Identifier: MPL-2.0

package phase

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// CheckedBatch is one fully expanded command batch produced by Check.
type CheckedBatch struct {
	Name     string
	Commands []string
}

// Check validates the pipeline without executing anything: every batch is
// expanded against the substitution context exactly as the phases would,
// and each resulting command line must parse as valid shell. It returns
// the expanded batches in phase order.
func (c *Controller) Check() ([]CheckedBatch, error) {
	buildCmds, err := buildCommands(c.tool, &c.desc.Build)
	if err != nil {
		return nil, err
	}

	batches := []struct {
		name     string
		commands []string
		extra    map[string]string
	}{
		{name: "build", commands: buildCmds, extra: c.buildExtras()},
		{name: "run", commands: c.desc.Run.Commands},
		{name: "test prepare", commands: c.desc.Test.PrepareCommands},
		{name: "test validate", commands: c.desc.Test.ValidateCommands},
	}

	parser := syntax.NewParser()

	checked := make([]CheckedBatch, 0, len(batches))
	for _, b := range batches {
		lines, err := c.runner.Expand(b.commands, b.extra)
		if err != nil {
			return nil, fmt.Errorf("%s commands: %w", b.name, err)
		}
		for i, line := range lines {
			if _, err := parser.Parse(strings.NewReader(line), ""); err != nil {
				return nil, fmt.Errorf("%s step %d: shell syntax error in %q: %w", b.name, i+1, line, err)
			}
		}
		checked = append(checked, CheckedBatch{Name: b.name, Commands: lines})
	}

	return checked, nil
}
