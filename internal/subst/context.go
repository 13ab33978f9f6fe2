// SPDX-License-Identifier: MPL-2.0

// Package subst builds substitution contexts and expands command templates
// against them.
//
// A context is a flat name-to-value mapping. It is rebuilt for every batch
// execution from three layers with increasing precedence: phase-supplied
// extras, user-defined substitutions from the description, and the
// reserved keys (image, binds, exec, run), which always win.
package subst

import (
	"maps"

	"sgpipe/internal/pipeline"
)

// Reserved placeholder names. These are recomputed on every Build call and
// cannot be overridden by user substitutions or extras.
const (
	KeyImage = "image"
	KeyBinds = "binds"
	KeyExec  = "exec"
	KeyRun   = "run"
)

type (
	// Context maps placeholder names to their expansion values. It is
	// transient: owned by a single batch execution and never cached.
	Context map[string]string

	// Builder derives contexts for one pipeline. All fields are fixed at
	// construction, so Build is a pure function of its extra argument.
	Builder struct {
		// Tool is the container tool executable, normally "singularity".
		Tool string
		// Image is the sanitized image filename.
		Image string
		// Binds are the description's bind pairs, in order.
		Binds []pipeline.Bind
		// User holds the description-level substitution overrides.
		User map[string]string
	}
)

// Build assembles a context. Precedence, lowest to highest: extra, then
// user substitutions, then the reserved keys.
func (b *Builder) Build(extra map[string]string) Context {
	ctx := make(Context, len(extra)+len(b.User)+4)
	maps.Copy(ctx, extra)
	maps.Copy(ctx, b.User)

	ctx[KeyImage] = b.Image
	ctx[KeyBinds] = b.BindFlags()
	ctx[KeyExec] = b.Tool + " exec " + ctx[KeyBinds] + ctx[KeyImage]
	ctx[KeyRun] = b.Tool + " run " + ctx[KeyBinds] + ctx[KeyImage]

	return ctx
}

// BindFlags renders the description's binds as "-B source:dest " flags in
// order, with a single trailing space when non-empty.
func (b *Builder) BindFlags() string {
	flags := ""
	for _, bind := range b.Binds {
		flags += "-B " + bind.Source + ":" + bind.Dest + " "
	}
	return flags
}
