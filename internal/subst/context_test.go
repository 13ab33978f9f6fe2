// SPDX-License-Identifier: MPL-2.0

package subst_test

import (
	"testing"

	"sgpipe/internal/pipeline"
	"sgpipe/internal/subst"
)

func TestBuilder_Build_ReservedKeys(t *testing.T) {
	t.Parallel()

	b := &subst.Builder{
		Tool:  "singularity",
		Image: "demo-1.0.img",
		Binds: []pipeline.Bind{
			{Source: "./data", Dest: "/data"},
			{Source: "./out", Dest: "/output"},
		},
	}

	ctx := b.Build(nil)

	if got, want := ctx["binds"], "-B ./data:/data -B ./out:/output "; got != want {
		t.Errorf("binds = %q, want %q", got, want)
	}
	if got, want := ctx["exec"], "singularity exec -B ./data:/data -B ./out:/output demo-1.0.img"; got != want {
		t.Errorf("exec = %q, want %q", got, want)
	}
	if got, want := ctx["run"], "singularity run -B ./data:/data -B ./out:/output demo-1.0.img"; got != want {
		t.Errorf("run = %q, want %q", got, want)
	}
}

func TestBuilder_Build_NoBinds(t *testing.T) {
	t.Parallel()

	b := &subst.Builder{Tool: "singularity", Image: "x.img"}
	ctx := b.Build(nil)

	if ctx["binds"] != "" {
		t.Errorf("binds = %q, want empty string", ctx["binds"])
	}
	if got, want := ctx["exec"], "singularity exec x.img"; got != want {
		t.Errorf("exec = %q, want %q", got, want)
	}
}

func TestBuilder_Build_Precedence(t *testing.T) {
	t.Parallel()

	b := &subst.Builder{
		Tool:  "singularity",
		Image: "real.img",
		User: map[string]string{
			"threads": "8",
			"source":  "user-source",
			"image":   "user-override.img",
			"exec":    "user-exec",
		},
	}

	ctx := b.Build(map[string]string{
		"source":  "extra-source",
		"options": "--quiet",
		"binds":   "extra-binds",
	})

	// User substitutions beat extras.
	if ctx["threads"] != "8" {
		t.Errorf("threads = %q, want user value 8", ctx["threads"])
	}
	if ctx["source"] != "user-source" {
		t.Errorf("source = %q, want user value over extra", ctx["source"])
	}
	if ctx["options"] != "--quiet" {
		t.Errorf("options = %q, want extra value", ctx["options"])
	}

	// Reserved keys always win, regardless of override attempts.
	if ctx["image"] != "real.img" {
		t.Errorf("image = %q, want reserved value real.img", ctx["image"])
	}
	if ctx["binds"] != "" {
		t.Errorf("binds = %q, want reserved (empty) value", ctx["binds"])
	}
	if got, want := ctx["exec"], "singularity exec real.img"; got != want {
		t.Errorf("exec = %q, want %q", got, want)
	}
}

func TestBuilder_Build_Deterministic(t *testing.T) {
	t.Parallel()

	b := &subst.Builder{Tool: "singularity", Image: "x.img", User: map[string]string{"k": "v"}}
	extra := map[string]string{"e": "1"}

	first := b.Build(extra)
	second := b.Build(extra)

	if len(first) != len(second) {
		t.Fatalf("contexts differ in size: %d vs %d", len(first), len(second))
	}
	for k, v := range first {
		if second[k] != v {
			t.Errorf("second[%q] = %q, want %q", k, second[k], v)
		}
	}
}
