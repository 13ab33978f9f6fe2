// SPDX-License-Identifier: MPL-2.0

package phase_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"sgpipe/internal/batch"
	"sgpipe/internal/phase"
	"sgpipe/internal/pipeline"
)

// fakeExec records command lines and simulates exit codes.
type fakeExec struct {
	lines  []string
	cmds   []*exec.Cmd
	failOn map[string]int
}

func (f *fakeExec) command(ctx context.Context, name string, arg ...string) *exec.Cmd {
	line := arg[len(arg)-1]
	f.lines = append(f.lines, line)

	var cmd *exec.Cmd
	if code, ok := f.failOn[line]; ok {
		cmd = exec.CommandContext(ctx, "sh", "-c", fmt.Sprintf("exit %d", code))
	} else {
		cmd = exec.CommandContext(ctx, "true")
	}
	f.cmds = append(f.cmds, cmd)
	return cmd
}

func testDesc() *pipeline.Description {
	return &pipeline.Description{
		FormatVersion: 1,
		Name:          "demo",
		Version:       "1.0",
		Build: pipeline.BuildSpec{
			Type:   pipeline.BuildPull,
			Source: "docker://x/y",
			Size:   512,
		},
		Run: pipeline.RunSpec{Commands: []string{"{exec} compute"}},
		Test: pipeline.TestSpec{
			PrepareCommands:  []string{"{exec} prepare"},
			ValidateCommands: []string{"{exec} validate"},
		},
	}
}

func newController(t *testing.T, desc *pipeline.Description, fake *fakeExec, opts ...phase.Option) *phase.Controller {
	t.Helper()
	base := []phase.Option{
		phase.WithLogger(log.New(io.Discard)),
		phase.WithBatchOptions(
			batch.WithExecCommand(fake.command),
			batch.WithIO(nil, io.Discard, io.Discard),
		),
	}
	return phase.New(desc, append(base, opts...)...)
}

func TestBuild_PullCommandExpansion(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	image := filepath.Join(tmp, "demo-1.0.img")
	fake := &fakeExec{}
	c := newController(t, testDesc(), fake, phase.WithImageOverride(image))

	if err := c.Build(context.Background(), false); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := []string{fmt.Sprintf("singularity pull --size 512  --name %s docker://x/y", image)}
	if !slices.Equal(fake.lines, want) {
		t.Errorf("build commands = %v, want %v", fake.lines, want)
	}
}

func TestBuild_ToolOverrideAppliesToBuildCommands(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	image := filepath.Join(tmp, "demo-1.0.img")

	desc := testDesc()
	desc.Build = pipeline.BuildSpec{Type: pipeline.BuildBootstrap, Source: "debian.def"}

	fake := &fakeExec{}
	c := newController(t, desc, fake,
		phase.WithImageOverride(image),
		phase.WithTool("singularity3"))

	if err := c.Build(context.Background(), false); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := []string{
		fmt.Sprintf("singularity3 create -F  %s", image),
		fmt.Sprintf("sudo singularity3 bootstrap  %s debian.def", image),
	}
	if !slices.Equal(fake.lines, want) {
		t.Errorf("build commands = %v, want %v", fake.lines, want)
	}
}

func TestBuild_SkipWhenImageExists(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	image := filepath.Join(tmp, "demo.img")
	if err := os.WriteFile(image, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	fake := &fakeExec{}
	c := newController(t, testDesc(), fake, phase.WithImageOverride(image))

	// Two builds without force: neither may invoke anything.
	for i := 0; i < 2; i++ {
		if err := c.Build(context.Background(), false); err != nil {
			t.Fatalf("Build() #%d error = %v", i+1, err)
		}
	}
	if len(fake.lines) != 0 {
		t.Errorf("invoked %d commands on existing image, want 0", len(fake.lines))
	}
}

func TestBuild_ForceDeletesExistingImage(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	image := filepath.Join(tmp, "demo.img")
	if err := os.WriteFile(image, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	fake := &fakeExec{}
	c := newController(t, testDesc(), fake, phase.WithImageOverride(image))

	if err := c.Build(context.Background(), true); err != nil {
		t.Fatalf("Build(force) error = %v", err)
	}
	if _, err := os.Stat(image); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("existing image not deleted before rebuild")
	}
	if len(fake.lines) != 1 {
		t.Errorf("invoked %d commands, want 1", len(fake.lines))
	}
}

func TestBuild_VariantCommandLists(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		build     pipeline.BuildSpec
		wantLines []string
	}{
		{
			name:  "bootstrap",
			build: pipeline.BuildSpec{Type: pipeline.BuildBootstrap, Source: "debian.def"},
			wantLines: []string{
				"singularity create -F  IMG",
				"sudo singularity bootstrap  IMG debian.def",
			},
		},
		{
			name:  "build",
			build: pipeline.BuildSpec{Type: pipeline.BuildImage, Source: "app.def", Options: "--sandbox"},
			wantLines: []string{
				"sudo singularity build --sandbox IMG app.def",
			},
		},
		{
			name:  "docker2singularity",
			build: pipeline.BuildSpec{Type: pipeline.BuildDocker2Singularity, Source: "Dockerfile"},
			wantLines: []string{
				"sudo docker build -t demo -f Dockerfile .",
				"sudo docker run -v /var/run/docker.sock:/var/run/docker.sock -v $(pwd):/output " +
					"--privileged -t --rm singularityware/docker2singularity demo",
				"mv demo-*.img IMG",
			},
		},
		{
			name:  "custom",
			build: pipeline.BuildSpec{Type: pipeline.BuildCustom, Commands: []string{"./make-image.sh {image}"}},
			wantLines: []string{
				"./make-image.sh IMG",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tmp := t.TempDir()
			image := filepath.Join(tmp, "img")
			desc := testDesc()
			desc.Build = tt.build

			fake := &fakeExec{}
			c := newController(t, desc, fake, phase.WithImageOverride(image))

			if err := c.Build(context.Background(), false); err != nil {
				t.Fatalf("Build() error = %v", err)
			}

			want := make([]string, len(tt.wantLines))
			for i, l := range tt.wantLines {
				want[i] = strings.ReplaceAll(l, "IMG", image)
			}
			if !slices.Equal(fake.lines, want) {
				t.Errorf("commands = %v, want %v", fake.lines, want)
			}
		})
	}
}

func TestBuild_UnknownTypeNotImplemented(t *testing.T) {
	t.Parallel()

	desc := testDesc()
	desc.Build = pipeline.BuildSpec{Type: "teleport"}

	fake := &fakeExec{}
	c := newController(t, desc, fake, phase.WithImageOverride(filepath.Join(t.TempDir(), "img")))

	err := c.Build(context.Background(), false)
	var unknown *phase.UnknownBuildTypeError
	if !errors.As(err, &unknown) {
		t.Fatalf("Build() error = %v, want *UnknownBuildTypeError", err)
	}
	if !errors.Is(err, phase.ErrRuntimeFailure) {
		t.Errorf("Build() error does not wrap ErrRuntimeFailure")
	}
}

func TestBuild_FailureNamesExitCode(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	image := filepath.Join(tmp, "img")
	line := fmt.Sprintf("singularity pull --size 512  --name %s docker://x/y", image)

	fake := &fakeExec{failOn: map[string]int{line: 3}}
	c := newController(t, testDesc(), fake, phase.WithImageOverride(image))

	err := c.Build(context.Background(), false)
	var stepErr *phase.StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("Build() error = %v, want *StepError", err)
	}
	if stepErr.Code != 3 || stepErr.Step != 1 {
		t.Errorf("StepError = %+v, want code 3 at step 1", stepErr)
	}
}

func TestBuild_CredentialsBecomeEnvOverlay(t *testing.T) {
	t.Parallel()

	desc := testDesc()
	desc.Build.Credentials = &pipeline.Credentials{Username: "alice", Password: "hunter2"}

	fake := &fakeExec{}
	c := newController(t, desc, fake, phase.WithImageOverride(filepath.Join(t.TempDir(), "img")))

	if err := c.Build(context.Background(), false); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(fake.cmds) != 1 {
		t.Fatalf("invoked %d commands, want 1", len(fake.cmds))
	}

	env := fake.cmds[0].Env
	if !slices.Contains(env, "SINGULARITY_DOCKER_USERNAME=alice") ||
		!slices.Contains(env, "SINGULARITY_DOCKER_PASSWORD=hunter2") {
		t.Errorf("credentials not passed as env overlay: %v", env)
	}
	// Controller must not leak credentials into its own process env.
	if os.Getenv("SINGULARITY_DOCKER_USERNAME") == "alice" {
		t.Error("ambient process environment was mutated")
	}
}

func TestRun_MissingImage(t *testing.T) {
	t.Parallel()

	fake := &fakeExec{}
	c := newController(t, testDesc(), fake,
		phase.WithImageOverride(filepath.Join(t.TempDir(), "absent.img")))

	err := c.Run(context.Background())
	var missing *phase.MissingPathError
	if !errors.As(err, &missing) {
		t.Fatalf("Run() error = %v, want *MissingPathError", err)
	}
	if missing.Kind != "image" {
		t.Errorf("MissingPathError.Kind = %q, want image", missing.Kind)
	}
	if len(fake.lines) != 0 {
		t.Errorf("invoked %d commands despite failed precondition", len(fake.lines))
	}
}

func TestRun_MissingBindSource(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	image := filepath.Join(tmp, "img")
	if err := os.WriteFile(image, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	desc := testDesc()
	desc.Binds = []pipeline.Bind{{Source: filepath.Join(tmp, "nodir"), Dest: "/data"}}

	fake := &fakeExec{}
	c := newController(t, desc, fake, phase.WithImageOverride(image))

	err := c.Run(context.Background())
	var missing *phase.MissingPathError
	if !errors.As(err, &missing) {
		t.Fatalf("Run() error = %v, want *MissingPathError", err)
	}
	if missing.Kind != "bind source" {
		t.Errorf("MissingPathError.Kind = %q, want bind source", missing.Kind)
	}
}

func TestRun_NoBindSkipsBindChecks(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	image := filepath.Join(tmp, "img")
	if err := os.WriteFile(image, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	desc := testDesc()
	desc.Binds = []pipeline.Bind{{Source: filepath.Join(tmp, "nodir"), Dest: "/data"}}

	fake := &fakeExec{}
	c := newController(t, desc, fake, phase.WithImageOverride(image), phase.WithNoBind(true))

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := []string{fmt.Sprintf("singularity exec %s compute", image)}
	if !slices.Equal(fake.lines, want) {
		t.Errorf("commands = %v, want %v (bind flags omitted)", fake.lines, want)
	}
}

func TestRun_Success(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	image := filepath.Join(tmp, "img")
	data := filepath.Join(tmp, "data")
	if err := os.WriteFile(image, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(data, 0o755); err != nil {
		t.Fatal(err)
	}

	desc := testDesc()
	desc.Binds = []pipeline.Bind{{Source: data, Dest: "/data"}}

	fake := &fakeExec{}
	c := newController(t, desc, fake, phase.WithImageOverride(image))

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := []string{fmt.Sprintf("singularity exec -B %s:/data %s compute", data, image)}
	if !slices.Equal(fake.lines, want) {
		t.Errorf("commands = %v, want %v", fake.lines, want)
	}
}

func TestRun_FailureNamesStepAndCode(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	image := filepath.Join(tmp, "img")
	if err := os.WriteFile(image, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	desc := testDesc()
	desc.Run.Commands = []string{"first", "second"}

	fake := &fakeExec{failOn: map[string]int{"second": 9}}
	c := newController(t, desc, fake, phase.WithImageOverride(image))

	err := c.Run(context.Background())
	var stepErr *phase.StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("Run() error = %v, want *StepError", err)
	}
	if stepErr.Step != 2 || stepErr.Code != 9 {
		t.Errorf("StepError = %+v, want step 2 code 9", stepErr)
	}
}

func TestDryRun_NoPreconditionsNoProcesses(t *testing.T) {
	t.Parallel()

	// Image and binds do not exist; dry run must not care.
	desc := testDesc()
	desc.Binds = []pipeline.Bind{{Source: "/definitely/missing", Dest: "/data"}}

	fake := &fakeExec{}
	var out bytes.Buffer
	c := newController(t, desc, fake,
		phase.WithImageOverride("/missing/demo.img"),
		phase.WithDryRun(true),
		phase.WithBatchOptions(batch.WithIO(nil, &out, io.Discard)))

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(fake.lines) != 0 {
		t.Errorf("dry run spawned %d processes", len(fake.lines))
	}
	want := "singularity exec -B /definitely/missing:/data /missing/demo.img compute\n"
	if out.String() != want {
		t.Errorf("dry-run output = %q, want %q", out.String(), want)
	}
}

func TestTest_PrepareRunsWhenFilesMissing(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	image := filepath.Join(tmp, "img")
	if err := os.WriteFile(image, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	desc := testDesc()
	desc.Test.TestFiles = []string{filepath.Join(tmp, "a.md5")}

	fake := &fakeExec{}
	c := newController(t, desc, fake, phase.WithImageOverride(image))

	err := c.Test(context.Background(), false, false)
	var notGen *phase.NotGeneratedError
	if !errors.As(err, &notGen) {
		t.Fatalf("Test() error = %v, want *NotGeneratedError", err)
	}
	if len(notGen.Files) != 1 || !strings.HasSuffix(notGen.Files[0], "a.md5") {
		t.Errorf("NotGeneratedError.Files = %v", notGen.Files)
	}

	// Prepare ran exactly once before the failure.
	want := []string{fmt.Sprintf("singularity exec %s prepare", image)}
	if !slices.Equal(fake.lines, want) {
		t.Errorf("commands = %v, want only prepare %v", fake.lines, want)
	}
}

func TestTest_ExistingFilesReused(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	image := filepath.Join(tmp, "img")
	ref := filepath.Join(tmp, "a.md5")
	for _, f := range []string{image, ref} {
		if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	desc := testDesc()
	desc.Test.TestFiles = []string{ref}

	fake := &fakeExec{}
	c := newController(t, desc, fake, phase.WithImageOverride(image))

	if err := c.Test(context.Background(), false, false); err != nil {
		t.Fatalf("Test() error = %v", err)
	}

	want := []string{
		fmt.Sprintf("singularity exec %s compute", image),
		fmt.Sprintf("singularity exec %s validate", image),
	}
	if !slices.Equal(fake.lines, want) {
		t.Errorf("commands = %v, want run+validate without prepare: %v", fake.lines, want)
	}
}

func TestTest_ForceRecreatesFiles(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	image := filepath.Join(tmp, "img")
	ref := filepath.Join(tmp, "a.md5")
	for _, f := range []string{image, ref} {
		if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	desc := testDesc()
	desc.Test.TestFiles = []string{ref}

	fake := &fakeExec{}
	c := newController(t, desc, fake, phase.WithImageOverride(image))

	if err := c.Test(context.Background(), true, true); err != nil {
		t.Fatalf("Test(force, skipRun) error = %v", err)
	}

	want := []string{
		fmt.Sprintf("singularity exec %s prepare", image),
		fmt.Sprintf("singularity exec %s validate", image),
	}
	if !slices.Equal(fake.lines, want) {
		t.Errorf("commands = %v, want prepare+validate (run skipped): %v", fake.lines, want)
	}
}

func TestTest_ValidationFailure(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	image := filepath.Join(tmp, "img")
	if err := os.WriteFile(image, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	desc := testDesc()
	line := fmt.Sprintf("singularity exec %s validate", image)

	fake := &fakeExec{failOn: map[string]int{line: 2}}
	c := newController(t, desc, fake, phase.WithImageOverride(image))

	err := c.Test(context.Background(), false, true)
	var stepErr *phase.StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("Test() error = %v, want *StepError", err)
	}
	if stepErr.Phase != "test validation" || stepErr.Code != 2 {
		t.Errorf("StepError = %+v, want test validation code 2", stepErr)
	}
}

func TestCheck_ExpandsAllBatches(t *testing.T) {
	t.Parallel()

	fake := &fakeExec{}
	c := newController(t, testDesc(), fake, phase.WithImageOverride("demo.img"))

	batches, err := c.Check()
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if len(fake.lines) != 0 {
		t.Errorf("Check() spawned %d processes, want 0", len(fake.lines))
	}

	wantNames := []string{"build", "run", "test prepare", "test validate"}
	if len(batches) != len(wantNames) {
		t.Fatalf("Check() returned %d batches, want %d", len(batches), len(wantNames))
	}
	for i, name := range wantNames {
		if batches[i].Name != name {
			t.Errorf("batches[%d].Name = %q, want %q", i, batches[i].Name, name)
		}
	}
	if got, want := batches[0].Commands[0], "singularity pull --size 512  --name demo.img docker://x/y"; got != want {
		t.Errorf("build command = %q, want %q", got, want)
	}
}

func TestCheck_ReportsTemplateAndSyntaxErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*pipeline.Description)
		want   string
	}{
		{
			name:   "unresolved placeholder",
			mutate: func(d *pipeline.Description) { d.Run.Commands = []string{"echo {nope}"} },
			want:   "nope",
		},
		{
			name:   "shell syntax error",
			mutate: func(d *pipeline.Description) { d.Test.ValidateCommands = []string{"if then ; fi ("} },
			want:   "shell syntax error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			desc := testDesc()
			tt.mutate(desc)

			fake := &fakeExec{}
			c := newController(t, desc, fake, phase.WithImageOverride("demo.img"))

			_, err := c.Check()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Check() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}
