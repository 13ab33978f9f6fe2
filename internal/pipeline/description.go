// SPDX-License-Identifier: MPL-2.0

package pipeline

// SupportedFormatVersion is the only description format this engine
// accepts. A document that omits format_version is treated as version 1.
const SupportedFormatVersion = 1

const (
	// BuildPull pulls a prebuilt image from a registry.
	BuildPull BuildType = "pull"
	// BuildBootstrap creates an image file and bootstraps it from a
	// definition (requires elevated privileges for the second step).
	BuildBootstrap BuildType = "bootstrap"
	// BuildImage builds an image from a definition in one privileged step.
	BuildImage BuildType = "build"
	// BuildDocker2Singularity builds a Docker image and converts it via
	// the docker2singularity helper container.
	BuildDocker2Singularity BuildType = "docker2singularity"
	// BuildCustom runs the literal command list from the description.
	BuildCustom BuildType = "custom"
)

type (
	// BuildType discriminates the build variant of a description.
	BuildType string

	// Description is the typed, immutable model of a pipeline description
	// document. It is constructed exclusively by Load.
	Description struct {
		// FormatVersion is always SupportedFormatVersion after loading.
		FormatVersion int
		// Name identifies the pipeline.
		Name string
		// Version is the user-declared pipeline version string.
		Version string
		// Author and Source are informational and unused by the engine.
		Author string
		Source string
		// Substitutions are user-defined template overrides. They take
		// precedence over phase-supplied extras but never over the
		// reserved keys (image, binds, exec, run).
		Substitutions map[string]string
		// Binds are host-to-container path pairs, in document order.
		Binds []Bind
		Build BuildSpec
		Run   RunSpec
		Test  TestSpec
	}

	// Bind is a single source-to-destination path pair exposed to the
	// container's execution sandbox.
	Bind struct {
		Source string
		Dest   string
	}

	// BuildSpec is the tagged union describing how the image is produced.
	// Only the fields relevant to Type are populated; the schema enforces
	// the per-variant requirements at load time.
	BuildSpec struct {
		Type    BuildType
		Source  string
		Options string
		// Size is the image size in MiB; zero means unspecified.
		Size        int
		Credentials *Credentials
		// Commands is the literal command list for BuildCustom.
		Commands []string
	}

	// Credentials are registry credentials passed to the build commands
	// through an environment overlay.
	Credentials struct {
		Username string
		Password string
	}

	// RunSpec holds the ordered command templates of the run phase.
	RunSpec struct {
		Commands []string
	}

	// TestSpec holds the test phase configuration. A nil TestFiles slice
	// means no declared files, which satisfies the existence check
	// vacuously.
	TestSpec struct {
		TestFiles        []string
		PrepareCommands  []string
		ValidateCommands []string
	}
)
