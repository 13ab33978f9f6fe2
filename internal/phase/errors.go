// SPDX-License-Identifier: MPL-2.0

package phase

import (
	"errors"
	"fmt"
	"strings"

	"sgpipe/internal/pipeline"
)

// ErrRuntimeFailure is the sentinel error wrapped by every fatal phase
// failure: a failed batch step, a missing precondition path, a declared
// artifact that never materialized, or an unrecognized build type.
var ErrRuntimeFailure = errors.New("pipeline phase failed")

type (
	// StepError reports the first failing step of a batch.
	StepError struct {
		Phase string
		Step  int
		Code  int
	}

	// MissingPathError reports a precondition path that does not exist.
	MissingPathError struct {
		Kind string // "image" or "bind source"
		Path string
	}

	// NotGeneratedError reports declared test files still absent after
	// the prepare commands ran.
	NotGeneratedError struct {
		Files []string
	}

	// UnknownBuildTypeError reports a build variant the engine does not
	// implement.
	UnknownBuildTypeError struct {
		Type pipeline.BuildType
	}
)

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("singularity %s failed (step %d, exit code %d)", e.Phase, e.Step, e.Code)
}

// Unwrap returns ErrRuntimeFailure so callers can use errors.Is for classification.
func (e *StepError) Unwrap() error { return ErrRuntimeFailure }

// Error implements the error interface.
func (e *MissingPathError) Error() string {
	return fmt.Sprintf("%s %s does not exist", e.Kind, e.Path)
}

// Unwrap returns ErrRuntimeFailure so callers can use errors.Is for classification.
func (e *MissingPathError) Unwrap() error { return ErrRuntimeFailure }

// Error implements the error interface.
func (e *NotGeneratedError) Error() string {
	return "test files not generated by prepare commands: " + strings.Join(e.Files, ", ")
}

// Unwrap returns ErrRuntimeFailure so callers can use errors.Is for classification.
func (e *NotGeneratedError) Unwrap() error { return ErrRuntimeFailure }

// Error implements the error interface.
func (e *UnknownBuildTypeError) Error() string {
	return fmt.Sprintf("build type %q not implemented", string(e.Type))
}

// Unwrap returns ErrRuntimeFailure so callers can use errors.Is for classification.
func (e *UnknownBuildTypeError) Unwrap() error { return ErrRuntimeFailure }
