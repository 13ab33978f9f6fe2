// SPDX-License-Identifier: MPL-2.0

// Package pipeline loads and validates pipeline description documents.
//
// A description is a YAML document that declares how to build, run and
// test a Singularity container image. Loading either fully succeeds and
// yields an immutable Description, or fails with a LoadError wrapping the
// specific parse or format problem; no partially constructed value is ever
// returned.
package pipeline
