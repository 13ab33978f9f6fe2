// SPDX-License-Identifier: MPL-2.0

// Package issue holds the catalog of user-facing problem descriptions and
// the ActionableError type used to attach operation context and fix
// suggestions to errors surfaced by the CLI.
package issue
