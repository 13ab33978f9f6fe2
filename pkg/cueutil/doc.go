// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE parsing utilities for user-authored
// YAML documents.
//
// The package consolidates the parsing pattern used for pipeline
// descriptions and any future schema-checked inputs:
//
//  1. Compile the embedded CUE schema
//  2. Extract the YAML document and unify it with the schema
//  3. Validate and decode into a Go struct
//
// # Usage
//
//	//go:embed pipeline_schema.cue
//	var schemaBytes []byte
//
//	result, err := cueutil.DecodeYAML[rawDescription](
//	    schemaBytes,
//	    fileBytes,
//	    "#Pipeline",
//	    cueutil.WithFilename("pipeline.yaml"),
//	)
//	if err != nil {
//	    return nil, err // error names the CUE path of the offending field
//	}
//	return result.Value, nil
package cueutil
