// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for drvpack.
//
// This package implements the Cobra command hierarchy for the drvpack CLI:
// the root command, the build and package commands that drive the packaging
// pipeline, project scaffolding, and configuration management.
package cmd
