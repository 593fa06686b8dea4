// SPDX-License-Identifier: MPL-2.0

// Package packaging drives the build-and-package pipeline for Windows
// driver crates: it compiles each crate, lays out the package directory,
// stamps and verifies the install descriptor, generates the catalog, and
// signs the driver binary with a test certificate.
package packaging
