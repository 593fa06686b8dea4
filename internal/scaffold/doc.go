// SPDX-License-Identifier: MPL-2.0

// Package scaffold creates new driver crates: it drives the package
// manager's project generator and then rewrites the manifest and drops
// the driver-specific source, descriptor, and build-configuration
// templates for the chosen driver model.
package scaffold
