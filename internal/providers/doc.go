// SPDX-License-Identifier: MPL-2.0

// Package providers holds the externally-effectful collaborators used by the
// build and packaging tasks: process execution, filesystem access, and WDK
// installation introspection. Each collaborator is an interface with exactly
// one production implementation; tests substitute in-process fakes so the
// whole pipeline runs deterministically without a real filesystem,
// certificate store, or WDK binaries.
package providers
