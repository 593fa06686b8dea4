// SPDX-License-Identifier: MPL-2.0

// Package wdkmeta defines the driver configuration metadata declared under the
// reserved "wdk" namespace of a crate or workspace manifest, and its
// serialized wire form as it appears in the dependency-graph metadata
// document emitted by `cargo metadata`.
//
// A DriverConfig value is comparable, so structural equality is the `==`
// operator and deduplication across a dependency graph is a plain map key.
package wdkmeta
