// SPDX-License-Identifier: MPL-2.0

// Package metadata queries the dependency-graph metadata document
// (`cargo metadata`) and resolves the single driver configuration a
// workspace is allowed to declare.
//
// The resolution merge is absence-tolerant but conflict-intolerant:
// configuration may live at workspace scope, at package scope, or at both,
// and any number of packages may repeat the same configuration — but the
// set of structurally distinct configurations across both scopes must
// collapse to exactly one.
package metadata
