// SPDX-License-Identifier: MPL-2.0

package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"

	"drvpack-cli/internal/providers"
)

// ManifestFileName is the package manifest file the orchestrator looks for.
const ManifestFileName = "Cargo.toml"

// cdylibTargetKind is the dynamic-library target kind a driver crate must
// declare to be packageable.
const cdylibTargetKind = "cdylib"

type (
	// Target is one build target declared by a package.
	Target struct {
		Name string   `json:"name"`
		Kind []string `json:"kind"`
	}

	// Package is one member of the dependency graph.
	Package struct {
		ID           string          `json:"id"`
		Name         string          `json:"name"`
		ManifestPath string          `json:"manifest_path"`
		Targets      []Target        `json:"targets"`
		Metadata     json.RawMessage `json:"metadata"`
	}

	// Document is the subset of the graph-metadata document this tool
	// consumes. It is built once per invocation and read-only thereafter.
	Document struct {
		Packages         []Package       `json:"packages"`
		WorkspaceMembers []string        `json:"workspace_members"`
		WorkspaceRoot    string          `json:"workspace_root"`
		TargetDirectory  string          `json:"target_directory"`
		Metadata         json.RawMessage `json:"metadata"`
	}

	// Provider runs the dependency-graph query for a directory.
	Provider interface {
		Query(ctx context.Context, dir string) (*Document, error)
	}

	// CargoMetadataProvider is the production Provider; it shells out to
	// `cargo metadata` and decodes the JSON document.
	CargoMetadataProvider struct {
		runner providers.CommandRunner
	}
)

// NewCargoMetadataProvider creates the production metadata provider.
func NewCargoMetadataProvider(runner providers.CommandRunner) *CargoMetadataProvider {
	return &CargoMetadataProvider{runner: runner}
}

// Query runs `cargo metadata` in dir and parses the resulting document.
func (p *CargoMetadataProvider) Query(ctx context.Context, dir string) (*Document, error) {
	args := []string{"metadata", "--format-version", "1", "--no-deps"}
	out, err := p.runner.Run(ctx, "cargo", args, &providers.RunOptions{Dir: dir})
	if err != nil {
		return nil, fmt.Errorf("failed to query cargo metadata in %s: %w", dir, err)
	}

	var doc Document
	if err := json.Unmarshal(out.Stdout, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse cargo metadata document: %w", err)
	}
	return &doc, nil
}

// WorkspacePackages returns the packages that are members of the workspace.
// The metadata document's package listing order is preserved; that order is
// what downstream processing follows.
func (d *Document) WorkspacePackages() []Package {
	members := make([]Package, 0, len(d.WorkspaceMembers))
	for _, pkg := range d.Packages {
		if slices.Contains(d.WorkspaceMembers, pkg.ID) {
			members = append(members, pkg)
		}
	}
	return members
}

// RootDir returns the directory containing the package's manifest.
func (p *Package) RootDir() string {
	return filepath.Dir(p.ManifestPath)
}

// HasDynamicLibraryTarget reports whether the package declares a cdylib
// target; packages without one are built but never packaged.
func (p *Package) HasDynamicLibraryTarget() bool {
	for _, target := range p.Targets {
		if slices.Contains(target.Kind, cdylibTargetKind) {
			return true
		}
	}
	return false
}
