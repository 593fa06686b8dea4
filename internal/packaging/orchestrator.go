// SPDX-License-Identifier: MPL-2.0

package packaging

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"drvpack-cli/internal/metadata"
	"drvpack-cli/internal/providers"
	"drvpack-cli/pkg/wdkmeta"
)

type (
	// Options parameterize one orchestrator invocation.
	Options struct {
		// WorkingDir is where the invocation was issued; it decides the
		// package scope.
		WorkingDir string
		// Profile, when non-empty, is passed through to every build.
		Profile Profile
		// TargetArch, when non-empty, selects the architecture explicitly.
		// Otherwise the compiler toolchain is probed per package.
		TargetArch string
		// SampleClass relaxes descriptor verification for sample drivers.
		SampleClass bool
		// VerifySignature additionally verifies signatures after signing.
		VerifySignature bool
		// BuildOnly compiles without packaging.
		BuildOnly bool
		// Signing selects certificate store, name, and timestamp authority.
		Signing SigningOptions
	}

	// Orchestrator decides which packages an invocation covers and runs
	// build and packaging for each of them, strictly in member order.
	// Packaging is intentionally sequential: certificate generation by an
	// early package satisfies the store-presence check for later ones.
	Orchestrator struct {
		metadata  metadata.Provider
		runner    providers.CommandRunner
		fs        providers.Filesystem
		buildInfo providers.BuildInfo
		logger    *log.Logger
	}
)

// NewOrchestrator wires an Orchestrator from its collaborators.
func NewOrchestrator(
	meta metadata.Provider,
	runner providers.CommandRunner,
	fs providers.Filesystem,
	buildInfo providers.BuildInfo,
	logger *log.Logger,
) *Orchestrator {
	return &Orchestrator{
		metadata:  meta,
		runner:    runner,
		fs:        fs,
		buildInfo: buildInfo,
		logger:    logger,
	}
}

// Run processes the working directory. A directory holding a manifest is
// treated as one workspace; otherwise every immediate subdirectory with a
// manifest is processed as an independent project, and a failure in one
// does not stop its siblings.
func (o *Orchestrator) Run(ctx context.Context, opts Options) error {
	dir, err := o.fs.Canonicalize(opts.WorkingDir)
	if err != nil {
		return err
	}

	if o.fs.Exists(filepath.Join(dir, metadata.ManifestFileName)) {
		return o.runWorkspace(ctx, dir, opts)
	}

	entries, err := o.fs.ReadDir(dir)
	if err != nil {
		return err
	}
	var processed, failed []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sub := filepath.Join(dir, entry.Name())
		if !o.fs.Exists(filepath.Join(sub, metadata.ManifestFileName)) {
			continue
		}
		processed = append(processed, entry.Name())
		o.logger.Info("processing project", "dir", sub)
		if err := o.runWorkspace(ctx, sub, opts); err != nil {
			o.logger.Error("project failed", "dir", sub, "error", err)
			failed = append(failed, entry.Name())
		}
	}
	if len(processed) == 0 {
		return &NoValidProjectsError{Dir: dir}
	}
	if len(failed) > 0 {
		return &PackagesFailedError{Dir: dir, Failed: failed}
	}
	return nil
}

// runWorkspace handles one workspace rooted at or containing dir. Invoked
// from the workspace root it covers every member; invoked from a member's
// own directory it covers only that member.
func (o *Orchestrator) runWorkspace(ctx context.Context, dir string, opts Options) error {
	doc, err := o.metadata.Query(ctx, dir)
	if err != nil {
		return err
	}
	root, err := o.fs.Canonicalize(doc.WorkspaceRoot)
	if err != nil {
		return err
	}
	members := doc.WorkspacePackages()

	targets, err := o.selectTargets(dir, root, members)
	if err != nil {
		return err
	}

	var cfg wdkmeta.DriverConfig
	if !opts.BuildOnly {
		cfg, err = metadata.ResolveDriverConfig(doc)
		if err != nil {
			return err
		}
	}

	var failed []string
	for _, pkg := range targets {
		if err := o.processPackage(ctx, pkg, cfg, opts); err != nil {
			o.logger.Error("package failed", "package", pkg.Name, "error", err)
			failed = append(failed, pkg.Name)
		}
	}
	if len(failed) > 0 {
		return &PackagesFailedError{Dir: dir, Failed: failed}
	}
	return nil
}

// selectTargets returns the members this invocation covers, preserving
// the metadata document's package order.
func (o *Orchestrator) selectTargets(dir, root string, members []metadata.Package) ([]metadata.Package, error) {
	if dir == root {
		return members, nil
	}
	for _, pkg := range members {
		pkgRoot, err := o.fs.Canonicalize(pkg.RootDir())
		if err != nil {
			return nil, err
		}
		if dir == pkgRoot {
			return []metadata.Package{pkg}, nil
		}
	}
	return nil, &NotWorkspaceMemberError{Dir: dir}
}

// processPackage builds one member and, unless the invocation is
// build-only or the member is a plain library, packages it. Members with
// no dynamic-library target or no driver configuration in their metadata
// are built and silently skipped.
func (o *Orchestrator) processPackage(ctx context.Context, pkg metadata.Package, cfg wdkmeta.DriverConfig, opts Options) error {
	arch, err := o.resolveArch(ctx, pkg, opts)
	if err != nil {
		return err
	}

	buildTask := NewBuildTask(o.runner, o.logger)
	stream, err := buildTask.Run(ctx, BuildOptions{
		Package:      pkg.Name,
		ManifestPath: pkg.ManifestPath,
		WorkingDir:   pkg.RootDir(),
		Profile:      opts.Profile,
		Target:       arch,
	})
	if err != nil {
		return err
	}

	if opts.BuildOnly {
		return nil
	}
	if !pkg.HasDynamicLibraryTarget() || !metadata.HasDriverConfiguration(pkg.Metadata) {
		o.logger.Debug("not a driver package, skipping packaging", "package", pkg.Name)
		return nil
	}

	artifactDir, err := ResolveArtifactDir(stream, pkg.Name)
	if err != nil {
		return err
	}

	paths := NewPackagePaths(artifactDir, pkg.RootDir(), pkg.Name, cfg)
	task, err := NewPackageTask(PackageTaskOptions{
		Paths:       paths,
		Config:      cfg,
		Arch:        arch.Arch,
		SampleClass: opts.SampleClass,
		VerifySig:   opts.VerifySignature,
		Signing:     opts.Signing,
	}, o.runner, o.fs, o.buildInfo, o.logger)
	if err != nil {
		return &PackageError{Package: pkg.Name, Err: err}
	}
	if err := task.Run(ctx); err != nil {
		return &PackageError{Package: pkg.Name, Err: err}
	}
	return nil
}

// resolveArch honours an explicit flag, otherwise probes the compiler
// toolchain in the package's own directory. A failed probe aborts the
// package. The selector "host" takes the running process's architecture
// and, like the probe, does not request cross-compilation.
func (o *Orchestrator) resolveArch(ctx context.Context, pkg metadata.Package, opts Options) (TargetArch, error) {
	if opts.TargetArch != "" {
		if strings.EqualFold(opts.TargetArch, ArchSelectorHost) {
			arch, err := HostArch()
			if err != nil {
				return TargetArch{}, err
			}
			return TargetArch{Arch: arch}, nil
		}
		arch, err := ParseArch(opts.TargetArch)
		if err != nil {
			return TargetArch{}, err
		}
		return TargetArch{Arch: arch, Explicit: true}, nil
	}
	arch, err := ProbeDefaultArch(ctx, o.runner, pkg.RootDir())
	if err != nil {
		return TargetArch{}, &ArchProbeError{Package: pkg.Name, Err: err}
	}
	return TargetArch{Arch: arch}, nil
}
