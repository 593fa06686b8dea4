// SPDX-License-Identifier: MPL-2.0

package scaffold

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"

	"drvpack-cli/internal/providers"
	"drvpack-cli/pkg/platform"
	"drvpack-cli/pkg/wdkmeta"
)

// ErrReservedName rejects project names that collide with Windows device
// names, which cannot exist as files or directories.
var ErrReservedName = errors.New("project name is a reserved Windows device name")

//go:embed templates
var templatesFS embed.FS

type (
	// Options parameterize one scaffolding run.
	Options struct {
		// Name is the project directory name; dashes are normalized to
		// underscores for crate-level file names.
		Name string
		// Cwd is the directory the project is created under.
		Cwd string
		// DriverType selects the driver model to scaffold for.
		DriverType wdkmeta.DriverType
	}

	// Task creates a new driver crate from the embedded templates.
	Task struct {
		runner providers.CommandRunner
		fs     providers.Filesystem
		logger *log.Logger
	}

	// CrateInitError wraps a failed project-generator invocation.
	CrateInitError struct {
		Name string
		Err  error
	}

	// ManifestUpdateError wraps a failed manifest rewrite.
	ManifestUpdateError struct {
		Path string
		Err  error
	}

	// TemplateError wraps a template that could not be loaded or rendered.
	TemplateError struct {
		Name string
		Err  error
	}
)

// Error implements the error interface.
func (e *CrateInitError) Error() string {
	return fmt.Sprintf("failed to create crate %s: %v", e.Name, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CrateInitError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *ManifestUpdateError) Error() string {
	return fmt.Sprintf("failed to update manifest %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ManifestUpdateError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *TemplateError) Error() string {
	return fmt.Sprintf("template %s: %v", e.Name, e.Err)
}

// Unwrap returns the underlying cause.
func (e *TemplateError) Unwrap() error { return e.Err }

// NewTask wires a scaffolding Task from its collaborators.
func NewTask(runner providers.CommandRunner, fs providers.Filesystem, logger *log.Logger) *Task {
	return &Task{runner: runner, fs: fs, logger: logger}
}

// Run creates the crate. The project generator lays down the plain
// library skeleton; everything driver-specific is written on top of it:
// the entry-point source, the manifest additions, the install-descriptor
// template, the build script, and (for kernel-mode models) the static-CRT
// build configuration.
func (t *Task) Run(ctx context.Context, opts Options) error {
	if platform.IsWindowsReservedName(opts.Name) {
		return &CrateInitError{Name: opts.Name, Err: ErrReservedName}
	}

	projectDir := filepath.Join(opts.Cwd, opts.Name)
	base := strings.ReplaceAll(opts.Name, "-", "_")
	model := strings.ToLower(string(opts.DriverType))

	t.logger.Debug("creating crate", "name", opts.Name, "model", model)
	args := []string{"new", "--lib", opts.Name, "--vcs", "none"}
	if _, err := t.runner.Run(ctx, "cargo", args, &providers.RunOptions{Dir: opts.Cwd}); err != nil {
		return &CrateInitError{Name: opts.Name, Err: err}
	}

	if err := t.renderTo(model+"/lib.rs.tmpl", base, filepath.Join(projectDir, "src", "lib.rs")); err != nil {
		return err
	}
	if err := t.updateManifest(filepath.Join(projectDir, "Cargo.toml"), opts.DriverType); err != nil {
		return err
	}
	if err := t.renderTo(model+"/descriptor.inx.tmpl", base, filepath.Join(projectDir, base+".inx")); err != nil {
		return err
	}
	if err := t.renderTo("build.rs.tmpl", base, filepath.Join(projectDir, "build.rs")); err != nil {
		return err
	}

	cfg := wdkmeta.DriverConfig{DriverType: opts.DriverType}
	if cfg.IsKernelMode() {
		cargoDir := filepath.Join(projectDir, ".cargo")
		if err := t.fs.CreateDirAll(cargoDir); err != nil {
			return err
		}
		if err := t.renderTo("config.toml.tmpl", base, filepath.Join(cargoDir, "config.toml")); err != nil {
			return err
		}
	}

	t.logger.Info("new driver project created", "name", base, "dir", projectDir)
	return nil
}

// renderTo renders one embedded template with the crate name substituted
// and writes the result.
func (t *Task) renderTo(name, driverName, dest string) error {
	raw, err := templatesFS.ReadFile("templates/" + name)
	if err != nil {
		return &TemplateError{Name: name, Err: err}
	}
	tmpl, err := template.New(name).Parse(string(raw))
	if err != nil {
		return &TemplateError{Name: name, Err: err}
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct{ DriverName string }{DriverName: driverName}); err != nil {
		return &TemplateError{Name: name, Err: err}
	}
	return t.fs.WriteFile(dest, buf.Bytes())
}

// wdkCrateVersion pins the driver-framework crates the scaffolded
// manifest depends on.
const wdkCrateVersion = "0.3.1"

// updateManifest rewrites the generated manifest: the crate becomes a
// cdylib, gains the driver-model metadata the packaging pipeline resolves
// later, the framework dependencies, and abort-on-panic profiles.
func (t *Task) updateManifest(path string, driverType wdkmeta.DriverType) error {
	raw, err := t.fs.ReadFile(path)
	if err != nil {
		return err
	}
	var manifest map[string]any
	if err := toml.Unmarshal(raw, &manifest); err != nil {
		return &ManifestUpdateError{Path: path, Err: err}
	}

	pkg, ok := manifest["package"].(map[string]any)
	if !ok {
		return &ManifestUpdateError{Path: path, Err: fmt.Errorf("manifest has no package table")}
	}
	pkg["metadata"] = map[string]any{"wdk": map[string]any{"driver-model": driverModelTable(driverType)}}

	manifest["lib"] = map[string]any{"crate-type": []string{"cdylib"}}
	manifest["build-dependencies"] = map[string]any{"wdk-build": wdkCrateVersion}

	deps := map[string]any{
		"wdk":     wdkCrateVersion,
		"wdk-sys": wdkCrateVersion,
	}
	if (wdkmeta.DriverConfig{DriverType: driverType}).IsKernelMode() {
		deps["wdk-alloc"] = wdkCrateVersion
		deps["wdk-panic"] = wdkCrateVersion
	}
	manifest["dependencies"] = deps

	abort := map[string]any{"panic": "abort", "lto": true}
	manifest["profile"] = map[string]any{"dev": abort, "release": abort}

	out, err := toml.Marshal(manifest)
	if err != nil {
		return &ManifestUpdateError{Path: path, Err: err}
	}
	return t.fs.WriteFile(path, out)
}

// driverModelTable builds the metadata table the configuration resolver
// reads back when the scaffolded crate is packaged.
func driverModelTable(driverType wdkmeta.DriverType) map[string]any {
	table := map[string]any{"driver-type": string(driverType)}
	switch driverType {
	case wdkmeta.DriverTypeKmdf:
		table["kmdf-version-major"] = 1
		table["target-kmdf-version-minor"] = 33
	case wdkmeta.DriverTypeUmdf:
		table["umdf-version-major"] = 2
		table["target-umdf-version-minor"] = 33
	}
	return table
}
