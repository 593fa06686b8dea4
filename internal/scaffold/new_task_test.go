// SPDX-License-Identifier: MPL-2.0

package scaffold

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drvpack-cli/internal/providers"
	"drvpack-cli/pkg/wdkmeta"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

type recordedCall struct {
	command string
	args    []string
	dir     string
}

type fakeRunner struct {
	calls []recordedCall
	err   error
}

func (r *fakeRunner) Run(_ context.Context, command string, args []string, opts *providers.RunOptions) (providers.Output, error) {
	call := recordedCall{command: command, args: args}
	if opts != nil {
		call.dir = opts.Dir
	}
	r.calls = append(r.calls, call)
	return providers.Output{}, r.err
}

// memFS keeps file contents in memory; only the surface scaffolding
// touches is implemented.
type memFS struct {
	files map[string][]byte
	dirs  []string
}

func newMemFS() *memFS { return &memFS{files: map[string][]byte{}} }

func (f *memFS) Exists(path string) bool                  { _, ok := f.files[path]; return ok }
func (f *memFS) CreateDir(path string) error              { f.dirs = append(f.dirs, path); return nil }
func (f *memFS) Copy(src, dest string) error              { f.files[dest] = f.files[src]; return nil }
func (f *memFS) Rename(src, dest string) error            { return nil }
func (f *memFS) Canonicalize(path string) (string, error) { return path, nil }
func (f *memFS) ReadDir(path string) ([]fs.DirEntry, error) {
	return nil, nil
}

func (f *memFS) ReadFile(path string) ([]byte, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, &providers.ReadFileError{Path: path, Err: fs.ErrNotExist}
	}
	return data, nil
}

func (f *memFS) WriteFile(path string, data []byte) error {
	f.files[path] = data
	return nil
}

func (f *memFS) CreateDirAll(path string) error {
	f.dirs = append(f.dirs, path)
	return nil
}

const generatedManifest = `[package]
name = "my-driver"
version = "0.1.0"
edition = "2021"

[dependencies]
`

func scaffoldProject(t *testing.T, driverType wdkmeta.DriverType) (*fakeRunner, *memFS, string) {
	t.Helper()

	runner := &fakeRunner{}
	mem := newMemFS()
	projectDir := filepath.Join("/work", "my-driver")
	mem.files[filepath.Join(projectDir, "Cargo.toml")] = []byte(generatedManifest)

	task := NewTask(runner, mem, testLogger())
	err := task.Run(context.Background(), Options{
		Name:       "my-driver",
		Cwd:        "/work",
		DriverType: driverType,
	})
	require.NoError(t, err)
	return runner, mem, projectDir
}

func TestNewTaskRun(t *testing.T) {
	t.Parallel()

	t.Run("kernel driver project", func(t *testing.T) {
		t.Parallel()

		runner, mem, projectDir := scaffoldProject(t, wdkmeta.DriverTypeKmdf)

		require.Len(t, runner.calls, 1)
		assert.Equal(t, "cargo", runner.calls[0].command)
		assert.Equal(t, []string{"new", "--lib", "my-driver", "--vcs", "none"}, runner.calls[0].args)
		assert.Equal(t, "/work", runner.calls[0].dir)

		libRS := string(mem.files[filepath.Join(projectDir, "src", "lib.rs")])
		assert.Contains(t, libRS, "WdfDriverCreate")
		assert.Contains(t, libRS, "my_driver")

		inx := string(mem.files[filepath.Join(projectDir, "my_driver.inx")])
		assert.Contains(t, inx, "CatalogFile=my_driver.cat")
		assert.Contains(t, inx, "KmdfService = my_driver")
		assert.NotContains(t, inx, "{{")

		assert.Contains(t, string(mem.files[filepath.Join(projectDir, "build.rs")]), "wdk_build::Config")
		assert.Contains(t, string(mem.files[filepath.Join(projectDir, ".cargo", "config.toml")]), "crt-static")
	})

	t.Run("manifest rewrite", func(t *testing.T) {
		t.Parallel()

		_, mem, projectDir := scaffoldProject(t, wdkmeta.DriverTypeKmdf)

		var manifest map[string]any
		require.NoError(t, toml.Unmarshal(mem.files[filepath.Join(projectDir, "Cargo.toml")], &manifest))

		pkg := manifest["package"].(map[string]any)
		assert.Equal(t, "my-driver", pkg["name"])

		model := pkg["metadata"].(map[string]any)["wdk"].(map[string]any)["driver-model"].(map[string]any)
		assert.Equal(t, "KMDF", model["driver-type"])
		assert.EqualValues(t, 1, model["kmdf-version-major"])
		assert.EqualValues(t, 33, model["target-kmdf-version-minor"])

		lib := manifest["lib"].(map[string]any)
		assert.Equal(t, []any{"cdylib"}, lib["crate-type"])

		deps := manifest["dependencies"].(map[string]any)
		assert.Contains(t, deps, "wdk")
		assert.Contains(t, deps, "wdk-alloc")

		profiles := manifest["profile"].(map[string]any)
		for _, name := range []string{"dev", "release"} {
			assert.Equal(t, "abort", profiles[name].(map[string]any)["panic"])
		}
	})

	t.Run("user-mode driver skips kernel-only pieces", func(t *testing.T) {
		t.Parallel()

		_, mem, projectDir := scaffoldProject(t, wdkmeta.DriverTypeUmdf)

		_, hasConfig := mem.files[filepath.Join(projectDir, ".cargo", "config.toml")]
		assert.False(t, hasConfig)

		var manifest map[string]any
		require.NoError(t, toml.Unmarshal(mem.files[filepath.Join(projectDir, "Cargo.toml")], &manifest))
		deps := manifest["dependencies"].(map[string]any)
		assert.NotContains(t, deps, "wdk-alloc")
		assert.NotContains(t, deps, "wdk-panic")

		libRS := string(mem.files[filepath.Join(projectDir, "src", "lib.rs")])
		assert.False(t, strings.Contains(libRS, "no_std"))
	})

	t.Run("failed crate generation", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{err: errors.New("cargo not found")}
		task := NewTask(runner, newMemFS(), testLogger())

		err := task.Run(context.Background(), Options{Name: "x", Cwd: "/work", DriverType: wdkmeta.DriverTypeWdm})

		var initErr *CrateInitError
		require.ErrorAs(t, err, &initErr)
		assert.Equal(t, "x", initErr.Name)
	})

	t.Run("reserved Windows name is rejected", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{}
		task := NewTask(runner, newMemFS(), testLogger())

		err := task.Run(context.Background(), Options{Name: "con", Cwd: "/work", DriverType: wdkmeta.DriverTypeKmdf})

		require.ErrorIs(t, err, ErrReservedName)
		assert.Empty(t, runner.calls, "no generator call for an invalid name")
	})
}
