// SPDX-License-Identifier: MPL-2.0

package packaging

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drvpack-cli/internal/providers"
)

func TestBuildTaskRun(t *testing.T) {
	t.Parallel()

	t.Run("constructs the build invocation", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{}
		task := NewBuildTask(runner, testLogger())

		_, err := task.Run(context.Background(), BuildOptions{
			Package:      "sample-driver",
			ManifestPath: filepath.Join("ws", "Cargo.toml"),
			WorkingDir:   filepath.Join("ws", "sample-driver"),
			Profile:      ProfileRelease,
			Target:       TargetArch{Arch: ArchARM64, Explicit: true},
		})
		require.NoError(t, err)

		require.Len(t, runner.calls, 1)
		call := runner.calls[0]
		assert.Equal(t, "cargo", call.command)
		assert.Equal(t, []string{
			"build", "--message-format=json", "-p", "sample-driver",
			"--manifest-path", filepath.Join("ws", "Cargo.toml"),
			"--profile", "release",
			"--target", "aarch64-pc-windows-msvc",
		}, call.args)
		assert.Equal(t, filepath.Join("ws", "sample-driver"), call.dir)
	})

	t.Run("omits profile and target unless requested", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{}
		task := NewBuildTask(runner, testLogger())

		_, err := task.Run(context.Background(), BuildOptions{
			Package: "sample-driver",
			// Host-detected architectures do not cross-compile.
			Target: TargetArch{Arch: ArchAMD64},
		})
		require.NoError(t, err)

		require.Len(t, runner.calls, 1)
		assert.Equal(t, []string{"build", "--message-format=json", "-p", "sample-driver"}, runner.calls[0].args)
	})

	t.Run("wraps a failed build", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{errs: map[string]error{"cargo": errors.New("compile error")}}
		task := NewBuildTask(runner, testLogger())

		_, err := task.Run(context.Background(), BuildOptions{Package: "sample-driver"})

		var buildErr *BuildCommandError
		require.ErrorAs(t, err, &buildErr)
		assert.Equal(t, "sample-driver", buildErr.Package)
	})
}

func TestResolveArtifactDir(t *testing.T) {
	t.Parallel()

	dll := filepath.Join("ws", "target", "debug", "sample_driver.dll")
	stream := []byte(`{"reason":"compiler-message","message":{}}
{"reason":"compiler-artifact","target":{"name":"dep_crate","kind":["lib"]},"filenames":["` + escapeForJSON(filepath.Join("ws", "target", "debug", "libdep.rlib")) + `"]}
{"reason":"compiler-artifact","target":{"name":"sample_driver","kind":["cdylib"]},"filenames":["` + escapeForJSON(dll) + `"]}
{"reason":"build-finished","success":true}
`)

	t.Run("finds the dynamic-library artifact", func(t *testing.T) {
		t.Parallel()

		dir, err := ResolveArtifactDir(stream, "sample-driver")
		require.NoError(t, err)
		assert.Equal(t, filepath.Dir(dll), dir)
	})

	t.Run("unparsable stream", func(t *testing.T) {
		t.Parallel()

		_, err := ResolveArtifactDir([]byte("not json\n"), "sample-driver")

		var dirErr *CannotDetermineTargetDirError
		require.ErrorAs(t, err, &dirErr)
		assert.Equal(t, TargetDirParseFailure, dirErr.Cause)
		require.ErrorIs(t, err, ErrCannotDetermineTargetDir)
	})

	t.Run("no matching record", func(t *testing.T) {
		t.Parallel()

		_, err := ResolveArtifactDir(stream, "other-driver")

		var dirErr *CannotDetermineTargetDirError
		require.ErrorAs(t, err, &dirErr)
		assert.Equal(t, TargetDirNoMatchingRecord, dirErr.Cause)
	})

	t.Run("matching record without a library file", func(t *testing.T) {
		t.Parallel()

		noDLL := []byte(`{"reason":"compiler-artifact","target":{"name":"sample_driver","kind":["cdylib"]},"filenames":["sample_driver.pdb"]}
`)
		_, err := ResolveArtifactDir(noDLL, "sample-driver")

		var dirErr *CannotDetermineTargetDirError
		require.ErrorAs(t, err, &dirErr)
		assert.Equal(t, TargetDirMissingArtifact, dirErr.Cause)
	})
}

// escapeForJSON doubles backslashes so Windows-style paths survive being
// spliced into JSON literals.
func escapeForJSON(path string) string {
	out := make([]byte, 0, len(path))
	for i := 0; i < len(path); i++ {
		if path[i] == '\\' {
			out = append(out, '\\')
		}
		out = append(out, path[i])
	}
	return string(out)
}
