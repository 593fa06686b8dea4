// SPDX-License-Identifier: MPL-2.0

package packaging

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"drvpack-cli/internal/providers"
)

// Profile selects the build profile a package is compiled under.
type Profile string

const (
	// ProfileDev is the unoptimized development profile.
	ProfileDev Profile = "dev"
	// ProfileRelease is the optimized release profile.
	ProfileRelease Profile = "release"
)

// ArtifactDirName returns the directory name the build tool drops
// artifacts for this profile into.
func (p Profile) ArtifactDirName() string {
	if p == ProfileRelease {
		return "release"
	}
	return "debug"
}

type (
	// BuildOptions parameterize one package build.
	BuildOptions struct {
		// Package is the package name as written in the manifest.
		Package string
		// ManifestPath locates the workspace or package manifest.
		ManifestPath string
		// WorkingDir is the directory the build tool runs in.
		WorkingDir string
		// Profile, when non-empty, is passed through to the build tool.
		Profile Profile
		// Target selects the architecture; cross-compilation is requested
		// only when the selection was explicit.
		Target TargetArch
	}

	// BuildTask compiles one package and resolves the directory its
	// artifacts landed in from the build tool's machine-readable output.
	BuildTask struct {
		runner providers.CommandRunner
		logger *log.Logger
	}
)

// NewBuildTask returns a BuildTask running builds through runner.
func NewBuildTask(runner providers.CommandRunner, logger *log.Logger) *BuildTask {
	return &BuildTask{runner: runner, logger: logger}
}

// Run compiles the package and returns the build tool's machine-readable
// record stream. Callers that go on to package the artifact resolve its
// directory from the stream with ResolveArtifactDir; build-only callers
// ignore it.
func (t *BuildTask) Run(ctx context.Context, opts BuildOptions) ([]byte, error) {
	args := []string{"build", "--message-format=json", "-p", opts.Package}
	if opts.ManifestPath != "" {
		args = append(args, "--manifest-path", opts.ManifestPath)
	}
	if opts.Profile != "" {
		args = append(args, "--profile", string(opts.Profile))
	}
	if opts.Target.Explicit {
		args = append(args, "--target", opts.Target.Arch.Triple())
	}

	t.logger.Debug("building package", "package", opts.Package, "profile", opts.Profile)
	out, err := t.runner.Run(ctx, "cargo", args, &providers.RunOptions{Dir: opts.WorkingDir})
	if err != nil {
		return nil, &BuildCommandError{Package: opts.Package, Err: err}
	}
	return out.Stdout, nil
}

// buildRecord is the subset of a build-result record needed to locate
// artifacts.
type buildRecord struct {
	Reason string `json:"reason"`
	Target struct {
		Name string   `json:"name"`
		Kind []string `json:"kind"`
	} `json:"target"`
	Filenames []string `json:"filenames"`
}

// ResolveArtifactDir scans the newline-delimited record stream for the
// compiler-artifact record of the package's dynamic-library target and
// returns the directory of the built library.
func ResolveArtifactDir(stream []byte, pkg string) (string, error) {
	wantName := strings.ReplaceAll(pkg, "-", "_")
	matched := false

	scanner := bufio.NewScanner(bytes.NewReader(stream))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec buildRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return "", &CannotDetermineTargetDirError{Package: pkg, Cause: TargetDirParseFailure, Err: err}
		}
		if rec.Reason != "compiler-artifact" {
			continue
		}
		if strings.ReplaceAll(rec.Target.Name, "-", "_") != wantName {
			continue
		}
		if !hasDynamicLibraryKind(rec.Target.Kind) {
			continue
		}
		matched = true
		for _, f := range rec.Filenames {
			if strings.HasSuffix(f, ".dll") {
				return filepath.Dir(f), nil
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", &CannotDetermineTargetDirError{Package: pkg, Cause: TargetDirParseFailure, Err: err}
	}

	cause := TargetDirNoMatchingRecord
	if matched {
		cause = TargetDirMissingArtifact
	}
	return "", &CannotDetermineTargetDirError{Package: pkg, Cause: cause}
}

func hasDynamicLibraryKind(kinds []string) bool {
	for _, k := range kinds {
		if k == "cdylib" {
			return true
		}
	}
	return false
}
