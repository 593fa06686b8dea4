// SPDX-License-Identifier: MPL-2.0

package packaging

import (
	"context"
	"io"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"drvpack-cli/internal/providers"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

type recordedCall struct {
	command string
	args    []string
	dir     string
}

// fakeRunner records every invocation and answers from a per-command
// script, or from a handler when one is set.
type fakeRunner struct {
	calls   []recordedCall
	handler func(recordedCall) (providers.Output, error)
	results map[string]providers.Output
	errs    map[string]error
}

func (r *fakeRunner) Run(_ context.Context, command string, args []string, opts *providers.RunOptions) (providers.Output, error) {
	call := recordedCall{command: command, args: args}
	if opts != nil {
		call.dir = opts.Dir
	}
	r.calls = append(r.calls, call)
	if r.handler != nil {
		return r.handler(call)
	}
	if err, ok := r.errs[command]; ok {
		return providers.Output{}, err
	}
	return r.results[command], nil
}

func (r *fakeRunner) callsTo(command string) []recordedCall {
	var out []recordedCall
	for _, c := range r.calls {
		if c.command == command {
			out = append(out, c)
		}
	}
	return out
}

type copyRecord struct{ src, dest string }

// fakeFS simulates the filesystem surface with an in-memory path set.
type fakeFS struct {
	existing map[string]bool
	entries  map[string][]fs.DirEntry

	created []string
	copies  []copyRecord
	renames []copyRecord

	copyErr   error
	renameErr error
	createErr error
}

func newFakeFS(paths ...string) *fakeFS {
	f := &fakeFS{existing: map[string]bool{}}
	for _, p := range paths {
		f.existing[p] = true
	}
	return f
}

func (f *fakeFS) Exists(path string) bool { return f.existing[path] }

func (f *fakeFS) CreateDir(path string) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, path)
	f.existing[path] = true
	return nil
}

func (f *fakeFS) Copy(src, dest string) error {
	if f.copyErr != nil {
		return f.copyErr
	}
	f.copies = append(f.copies, copyRecord{src: src, dest: dest})
	f.existing[dest] = true
	return nil
}

func (f *fakeFS) Rename(src, dest string) error {
	if src == dest {
		return nil
	}
	if f.renameErr != nil {
		return f.renameErr
	}
	f.renames = append(f.renames, copyRecord{src: src, dest: dest})
	delete(f.existing, src)
	f.existing[dest] = true
	return nil
}

func (f *fakeFS) Canonicalize(path string) (string, error) { return path, nil }

func (f *fakeFS) ReadFile(path string) ([]byte, error) { return nil, nil }

func (f *fakeFS) WriteFile(path string, data []byte) error {
	f.existing[path] = true
	return nil
}

func (f *fakeFS) CreateDirAll(path string) error {
	f.existing[path] = true
	return nil
}

func (f *fakeFS) ReadDir(path string) ([]fs.DirEntry, error) {
	entries := f.entries[path]
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

// addDir registers path as a directory entry of its parent for ReadDir.
func (f *fakeFS) addDir(parent, name string) {
	if f.entries == nil {
		f.entries = map[string][]fs.DirEntry{}
	}
	f.entries[parent] = append(f.entries[parent], fakeDirEntry{name: name, dir: true})
}

type fakeDirEntry struct {
	name string
	dir  bool
}

func (e fakeDirEntry) Name() string               { return e.name }
func (e fakeDirEntry) IsDir() bool                { return e.dir }
func (e fakeDirEntry) Type() fs.FileMode          { return fs.ModeDir }
func (e fakeDirEntry) Info() (fs.FileInfo, error) { return fakeFileInfo{e}, nil }

type fakeFileInfo struct{ e fakeDirEntry }

func (i fakeFileInfo) Name() string       { return i.e.name }
func (i fakeFileInfo) Size() int64        { return 0 }
func (i fakeFileInfo) Mode() fs.FileMode  { return fs.ModeDir }
func (i fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (i fakeFileInfo) IsDir() bool        { return i.e.dir }
func (i fakeFileInfo) Sys() any           { return nil }

// fakeBuildInfo answers toolkit build-number queries with a fixed value.
type fakeBuildInfo struct {
	build int
	err   error

	queries int
}

func (b *fakeBuildInfo) BuildNumber() (int, error) {
	b.queries++
	return b.build, b.err
}

// hasFlag reports whether args contains the exact flag value.
func hasFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}

// argsJoined makes assertion failure output readable.
func argsJoined(c recordedCall) string {
	return c.command + " " + strings.Join(c.args, " ")
}
