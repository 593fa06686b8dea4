// SPDX-License-Identifier: MPL-2.0

package providers

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

type (
	// Filesystem is the narrow filesystem surface the packaging pipeline
	// needs; everything it touches is externally-owned ambient state.
	Filesystem interface {
		// Exists reports whether the path refers to an existing file or directory.
		Exists(path string) bool
		// CreateDir creates a single directory (parent must exist).
		CreateDir(path string) error
		// Copy copies a regular file, truncating the destination.
		Copy(src, dest string) error
		// Rename moves a file; renaming a path onto itself is a no-op.
		Rename(src, dest string) error
		// Canonicalize resolves a path to an absolute, symlink-free form.
		Canonicalize(path string) (string, error)
		// ReadDir lists the immediate entries of a directory.
		ReadDir(path string) ([]fs.DirEntry, error)
		// ReadFile reads a whole file.
		ReadFile(path string) ([]byte, error)
		// WriteFile writes a whole file, truncating any existing content.
		WriteFile(path string, data []byte) error
		// CreateDirAll creates a directory along with missing parents.
		CreateDirAll(path string) error
	}

	// OSFilesystem is the production Filesystem backed by the os package.
	OSFilesystem struct{}
)

// NewOSFilesystem creates the production filesystem provider.
func NewOSFilesystem() *OSFilesystem { return &OSFilesystem{} }

// Exists reports whether the path refers to an existing file or directory.
func (*OSFilesystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CreateDir creates a single directory.
func (*OSFilesystem) CreateDir(path string) error {
	if err := os.Mkdir(path, 0o755); err != nil {
		return &CreateDirError{Path: path, Err: err}
	}
	return nil
}

// Copy copies a regular file, truncating the destination.
func (*OSFilesystem) Copy(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return &CopyFileError{Src: src, Dest: dest, Err: err}
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return &CopyFileError{Src: src, Dest: dest, Err: err}
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return &CopyFileError{Src: src, Dest: dest, Err: err}
	}
	if err := out.Close(); err != nil {
		return &CopyFileError{Src: src, Dest: dest, Err: err}
	}
	return nil
}

// Rename moves a file.
func (*OSFilesystem) Rename(src, dest string) error {
	if src == dest {
		return nil
	}
	if err := os.Rename(src, dest); err != nil {
		return &RenameFileError{Src: src, Dest: dest, Err: err}
	}
	return nil
}

// Canonicalize resolves a path to an absolute, symlink-free form.
func (*OSFilesystem) Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &CanonicalizeError{Path: path, Err: err}
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", &CanonicalizeError{Path: path, Err: err}
	}
	return resolved, nil
}

// ReadDir lists the immediate entries of a directory.
func (*OSFilesystem) ReadDir(path string) ([]fs.DirEntry, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, &ReadDirError{Path: path, Err: err}
	}
	return entries, nil
}

// ReadFile reads a whole file.
func (*OSFilesystem) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReadFileError{Path: path, Err: err}
	}
	return data, nil
}

// WriteFile writes a whole file, truncating any existing content.
func (*OSFilesystem) WriteFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &WriteFileError{Path: path, Err: err}
	}
	return nil
}

// CreateDirAll creates a directory along with missing parents.
func (*OSFilesystem) CreateDirAll(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return &CreateDirError{Path: path, Err: err}
	}
	return nil
}
