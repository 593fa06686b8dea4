// SPDX-License-Identifier: MPL-2.0

package providers

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCommandFailed is the sentinel error wrapped by CommandFailedError.
	ErrCommandFailed = errors.New("command exited with a non-zero status")

	// ErrCommandStart is the sentinel error wrapped by CommandStartError.
	ErrCommandStart = errors.New("command could not be started")
)

type (
	// CommandFailedError reports a command that ran to completion but exited
	// with a non-zero status. The captured output is carried so callers can
	// surface tool diagnostics without re-running anything.
	CommandFailedError struct {
		Command string
		Args    []string
		Status  int
		Stdout  string
		Stderr  string
	}

	// CommandStartError reports a command that could not be launched at all
	// (missing binary, permission failure). This is a structural failure,
	// distinct from a tool reporting an error through its exit status.
	CommandStartError struct {
		Command string
		Args    []string
		Err     error
	}

	// CopyFileError reports a failed file copy, carrying both endpoints.
	CopyFileError struct {
		Src  string
		Dest string
		Err  error
	}

	// RenameFileError reports a failed rename, carrying both endpoints.
	RenameFileError struct {
		Src  string
		Dest string
		Err  error
	}

	// CreateDirError reports a failed directory creation.
	CreateDirError struct {
		Path string
		Err  error
	}

	// CanonicalizeError reports a path that could not be canonicalized.
	CanonicalizeError struct {
		Path string
		Err  error
	}

	// ReadDirError reports a directory whose entries could not be listed.
	ReadDirError struct {
		Path string
		Err  error
	}

	// ReadFileError reports a file that could not be read.
	ReadFileError struct {
		Path string
		Err  error
	}

	// WriteFileError reports a file that could not be written.
	WriteFileError struct {
		Path string
		Err  error
	}
)

// Error implements the error interface.
func (e *CommandFailedError) Error() string {
	return fmt.Sprintf("command %q with args %v exited with status %d\nSTDOUT: %s\nSTDERR: %s",
		e.Command, e.Args, e.Status, strings.TrimSpace(e.Stdout), strings.TrimSpace(e.Stderr))
}

// Unwrap returns the sentinel ErrCommandFailed.
func (e *CommandFailedError) Unwrap() error { return ErrCommandFailed }

// Error implements the error interface.
func (e *CommandStartError) Error() string {
	return fmt.Sprintf("failed to start command %q with args %v: %v", e.Command, e.Args, e.Err)
}

// Unwrap returns the underlying launch error joined with ErrCommandStart.
func (e *CommandStartError) Unwrap() error {
	return errors.Join(ErrCommandStart, e.Err)
}

// Error implements the error interface.
func (e *CopyFileError) Error() string {
	return fmt.Sprintf("failed to copy file from %s to %s: %v", e.Src, e.Dest, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CopyFileError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *RenameFileError) Error() string {
	return fmt.Sprintf("failed to rename file from %s to %s: %v", e.Src, e.Dest, e.Err)
}

// Unwrap returns the underlying cause.
func (e *RenameFileError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *CreateDirError) Error() string {
	return fmt.Sprintf("failed to create directory %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CreateDirError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *CanonicalizeError) Error() string {
	return fmt.Sprintf("failed to canonicalize path %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CanonicalizeError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *ReadDirError) Error() string {
	return fmt.Sprintf("failed to read directory %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ReadDirError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *ReadFileError) Error() string {
	return fmt.Sprintf("failed to read file %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ReadFileError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *WriteFileError) Error() string {
	return fmt.Sprintf("failed to write file %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *WriteFileError) Unwrap() error { return e.Err }
