// SPDX-License-Identifier: MPL-2.0

package packaging

import (
	"errors"
	"fmt"
)

var (
	// ErrNoValidProjects is the sentinel wrapped by NoValidProjectsError.
	ErrNoValidProjects = errors.New("no valid projects found")

	// ErrNotWorkspaceMember is the sentinel wrapped by NotWorkspaceMemberError.
	ErrNotWorkspaceMember = errors.New("not a workspace member")

	// ErrPackagesFailed is the sentinel wrapped by PackagesFailedError.
	ErrPackagesFailed = errors.New("one or more packages failed")

	// ErrCannotDetermineTargetDir is the sentinel wrapped by
	// CannotDetermineTargetDirError.
	ErrCannotDetermineTargetDir = errors.New("cannot determine target directory")

	// ErrNonTextualOutput marks tool output that is not valid UTF-8 and
	// therefore cannot be inspected.
	ErrNonTextualOutput = errors.New("tool output is not valid UTF-8")
)

// TargetDirCause distinguishes the ways artifact resolution can fail.
type TargetDirCause int

const (
	// TargetDirParseFailure means the build-result record stream could not
	// be parsed at all.
	TargetDirParseFailure TargetDirCause = iota + 1
	// TargetDirNoMatchingRecord means no build-result record matched the
	// target package with a dynamic-library kind.
	TargetDirNoMatchingRecord
	// TargetDirMissingArtifact means a record matched but listed no file
	// with the expected dynamic-library extension.
	TargetDirMissingArtifact
)

type (
	// NoValidProjectsError is returned when a directory contains neither a
	// manifest nor any subdirectory with one.
	NoValidProjectsError struct {
		Dir string
	}

	// NotWorkspaceMemberError is returned when the working directory sits
	// inside a workspace but matches no member package root.
	NotWorkspaceMemberError struct {
		Dir string
	}

	// PackagesFailedError aggregates per-package failures after every
	// package has been attempted.
	PackagesFailedError struct {
		Dir    string
		Failed []string
	}

	// BuildCommandError wraps a failed compiler/build-tool invocation.
	BuildCommandError struct {
		Package string
		Err     error
	}

	// ArchProbeError wraps a failed toolchain architecture probe.
	ArchProbeError struct {
		Package string
		Err     error
	}

	// CannotDetermineTargetDirError is returned when the build-result record
	// stream does not yield an artifact directory for the target package.
	CannotDetermineTargetDirError struct {
		Package string
		Cause   TargetDirCause
		Err     error
	}

	// PackageError wraps the failure of a single package's packaging
	// pipeline, naming the package for workspace-level diagnostics.
	PackageError struct {
		Package string
		Err     error
	}

	// MissingSourceDescriptorError is returned when the install-descriptor
	// template is absent before any pipeline step has run.
	MissingSourceDescriptorError struct {
		Path string
	}

	// StampingError wraps a failed install-descriptor stamping invocation.
	StampingError struct {
		Err error
	}

	// CatalogGenerationError wraps a failed catalog-generation invocation.
	CatalogGenerationError struct {
		Err error
	}

	// CertStoreListError wraps a failed certificate-store listing invocation.
	CertStoreListError struct {
		Err error
	}

	// CertStoreOutputError is returned when the store-listing tool succeeded
	// but produced output that could not be interpreted. It is deliberately
	// distinct from CertStoreListError.
	CertStoreOutputError struct {
		Err error
	}

	// CertExportError wraps a failed certificate export from the store.
	CertExportError struct {
		Err error
	}

	// CertGenerationError wraps a failed self-signed certificate generation.
	CertGenerationError struct {
		Err error
	}

	// SigningError wraps a failed signing invocation for one file.
	SigningError struct {
		File string
		Err  error
	}

	// SignatureVerificationError wraps a failed signature verification for
	// one file.
	SignatureVerificationError struct {
		File string
		Err  error
	}

	// InfVerificationError wraps a failed install-descriptor verification.
	InfVerificationError struct {
		Err error
	}
)

// Error implements the error interface.
func (e *NoValidProjectsError) Error() string {
	return fmt.Sprintf("no valid projects found in directory %s", e.Dir)
}

// Unwrap returns the sentinel ErrNoValidProjects.
func (e *NoValidProjectsError) Unwrap() error { return ErrNoValidProjects }

// Error implements the error interface.
func (e *NotWorkspaceMemberError) Error() string {
	return fmt.Sprintf("%s is not a member of the workspace", e.Dir)
}

// Unwrap returns the sentinel ErrNotWorkspaceMember.
func (e *NotWorkspaceMemberError) Unwrap() error { return ErrNotWorkspaceMember }

// Error implements the error interface.
func (e *PackagesFailedError) Error() string {
	return fmt.Sprintf("one or more packages failed in %s: %v", e.Dir, e.Failed)
}

// Unwrap returns the sentinel ErrPackagesFailed.
func (e *PackagesFailedError) Unwrap() error { return ErrPackagesFailed }

// Error implements the error interface.
func (e *BuildCommandError) Error() string {
	return fmt.Sprintf("build failed for package %s: %v", e.Package, e.Err)
}

// Unwrap returns the underlying cause.
func (e *BuildCommandError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *ArchProbeError) Error() string {
	return fmt.Sprintf("failed to probe target architecture for package %s: %v", e.Package, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ArchProbeError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *CannotDetermineTargetDirError) Error() string {
	var reason string
	switch e.Cause {
	case TargetDirParseFailure:
		reason = "the build-result record stream could not be parsed"
	case TargetDirNoMatchingRecord:
		reason = "no build-result record matched a dynamic-library target for the package"
	case TargetDirMissingArtifact:
		reason = "the matching build-result record lists no dynamic-library artifact"
	default:
		reason = "unknown cause"
	}
	msg := fmt.Sprintf("cannot determine target directory for package %s: %s", e.Package, reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the sentinel joined with any underlying parse error.
func (e *CannotDetermineTargetDirError) Unwrap() error {
	if e.Err != nil {
		return errors.Join(ErrCannotDetermineTargetDir, e.Err)
	}
	return ErrCannotDetermineTargetDir
}

// Error implements the error interface.
func (e *PackageError) Error() string {
	return fmt.Sprintf("failed to package driver %s: %v", e.Package, e.Err)
}

// Unwrap returns the underlying step error.
func (e *PackageError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *MissingSourceDescriptorError) Error() string {
	return fmt.Sprintf("missing install-descriptor source file: %s", e.Path)
}

// Error implements the error interface.
func (e *StampingError) Error() string {
	return fmt.Sprintf("failed to stamp install descriptor: %v", e.Err)
}

// Unwrap returns the underlying tool error.
func (e *StampingError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *CatalogGenerationError) Error() string {
	return fmt.Sprintf("failed to generate catalog: %v", e.Err)
}

// Unwrap returns the underlying tool error.
func (e *CatalogGenerationError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *CertStoreListError) Error() string {
	return fmt.Sprintf("failed to list certificate store: %v", e.Err)
}

// Unwrap returns the underlying tool error.
func (e *CertStoreListError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *CertStoreOutputError) Error() string {
	return fmt.Sprintf("certificate-store listing produced unreadable output: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *CertStoreOutputError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *CertExportError) Error() string {
	return fmt.Sprintf("failed to export certificate from store: %v", e.Err)
}

// Unwrap returns the underlying tool error.
func (e *CertExportError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *CertGenerationError) Error() string {
	return fmt.Sprintf("failed to generate self-signed certificate in store: %v", e.Err)
}

// Unwrap returns the underlying tool error.
func (e *CertGenerationError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *SigningError) Error() string {
	return fmt.Sprintf("failed to sign %s: %v", e.File, e.Err)
}

// Unwrap returns the underlying tool error.
func (e *SigningError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *SignatureVerificationError) Error() string {
	return fmt.Sprintf("failed to verify signature of %s: %v", e.File, e.Err)
}

// Unwrap returns the underlying tool error.
func (e *SignatureVerificationError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *InfVerificationError) Error() string {
	return fmt.Sprintf("failed to verify install descriptor: %v", e.Err)
}

// Unwrap returns the underlying tool error.
func (e *InfVerificationError) Unwrap() error { return e.Err }
