// SPDX-License-Identifier: MPL-2.0

package packaging

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"drvpack-cli/internal/providers"
)

// Arch is a CPU architecture a driver package can target.
type Arch string

const (
	// ArchAMD64 targets 64-bit x86 hosts.
	ArchAMD64 Arch = "amd64"
	// ArchARM64 targets 64-bit ARM hosts.
	ArchARM64 Arch = "arm64"

	// ArchSelectorHost selects the running process's architecture instead
	// of naming one. It is a selector, not an Arch: ParseArch rejects it.
	ArchSelectorHost = "host"
)

var (
	// ErrUnsupportedArch is returned for architecture names outside the
	// supported set.
	ErrUnsupportedArch = errors.New("unsupported target architecture")

	// ErrArchUndetectable is returned when the toolchain probe output does
	// not reveal the host architecture.
	ErrArchUndetectable = errors.New("cannot detect host architecture from toolchain")
)

// UnsupportedArchError reports an architecture name that could not be
// mapped to a supported Arch.
type UnsupportedArchError struct {
	Name string
}

// Error implements the error interface.
func (e *UnsupportedArchError) Error() string {
	return fmt.Sprintf("unsupported target architecture %q (expected amd64 or arm64)", e.Name)
}

// Unwrap returns the sentinel ErrUnsupportedArch.
func (e *UnsupportedArchError) Unwrap() error { return ErrUnsupportedArch }

// ParseArch maps a user- or toolchain-supplied architecture name to an
// Arch. Common aliases for each architecture are accepted.
func ParseArch(name string) (Arch, error) {
	switch strings.ToLower(name) {
	case "amd64", "x64", "x86_64":
		return ArchAMD64, nil
	case "arm64", "aarch64":
		return ArchARM64, nil
	default:
		return "", &UnsupportedArchError{Name: name}
	}
}

// Triple returns the compiler target triple for the architecture.
func (a Arch) Triple() string {
	switch a {
	case ArchARM64:
		return "aarch64-pc-windows-msvc"
	default:
		return "x86_64-pc-windows-msvc"
	}
}

// OSToken returns the catalog-generation operating-system token for the
// architecture.
func (a Arch) OSToken() string {
	switch a {
	case ArchARM64:
		return "Server10_arm64"
	default:
		return "10_x64"
	}
}

// StampToken returns the architecture token consumed by the
// install-descriptor stamping tool.
func (a Arch) StampToken() string {
	switch a {
	case ArchARM64:
		return "arm64"
	default:
		return "amd64"
	}
}

// TargetArch couples an architecture with how it was selected. Explicitly
// selected architectures additionally direct the build to cross-compile,
// which changes where artifacts land.
type TargetArch struct {
	Arch     Arch
	Explicit bool
}

// HostArch reports the architecture of the running process, as a fallback
// when the toolchain probe is unavailable.
func HostArch() (Arch, error) {
	return ParseArch(runtime.GOARCH)
}

// ProbeDefaultArch asks the compiler for its default configuration and
// extracts the architecture it would build for. The probe runs `rustc
// --print cfg` in dir and scans for the target_arch entry.
func ProbeDefaultArch(ctx context.Context, runner providers.CommandRunner, dir string) (Arch, error) {
	out, err := runner.Run(ctx, "rustc", []string{"--print", "cfg"}, &providers.RunOptions{Dir: dir})
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(out.Stdout), "\n") {
		line = strings.TrimSpace(line)
		value, ok := strings.CutPrefix(line, `target_arch="`)
		if !ok {
			continue
		}
		value, ok = strings.CutSuffix(value, `"`)
		if !ok {
			continue
		}
		return ParseArch(value)
	}
	return "", ErrArchUndetectable
}
