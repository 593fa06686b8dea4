// SPDX-License-Identifier: MPL-2.0

package wdkmeta

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	// DriverTypeWdm targets the native Windows Driver Model.
	DriverTypeWdm DriverType = "WDM"
	// DriverTypeKmdf targets the Kernel-Mode Driver Framework.
	DriverTypeKmdf DriverType = "KMDF"
	// DriverTypeUmdf targets the User-Mode Driver Framework.
	DriverTypeUmdf DriverType = "UMDF"
)

var (
	// ErrInvalidDriverType is the sentinel error wrapped by InvalidDriverTypeError.
	ErrInvalidDriverType = errors.New("invalid driver type")

	// ErrMissingFrameworkVersion is returned when a framework driver type is
	// declared without its major framework version.
	ErrMissingFrameworkVersion = errors.New("missing framework version")
)

type (
	// DriverType identifies which driver model a crate targets.
	DriverType string

	// InvalidDriverTypeError is returned when a DriverType value is not one of
	// the recognized driver models.
	InvalidDriverTypeError struct {
		Value DriverType
	}

	// KmdfConfig holds the framework version pair for KMDF drivers.
	KmdfConfig struct {
		KmdfVersionMajor       int `json:"kmdf-version-major"`
		TargetKmdfVersionMinor int `json:"target-kmdf-version-minor"`
	}

	// UmdfConfig holds the framework version pair for UMDF drivers.
	UmdfConfig struct {
		UmdfVersionMajor       int `json:"umdf-version-major"`
		TargetUmdfVersionMinor int `json:"target-umdf-version-minor"`
	}

	// DriverConfig is the resolved driver model of a package: a tagged variant
	// over WDM, KMDF and UMDF. Only the framework config matching DriverType
	// carries meaning; the other is left at its zero value so that two
	// structurally identical configurations compare equal with `==`.
	DriverConfig struct {
		DriverType DriverType
		Kmdf       KmdfConfig
		Umdf       UmdfConfig
	}

	// Wdk is the reserved metadata namespace as serialized in manifest
	// metadata blocks: `[package.metadata.wdk]` or `[workspace.metadata.wdk]`.
	Wdk struct {
		DriverModel DriverConfig `json:"driver-model"`
	}
)

// Error implements the error interface.
func (e *InvalidDriverTypeError) Error() string {
	return fmt.Sprintf("%q is not a valid driver type (expected wdm, kmdf or umdf)", string(e.Value))
}

// Unwrap returns the sentinel ErrInvalidDriverType.
func (e *InvalidDriverTypeError) Unwrap() error { return ErrInvalidDriverType }

// ParseDriverType parses a case-insensitive driver type name.
func ParseDriverType(s string) (DriverType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(DriverTypeWdm):
		return DriverTypeWdm, nil
	case string(DriverTypeKmdf):
		return DriverTypeKmdf, nil
	case string(DriverTypeUmdf):
		return DriverTypeUmdf, nil
	default:
		return "", &InvalidDriverTypeError{Value: DriverType(s)}
	}
}

// IsValid reports whether t is a recognized driver type.
func (t DriverType) IsValid() bool {
	return t == DriverTypeWdm || t == DriverTypeKmdf || t == DriverTypeUmdf
}

// IsKernelMode reports whether the driver model produces a kernel-binding
// binary (WDM and KMDF drivers install as .sys, UMDF drivers as .dll).
func (c DriverConfig) IsKernelMode() bool {
	return c.DriverType == DriverTypeWdm || c.DriverType == DriverTypeKmdf
}

// BinaryExtension returns the installable binary extension for the model,
// without the leading dot.
func (c DriverConfig) BinaryExtension() string {
	if c.IsKernelMode() {
		return "sys"
	}
	return "dll"
}

// StampVersionFlags returns the framework-version flags passed to the INF
// stamping tool: `-k <maj.min>` for KMDF, `-u <maj.min.0>` for UMDF, and
// nothing at all for WDM.
func (c DriverConfig) StampVersionFlags() []string {
	switch c.DriverType {
	case DriverTypeKmdf:
		return []string{"-k", fmt.Sprintf("%d.%d", c.Kmdf.KmdfVersionMajor, c.Kmdf.TargetKmdfVersionMinor)}
	case DriverTypeUmdf:
		return []string{"-u", fmt.Sprintf("%d.%d.0", c.Umdf.UmdfVersionMajor, c.Umdf.TargetUmdfVersionMinor)}
	default:
		return nil
	}
}

// InfVerifModelFlag returns the descriptor-verification tool flag selecting
// kernel-mode (/w) or user-mode (/u) validation rules.
func (c DriverConfig) InfVerifModelFlag() string {
	if c.IsKernelMode() {
		return "/w"
	}
	return "/u"
}

// String renders the configuration for diagnostics.
func (c DriverConfig) String() string {
	switch c.DriverType {
	case DriverTypeKmdf:
		return fmt.Sprintf("KMDF %d.%d", c.Kmdf.KmdfVersionMajor, c.Kmdf.TargetKmdfVersionMinor)
	case DriverTypeUmdf:
		return fmt.Sprintf("UMDF %d.%d", c.Umdf.UmdfVersionMajor, c.Umdf.TargetUmdfVersionMinor)
	case DriverTypeWdm:
		return "WDM"
	default:
		return string(c.DriverType)
	}
}

// driverModelWire is the serialized shape of the driver-model sub-document:
// a "driver-type" tag with the framework version fields inlined beside it.
type driverModelWire struct {
	DriverType              string `json:"driver-type"`
	KmdfVersionMajor        *int   `json:"kmdf-version-major,omitempty"`
	TargetKmdfVersionMinor  *int   `json:"target-kmdf-version-minor,omitempty"`
	MinimumKmdfVersionMinor *int   `json:"minimum-kmdf-version-minor,omitempty"`
	UmdfVersionMajor        *int   `json:"umdf-version-major,omitempty"`
	TargetUmdfVersionMinor  *int   `json:"target-umdf-version-minor,omitempty"`
	MinimumUmdfVersionMinor *int   `json:"minimum-umdf-version-minor,omitempty"`
}

// UnmarshalJSON decodes the tagged wire form into the variant.
func (c *DriverConfig) UnmarshalJSON(data []byte) error {
	var wire driverModelWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	driverType, err := ParseDriverType(wire.DriverType)
	if err != nil {
		return err
	}

	resolved := DriverConfig{DriverType: driverType}
	switch driverType {
	case DriverTypeKmdf:
		if wire.KmdfVersionMajor == nil {
			return fmt.Errorf("kmdf-version-major: %w", ErrMissingFrameworkVersion)
		}
		resolved.Kmdf = KmdfConfig{
			KmdfVersionMajor:       *wire.KmdfVersionMajor,
			TargetKmdfVersionMinor: defaultMinor(wire.TargetKmdfVersionMinor),
		}
	case DriverTypeUmdf:
		if wire.UmdfVersionMajor == nil {
			return fmt.Errorf("umdf-version-major: %w", ErrMissingFrameworkVersion)
		}
		resolved.Umdf = UmdfConfig{
			UmdfVersionMajor:       *wire.UmdfVersionMajor,
			TargetUmdfVersionMinor: defaultMinor(wire.TargetUmdfVersionMinor),
		}
	case DriverTypeWdm:
		// No framework versions to carry.
	}

	*c = resolved
	return nil
}

// MarshalJSON encodes the variant back into the tagged wire form.
func (c DriverConfig) MarshalJSON() ([]byte, error) {
	wire := driverModelWire{DriverType: string(c.DriverType)}
	switch c.DriverType {
	case DriverTypeKmdf:
		wire.KmdfVersionMajor = intPtr(c.Kmdf.KmdfVersionMajor)
		wire.TargetKmdfVersionMinor = intPtr(c.Kmdf.TargetKmdfVersionMinor)
	case DriverTypeUmdf:
		wire.UmdfVersionMajor = intPtr(c.Umdf.UmdfVersionMajor)
		wire.TargetUmdfVersionMinor = intPtr(c.Umdf.TargetUmdfVersionMinor)
	case DriverTypeWdm:
	}
	return json.Marshal(wire)
}

// defaultTargetVersionMinor matches the framework default when the manifest
// omits the target minor version.
const defaultTargetVersionMinor = 33

func defaultMinor(v *int) int {
	if v == nil {
		return defaultTargetVersionMinor
	}
	return *v
}

func intPtr(v int) *int { return &v }
