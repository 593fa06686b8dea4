// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	// ProfileDev builds with the dev cargo profile.
	ProfileDev BuildProfile = "dev"
	// ProfileRelease builds with the release cargo profile.
	ProfileRelease BuildProfile = "release"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// Default signing identity. Defined locally to avoid coupling config
	// to internal/packaging; the command layer casts at the boundary.
	defaultCertStore    = "WDRTestCertStore"
	defaultCertName     = "WDRLocalTestCert"
	defaultTimestampURL = "http://timestamp.digicert.com"
)

var (
	// ErrInvalidBuildProfile is returned when a BuildProfile value is not recognized.
	ErrInvalidBuildProfile = errors.New("invalid build profile")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidCertStoreName is returned when a CertStoreName value is whitespace-only.
	ErrInvalidCertStoreName = errors.New("invalid certificate store name")
	// ErrInvalidCertName is returned when a CertName value is whitespace-only.
	ErrInvalidCertName = errors.New("invalid certificate name")
	// ErrInvalidTimestampURL is returned when a TimestampURL value is not an http(s) URL.
	ErrInvalidTimestampURL = errors.New("invalid timestamp URL")
	// ErrInvalidSigningConfig is the sentinel error wrapped by InvalidSigningConfigError.
	ErrInvalidSigningConfig = errors.New("invalid signing config")
	// ErrInvalidUIConfig is the sentinel error wrapped by InvalidUIConfigError.
	ErrInvalidUIConfig = errors.New("invalid UI config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// BuildProfile selects the cargo build profile.
	BuildProfile string

	// InvalidBuildProfileError is returned when a BuildProfile value is not recognized.
	// It wraps ErrInvalidBuildProfile for errors.Is() compatibility.
	InvalidBuildProfileError struct {
		Value BuildProfile
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// CertStoreName names the certificate store used for test signing.
	// A valid name must be non-empty and not whitespace-only.
	CertStoreName string

	// InvalidCertStoreNameError is returned when a CertStoreName value is
	// empty or whitespace-only. It wraps ErrInvalidCertStoreName for errors.Is().
	InvalidCertStoreNameError struct {
		Value CertStoreName
	}

	// CertName names the signing certificate inside the store.
	// A valid name must be non-empty and not whitespace-only.
	CertName string

	// InvalidCertNameError is returned when a CertName value is empty or
	// whitespace-only. It wraps ErrInvalidCertName for errors.Is().
	InvalidCertNameError struct {
		Value CertName
	}

	// TimestampURL is the timestamping service passed to the signing tool.
	// A valid value must parse as an http or https URL.
	TimestampURL string

	// InvalidTimestampURLError is returned when a TimestampURL value is not
	// an http(s) URL. It wraps ErrInvalidTimestampURL for errors.Is().
	InvalidTimestampURLError struct {
		Value TimestampURL
	}

	// InvalidSigningConfigError is returned when a SigningConfig has invalid fields.
	// It wraps ErrInvalidSigningConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidSigningConfigError struct {
		FieldErrors []error
	}

	// InvalidUIConfigError is returned when a UIConfig has invalid fields.
	// It wraps ErrInvalidUIConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidUIConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Profile sets the default cargo build profile.
		Profile BuildProfile `json:"profile" mapstructure:"profile"`
		// Signing configures the test-signing identity.
		Signing SigningConfig `json:"signing" mapstructure:"signing"`
		// Packaging sets defaults for packaging-run flags.
		Packaging PackagingConfig `json:"packaging" mapstructure:"packaging"`
		// UI configures the user interface.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// SigningConfig configures the certificate used to sign driver binaries
	// and catalogs.
	SigningConfig struct {
		// CertStore is the certificate store the signing certificate lives in.
		CertStore CertStoreName `json:"cert_store" mapstructure:"cert_store"`
		// CertName is the subject name of the signing certificate.
		CertName CertName `json:"cert_name" mapstructure:"cert_name"`
		// TimestampURL is the timestamping service used during signing.
		TimestampURL TimestampURL `json:"timestamp_url" mapstructure:"timestamp_url"`
	}

	// PackagingConfig sets default values for per-run packaging flags.
	PackagingConfig struct {
		// SampleClass marks drivers as sample-class during descriptor verification.
		SampleClass bool `json:"sample_class" mapstructure:"sample_class"`
		// VerifySignature re-verifies signatures after signing.
		VerifySignature bool `json:"verify_signature" mapstructure:"verify_signature"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// Error implements the error interface for InvalidBuildProfileError.
func (e *InvalidBuildProfileError) Error() string {
	return fmt.Sprintf("invalid build profile %q (valid: dev, release)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidBuildProfileError) Unwrap() error {
	return ErrInvalidBuildProfile
}

// String returns the string representation of the BuildProfile.
func (p BuildProfile) String() string { return string(p) }

// IsValid returns whether the BuildProfile is one of the defined profiles,
// and a list of validation errors if it is not.
func (p BuildProfile) IsValid() (bool, []error) {
	switch p {
	case ProfileDev, ProfileRelease:
		return true, nil
	default:
		return false, []error{&InvalidBuildProfileError{Value: p}}
	}
}

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error {
	return ErrInvalidColorScheme
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// String returns the string representation of the CertStoreName.
func (n CertStoreName) String() string { return string(n) }

// IsValid returns whether the CertStoreName is valid.
// A valid name must be non-empty and not whitespace-only.
func (n CertStoreName) IsValid() (bool, []error) {
	if strings.TrimSpace(string(n)) == "" {
		return false, []error{&InvalidCertStoreNameError{Value: n}}
	}
	return true, nil
}

// Error implements the error interface for InvalidCertStoreNameError.
func (e *InvalidCertStoreNameError) Error() string {
	return fmt.Sprintf("invalid certificate store name %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidCertStoreName for errors.Is() compatibility.
func (e *InvalidCertStoreNameError) Unwrap() error { return ErrInvalidCertStoreName }

// String returns the string representation of the CertName.
func (n CertName) String() string { return string(n) }

// IsValid returns whether the CertName is valid.
// A valid name must be non-empty and not whitespace-only.
func (n CertName) IsValid() (bool, []error) {
	if strings.TrimSpace(string(n)) == "" {
		return false, []error{&InvalidCertNameError{Value: n}}
	}
	return true, nil
}

// Error implements the error interface for InvalidCertNameError.
func (e *InvalidCertNameError) Error() string {
	return fmt.Sprintf("invalid certificate name %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidCertName for errors.Is() compatibility.
func (e *InvalidCertNameError) Unwrap() error { return ErrInvalidCertName }

// String returns the string representation of the TimestampURL.
func (u TimestampURL) String() string { return string(u) }

// IsValid returns whether the TimestampURL is valid.
// A valid value must parse as a URL with an http or https scheme;
// this constraint is checked in Go because the schema cannot express it.
func (u TimestampURL) IsValid() (bool, []error) {
	parsed, err := url.Parse(string(u))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return false, []error{&InvalidTimestampURLError{Value: u}}
	}
	return true, nil
}

// Error implements the error interface for InvalidTimestampURLError.
func (e *InvalidTimestampURLError) Error() string {
	return fmt.Sprintf("invalid timestamp URL %q: must be an http(s) URL", e.Value)
}

// Unwrap returns ErrInvalidTimestampURL for errors.Is() compatibility.
func (e *InvalidTimestampURLError) Unwrap() error { return ErrInvalidTimestampURL }

// IsValid returns whether the SigningConfig has valid fields.
// It delegates to CertStore.IsValid(), CertName.IsValid(), and
// TimestampURL.IsValid().
func (c SigningConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.CertStore.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.CertName.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.TimestampURL.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidSigningConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidSigningConfigError.
func (e *InvalidSigningConfigError) Error() string {
	return fmt.Sprintf("invalid signing config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidSigningConfig for errors.Is() compatibility.
func (e *InvalidSigningConfigError) Unwrap() error { return ErrInvalidSigningConfig }

// IsValid returns whether the UIConfig has valid fields.
// It delegates to ColorScheme.IsValid(); bool fields need no validation.
func (c UIConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidUIConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidUIConfigError.
func (e *InvalidUIConfigError) Error() string {
	return fmt.Sprintf("invalid UI config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidUIConfig for errors.Is() compatibility.
func (e *InvalidUIConfigError) Unwrap() error { return ErrInvalidUIConfig }

// IsValid returns whether the Config has valid fields.
// It delegates to Profile.IsValid(), Signing.IsValid(), and UI.IsValid().
// Packaging has only bool fields and needs no validation.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Profile.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Signing.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Profile: ProfileDev,
		Signing: SigningConfig{
			CertStore:    defaultCertStore,
			CertName:     defaultCertName,
			TimestampURL: defaultTimestampURL,
		},
		Packaging: PackagingConfig{
			SampleClass:     false,
			VerifySignature: false,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
	}
}
