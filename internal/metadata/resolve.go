// SPDX-License-Identifier: MPL-2.0

package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"drvpack-cli/pkg/wdkmeta"

	"github.com/charmbracelet/log"
)

// metadataNamespace is the reserved key holding driver configuration inside
// a workspace-level or package-level metadata block.
const metadataNamespace = "wdk"

var (
	// ErrNoConfigurationDetected is the sentinel wrapped by NoConfigurationError.
	ErrNoConfigurationDetected = errors.New("no driver configuration detected")

	// ErrMultipleConfigurationsDetected is the sentinel wrapped by
	// MultipleConfigurationsError.
	ErrMultipleConfigurationsDetected = errors.New("multiple driver configurations detected")
)

type (
	// NoConfigurationError is returned when neither the workspace metadata
	// block nor any member package declares a driver configuration.
	NoConfigurationError struct{}

	// MultipleConfigurationsError is returned when the dependency graph
	// declares more than one structurally distinct driver configuration,
	// whether the conflict is across scopes or within a single scope. It
	// carries every distinct configuration found; callers must not guess
	// which one wins.
	MultipleConfigurationsError struct {
		Configs []wdkmeta.DriverConfig
	}

	// DeserializationError is returned when a metadata block exists under
	// the reserved namespace but cannot be decoded.
	DeserializationError struct {
		Source string
		Err    error
	}
)

// Error implements the error interface.
func (e *NoConfigurationError) Error() string {
	return "no driver configuration detected in the dependency graph; declare one under the " +
		"wdk metadata namespace at workspace or package scope"
}

// Unwrap returns the sentinel ErrNoConfigurationDetected.
func (e *NoConfigurationError) Unwrap() error { return ErrNoConfigurationDetected }

// Error implements the error interface.
func (e *MultipleConfigurationsError) Error() string {
	rendered := make([]string, len(e.Configs))
	for i, cfg := range e.Configs {
		rendered[i] = cfg.String()
	}
	return fmt.Sprintf("multiple driver configurations detected across the dependency graph, "+
		"but only one is allowed: [%s]", strings.Join(rendered, ", "))
}

// Unwrap returns the sentinel ErrMultipleConfigurationsDetected.
func (e *MultipleConfigurationsError) Unwrap() error { return ErrMultipleConfigurationsDetected }

// Error implements the error interface.
func (e *DeserializationError) Error() string {
	return fmt.Sprintf("failed to deserialize driver configuration from %s: %v", e.Source, e.Err)
}

// Unwrap returns the underlying decode error.
func (e *DeserializationError) Unwrap() error { return e.Err }

// ResolveDriverConfig merges the driver configuration declared at workspace
// scope and across all member packages, deduplicated by structural equality,
// and yields exactly one configuration.
//
// Resolution policy, in order: no configuration anywhere fails with
// NoConfigurationError; exactly one distinct configuration (wherever and
// however often declared) is the answer; matching declarations at both
// scopes are the answer; anything else fails with MultipleConfigurationsError
// listing every distinct value.
func ResolveDriverConfig(doc *Document) (wdkmeta.DriverConfig, error) {
	distinct := make(map[wdkmeta.DriverConfig]struct{})

	for _, pkg := range doc.WorkspacePackages() {
		cfg, ok, err := parseNamespace(pkg.Metadata, fmt.Sprintf("package %s", pkg.Name))
		if err != nil {
			return wdkmeta.DriverConfig{}, err
		}
		if ok {
			log.Debug("found driver configuration", "scope", "package", "package", pkg.Name, "config", cfg)
			distinct[cfg] = struct{}{}
		}
	}

	if cfg, ok, err := parseNamespace(doc.Metadata, "workspace metadata"); err != nil {
		return wdkmeta.DriverConfig{}, err
	} else if ok {
		log.Debug("found driver configuration", "scope", "workspace", "config", cfg)
		distinct[cfg] = struct{}{}
	}

	switch len(distinct) {
	case 0:
		return wdkmeta.DriverConfig{}, &NoConfigurationError{}
	case 1:
		for cfg := range distinct {
			return cfg, nil
		}
		panic("unreachable: map with len 1 yielded no key")
	default:
		configs := make([]wdkmeta.DriverConfig, 0, len(distinct))
		for cfg := range distinct {
			configs = append(configs, cfg)
		}
		sort.Slice(configs, func(i, j int) bool { return configs[i].String() < configs[j].String() })
		return wdkmeta.DriverConfig{}, &MultipleConfigurationsError{Configs: configs}
	}
}

// HasDriverConfiguration reports whether a package's metadata block declares
// anything under the reserved namespace, without validating it. The
// orchestrator uses this for the build-only skip decision.
func HasDriverConfiguration(raw json.RawMessage) bool {
	ns, ok := namespaceValue(raw)
	return ok && ns != nil
}

// driverModelKey is the only key recognized inside the reserved namespace.
const driverModelKey = "driver-model"

// parseNamespace extracts and decodes the reserved namespace from a raw
// metadata block. An absent block, absent namespace, or empty namespace
// object (used by some crates as a bare driver marker) all report not-found.
// A non-empty namespace must carry the driver-model key; anything else is a
// malformed declaration, not an absent one.
func parseNamespace(raw json.RawMessage, source string) (wdkmeta.DriverConfig, bool, error) {
	ns, ok := namespaceValue(raw)
	if !ok || ns == nil {
		return wdkmeta.DriverConfig{}, false, nil
	}
	if len(ns) == 0 {
		return wdkmeta.DriverConfig{}, false, nil
	}
	if _, ok := ns[driverModelKey]; !ok {
		return wdkmeta.DriverConfig{}, false, &DeserializationError{
			Source: source,
			Err:    fmt.Errorf("missing required %q key in the wdk metadata namespace", driverModelKey),
		}
	}

	encoded, err := json.Marshal(ns)
	if err != nil {
		return wdkmeta.DriverConfig{}, false, &DeserializationError{Source: source, Err: err}
	}
	var wdk wdkmeta.Wdk
	if err := json.Unmarshal(encoded, &wdk); err != nil {
		return wdkmeta.DriverConfig{}, false, &DeserializationError{Source: source, Err: err}
	}
	if !wdk.DriverModel.DriverType.IsValid() {
		return wdkmeta.DriverConfig{}, false, &DeserializationError{
			Source: source,
			Err:    &wdkmeta.InvalidDriverTypeError{Value: wdk.DriverModel.DriverType},
		}
	}
	return wdk.DriverModel, true, nil
}

// namespaceValue returns the raw object under the reserved namespace key.
func namespaceValue(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var block map[string]json.RawMessage
	if err := json.Unmarshal(raw, &block); err != nil {
		return nil, false
	}
	nsRaw, ok := block[metadataNamespace]
	if !ok || string(nsRaw) == "null" {
		return nil, false
	}
	var ns map[string]json.RawMessage
	if err := json.Unmarshal(nsRaw, &ns); err != nil {
		return nil, false
	}
	return ns, true
}
