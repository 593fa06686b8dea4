// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"sync"
)

var (
	// configDirOverride allows tests to override the config directory.
	// This is necessary because os.UserHomeDir() doesn't reliably respect
	// the HOME environment variable on all platforms (e.g., macOS in CI).
	configDirOverride string

	// configFilePathOverride forces loading from a specific config file,
	// set from the --config flag.
	configFilePathOverride string

	// Cached load state. Load resolves the configuration once per process;
	// Reset or SetConfigFilePathOverride invalidate the cache.
	cacheMu  sync.Mutex
	cached   *Config
	cacheErr error
	cacheSet bool
)

// Reset clears test overrides and the cached configuration.
// Call from test cleanup to restore defaults.
func Reset() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	configDirOverride = ""
	configFilePathOverride = ""
	cached = nil
	cacheErr = nil
	cacheSet = false
}

// SetConfigDirOverride sets a custom config directory path.
// This is primarily intended for testing to bypass os.UserHomeDir() which
// doesn't reliably respect the HOME env var on all platforms (e.g., macOS in CI).
func SetConfigDirOverride(dir string) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	configDirOverride = dir
	cached = nil
	cacheErr = nil
	cacheSet = false
}

// SetConfigFilePathOverride forces subsequent loads to read the given file.
// Clears the cache so the next Load picks up the new path.
func SetConfigFilePathOverride(path string) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	configFilePathOverride = path
	cached = nil
	cacheErr = nil
	cacheSet = false
}

// Load returns the process-wide configuration, loading it on first call.
// Subsequent calls return the cached result.
func Load(ctx context.Context) (*Config, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if cacheSet {
		return cached, cacheErr
	}

	cfg, _, err := loadWithOptions(ctx, LoadOptions{ConfigFilePath: configFilePathOverride})
	cached, cacheErr, cacheSet = cfg, err, true
	return cached, cacheErr
}

// Get returns the loaded configuration, falling back to defaults when
// loading failed. The load error is retrievable via LastLoadError.
func Get() *Config {
	cfg, err := Load(context.Background())
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// LastLoadError returns the error from the most recent Load, or nil.
func LastLoadError() error {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	return cacheErr
}
