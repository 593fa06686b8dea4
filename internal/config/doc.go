// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/drvpack/config.cue (or XDG equivalent on Linux,
// ~/Library/Application Support/drvpack/config.cue on macOS, %APPDATA%\drvpack\config.cue
// on Windows). The package provides type-safe configuration access and covers the build
// profile, the test-signing identity, packaging-flag defaults, and UI settings.
//
// Configuration validation is performed against a CUE schema (config_schema.cue) to ensure
// type safety and provide clear error messages for invalid configurations.
package config
