// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"drvpack-cli/internal/config"
	"drvpack-cli/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbosity counts repeated -v flags; 0 is normal output.
	verbosity int
	// cfgFile allows specifying a custom config file
	cfgFile string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "drvpack",
		Short: "Build and package Windows drivers written in Rust",
		Long: TitleStyle.Render("drvpack") + SubtitleStyle.Render(" - Build and package Windows drivers written in Rust") + `

drvpack drives cargo and the Windows Driver Kit tools to turn a driver
crate into an installable, test-signed driver package: it builds the
crate, stamps the INF, generates and signs the catalog, and verifies
the result.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Scaffold a driver crate with: drvpack new --kmdf my-driver
  2. Implement the driver entry points in src/lib.rs
  3. Package it with: drvpack package

` + SubtitleStyle.Render("Examples:") + `
  drvpack build                     Compile the drivers in scope
  drvpack package                   Build and package the drivers in scope
  drvpack package --profile release Package release binaries
  drvpack new --umdf my-driver      Scaffold a user-mode driver crate
  drvpack config show               Show current configuration`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase output verbosity (repeatable: -v, -vv)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/drvpack/config.cue)")

	// Add subcommands
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(packageCmd)
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(configCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootConfig reads in config file and ENV variables if set.
func initRootConfig() {
	// Set custom config file path if provided via --config flag
	if cfgFile != "" {
		config.SetConfigFilePathOverride(cfgFile)
	}

	// Load configuration
	cfg, err := config.Load(context.Background())
	if err != nil {
		// Always surface config loading errors to the user
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbosity > 0))
	}

	// Apply verbose from config if not set via flag
	if cfg != nil && verbosity == 0 && cfg.UI.Verbose {
		verbosity = 1
	}
}

// newLogger builds the structured logger handed to the task layer.
// -v lowers the level to Debug so per-step tool invocations show up;
// -vv additionally reports the caller of each log line.
func newLogger() *log.Logger {
	level := log.InfoLevel
	if verbosity > 0 {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: false,
		ReportCaller:    verbosity > 1,
	})
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// GetVerbose reports whether any level of verbosity was requested.
func GetVerbose() bool {
	return verbosity > 0
}
