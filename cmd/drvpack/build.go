// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/spf13/cobra"

var (
	buildFlags packagingFlags

	buildCmd = &cobra.Command{
		Use:   "build",
		Short: "Build driver crates without packaging them",
		Long: `Build driver crates without packaging them.

Runs the same scope resolution as 'drvpack package' but stops after
compilation: no package directory is assembled and no WDK tooling is
invoked. Plain library crates in covered workspaces build normally.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPackaging(cmd.Context(), buildFlags, true)
		},
	}
)

func init() {
	// Packaging-only flags (sample-class, verify-signature) are not offered here.
	buildCmd.Flags().StringVar(&buildFlags.cwd, "cwd", "", "directory to operate in (default: current directory)")
	buildCmd.Flags().StringVar(&buildFlags.profile, "profile", "", "cargo build profile: dev or release (default from config)")
	buildCmd.Flags().StringVar(&buildFlags.targetArch, "target-arch", "", "target architecture: amd64, arm64 or host (default: probe the toolchain)")
}
