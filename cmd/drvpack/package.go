// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"drvpack-cli/internal/config"
	"drvpack-cli/internal/issue"
	"drvpack-cli/internal/metadata"
	"drvpack-cli/internal/packaging"
	"drvpack-cli/internal/providers"

	"github.com/spf13/cobra"
)

// packagingFlags holds the flag values shared by the build and package commands.
type packagingFlags struct {
	cwd             string
	profile         string
	targetArch      string
	sampleClass     bool
	verifySignature bool
}

var (
	packageFlags packagingFlags

	packageCmd = &cobra.Command{
		Use:   "package",
		Short: "Build driver crates and produce signed driver packages",
		Long: `Build driver crates and produce signed driver packages.

For every driver crate in scope this builds the crate with cargo,
assembles the package directory, stamps the INF, generates and signs
the catalog, and verifies the INF. Run from a workspace root to cover
all members, from a member directory to cover that member, or from a
plain directory to cover each child project.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPackaging(cmd.Context(), packageFlags, false)
		},
	}
)

func init() {
	registerPackagingFlags(packageCmd, &packageFlags)
}

// registerPackagingFlags wires the shared build/package flag set onto cmd.
func registerPackagingFlags(cmd *cobra.Command, flags *packagingFlags) {
	cmd.Flags().StringVar(&flags.cwd, "cwd", "", "directory to operate in (default: current directory)")
	cmd.Flags().StringVar(&flags.profile, "profile", "", "cargo build profile: dev or release (default from config)")
	cmd.Flags().StringVar(&flags.targetArch, "target-arch", "", "target architecture: amd64, arm64 or host (default: probe the toolchain)")
	cmd.Flags().BoolVar(&flags.sampleClass, "sample-class", false, "treat drivers as sample-class during INF verification")
	cmd.Flags().BoolVar(&flags.verifySignature, "verify-signature", false, "re-verify signatures after signing")
}

// runPackaging wires the production providers into the orchestrator and
// executes one build or packaging run over the directory in scope.
func runPackaging(ctx context.Context, flags packagingFlags, buildOnly bool) error {
	cfg := config.Get()

	cwd := flags.cwd
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to determine working directory: %w", err)
		}
		cwd = wd
	}

	profile := flags.profile
	if profile == "" {
		profile = string(cfg.Profile)
	}

	logger := newLogger()
	runner := providers.NewExecRunner()
	fs := providers.NewOSFilesystem()

	orch := packaging.NewOrchestrator(
		metadata.NewCargoMetadataProvider(runner),
		runner,
		fs,
		providers.NewWDKInfo(fs),
		logger,
	)

	opts := packaging.Options{
		WorkingDir:      cwd,
		Profile:         packaging.Profile(profile),
		TargetArch:      flags.targetArch,
		SampleClass:     flags.sampleClass || cfg.Packaging.SampleClass,
		VerifySignature: flags.verifySignature || cfg.Packaging.VerifySignature,
		BuildOnly:       buildOnly,
		Signing: packaging.SigningOptions{
			CertStore:    string(cfg.Signing.CertStore),
			CertName:     string(cfg.Signing.CertName),
			TimestampURL: string(cfg.Signing.TimestampURL),
		},
	}

	if err := orch.Run(ctx, opts); err != nil {
		renderRemediation(err)
		return &ExitError{Code: 1, Err: err}
	}
	return nil
}

// renderRemediation prints the issue-catalog entry matching err, if any.
// The error itself is still returned to the caller for display.
func renderRemediation(err error) {
	id, ok := issueFor(err)
	if !ok {
		return
	}
	rendered, renderErr := issue.Get(id).Render("dark")
	if renderErr != nil {
		return
	}
	fmt.Fprint(os.Stderr, rendered)
}

// issueFor maps pipeline failures to issue-catalog entries.
func issueFor(err error) (issue.Id, bool) {
	switch {
	case errors.Is(err, packaging.ErrNoValidProjects):
		return issue.NoValidProjectsId, true
	case errors.Is(err, packaging.ErrNotWorkspaceMember):
		return issue.NotWorkspaceMemberId, true
	case errors.Is(err, metadata.ErrNoConfigurationDetected):
		return issue.NoConfigurationId, true
	case errors.Is(err, metadata.ErrMultipleConfigurationsDetected):
		return issue.MultipleConfigurationsId, true
	}

	var missingDescriptor *packaging.MissingSourceDescriptorError
	if errors.As(err, &missingDescriptor) {
		return issue.MissingDescriptorId, true
	}
	var storeList *packaging.CertStoreListError
	if errors.As(err, &storeList) {
		return issue.CertStoreAccessId, true
	}
	var storeOutput *packaging.CertStoreOutputError
	if errors.As(err, &storeOutput) {
		return issue.CertStoreAccessId, true
	}
	var signing *packaging.SigningError
	if errors.As(err, &signing) {
		return issue.SigningFailedId, true
	}
	var infVerify *packaging.InfVerificationError
	if errors.As(err, &infVerify) {
		return issue.DescriptorVerificationFailedId, true
	}
	return 0, false
}
