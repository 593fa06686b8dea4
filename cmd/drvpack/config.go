// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"drvpack-cli/internal/config"
	"drvpack-cli/internal/issue"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage drvpack configuration",
	Long: `Manage drvpack configuration.

Configuration is stored in:
  - Linux: ~/.config/drvpack/config.cue
  - macOS: ~/Library/Application Support/drvpack/config.cue
  - Windows: %APPDATA%\drvpack\config.cue`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

func init() {
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfig(cmd.Context())
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(_ *cobra.Command, _ []string) error {
			return initConfig()
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(_ *cobra.Command, _ []string) error {
			return showConfigPath()
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output raw configuration as CUE",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Print(config.GenerateCUE(cfg))
			return nil
		},
	})
}

func showConfig(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		rendered, _ := issue.Get(issue.ConfigLoadFailedId).Render("dark")
		fmt.Fprint(os.Stderr, rendered)
		return err
	}

	fmt.Println(TitleStyle.Render("Current Configuration"))
	fmt.Println()

	// The resolved file path is derived from the standard config directory;
	// Load does not report which file it read.
	if cfgDir, dirErr := config.ConfigDir(); dirErr == nil {
		cfgPath := filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt)
		if _, statErr := os.Stat(cfgPath); statErr == nil {
			fmt.Printf("%s: %s\n", CmdStyle.Render("Config file"), cfgPath)
		} else {
			fmt.Printf("%s: %s\n", CmdStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
		}
	}
	fmt.Println()

	fmt.Printf("%s: %s\n", CmdStyle.Render("profile"), SuccessStyle.Render(cfg.Profile.String()))
	fmt.Printf("%s: %s\n", CmdStyle.Render("signing.cert_store"), SuccessStyle.Render(cfg.Signing.CertStore.String()))
	fmt.Printf("%s: %s\n", CmdStyle.Render("signing.cert_name"), SuccessStyle.Render(cfg.Signing.CertName.String()))
	fmt.Printf("%s: %s\n", CmdStyle.Render("signing.timestamp_url"), SuccessStyle.Render(cfg.Signing.TimestampURL.String()))
	fmt.Printf("%s: %s\n", CmdStyle.Render("packaging.sample_class"), SuccessStyle.Render(fmt.Sprintf("%v", cfg.Packaging.SampleClass)))
	fmt.Printf("%s: %s\n", CmdStyle.Render("packaging.verify_signature"), SuccessStyle.Render(fmt.Sprintf("%v", cfg.Packaging.VerifySignature)))
	fmt.Printf("%s: %s\n", CmdStyle.Render("ui.color_scheme"), SuccessStyle.Render(cfg.UI.ColorScheme.String()))
	fmt.Printf("%s: %s\n", CmdStyle.Render("ui.verbose"), SuccessStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))

	return nil
}

func initConfig() error {
	if err := config.CreateDefaultConfig(); err != nil {
		return fmt.Errorf("failed to create default config: %w", err)
	}

	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	cfgPath := filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt)
	fmt.Println(SuccessStyle.Render("Configuration ready: ") + cfgPath)
	return nil
}

func showConfigPath() error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	fmt.Println(filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt))
	return nil
}
