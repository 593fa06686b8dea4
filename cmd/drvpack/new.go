// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"drvpack-cli/internal/providers"
	"drvpack-cli/internal/scaffold"
	"drvpack-cli/pkg/wdkmeta"

	"github.com/spf13/cobra"
)

var (
	newWdm  bool
	newKmdf bool
	newUmdf bool

	newCmd = &cobra.Command{
		Use:   "new <name>",
		Short: "Scaffold a new driver crate",
		Long: `Scaffold a new driver crate.

Creates a crate with the entry-point source, install descriptor (.inx),
build script, and manifest metadata for the chosen driver model.
Exactly one of --wdm, --kmdf, or --umdf must be given.

` + SubtitleStyle.Render("Examples:") + `
  drvpack new --kmdf my-driver     Kernel-mode framework driver
  drvpack new --umdf my-driver     User-mode framework driver
  drvpack new --wdm legacy-filter  Plain WDM driver`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			driverType, err := selectedDriverType()
			if err != nil {
				return err
			}

			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to determine working directory: %w", err)
			}

			task := scaffold.NewTask(providers.NewExecRunner(), providers.NewOSFilesystem(), newLogger())
			if err := task.Run(cmd.Context(), scaffold.Options{
				Name:       args[0],
				Cwd:        cwd,
				DriverType: driverType,
			}); err != nil {
				return &ExitError{Code: 1, Err: err}
			}

			fmt.Println(SuccessStyle.Render("Created ") + CmdStyle.Render(args[0]))
			return nil
		},
	}
)

func init() {
	newCmd.Flags().BoolVar(&newWdm, "wdm", false, "scaffold a WDM driver")
	newCmd.Flags().BoolVar(&newKmdf, "kmdf", false, "scaffold a KMDF driver")
	newCmd.Flags().BoolVar(&newUmdf, "umdf", false, "scaffold a UMDF driver")
	newCmd.MarkFlagsMutuallyExclusive("wdm", "kmdf", "umdf")
	newCmd.MarkFlagsOneRequired("wdm", "kmdf", "umdf")
}

// selectedDriverType resolves the driver-model flag to a DriverType.
func selectedDriverType() (wdkmeta.DriverType, error) {
	switch {
	case newWdm:
		return wdkmeta.DriverTypeWdm, nil
	case newKmdf:
		return wdkmeta.DriverTypeKmdf, nil
	case newUmdf:
		return wdkmeta.DriverTypeUmdf, nil
	default:
		return "", fmt.Errorf("one of --wdm, --kmdf, or --umdf is required")
	}
}
