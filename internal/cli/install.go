package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Pochyxi/e2ereport/internal/config"
	"github.com/Pochyxi/e2ereport/internal/driver/pwdriver"
)

func init() {
	rootCmd.AddCommand(installCmd)
}

var installCmd = &cobra.Command{
	Use:   "install [browser...]",
	Short: "Download the Playwright driver and browsers",
	Long: `Installs the Playwright driver and the given browsers (chromium, firefox,
webkit); all three when none are named. Not needed for the chromedp driver,
which uses the local Chrome.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Driver == config.DriverChromedp {
			fmt.Fprintln(cmd.OutOrStdout(), "chromedp uses the local Chrome installation; nothing to install")
			return nil
		}
		if err := pwdriver.Install(cmd.Context(), args...); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "playwright driver and browsers installed")
		return nil
	},
}
