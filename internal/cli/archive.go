package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Pochyxi/e2ereport/internal/archive"
)

func init() {
	rootCmd.AddCommand(archiveCmd)
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Copy driver traces into the dated archive",
	Long: `Copies the .zip, .png and .webm files of every folder under traces_dir
into {archive_dir}/{folder}/{yyyy}/{mm}/{dd}/{folder}___{date}___{time}/.
The run command does this automatically.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		sum, err := archive.Run(cmd.Context(), archive.Options{
			Source: cfg.TracesDir,
			Dest:   cfg.ArchiveDir,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), sum.String())
		for _, d := range sum.Dests {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", d)
		}
		if sum.Failed > 0 {
			return errFailed
		}
		return nil
	},
}
