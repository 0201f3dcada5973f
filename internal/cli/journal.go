package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Pochyxi/e2ereport/internal/journal"
)

var (
	tailLines    int
	tailRun      string
	tailScenario string
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalVerifyCmd)
	journalCmd.AddCommand(journalTailCmd)
	journalTailCmd.Flags().IntVarP(&tailLines, "lines", "n", 20, "Number of recent entries to show")
	journalTailCmd.Flags().StringVar(&tailRun, "run", "", "Only entries of this run id")
	journalTailCmd.Flags().StringVar(&tailScenario, "scenario", "", "Only entries of this scenario")
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Step journal operations",
	Long:  "Commands for verifying and inspecting the hash-chained step journal.",
}

var journalVerifyCmd = &cobra.Command{
	Use:   "verify [path]",
	Short: "Verify hash chain integrity of the step journal",
	Long:  "Walks the JSONL journal and validates that every entry's prev_hash\nmatches the SHA-256 of the previous entry. Exits 0 if valid, 1 if tampered.",
	Args:  usageArgs(cobra.MaximumNArgs(1)),
	RunE:  runJournalVerify,
}

var journalTailCmd = &cobra.Command{
	Use:   "tail [path]",
	Short: "Show recent step events",
	Args:  usageArgs(cobra.MaximumNArgs(1)),
	RunE:  runJournalTail,
}

func journalPath(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return cfg.Journal
}

func runJournalVerify(cmd *cobra.Command, args []string) error {
	result := journal.Verify(journalPath(args))
	if result.Valid {
		fmt.Fprintf(cmd.OutOrStdout(), "OK: %d entries verified\n", result.Lines)
		return nil
	}
	if result.ErrorLine > 0 {
		fmt.Fprintf(os.Stderr, "FAILED at line %d: %s\n", result.ErrorLine, result.Error)
	} else {
		fmt.Fprintf(os.Stderr, "FAILED: %s\n", result.Error)
	}
	return errFailed
}

func runJournalTail(cmd *cobra.Command, args []string) error {
	entries, err := journal.Tail(journalPath(args), journal.Filter{
		RunID:    tailRun,
		Scenario: tailScenario,
		Last:     tailLines,
	})
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), journal.FormatTimeline(entries))
	return nil
}
