package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Pochyxi/e2ereport/internal/history"
)

var (
	historyLimit    int
	historyFailed   bool
	historyScenario string
	historyAll      bool
	historyJSON     bool
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of results to show")
	historyCmd.Flags().BoolVar(&historyFailed, "failed", false, "Only results that did not pass")
	historyCmd.Flags().StringVar(&historyScenario, "scenario", "", "Only this scenario")
	historyCmd.Flags().BoolVar(&historyAll, "all-projects", false, "Include every browser project, not just the configured suite's")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Print as JSON")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent scenario results",
	Long:  "Reads the run history database (history_db) and lists results newest first.",
	Args:  usageArgs(cobra.NoArgs),
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := history.Open(ctx, cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(ctx, history.Query{
		Scenario: historyScenario,
		Failed:   historyFailed,
		Limit:    historyLimit,
	})
	if err != nil {
		return err
	}
	if !historyAll && cfg.Project != "" {
		records = filterSuite(records, cfg.Project)
	}

	w := cmd.OutOrStdout()
	if historyJSON {
		out, err := history.FormatJSON(records)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, out)
		return nil
	}
	fmt.Fprint(w, history.FormatText(records, time.Now()))
	return nil
}

// filterSuite keeps the records of the browser projects {suite}--{browser}.
func filterSuite(records []history.Record, suiteName string) []history.Record {
	prefix := suiteName + "--"
	out := records[:0]
	for _, r := range records {
		if len(r.Project) > len(prefix) && r.Project[:len(prefix)] == prefix {
			out = append(out, r)
		}
	}
	return out
}
