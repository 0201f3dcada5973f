package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Pochyxi/e2ereport/internal/engine"
	"github.com/Pochyxi/e2ereport/internal/pipeline"
	"github.com/Pochyxi/e2ereport/internal/suite"
)

var (
	runScenario string
	runChapter  string
	runJSON     bool
)

func init() {
	runCmd.Flags().StringVar(&runScenario, "scenario", "", "Run this scenario instead of the suite's runName")
	runCmd.Flags().StringVar(&runChapter, "chapter", "", "Run this chapter instead of the suite's runName")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Print results as JSON")
	runCmd.MarkFlagsMutuallyExclusive("scenario", "chapter")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the configured suite on every browser project",
	Long: `Loads {suites_dir}/{project}.json and runs what its info.runType and
info.runName select, once per browser in info.browsers. Each scenario
produces a PDF report. Afterwards the driver traces are archived, the
results are recorded in the history database and, with --show-dashboard,
the trace viewer is opened.

Exits 1 if any scenario did not pass.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s, err := suite.Load(cfg.SuitePath())
	if err != nil {
		return err
	}
	switch {
	case runScenario != "":
		s = s.Targeting(suite.RunTest, runScenario)
	case runChapter != "":
		s = s.Targeting(suite.RunChapter, runChapter)
	}

	ctx := cmd.Context()
	p, err := pipeline.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	out, runErr := p.Run(ctx, s)
	if out != nil {
		if err := printOutcome(cmd.OutOrStdout(), out, runJSON); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}
	if out.Failed() > 0 {
		return errFailed
	}
	return nil
}

func printOutcome(w io.Writer, out *pipeline.Outcome, asJSON bool) error {
	if asJSON {
		s, err := engine.FormatJSON(out.Results)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, s)
		return nil
	}
	fmt.Fprint(w, engine.FormatText(out.Results))
	fmt.Fprintln(w, out.Archive.String())
	return nil
}
