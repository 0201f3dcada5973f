package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/Pochyxi/e2ereport/internal/ctxlog"
	"github.com/Pochyxi/e2ereport/internal/pipeline"
	"github.com/Pochyxi/e2ereport/internal/suite"
	"github.com/Pochyxi/e2ereport/internal/watch"
)

var (
	watchNow      bool
	watchDebounce = watch.DefaultDebounce
)

func init() {
	watchCmd.Flags().BoolVar(&watchNow, "now", false, "Run once immediately before waiting for changes")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "Quiet period after the last change before running")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the suite whenever its file changes",
	Long: `Watches {suites_dir}/{project}.json and runs it, exactly like the run
command, each time it is saved. A suite that fails to load is logged and
the watch continues. Stop with Ctrl-C.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx := cmd.Context()
	p, err := pipeline.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	out := cmd.OutOrStdout()
	run := func(ctx context.Context, path string) error {
		s, err := suite.Load(path)
		if err != nil {
			return err
		}
		o, err := p.Run(ctx, s)
		if o != nil {
			if perr := printOutcome(out, o, false); perr != nil {
				return perr
			}
		}
		return err
	}

	if watchNow {
		if err := run(ctx, cfg.SuitePath()); err != nil {
			ctxlog.FromContext(ctx).Error("initial run", "error", err)
		}
	}
	err = watch.New(cfg.SuitePath(), run).WithDebounce(watchDebounce).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
