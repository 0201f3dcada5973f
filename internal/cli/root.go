package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Pochyxi/e2ereport/internal/config"
	"github.com/Pochyxi/e2ereport/internal/ctxlog"
	"github.com/Pochyxi/e2ereport/internal/logging"
)

// Exit codes returned by Execute.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

var (
	flagConfig        string
	flagProject       string
	flagDriver        string
	flagHeaded        bool
	flagDashboard     bool
	flagLegacyVerdict bool
	flagStepTimeout   time.Duration
	flagLogLevel      string
	flagLogFormat     string
)

// cfg and logger are set by the root PersistentPreRunE for every command
// except version.
var (
	cfg    config.Config
	logger *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "e2ereport",
	Short: "Data-driven browser scenarios with PDF evidence reports",
	Long: `Runs declarative browser scenarios from JSON suite files on every configured
browser, capturing a screenshot per step into a paginated PDF report and
archiving the driver traces by date.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagConfig, "config", "c", config.DefaultPath, "Path to the YAML config file")
	pf.StringVarP(&flagProject, "project", "p", "", "Suite to run, the file {suites_dir}/{project}.json")
	pf.StringVar(&flagDriver, "driver", "", "Browser driver: playwright or chromedp")
	pf.BoolVar(&flagHeaded, "headed", false, "Show the browser window")
	pf.BoolVar(&flagDashboard, "show-dashboard", false, "Open the trace viewer after the run")
	pf.BoolVar(&flagLegacyVerdict, "legacy-verdict", false, "Render every report verdict as PASSED")
	pf.DurationVar(&flagStepTimeout, "step-timeout", 0, "Per-step timeout, e.g. 30s")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&flagLogFormat, "log-format", "", "Log format: text or json")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})
}

// setup loads the configuration, applies flag overrides and installs the
// logger on the command context.
func setup(cmd *cobra.Command, args []string) error {
	if cmd == versionCmd {
		return nil
	}
	closeLogger()
	loaded, err := config.Load(flagConfig, flagSet(cmd, "config"))
	if err != nil {
		return err
	}
	applyFlags(cmd, &loaded)
	cfg = loaded

	l, err := logging.Setup(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Dir:    cfg.LogsDir,
	})
	if err != nil {
		return err
	}
	logger = l

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(ctxlog.WithLogger(ctx, l.Logger))
	return nil
}

// closeLogger flushes the file sinks of the current logger, if any.
func closeLogger() {
	if logger != nil {
		_ = logger.Close()
		logger = nil
	}
}

func flagSet(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

// applyFlags overlays flags the user set explicitly onto c.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	set := func(name string) bool { return flagSet(cmd, name) }
	if set("project") {
		c.Project = flagProject
	}
	if set("driver") {
		c.Driver = flagDriver
	}
	if set("headed") {
		c.Headed = flagHeaded
	}
	if set("show-dashboard") {
		c.ShowDashboard = flagDashboard
	}
	if set("legacy-verdict") {
		c.LegacyVerdict = flagLegacyVerdict
	}
	if set("step-timeout") {
		c.StepTimeout = flagStepTimeout
	}
	if set("log-level") {
		c.Log.Level = flagLogLevel
	}
	if set("log-format") {
		c.Log.Format = flagLogFormat
	}
}

// usageError marks bad invocations, which exit with code 2.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// usageArgs wraps a positional-args validator so its errors count as usage errors.
func usageArgs(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := v(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

// errFailed reports that work completed but something did not pass. The
// command has already printed the details.
var errFailed = errors.New("run failed")

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ue usageError
	if errors.As(err, &ue) || strings.HasPrefix(err.Error(), "unknown command") {
		return exitUsage
	}
	return exitFailure
}

// Execute runs the root command and exits with 0 on success, 2 on a usage
// error and 1 on anything else.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	closeLogger()
	if err != nil && !errors.Is(err, errFailed) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}
