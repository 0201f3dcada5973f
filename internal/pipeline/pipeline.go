// Package pipeline wires one complete run: the browser projects of a suite,
// trace archiving, run history, the step journal and the optional trace
// viewer. The run, watch and mcp commands share it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Pochyxi/e2ereport/internal/archive"
	"github.com/Pochyxi/e2ereport/internal/config"
	"github.com/Pochyxi/e2ereport/internal/ctxlog"
	"github.com/Pochyxi/e2ereport/internal/driver"
	"github.com/Pochyxi/e2ereport/internal/driver/cdpdriver"
	"github.com/Pochyxi/e2ereport/internal/driver/pwdriver"
	"github.com/Pochyxi/e2ereport/internal/engine"
	"github.com/Pochyxi/e2ereport/internal/history"
	"github.com/Pochyxi/e2ereport/internal/journal"
	"github.com/Pochyxi/e2ereport/internal/procexec"
	"github.com/Pochyxi/e2ereport/internal/report"
	"github.com/Pochyxi/e2ereport/internal/suite"
	"github.com/Pochyxi/e2ereport/internal/workspace"
)

// Launcher returns the harness launcher for a configured driver name.
func Launcher(name string) (driver.Launcher, error) {
	switch name {
	case config.DriverPlaywright:
		return pwdriver.Launch, nil
	case config.DriverChromedp:
		return cdpdriver.Launch, nil
	default:
		return nil, fmt.Errorf("unknown driver %q", name)
	}
}

// Viewer opens trace files after a run.
type Viewer interface {
	RunEach(ctx context.Context, base []string, args []string) ([]*procexec.Result, error)
}

// Pipeline runs suites with a fixed configuration. History, Journal and
// Viewer are optional.
type Pipeline struct {
	Config  config.Config
	Launch  driver.Launcher
	History *history.Store
	Journal *journal.Log
	Viewer  Viewer

	NewCanvas func() report.Canvas // defaults to report.NewPDF
	Now       func() time.Time     // defaults to time.Now
}

// Outcome is what one pipeline run produced.
type Outcome struct {
	RunID   string           `json:"run_id"`
	Results []*engine.Result `json:"results"`
	Archive archive.Summary  `json:"archive"`
}

// Failed counts results that did not pass.
func (o *Outcome) Failed() int { return engine.Failed(o.Results) }

// Open builds a pipeline from cfg, opening the history database and the
// journal when their paths are set. Close releases them.
func Open(ctx context.Context, cfg config.Config) (*Pipeline, error) {
	launch, err := Launcher(cfg.Driver)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		Config: cfg,
		Launch: launch,
		Viewer: procexec.Runner{},
	}
	if cfg.HistoryDB != "" {
		p.History, err = history.Open(ctx, cfg.HistoryDB)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
	}
	if cfg.Journal != "" {
		p.Journal, err = journal.Open(cfg.Journal)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("open journal: %w", err)
		}
	}
	return p, nil
}

// Close releases the history database and the journal.
func (p *Pipeline) Close() error {
	var errs []error
	if p.History != nil {
		errs = append(errs, p.History.Close())
	}
	if p.Journal != nil {
		errs = append(errs, p.Journal.Close())
	}
	return errors.Join(errs...)
}

// Run clears the trace results, executes what the suite header selects on
// every browser project, then archives traces, records history and opens the viewer if
// configured. The returned error joins project failures; a scenario
// failing is not an error, check Outcome.Failed.
func (p *Pipeline) Run(ctx context.Context, s *suite.Suite) (*Outcome, error) {
	logger := ctxlog.FromContext(ctx)
	cfg := p.Config
	dirs := cfg.Dirs()

	if err := workspace.EnsureDirs(dirs); err != nil {
		return nil, err
	}
	// The archive pass copies every trace folder it finds, so only this
	// run's folders may be present.
	if err := workspace.ClearDir(dirs.Traces); err != nil {
		return nil, fmt.Errorf("clear trace results: %w", err)
	}

	out := &Outcome{RunID: uuid.NewString()}
	opts := engine.Options{
		RunID:         out.RunID,
		Viewport:      driver.Viewport{Width: cfg.Viewport.Width, Height: cfg.Viewport.Height},
		StepTimeout:   cfg.StepTimeout,
		Dirs:          dirs,
		LegacyVerdict: cfg.LegacyVerdict,
		NewCanvas:     p.NewCanvas,
		Now:           p.Now,
	}
	if p.Journal != nil {
		opts.Observer = p.Journal
	}

	results, runErr := engine.RunProjects(ctx, s, p.Launch, engine.LaunchOptions{Headed: cfg.Headed}, opts)
	out.Results = results

	// Archiving and bookkeeping still happen when the run was interrupted.
	post := context.WithoutCancel(ctx)

	sum, err := archive.Run(post, archive.Options{Source: dirs.Traces, Dest: dirs.Archive, Now: p.Now})
	if err != nil {
		logger.Error("archive traces", "error", err)
	} else {
		logger.Info(sum.String())
	}
	out.Archive = sum

	if p.History != nil {
		if err := p.History.Save(post, results); err != nil {
			logger.Error("record history", "error", err)
		}
	}

	if cfg.ShowDashboard && p.Viewer != nil && ctx.Err() == nil {
		p.view(ctx, sum)
	}
	return out, runErr
}

// RunScenario runs the single scenario name regardless of the suite header.
func (p *Pipeline) RunScenario(ctx context.Context, s *suite.Suite, name string) (*Outcome, error) {
	return p.Run(ctx, s.Targeting(suite.RunTest, name))
}

// view opens every archived trace.zip with the viewer command, or the bare
// command when no trace was archived.
func (p *Pipeline) view(ctx context.Context, sum archive.Summary) {
	logger := ctxlog.FromContext(ctx)
	argv := p.Config.ViewerCommand
	if len(argv) == 0 {
		return
	}
	var traces []string
	for _, dest := range sum.Dests {
		path := filepath.Join(dest, "trace.zip")
		if _, err := os.Stat(path); err == nil {
			traces = append(traces, path)
		}
	}
	var err error
	if len(traces) == 0 {
		_, err = p.Viewer.RunEach(ctx, argv[:len(argv)-1], argv[len(argv)-1:])
	} else {
		_, err = p.Viewer.RunEach(ctx, argv, traces)
	}
	if err != nil {
		logger.Error("trace viewer", "error", err)
	}
}
