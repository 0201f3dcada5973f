// Package engine turns a scenario tree into an ordered, timeout-guarded
// sequence of driver calls and streams the evidence into a report.
package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Pochyxi/e2ereport/internal/ctxlog"
	"github.com/Pochyxi/e2ereport/internal/driver"
	"github.com/Pochyxi/e2ereport/internal/report"
	"github.com/Pochyxi/e2ereport/internal/suite"
	"github.com/Pochyxi/e2ereport/internal/workspace"
)

// Options configure an engine.
type Options struct {
	RunID       string // generated when empty
	Project     string
	Viewport    driver.Viewport
	StepTimeout time.Duration
	Dirs        workspace.Dirs

	// LegacyVerdict renders every report as PASSED whatever the outcome.
	LegacyVerdict bool

	Observer  Observer             // optional step event sink
	NewCanvas func() report.Canvas // defaults to report.NewPDF
	Now       func() time.Time     // defaults to time.Now
}

// Result is the outcome of one scenario execution.
type Result struct {
	RunID       string        `json:"run_id"`
	Project     string        `json:"project"`
	Scenario    string        `json:"scenario"`
	Passed      bool          `json:"passed"`
	Skipped     bool          `json:"skipped,omitempty"`
	StepsRun    int           `json:"steps_run"`
	StepsTotal  int           `json:"steps_total"`
	FailingStep *suite.Step   `json:"failing_step,omitempty"`
	FailedAt    int           `json:"failed_at,omitempty"` // 1-based step index
	Error       string        `json:"error,omitempty"`
	Screenshots []string      `json:"screenshots,omitempty"`
	ReportPath  string        `json:"report_path,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`

	Err     error `json:"-"` // failing step error
	SaveErr error `json:"-"` // report persistence error
}

// Engine runs the scenarios of one suite on one harness.
type Engine struct {
	suite   *suite.Suite
	harness driver.Harness
	opts    Options
}

// New returns an engine. Zero options get defaults.
func New(s *suite.Suite, h driver.Harness, opts Options) *Engine {
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = 30 * time.Second
	}
	if opts.NewCanvas == nil {
		opts.NewCanvas = func() report.Canvas { return report.NewPDF() }
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Observer == nil {
		opts.Observer = ObserverFunc(func(context.Context, Event) {})
	}
	return &Engine{suite: s, harness: h, opts: opts}
}

// RunID identifies this engine's run in events and results.
func (e *Engine) RunID() string { return e.opts.RunID }

// RunSuite runs what info.runType selects. An unrecognized run type is
// logged and nothing runs.
func (e *Engine) RunSuite(ctx context.Context) ([]*Result, error) {
	logger := ctxlog.FromContext(ctx).With("project", e.opts.Project, "run_id", e.opts.RunID)
	ctx = ctxlog.WithLogger(ctx, logger)

	rt, err := e.suite.RunType()
	if err != nil {
		logger.Error("run type not recognized, nothing to run", "error", err)
		return nil, nil
	}
	name := e.suite.RunName()

	switch rt {
	case suite.RunChapter:
		logger.Info("running chapter", "chapter", name)
		nodes := e.suite.ChapterScenarios(name)
		if len(nodes) == 0 {
			logger.Warn("chapter has no scenarios", "chapter", name)
		}
		results := make([]*Result, 0, len(nodes))
		for _, n := range nodes {
			if err := ctx.Err(); err != nil {
				return results, err
			}
			results = append(results, e.runScenario(ctx, n.Name, n.Scenario))
		}
		return results, nil
	default:
		logger.Info("running scenario", "scenario", name)
		res, err := e.RunScenario(ctx, name)
		if res == nil {
			return nil, err
		}
		return []*Result{res}, err
	}
}

// RunScenario resolves name with a depth-first search and runs it. A name
// that does not resolve is logged and reported as skipped.
func (e *Engine) RunScenario(ctx context.Context, name string) (*Result, error) {
	sc, ok := e.suite.FindScenario(name)
	if !ok {
		ctxlog.FromContext(ctx).Error("no scenario details found, skipping", "scenario", name)
		res := &Result{
			RunID:     e.opts.RunID,
			Project:   e.opts.Project,
			Scenario:  name,
			Skipped:   true,
			Err:       fmt.Errorf("%w: %s", ErrScenarioNotFound, name),
			StartedAt: e.opts.Now(),
		}
		res.Error = res.Err.Error()
		return res, nil
	}
	return e.runScenario(ctx, name, sc), ctx.Err()
}

func (e *Engine) runScenario(ctx context.Context, name string, sc *suite.Scenario) *Result {
	logger := ctxlog.FromContext(ctx).With("scenario", name)
	ctx = ctxlog.WithLogger(ctx, logger)

	res := &Result{
		RunID:      e.opts.RunID,
		Project:    e.opts.Project,
		Scenario:   name,
		StepsTotal: len(sc.Steps),
		StartedAt:  e.opts.Now(),
	}
	e.emit(ctx, Event{Type: EventScenarioStart, Scenario: name})

	err := e.harness.Test(ctx, name, e.opts.Viewport, func(ctx context.Context, info driver.TestInfo, page driver.Page) error {
		e.execute(ctx, info, page, sc, res)
		return res.Err
	})
	if err != nil && res.Err == nil {
		// The harness failed before or after the body ran.
		res.Err = err
	}
	res.Passed = res.Err == nil
	if res.Err != nil {
		res.Error = res.Err.Error()
	}
	res.Duration = e.opts.Now().Sub(res.StartedAt)

	if res.Passed {
		logger.Info("scenario passed", "steps", res.StepsRun, "report", res.ReportPath)
	} else {
		logger.Error("scenario failed", "failed_at", res.FailedAt, "error", res.Err, "report", res.ReportPath)
	}
	return res
}

// execute runs the step loop inside a registered test case and persists
// the report whatever the outcome.
func (e *Engine) execute(ctx context.Context, info driver.TestInfo, page driver.Page, sc *suite.Scenario, res *Result) {
	logger := ctxlog.FromContext(ctx)
	if info.Project != "" {
		res.Project = info.Project
	}

	started := e.opts.Now()
	b := report.New(e.opts.NewCanvas(), report.Options{
		ReportsDir: e.opts.Dirs.Reports,
		ImageDir:   e.opts.Dirs.ImageDir(),
	})
	b.AddHeader(info.Title, info.Project, started)
	b.AddDescription(sc.Description)
	b.AddPreRequisite(sc.PreRequisite)
	b.AddSteps(sc.Labels())

	for i, step := range sc.Steps {
		ev := Event{Scenario: info.Title, Step: step.Label, Index: i + 1}
		e.emit(ctx, ev.with(EventStepStart, nil))

		if err := e.runStep(ctx, page, step); err != nil {
			e.fail(ctx, res, sc, i, err)
			break
		}
		shot, err := e.capture(ctx, page, info.Title, step)
		if err != nil {
			e.fail(ctx, res, sc, i, err)
			break
		}
		res.Screenshots = append(res.Screenshots, shot)
		res.StepsRun++
		if err := b.InsertStep(shot, step.Label); err != nil {
			logger.Error("add step page", "step", step.Label, "error", err)
		}
		e.emit(ctx, ev.with(EventStepPass, nil))
	}

	cause := res.Err
	if e.opts.LegacyVerdict {
		cause = nil
	}
	path, err := b.Save(ctx, report.FileName(info.Title, info.Project, started), cause)
	if err != nil {
		res.SaveErr = err
		logger.Error("save report", "error", err)
		return
	}
	res.ReportPath = path
	e.emit(ctx, Event{Type: EventReport, Scenario: info.Title, Path: path})
}

// fail records the failing step and marks the rest of the scenario skipped.
func (e *Engine) fail(ctx context.Context, res *Result, sc *suite.Scenario, i int, err error) {
	step := sc.Steps[i]
	res.Err = err
	res.FailingStep = &step
	res.FailedAt = i + 1

	ev := Event{Scenario: res.Scenario, Step: step.Label, Index: i + 1}
	var te *StepTimeoutError
	if errors.As(err, &te) {
		e.emit(ctx, ev.with(EventStepTimeout, err))
	} else {
		e.emit(ctx, ev.with(EventStepFail, err))
	}
	ctxlog.FromContext(ctx).Error("step failed, skipping remaining steps",
		"step", step.Label, "index", i+1, "error", err)

	for j := i + 1; j < len(sc.Steps); j++ {
		e.emit(ctx, Event{Type: EventStepSkip, Scenario: res.Scenario, Step: sc.Steps[j].Label, Index: j + 1})
	}
}

// runStep dispatches one step. Unknown actions are logged and skipped.
func (e *Engine) runStep(ctx context.Context, page driver.Page, step suite.Step) error {
	kind, ok := step.Kind()
	if !ok {
		ctxlog.FromContext(ctx).Error("action not found", "action", step.Action, "step", step.Label)
		return nil
	}
	h := handlers[kind]
	return withTimeout(ctx, step.Label, e.opts.StepTimeout, func(ctx context.Context) error {
		return e.harness.Step(ctx, step.Label, func(ctx context.Context) error {
			return h(ctx, e, page, step)
		})
	})
}

// capture waits the step delay and takes the step screenshot.
func (e *Engine) capture(ctx context.Context, page driver.Page, title string, step suite.Step) (string, error) {
	if step.Args.Delay > 0 {
		if err := sleep(ctx, time.Duration(step.Args.Delay*float64(time.Second))); err != nil {
			return "", err
		}
	}
	path := filepath.Join(e.opts.Dirs.ImageDir(), screenshotName(title, step.Label, report.Timestamp(e.opts.Now())))
	err := withTimeout(ctx, step.Label, e.opts.StepTimeout, func(ctx context.Context) error {
		return page.Screenshot(ctx, path)
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

func (e *Engine) emit(ctx context.Context, ev Event) {
	ev.RunID = e.opts.RunID
	ev.Project = e.opts.Project
	if ev.Time.IsZero() {
		ev.Time = e.opts.Now()
	}
	e.opts.Observer.Observe(ctx, ev)
}
