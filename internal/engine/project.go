package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/Pochyxi/e2ereport/internal/ctxlog"
	"github.com/Pochyxi/e2ereport/internal/driver"
	"github.com/Pochyxi/e2ereport/internal/suite"
)

// LaunchOptions carry the harness settings shared by every project.
type LaunchOptions struct {
	Headed bool
}

// RunProjects runs the suite once per browser project, one project after
// another. Unknown browsers are logged and skipped. A project whose harness
// fails to launch is logged and the next project still runs.
func RunProjects(ctx context.Context, s *suite.Suite, launch driver.Launcher, lo LaunchOptions, opts Options) ([]*Result, error) {
	logger := ctxlog.FromContext(ctx)

	projects, unknown := s.Projects()
	for _, b := range unknown {
		logger.Error("no browser provided for name, skipping", "browser", b)
	}
	if len(projects) == 0 {
		return nil, fmt.Errorf("suite %s: no runnable browser in info.browsers", s.Info.Name)
	}

	var (
		results []*Result
		errs    []error
	)
	for _, p := range projects {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		h, err := launch(ctx, driver.Options{
			Project:   p.Name,
			Browser:   string(p.Browser),
			Headed:    lo.Headed,
			TracesDir: opts.Dirs.Traces,
		})
		if err != nil {
			logger.Error("launch harness", "project", p.Name, "error", err)
			errs = append(errs, fmt.Errorf("project %s: %w", p.Name, err))
			continue
		}

		popts := opts
		popts.Project = p.Name
		eng := New(s, h, popts)
		opts.RunID = eng.RunID()

		rs, err := eng.RunSuite(ctx)
		results = append(results, rs...)
		if err != nil {
			errs = append(errs, fmt.Errorf("project %s: %w", p.Name, err))
		}
		if err := h.Close(); err != nil {
			logger.Warn("close harness", "project", p.Name, "error", err)
		}
	}
	return results, errors.Join(errs...)
}

// Failed counts results that did not pass.
func Failed(results []*Result) int {
	n := 0
	for _, r := range results {
		if !r.Passed {
			n++
		}
	}
	return n
}
