package mcp

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Pochyxi/e2ereport/internal/engine"
	"github.com/Pochyxi/e2ereport/internal/report"
	"github.com/Pochyxi/e2ereport/internal/suite"
)

// --- Input/Output types ---

// ListScenariosInput defines parameters for the list_scenarios tool.
type ListScenariosInput struct {
	Suite string `json:"suite" jsonschema:"suite name, the scenario file without .json"`
}

// ListScenariosOutput lists a suite's scenarios.
type ListScenariosOutput struct {
	Suite     string        `json:"suite"`
	RunType   string        `json:"run_type"`
	RunName   string        `json:"run_name"`
	Browsers  []string      `json:"browsers"`
	Scenarios []suite.Entry `json:"scenarios"`
}

// FindScenarioInput defines parameters for the find_scenario tool.
type FindScenarioInput struct {
	Suite    string `json:"suite" jsonschema:"suite name"`
	Scenario string `json:"scenario" jsonschema:"scenario name"`
}

// FindScenarioOutput describes a resolved scenario.
type FindScenarioOutput struct {
	Found        bool     `json:"found"`
	Description  string   `json:"description,omitempty"`
	PreRequisite string   `json:"pre_requisite,omitempty"`
	Steps        []string `json:"steps,omitempty"`
}

// RunScenarioInput defines parameters for the run_scenario tool.
type RunScenarioInput struct {
	Suite    string `json:"suite" jsonschema:"suite name"`
	Scenario string `json:"scenario" jsonschema:"scenario name"`
}

// RunScenarioOutput contains the outcome of a run.
type RunScenarioOutput struct {
	RunID   string            `json:"run_id"`
	Passed  bool              `json:"passed"`
	Results []ScenarioOutcome `json:"results"`
	Error   string            `json:"error,omitempty"`
}

// ScenarioOutcome is one project's result.
type ScenarioOutcome struct {
	Project     string `json:"project"`
	Passed      bool   `json:"passed"`
	Skipped     bool   `json:"skipped,omitempty"`
	StepsRun    int    `json:"steps_run"`
	StepsTotal  int    `json:"steps_total"`
	FailingStep string `json:"failing_step,omitempty"`
	Error       string `json:"error,omitempty"`
	ReportPath  string `json:"report_path,omitempty"`
}

// ListReportsInput defines parameters for the list_reports tool.
type ListReportsInput struct {
	Project string `json:"project,omitempty" jsonschema:"browser project, e.g. Shop--chromium"`
	Limit   int    `json:"limit,omitempty" jsonschema:"maximum number of reports, default 20"`
}

// ListReportsOutput lists reports newest first.
type ListReportsOutput struct {
	Reports []ReportItem `json:"reports"`
}

// ReportItem describes one report file.
type ReportItem struct {
	Path     string `json:"path"`
	Title    string `json:"title"`
	Project  string `json:"project"`
	Verdict  string `json:"verdict"`
	Modified string `json:"modified"`
}

// --- Handlers ---

func (s *Server) loadSuite(name string) (*suite.Suite, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) || name == ".." {
		return nil, fmt.Errorf("invalid suite name %q", name)
	}
	return suite.Load(filepath.Join(s.cfg.SuitesDir, name+".json"))
}

func errorResult(err error) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		IsError: true,
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
	}
}

func (s *Server) handleListScenarios(ctx context.Context, req *mcpsdk.CallToolRequest, input ListScenariosInput) (*mcpsdk.CallToolResult, ListScenariosOutput, error) {
	st, err := s.loadSuite(input.Suite)
	if err != nil {
		return errorResult(err), ListScenariosOutput{}, nil
	}
	return nil, ListScenariosOutput{
		Suite:     st.Info.Name,
		RunType:   st.Info.RunType,
		RunName:   st.Info.RunName,
		Browsers:  st.Info.Browsers,
		Scenarios: st.Entries(),
	}, nil
}

func (s *Server) handleFindScenario(ctx context.Context, req *mcpsdk.CallToolRequest, input FindScenarioInput) (*mcpsdk.CallToolResult, FindScenarioOutput, error) {
	st, err := s.loadSuite(input.Suite)
	if err != nil {
		return errorResult(err), FindScenarioOutput{}, nil
	}
	sc, ok := st.FindScenario(input.Scenario)
	if !ok {
		return nil, FindScenarioOutput{Found: false}, nil
	}
	return nil, FindScenarioOutput{
		Found:        true,
		Description:  sc.Description,
		PreRequisite: sc.PreRequisite,
		Steps:        sc.Labels(),
	}, nil
}

func (s *Server) handleRunScenario(ctx context.Context, req *mcpsdk.CallToolRequest, input RunScenarioInput) (*mcpsdk.CallToolResult, RunScenarioOutput, error) {
	st, err := s.loadSuite(input.Suite)
	if err != nil {
		return errorResult(err), RunScenarioOutput{}, nil
	}
	if strings.TrimSpace(input.Scenario) == "" {
		return errorResult(fmt.Errorf("scenario is required")), RunScenarioOutput{}, nil
	}

	s.runMu.Lock()
	outcome, err := s.cfg.Run(ctx, st, input.Scenario)
	s.runMu.Unlock()

	var out RunScenarioOutput
	if outcome != nil {
		out.RunID = outcome.RunID
		out.Passed = len(outcome.Results) > 0 && outcome.Failed() == 0
		for _, r := range outcome.Results {
			out.Results = append(out.Results, toOutcome(r))
		}
	}
	if err != nil {
		out.Error = err.Error()
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}
	return nil, out, nil
}

func toOutcome(r *engine.Result) ScenarioOutcome {
	o := ScenarioOutcome{
		Project:    r.Project,
		Passed:     r.Passed,
		Skipped:    r.Skipped,
		StepsRun:   r.StepsRun,
		StepsTotal: r.StepsTotal,
		Error:      r.Error,
		ReportPath: r.ReportPath,
	}
	if r.FailingStep != nil {
		o.FailingStep = r.FailingStep.Label
	}
	return o
}

func (s *Server) handleListReports(ctx context.Context, req *mcpsdk.CallToolRequest, input ListReportsInput) (*mcpsdk.CallToolResult, ListReportsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	reports, err := listReports(s.cfg.ReportsDir, input.Project)
	if err != nil {
		return errorResult(err), ListReportsOutput{}, nil
	}
	if len(reports) > limit {
		reports = reports[:limit]
	}
	items := make([]ReportItem, 0, len(reports))
	for _, r := range reports {
		items = append(items, ReportItem{
			Path:     r.path,
			Title:    r.name.Title,
			Project:  r.name.Project,
			Verdict:  r.verdict,
			Modified: r.mod.UTC().Format(time.RFC3339),
		})
	}
	return nil, ListReportsOutput{Reports: items}, nil
}

type reportFile struct {
	path    string
	name    report.Name
	verdict string
	mod     time.Time
}

// listReports walks the reports root for PDFs whose names parse as report
// names, skipping the screenshot cache. Newest first.
func listReports(root, project string) ([]reportFile, error) {
	var out []reportFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			if d.Name() == "img" && filepath.Dir(path) == filepath.Clean(root) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil
		}
		base := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		verdict := ""
		if i := strings.LastIndex(base, "__"); i >= 0 {
			verdict = base[i+2:]
			base = base[:i]
		}
		name, err := report.ParseName(base)
		if err != nil {
			return nil
		}
		if project != "" && name.Project != project {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		out = append(out, reportFile{path: path, name: name, verdict: verdict, mod: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].mod.Equal(out[j].mod) {
			return out[i].mod.After(out[j].mod)
		}
		return out[i].path > out[j].path
	})
	return out, nil
}
