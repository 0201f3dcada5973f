package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Pochyxi/e2ereport/internal/config"
	"github.com/Pochyxi/e2ereport/internal/driver"
	"github.com/Pochyxi/e2ereport/internal/history"
	"github.com/Pochyxi/e2ereport/internal/journal"
	"github.com/Pochyxi/e2ereport/internal/procexec"
	"github.com/Pochyxi/e2ereport/internal/suite"
)

type fakePage struct {
	failOn string
}

func (p *fakePage) Goto(ctx context.Context, url string) error { return nil }

func (p *fakePage) Click(ctx context.Context, sel string) error {
	if sel == p.failOn {
		return errors.New("element not found")
	}
	return nil
}

func (p *fakePage) Fill(ctx context.Context, sel, text string) error        { return nil }
func (p *fakePage) IsChecked(ctx context.Context, sel string) (bool, error) { return true, nil }
func (p *fakePage) IsVisible(ctx context.Context, sel string) (bool, error) { return true, nil }

func (p *fakePage) Evaluate(ctx context.Context, expr string, arg any) (any, error) {
	return nil, nil
}

func (p *fakePage) Screenshot(ctx context.Context, path string) error {
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	img.Set(1, 1, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}

type fakeHarness struct {
	opts   driver.Options
	failOn string
}

func (h *fakeHarness) Test(ctx context.Context, title string, vp driver.Viewport, fn driver.TestFunc) error {
	dir := filepath.Join(h.opts.TracesDir, driver.TraceFolder(title, h.opts.Project))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "trace.zip"), []byte("PK"), 0o600); err != nil {
		return err
	}
	return fn(ctx, driver.TestInfo{Title: title, Project: h.opts.Project}, &fakePage{failOn: h.failOn})
}

func (h *fakeHarness) Step(ctx context.Context, label string, fn func(context.Context) error) error {
	return fn(ctx)
}

func (h *fakeHarness) Close() error { return nil }

type fakeViewer struct {
	mu    sync.Mutex
	calls [][]string
}

func (v *fakeViewer) RunEach(ctx context.Context, base []string, args []string) ([]*procexec.Result, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, a := range args {
		v.calls = append(v.calls, append(append([]string(nil), base...), a))
	}
	return nil, nil
}

const shopSuite = `{
  "info": {"name": "Shop", "runType": "test", "runName": "Login", "browsers": ["chrome", "safari"]},
  "tests": {
    "Login": {
      "description": "Sign in",
      "preRequisite": "An account",
      "testStep": [
        {"actionName": "land-on-page", "stepName": "open home", "args": {"url": "https://shop.example"}},
        {"actionName": "click", "stepName": "sign in", "args": {"selector": "#sign-in"}}
      ]
    },
    "Broken": {
      "description": "Fails",
      "preRequisite": "",
      "testStep": [
        {"actionName": "click", "stepName": "missing", "args": {"selector": "#missing"}}
      ]
    }
  }
}`

func testConfig(t *testing.T) config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Project = "Shop"
	cfg.SuitesDir = filepath.Join(root, "test-suites")
	cfg.FixturesDir = filepath.Join(root, "storageConfig")
	cfg.ReportsDir = filepath.Join(root, "PDFReports")
	cfg.TracesDir = filepath.Join(root, "test-results")
	cfg.ArchiveDir = filepath.Join(root, "TracesReports")
	cfg.LogsDir = ""
	cfg.StepTimeout = 5 * time.Second
	cfg.HistoryDB = filepath.Join(root, "state", "history.db")
	cfg.Journal = filepath.Join(root, "state", "journal.jsonl")
	return cfg
}

func newPipeline(t *testing.T, cfg config.Config) *Pipeline {
	t.Helper()
	p, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	p.Launch = func(ctx context.Context, opts driver.Options) (driver.Harness, error) {
		return &fakeHarness{opts: opts, failOn: "#missing"}, nil
	}
	return p
}

func parseSuite(t *testing.T) *suite.Suite {
	t.Helper()
	s, err := suite.Parse([]byte(shopSuite))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestRunEveryProject(t *testing.T) {
	cfg := testConfig(t)
	p := newPipeline(t, cfg)
	ctx := context.Background()

	out, err := p.Run(ctx, parseSuite(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Failed() != 0 {
		t.Fatalf("failed = %d, results = %+v", out.Failed(), out.Results)
	}

	var projects []string
	for _, r := range out.Results {
		projects = append(projects, r.Project)
		if r.RunID != out.RunID {
			t.Errorf("result run id = %q, want %q", r.RunID, out.RunID)
		}
		if _, err := os.Stat(r.ReportPath); err != nil {
			t.Errorf("report missing: %v", err)
		}
	}
	if diff := cmp.Diff([]string{"Shop--chromium", "Shop--webkit"}, projects); diff != "" {
		t.Errorf("projects (-want +got):\n%s", diff)
	}

	if out.Archive.Folders != 2 || out.Archive.Files != 2 {
		t.Errorf("archive summary = %+v", out.Archive)
	}

	recs, err := p.History.List(ctx, history.Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Errorf("history records = %d, want 2", len(recs))
	}

	if res := journal.Verify(cfg.Journal); !res.Valid || res.Lines == 0 {
		t.Errorf("journal verify = %+v", res)
	}
	entries, err := journal.Tail(cfg.Journal, journal.Filter{RunID: out.RunID})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) == 0 {
		t.Error("journal has no entries for the run")
	}
}

func TestRunDoesNotArchivePreviousTraces(t *testing.T) {
	cfg := testConfig(t)
	stale := filepath.Join(cfg.TracesDir, "Checkout-Shop--chromium")
	if err := os.MkdirAll(stale, 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(stale, "video.webm"), []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}
	p := newPipeline(t, cfg)

	out, err := p.Run(context.Background(), parseSuite(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Archive.Folders != 2 || out.Archive.Files != 2 {
		t.Errorf("archive summary = %+v", out.Archive)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("stale trace folder still present: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.ArchiveDir, "Checkout-Shop--chromium")); !os.IsNotExist(err) {
		t.Errorf("stale trace folder archived: %v", err)
	}
}

func TestRunScenarioOverridesHeader(t *testing.T) {
	p := newPipeline(t, testConfig(t))

	out, err := p.RunScenario(context.Background(), parseSuite(t), "Broken")
	if err != nil {
		t.Fatalf("RunScenario: %v", err)
	}
	if got := out.Failed(); got != 2 {
		t.Errorf("failed = %d, want 2", got)
	}
	for _, r := range out.Results {
		if r.Scenario != "Broken" || r.FailedAt != 1 {
			t.Errorf("result = %+v", r)
		}
		if !strings.HasSuffix(r.ReportPath, "__FAILED.pdf") {
			t.Errorf("report path = %q", r.ReportPath)
		}
	}
}

func TestRunOpensViewerPerTrace(t *testing.T) {
	cfg := testConfig(t)
	cfg.ShowDashboard = true
	cfg.ViewerCommand = []string{"npx", "playwright", "show-trace"}
	p := newPipeline(t, cfg)
	v := &fakeViewer{}
	p.Viewer = v

	if _, err := p.Run(context.Background(), parseSuite(t)); err != nil {
		t.Fatal(err)
	}
	if len(v.calls) != 2 {
		t.Fatalf("viewer calls = %v", v.calls)
	}
	for _, c := range v.calls {
		if c[2] != "show-trace" || !strings.HasSuffix(c[3], "trace.zip") {
			t.Errorf("viewer argv = %v", c)
		}
	}
}

func TestLaunchFailureKeepsOtherProjects(t *testing.T) {
	p := newPipeline(t, testConfig(t))
	p.Launch = func(ctx context.Context, opts driver.Options) (driver.Harness, error) {
		if opts.Browser == "webkit" {
			return nil, errors.New("webkit not installed")
		}
		return &fakeHarness{opts: opts}, nil
	}

	out, err := p.Run(context.Background(), parseSuite(t))
	if err == nil || !strings.Contains(err.Error(), "webkit not installed") {
		t.Errorf("Run err = %v", err)
	}
	if len(out.Results) != 1 || !out.Results[0].Passed {
		t.Errorf("results = %+v", out.Results)
	}
}

func TestLauncher(t *testing.T) {
	for _, name := range []string{config.DriverPlaywright, config.DriverChromedp} {
		if l, err := Launcher(name); err != nil || l == nil {
			t.Errorf("Launcher(%q) = %v, %v", name, l, err)
		}
	}
	if _, err := Launcher("selenium"); err == nil {
		t.Error("expected error for unknown driver")
	}
}
