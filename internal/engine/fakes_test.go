package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/Pochyxi/e2ereport/internal/driver"
	"github.com/Pochyxi/e2ereport/internal/report"
)

// fakePage records driver calls. Behavior per selector is configured with
// the maps; a selector in block never returns until release is closed.
type fakePage struct {
	mu       sync.Mutex
	calls    []string
	fail     map[string]error
	checked  map[string]bool
	visible  map[string]bool
	panics   map[string]bool
	block    map[string]bool
	release  chan struct{}
	sawDone  chan struct{}
	evalArgs []any
}

func newFakePage() *fakePage {
	return &fakePage{
		fail:    map[string]error{},
		checked: map[string]bool{},
		visible: map[string]bool{},
		panics:  map[string]bool{},
		block:   map[string]bool{},
		release: make(chan struct{}),
		sawDone: make(chan struct{}, 8),
	}
}

func (p *fakePage) record(call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
}

func (p *fakePage) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// act applies the configured behavior for target.
func (p *fakePage) act(ctx context.Context, call, target string) error {
	p.record(call)
	if p.panics[target] {
		panic("driver exploded on " + target)
	}
	if p.block[target] {
		select {
		case <-ctx.Done():
			p.sawDone <- struct{}{}
			<-p.release
		case <-p.release:
		}
		return ctx.Err()
	}
	return p.fail[target]
}

func (p *fakePage) Goto(ctx context.Context, url string) error {
	return p.act(ctx, "goto "+url, url)
}

func (p *fakePage) Click(ctx context.Context, sel string) error {
	return p.act(ctx, "click "+sel, sel)
}

func (p *fakePage) Fill(ctx context.Context, sel, text string) error {
	return p.act(ctx, fmt.Sprintf("fill %s %s", sel, text), sel)
}

func (p *fakePage) IsChecked(ctx context.Context, sel string) (bool, error) {
	p.record("checked " + sel)
	return p.checked[sel], nil
}

func (p *fakePage) IsVisible(ctx context.Context, sel string) (bool, error) {
	p.record("visible " + sel)
	if err := p.fail["visible:"+sel]; err != nil {
		return false, err
	}
	return p.visible[sel], nil
}

func (p *fakePage) Screenshot(ctx context.Context, path string) error {
	p.record("screenshot")
	return os.WriteFile(path, []byte("png"), 0o600)
}

func (p *fakePage) Evaluate(ctx context.Context, expr string, arg any) (any, error) {
	p.mu.Lock()
	p.evalArgs = append(p.evalArgs, arg)
	p.mu.Unlock()
	p.record("evaluate")
	if strings.Contains(expr, "store.length") {
		return map[string]any{"token": `"abc"`}, nil
	}
	return nil, nil
}

// fakeHarness runs every test on one fakePage.
type fakeHarness struct {
	page    *fakePage
	project string
	tests   []string
	steps   []string
	testErr error
	closed  bool
}

func (h *fakeHarness) Test(ctx context.Context, title string, _ driver.Viewport, fn driver.TestFunc) error {
	h.tests = append(h.tests, title)
	if h.testErr != nil {
		return h.testErr
	}
	return fn(ctx, driver.TestInfo{Title: title, Project: h.project}, h.page)
}

func (h *fakeHarness) Step(ctx context.Context, label string, fn func(context.Context) error) error {
	h.steps = append(h.steps, label)
	return fn(ctx)
}

func (h *fakeHarness) Close() error {
	h.closed = true
	return nil
}

// pageCanvas counts pages and images; it draws nothing.
type pageCanvas struct {
	pages  int
	images int
}

func (c *pageCanvas) PageSize() (float64, float64)                          { return 612, 792 }
func (c *pageCanvas) AddPage()                                              { c.pages++ }
func (c *pageCanvas) FillRect(_, _, _, _ float64, _ report.Color)           {}
func (c *pageCanvas) SetFont(bool, float64)                                 {}
func (c *pageCanvas) SetTextColor(report.Color)                             {}
func (c *pageCanvas) SplitText(text string, _ float64) []string             { return []string{text} }
func (c *pageCanvas) TextLine(_, _, _, _ float64, _ string, _ report.Align) {}
func (c *pageCanvas) Image(string, float64, float64, float64) (float64, error) {
	c.images++
	return 200, nil
}
func (c *pageCanvas) Output(w io.Writer) error {
	_, err := io.WriteString(w, "%PDF-fake")
	return err
}

var errBoom = errors.New("boom")
