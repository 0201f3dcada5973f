// Package cdpdriver runs test cases on Chrome through the DevTools protocol
// with chromedp. It has no trace recorder; step labels are logged instead.
package cdpdriver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chromedp/chromedp"

	"github.com/Pochyxi/e2ereport/internal/ctxlog"
	"github.com/Pochyxi/e2ereport/internal/driver"
)

// Harness is a driver.Harness backed by one Chrome allocator.
type Harness struct {
	opts        driver.Options
	alloc       context.Context
	cancelAlloc context.CancelFunc
}

var _ driver.Harness = (*Harness)(nil)

// Launch prepares a Chrome allocator. Only chromium projects are supported.
func Launch(ctx context.Context, opts driver.Options) (driver.Harness, error) {
	if opts.Browser != "" && opts.Browser != "chromium" {
		return nil, fmt.Errorf("chromedp drives chromium only, got %q", opts.Browser)
	}
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !opts.Headed),
	)
	alloc, cancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)

	ctxlog.FromContext(ctx).Info("browser allocator ready",
		"driver", "chromedp",
		"browser", "chromium",
		"project", opts.Project)

	return &Harness{opts: opts, alloc: alloc, cancelAlloc: cancel}, nil
}

// Test opens a new tab sized to vp and runs fn in it.
func (h *Harness) Test(ctx context.Context, title string, vp driver.Viewport, fn driver.TestFunc) error {
	dir := filepath.Join(h.opts.TracesDir, driver.TraceFolder(title, h.opts.Project))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create trace dir: %w", err)
	}

	logger := ctxlog.FromContext(ctx)
	tab, cancel := chromedp.NewContext(h.alloc,
		chromedp.WithLogf(func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer cancel()

	if err := chromedp.Run(tab, chromedp.EmulateViewport(int64(vp.Width), int64(vp.Height))); err != nil {
		return fmt.Errorf("open tab: %w", err)
	}

	return fn(ctx, driver.TestInfo{Title: title, Project: h.opts.Project}, &page{tab: tab})
}

// Step logs the label and runs fn.
func (h *Harness) Step(ctx context.Context, label string, fn func(context.Context) error) error {
	ctxlog.FromContext(ctx).Debug("step", "label", label, "project", h.opts.Project)
	return fn(ctx)
}

// Close kills the browser process.
func (h *Harness) Close() error {
	h.cancelAlloc()
	return nil
}

type page struct {
	tab context.Context
}

var _ driver.Page = (*page)(nil)

// run executes actions on the tab, cancelled when ctx is done.
func (p *page) run(ctx context.Context, actions ...chromedp.Action) error {
	rctx, cancel := context.WithCancel(p.tab)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if err := ctx.Err(); err != nil {
		return err
	}
	return chromedp.Run(rctx, actions...)
}

func (p *page) Goto(ctx context.Context, url string) error {
	if err := p.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("goto %s: %w", url, err)
	}
	return nil
}

func (p *page) Click(ctx context.Context, selector string) error {
	if err := p.run(ctx, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

func (p *page) Fill(ctx context.Context, selector, text string) error {
	err := p.run(ctx,
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("fill %s: %w", selector, err)
	}
	return nil
}

func (p *page) IsChecked(ctx context.Context, selector string) (bool, error) {
	var checked bool
	if err := p.run(ctx, chromedp.JavascriptAttribute(selector, "checked", &checked, chromedp.ByQuery)); err != nil {
		return false, fmt.Errorf("is checked %s: %w", selector, err)
	}
	return checked, nil
}

// visibleJS mirrors playwright's visibility rule: attached, non-empty box and
// not visibility:hidden. It does not wait for the element.
const visibleJS = `(sel) => {
	const el = document.querySelector(sel);
	if (!el) return false;
	const r = el.getBoundingClientRect();
	return r.width > 0 && r.height > 0 && getComputedStyle(el).visibility !== 'hidden';
}`

func (p *page) IsVisible(ctx context.Context, selector string) (bool, error) {
	var visible bool
	script, err := callExpr(visibleJS, selector)
	if err != nil {
		return false, err
	}
	if err := p.run(ctx, chromedp.Evaluate(script, &visible)); err != nil {
		return false, fmt.Errorf("is visible %s: %w", selector, err)
	}
	return visible, nil
}

func (p *page) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	if err := p.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return fmt.Errorf("screenshot %s: %w", path, err)
	}
	return os.WriteFile(path, buf, 0o644)
}

func (p *page) Evaluate(ctx context.Context, expr string, arg any) (any, error) {
	script, err := callExpr(expr, arg)
	if err != nil {
		return nil, err
	}
	var out any
	if err := p.run(ctx, chromedp.Evaluate(script, &out)); err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	return out, nil
}

// callExpr renders `(expr)(arg)` with arg encoded as JSON.
func callExpr(expr string, arg any) (string, error) {
	b, err := json.Marshal(arg)
	if err != nil {
		return "", fmt.Errorf("encode evaluate arg: %w", err)
	}
	return "(" + expr + ")(" + string(b) + ")", nil
}
