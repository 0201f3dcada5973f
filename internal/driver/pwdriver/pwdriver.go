// Package pwdriver runs test cases on playwright-go. Each test gets its own
// browser context with tracing and video recording into the traces directory.
package pwdriver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/Pochyxi/e2ereport/internal/ctxlog"
	"github.com/Pochyxi/e2ereport/internal/driver"
)

// TraceFile is the trace archive written into each test folder.
const TraceFile = "trace.zip"

// Harness is a driver.Harness backed by one launched browser.
type Harness struct {
	opts    driver.Options
	pw      *playwright.Playwright
	browser playwright.Browser

	// tracing of the running test; tests run one at a time, but Step may be
	// called from an abandoned timed-out handler.
	mu      sync.Mutex
	tracing playwright.Tracing
}

var _ driver.Harness = (*Harness)(nil)

// Launch starts playwright and the browser named in opts.
func Launch(ctx context.Context, opts driver.Options) (driver.Harness, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	var bt playwright.BrowserType
	switch opts.Browser {
	case "chromium", "":
		bt = pw.Chromium
	case "firefox":
		bt = pw.Firefox
	case "webkit":
		bt = pw.WebKit
	default:
		_ = pw.Stop()
		return nil, fmt.Errorf("unsupported browser %q", opts.Browser)
	}

	browser, err := bt.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(!opts.Headed),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch %s: %w", opts.Browser, err)
	}

	ctxlog.FromContext(ctx).Info("browser launched",
		"driver", "playwright",
		"browser", opts.Browser,
		"version", browser.Version(),
		"project", opts.Project)

	return &Harness{opts: opts, pw: pw, browser: browser}, nil
}

// Test runs fn in a fresh browser context and saves its trace to
// {traces}/{title}-{project}/trace.zip.
func (h *Harness) Test(ctx context.Context, title string, vp driver.Viewport, fn driver.TestFunc) (err error) {
	logger := ctxlog.FromContext(ctx)
	dir := filepath.Join(h.opts.TracesDir, driver.TraceFolder(title, h.opts.Project))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create trace dir: %w", err)
	}

	size := &playwright.Size{Width: vp.Width, Height: vp.Height}
	bctx, err := h.browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport:    size,
		RecordVideo: &playwright.RecordVideo{Dir: dir, Size: size},
	})
	if err != nil {
		return fmt.Errorf("new browser context: %w", err)
	}
	defer func() {
		if cerr := bctx.Close(); cerr != nil {
			logger.Warn("close browser context", "error", cerr)
		}
	}()

	tracing := bctx.Tracing()
	if err := tracing.Start(playwright.TracingStartOptions{
		Title:       playwright.String(title),
		Screenshots: playwright.Bool(true),
		Snapshots:   playwright.Bool(true),
		Sources:     playwright.Bool(true),
	}); err != nil {
		return fmt.Errorf("start tracing: %w", err)
	}
	h.setTracing(tracing)
	defer func() {
		h.setTracing(nil)
		tracePath := filepath.Join(dir, TraceFile)
		if serr := tracing.Stop(tracePath); serr != nil {
			logger.Warn("stop tracing", "error", serr)
			return
		}
		logger.Debug("trace saved", "path", tracePath)
	}()

	p, err := bctx.NewPage()
	if err != nil {
		return fmt.Errorf("new page: %w", err)
	}

	return fn(ctx, driver.TestInfo{Title: title, Project: h.opts.Project}, &page{p: p})
}

// Step wraps fn in a trace group when a test is running.
func (h *Harness) Step(ctx context.Context, label string, fn func(context.Context) error) error {
	tracing := h.currentTracing()
	if tracing == nil {
		return fn(ctx)
	}
	if err := tracing.Group(label); err != nil {
		ctxlog.FromContext(ctx).Debug("trace group", "label", label, "error", err)
		return fn(ctx)
	}
	defer func() { _ = tracing.GroupEnd() }()
	return fn(ctx)
}

func (h *Harness) setTracing(t playwright.Tracing) {
	h.mu.Lock()
	h.tracing = t
	h.mu.Unlock()
}

func (h *Harness) currentTracing() playwright.Tracing {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tracing
}

// Close shuts the browser and the playwright server down.
func (h *Harness) Close() error {
	return errors.Join(h.browser.Close(), h.pw.Stop())
}

// Install downloads the browsers playwright drives.
func Install(ctx context.Context, browsers ...string) error {
	ctxlog.FromContext(ctx).Info("installing playwright browsers", "browsers", browsers)
	return playwright.Install(&playwright.RunOptions{Browsers: browsers})
}
