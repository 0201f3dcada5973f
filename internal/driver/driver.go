// Package driver defines the browser automation surface the engine drives.
// Concrete adapters live in the pwdriver and cdpdriver subpackages.
package driver

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// Viewport is the browser window size of a test case.
type Viewport struct {
	Width  int
	Height int
}

// TestInfo identifies the running test case.
type TestInfo struct {
	Title   string
	Project string
}

// TestFunc is the body of one registered test case.
type TestFunc func(ctx context.Context, info TestInfo, page Page) error

// Page is one browser tab. Every call honors the context deadline.
type Page interface {
	Goto(ctx context.Context, url string) error
	Click(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, text string) error
	IsChecked(ctx context.Context, selector string) (bool, error)
	IsVisible(ctx context.Context, selector string) (bool, error)
	Screenshot(ctx context.Context, path string) error
	// Evaluate calls the JavaScript function expression expr with arg.
	Evaluate(ctx context.Context, expr string, arg any) (any, error)
}

// Harness registers and runs test cases for one browser project.
type Harness interface {
	// Test opens a fresh page at the given viewport, runs fn and records
	// the trace of the test case.
	Test(ctx context.Context, title string, vp Viewport, fn TestFunc) error
	// Step runs fn as a labeled group inside the current test's trace.
	Step(ctx context.Context, label string, fn func(context.Context) error) error
	Close() error
}

// Options configure a harness for one project.
type Options struct {
	Project   string
	Browser   string // chromium, firefox or webkit
	Headed    bool
	TracesDir string
}

// Launcher starts a harness.
type Launcher func(ctx context.Context, opts Options) (Harness, error)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// TraceFolder is the per-test folder name under the traces directory.
func TraceFolder(title, project string) string {
	s := unsafeChars.ReplaceAllString(title+"-"+project, "-")
	return strings.Trim(s, "-")
}

// Remaining returns the time left before the context deadline and whether
// one is set. An expired deadline yields a minimal positive duration so
// callers hand the driver a bound instead of "no timeout".
func Remaining(ctx context.Context) (time.Duration, bool) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0, false
	}
	left := time.Until(deadline)
	if left < time.Millisecond {
		left = time.Millisecond
	}
	return left, true
}
