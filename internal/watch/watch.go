// Package watch re-runs a suite whenever its scenario file changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Pochyxi/e2ereport/internal/ctxlog"
)

// DefaultDebounce is the quiet period after the last file event before a
// run starts. Editors often write a file in several events.
const DefaultDebounce = 300 * time.Millisecond

// Handler runs once per settled change.
type Handler func(ctx context.Context, path string) error

// Watcher watches one file through its parent directory so atomic
// rename-on-save editors are seen too.
type Watcher struct {
	path     string
	handler  Handler
	debounce time.Duration
}

// New returns a watcher for path.
func New(path string, handler Handler) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		handler:  handler,
		debounce: DefaultDebounce,
	}
}

// WithDebounce overrides the quiet period.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	if d > 0 {
		w.debounce = d
	}
	return w
}

// Run blocks until ctx is cancelled. Handler errors are logged and the
// watch continues. Runs never overlap: events arriving during a run are
// coalesced into one follow-up run.
func (w *Watcher) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx).With("path", w.path)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Info("watching suite file")

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-timer.C:
			logger.Info("suite changed, running")
			if err := w.run(ctx); err != nil {
				logger.Error("run after change", "error", err)
			}

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			logger.Debug("file event", "op", ev.Op.String())
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return w.handler(ctx, w.path)
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}
