package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Pochyxi/e2ereport/internal/ctxlog"
	"github.com/Pochyxi/e2ereport/internal/driver"
	"github.com/Pochyxi/e2ereport/internal/report"
	"github.com/Pochyxi/e2ereport/internal/suite"
)

// handler executes one step against the page.
type handler func(ctx context.Context, e *Engine, page driver.Page, step suite.Step) error

// handlers is the dispatch table, keyed by canonical action kind.
var handlers = map[suite.ActionKind]handler{
	suite.ActionInitializeStorage: initializeStorage,
	suite.ActionLandOnPage:        landOnPage,
	suite.ActionClickRadioCheck:   clickRadioAndCheck,
	suite.ActionClick:             click,
	suite.ActionFillText:          fillText,
	suite.ActionCheck:             check,
}

// injectStorageJS writes pairs of already-encoded values into the chosen
// storage area.
const injectStorageJS = `({ pairs, storageType }) => {
	const store = storageType === 'local' ? localStorage : sessionStorage;
	for (const [key, value] of pairs) {
		store.setItem(key, value);
	}
}`

// readStorageJS returns every key of the chosen storage area.
const readStorageJS = `(storageType) => {
	const store = storageType === 'local' ? localStorage : sessionStorage;
	const data = {};
	for (let i = 0; i < store.length; i++) {
		const key = store.key(i);
		if (key !== null) {
			data[key] = store.getItem(key) || '';
		}
	}
	return data;
}`

func initializeStorage(ctx context.Context, e *Engine, page driver.Page, step suite.Step) error {
	logger := ctxlog.FromContext(ctx)
	kind := step.Args.StorageType
	if kind != suite.StorageLocal && kind != suite.StorageSession {
		logger.Warn("storage type not recognized, using session storage", "storage_type", kind)
		kind = suite.StorageSession
	}
	logger.Info("initializing storage", "storage_type", kind, "fixture", step.Args.StorageConfigName)

	fixture, err := suite.LoadFixture(e.opts.Dirs.FixturePath(step.Args.StorageConfigName))
	if err != nil {
		return err
	}
	pairs := make([][2]string, 0, len(fixture.Keys))
	for _, k := range fixture.Keys {
		pairs = append(pairs, [2]string{k, fixture.Values[k]})
	}
	if _, err := page.Evaluate(ctx, injectStorageJS, map[string]any{
		"pairs":       pairs,
		"storageType": kind,
	}); err != nil {
		return fmt.Errorf("inject %s storage: %w", kind, err)
	}

	contents, err := page.Evaluate(ctx, readStorageJS, kind)
	if err != nil {
		return fmt.Errorf("read %s storage: %w", kind, err)
	}
	dump, _ := json.Marshal(contents)
	logger.Info("storage contents after initialization", "storage_type", kind, "contents", string(dump))
	return nil
}

func landOnPage(ctx context.Context, _ *Engine, page driver.Page, step suite.Step) error {
	ctxlog.FromContext(ctx).Info("navigating", "url", step.Args.URL)
	return page.Goto(ctx, step.Args.URL)
}

func clickRadioAndCheck(ctx context.Context, _ *Engine, page driver.Page, step suite.Step) error {
	logger := ctxlog.FromContext(ctx)
	sel := step.Args.Selector
	logger.Info("clicking", "selector", sel)
	if err := page.Click(ctx, sel); err != nil {
		return err
	}
	checked, err := page.IsChecked(ctx, sel)
	if err != nil {
		return err
	}
	logger.Info("checked state", "selector", sel, "checked", checked)
	if !checked {
		return fmt.Errorf("expected %s to be checked", sel)
	}
	return nil
}

func click(ctx context.Context, _ *Engine, page driver.Page, step suite.Step) error {
	ctxlog.FromContext(ctx).Info("clicking", "selector", step.Args.Selector)
	return page.Click(ctx, step.Args.Selector)
}

func fillText(ctx context.Context, _ *Engine, page driver.Page, step suite.Step) error {
	ctxlog.FromContext(ctx).Info("filling", "selector", step.Args.Selector, "text", step.Args.Text)
	return page.Fill(ctx, step.Args.Selector, step.Args.Text)
}

// check observes visibility without asserting it.
func check(ctx context.Context, _ *Engine, page driver.Page, step suite.Step) error {
	logger := ctxlog.FromContext(ctx)
	logger.Info("checking element", "selector", step.Args.Selector)
	visible, err := page.IsVisible(ctx, step.Args.Selector)
	if err != nil {
		logger.Warn("visibility query failed", "selector", step.Args.Selector, "error", err)
		return nil
	}
	logger.Info("element visibility", "selector", step.Args.Selector, "visible", visible)
	return nil
}

// screenshotName is {title}__{label}__{timestamp}.png with title and label
// made safe for a single path segment.
func screenshotName(title, label, timestamp string) string {
	return report.SafeName(title) + "__" + report.SafeName(label) + "__" + timestamp + ".png"
}
