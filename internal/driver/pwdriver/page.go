package pwdriver

import (
	"context"
	"errors"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/Pochyxi/e2ereport/internal/driver"
)

// page adapts playwright.Page. Playwright calls block, so the context only
// contributes its deadline as the per-call timeout.
type page struct {
	p playwright.Page
}

var _ driver.Page = (*page)(nil)

func timeout(ctx context.Context) *float64 {
	left, ok := driver.Remaining(ctx)
	if !ok {
		return nil
	}
	return playwright.Float(float64(left.Milliseconds()))
}

// wrapErr marks playwright timeouts as deadline errors so they classify
// like the step timer expiring.
func wrapErr(op string, err error) error {
	err = fmt.Errorf("%s: %w", op, err)
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
	}
	return err
}

func (pg *page) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := pg.p.Goto(url, playwright.PageGotoOptions{Timeout: timeout(ctx)}); err != nil {
		return wrapErr("goto "+url, err)
	}
	return nil
}

func (pg *page) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := pg.p.Locator(selector).Click(playwright.LocatorClickOptions{Timeout: timeout(ctx)}); err != nil {
		return wrapErr("click "+selector, err)
	}
	return nil
}

func (pg *page) Fill(ctx context.Context, selector, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := pg.p.Locator(selector).Fill(text, playwright.LocatorFillOptions{Timeout: timeout(ctx)}); err != nil {
		return wrapErr("fill "+selector, err)
	}
	return nil
}

func (pg *page) IsChecked(ctx context.Context, selector string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ok, err := pg.p.Locator(selector).IsChecked(playwright.LocatorIsCheckedOptions{Timeout: timeout(ctx)})
	if err != nil {
		return false, wrapErr("is checked "+selector, err)
	}
	return ok, nil
}

func (pg *page) IsVisible(ctx context.Context, selector string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ok, err := pg.p.Locator(selector).IsVisible()
	if err != nil {
		return false, wrapErr("is visible "+selector, err)
	}
	return ok, nil
}

func (pg *page) Screenshot(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := pg.p.Screenshot(playwright.PageScreenshotOptions{
		Path:    playwright.String(path),
		Timeout: timeout(ctx),
	}); err != nil {
		return wrapErr("screenshot "+path, err)
	}
	return nil
}

func (pg *page) Evaluate(ctx context.Context, expr string, arg any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := pg.p.Evaluate(expr, arg)
	if err != nil {
		return nil, wrapErr("evaluate", err)
	}
	return out, nil
}
