package engine

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// withTimeout races fn against the step timeout. The first to settle wins.
// fn runs on a context that is cancelled when the timer wins, so a handler
// that honors its context stops touching the page. Panics are recovered
// into a StepError.
func withTimeout(ctx context.Context, label string, timeout time.Duration, fn func(context.Context) error) error {
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- &StepError{Label: label, Err: fmt.Errorf("panic: %v", r), Panic: r}
			}
		}()
		done <- fn(sctx)
	}()

	select {
	case err := <-done:
		if err == nil {
			return nil
		}
		var se *StepError
		if errors.As(err, &se) {
			return err
		}
		// A driver giving up at the deadline it was handed is the same
		// timeout, whichever branch observes it first.
		if ctx.Err() == nil && (errors.Is(err, context.DeadlineExceeded) || sctx.Err() != nil) {
			return &StepTimeoutError{Label: label, Timeout: timeout}
		}
		return &StepError{Label: label, Err: err}
	case <-sctx.Done():
		if err := ctx.Err(); err != nil {
			return err
		}
		return &StepTimeoutError{Label: label, Timeout: timeout}
	}
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
