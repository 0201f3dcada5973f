package pwdriver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/playwright-community/playwright-go"
)

func TestWrapErrMarksTimeouts(t *testing.T) {
	timeout := fmt.Errorf("%w: %w", playwright.ErrPlaywright, playwright.ErrTimeout)
	err := wrapErr("click #go", timeout)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("timeout not marked as deadline: %v", err)
	}
	if !errors.Is(err, playwright.ErrTimeout) {
		t.Errorf("playwright error lost: %v", err)
	}

	other := wrapErr("click #go", errors.New("element detached"))
	if errors.Is(other, context.DeadlineExceeded) {
		t.Errorf("plain error marked as deadline: %v", other)
	}
	if got, want := other.Error(), "click #go: element detached"; got != want {
		t.Errorf("err = %q, want %q", got, want)
	}
}

func TestStepWithoutTracingRunsFn(t *testing.T) {
	h := &Harness{}
	called := false
	err := h.Step(context.Background(), "open", func(context.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Errorf("Step: err=%v called=%v", err, called)
	}
}

// Step may run on a handler goroutine abandoned after a timeout while the
// next test swaps the tracing handle.
func TestStepConcurrentWithTracingSwap(t *testing.T) {
	h := &Harness{}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = h.Step(context.Background(), "late", func(context.Context) error { return nil })
		}()
		go func() {
			defer wg.Done()
			h.setTracing(nil)
		}()
	}
	wg.Wait()
	if h.currentTracing() != nil {
		t.Error("tracing should be cleared")
	}
}
