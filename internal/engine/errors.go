package engine

import (
	"errors"
	"fmt"
	"time"
)

// ErrScenarioNotFound marks a run target that does not resolve to a scenario.
var ErrScenarioNotFound = errors.New("scenario not found")

// StepTimeoutError reports a step whose handler did not settle in time.
type StepTimeoutError struct {
	Label   string
	Timeout time.Duration
}

func (e *StepTimeoutError) Error() string {
	return fmt.Sprintf("step %q timed out after %s", e.Label, e.Timeout)
}

// StepError reports a step whose handler returned an error or panicked.
type StepError struct {
	Label string
	Err   error
	Panic any // recovered value, nil for plain errors
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q failed: %v", e.Label, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
