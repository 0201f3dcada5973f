package engine

import (
	"context"
	"time"
)

// EventType classifies step events.
type EventType string

const (
	EventScenarioStart EventType = "scenario_start"
	EventStepStart     EventType = "step_start"
	EventStepPass      EventType = "step_pass"
	EventStepFail      EventType = "step_fail"
	EventStepTimeout   EventType = "step_timeout"
	EventStepSkip      EventType = "step_skip"
	EventReport        EventType = "report"
)

// Event is emitted as a scenario progresses.
type Event struct {
	Type     EventType
	Time     time.Time
	RunID    string
	Project  string
	Scenario string
	Step     string
	Index    int
	Error    string
	Path     string
}

func (ev Event) with(t EventType, err error) Event {
	ev.Type = t
	if err != nil {
		ev.Error = err.Error()
	}
	return ev
}

// Observer receives engine events. Calls are synchronous and sequential.
type Observer interface {
	Observe(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev Event)

func (f ObserverFunc) Observe(ctx context.Context, ev Event) { f(ctx, ev) }

// Observers fans one event out to several observers in order.
type Observers []Observer

func (o Observers) Observe(ctx context.Context, ev Event) {
	for _, obs := range o {
		obs.Observe(ctx, ev)
	}
}
