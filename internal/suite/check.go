package suite

import (
	"errors"
	"fmt"
	"strings"
)

// Problem is one issue found by Check. Problems never stop a run; they flag
// steps that will be skipped or fail at execution time.
type Problem struct {
	Scenario string `json:"scenario,omitempty"`
	Step     int    `json:"step,omitempty"` // 1-based, 0 for suite-level problems
	Message  string `json:"message"`
}

func (p Problem) String() string {
	switch {
	case p.Scenario == "":
		return p.Message
	case p.Step == 0:
		return fmt.Sprintf("%s: %s", p.Scenario, p.Message)
	default:
		return fmt.Sprintf("%s step %d: %s", p.Scenario, p.Step, p.Message)
	}
}

// Check inspects the suite for problems the engine would only hit at run
// time: unknown run type or target, unknown browsers, unknown actions and
// steps missing the arguments their action needs.
func (s *Suite) Check() []Problem {
	var out []Problem
	add := func(scenario string, step int, format string, args ...any) {
		out = append(out, Problem{Scenario: scenario, Step: step, Message: fmt.Sprintf(format, args...)})
	}

	rt, err := s.RunType()
	switch {
	case errors.Is(err, ErrUnknownRunType):
		add("", 0, "%v", err)
	case rt == RunTest:
		if _, ok := s.FindScenario(s.RunName()); !ok {
			add("", 0, "runName %q does not resolve to a scenario", s.RunName())
		}
	case rt == RunChapter:
		if _, ok := s.Chapter(s.RunName()); !ok {
			add("", 0, "runName %q is not a top-level chapter", s.RunName())
		}
	}

	projects, unknown := s.Projects()
	for _, b := range unknown {
		add("", 0, "unknown browser %q", b)
	}
	if len(projects) == 0 {
		add("", 0, "no runnable browser in info.browsers")
	}

	var walk func(n *Node)
	walk = func(n *Node) {
		for _, child := range n.Children {
			if child.Kind == KindChapter {
				walk(child)
				continue
			}
			for i, st := range child.Scenario.Steps {
				checkStep(child.Name, i+1, st, add)
			}
		}
	}
	walk(s.Tests)
	return out
}

func checkStep(scenario string, n int, st Step, add func(string, int, string, ...any)) {
	kind, ok := st.Kind()
	if !ok {
		add(scenario, n, "unknown action %q", st.Action)
		return
	}
	if strings.TrimSpace(st.Label) == "" {
		add(scenario, n, "missing stepName")
	}
	a := st.Args
	switch kind {
	case ActionInitializeStorage:
		if a.StorageType != StorageLocal && a.StorageType != StorageSession {
			add(scenario, n, "storageType must be %q or %q, got %q", StorageLocal, StorageSession, a.StorageType)
		}
		if a.StorageConfigName == "" {
			add(scenario, n, "missing storageConfigName")
		}
	case ActionLandOnPage:
		if a.URL == "" {
			add(scenario, n, "missing url")
		}
	case ActionClickRadioCheck, ActionClick, ActionCheck, ActionFillText:
		if a.Selector == "" {
			add(scenario, n, "missing selector")
		}
	}
	if a.Delay < 0 {
		add(scenario, n, "negative delay %v", a.Delay)
	}
}
