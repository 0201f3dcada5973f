// Package suite loads scenario files and answers structural queries over the
// scenario tree.
package suite

import (
	"encoding/json"
	"strconv"
	"strings"
)

// RunType selects how much of the suite a run executes.
type RunType string

const (
	RunTest    RunType = "test"
	RunChapter RunType = "chapter"
)

// runTypeAliases maps legacy spellings onto canonical run types.
var runTypeAliases = map[string]RunType{
	"test":    RunTest,
	"chapter": RunChapter,
	"cap":     RunChapter,
}

// ActionKind is the canonical name of a step action.
type ActionKind string

const (
	ActionInitializeStorage ActionKind = "initialize-storage"
	ActionLandOnPage        ActionKind = "land-on-page"
	ActionClickRadioCheck   ActionKind = "click-radio-and-check-state"
	ActionClick             ActionKind = "click"
	ActionFillText          ActionKind = "fill-text"
	ActionCheck             ActionKind = "check"
)

// actionAliases maps every accepted action name onto its kind.
var actionAliases = map[string]ActionKind{
	string(ActionInitializeStorage): ActionInitializeStorage,
	string(ActionLandOnPage):        ActionLandOnPage,
	string(ActionClickRadioCheck):   ActionClickRadioCheck,
	string(ActionClick):             ActionClick,
	string(ActionFillText):          ActionFillText,
	string(ActionCheck):             ActionCheck,

	"settaggio_storage":            ActionInitializeStorage,
	"atterraggio_pagina":           ActionLandOnPage,
	"clic_radio_e_controlla_stato": ActionClickRadioCheck,
	"clicca":                       ActionClick,
	"inserisci_testo":              ActionFillText,
	"controlla":                    ActionCheck,
}

// ParseAction resolves an action name, canonical or legacy.
func ParseAction(name string) (ActionKind, bool) {
	k, ok := actionAliases[strings.TrimSpace(name)]
	return k, ok
}

// ActionKinds lists the canonical kinds in dispatch order.
func ActionKinds() []ActionKind {
	return []ActionKind{
		ActionInitializeStorage,
		ActionLandOnPage,
		ActionClickRadioCheck,
		ActionClick,
		ActionFillText,
		ActionCheck,
	}
}

// Storage kinds accepted by initialize-storage.
const (
	StorageLocal   = "local"
	StorageSession = "session"
)

// Info is the suite header.
type Info struct {
	Name     string   `json:"name"`
	RunType  string   `json:"runType"`
	RunName  string   `json:"runName"`
	Browsers []string `json:"browsers"`
}

// Args is the argument bag of a step. Absent keys stay zero.
type Args struct {
	Selector          string  `json:"selector,omitempty"`
	Text              string  `json:"text,omitempty"`
	URL               string  `json:"url,omitempty"`
	StorageType       string  `json:"storageType,omitempty"`
	StorageConfigName string  `json:"storageConfigName,omitempty"`
	Delay             float64 `json:"delay,omitempty"` // seconds
}

// UnmarshalJSON accepts the legacy "ritardo" key as an alias for delay.
func (a *Args) UnmarshalJSON(data []byte) error {
	type plain Args
	var raw struct {
		plain
		Ritardo *float64 `json:"ritardo"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = Args(raw.plain)
	if a.Delay == 0 && raw.Ritardo != nil {
		a.Delay = *raw.Ritardo
	}
	return nil
}

// Step is one declarative action.
type Step struct {
	Action string `json:"actionName"`
	Label  string `json:"stepName"`
	Args   Args   `json:"args"`
}

// Kind resolves the step's action name.
func (s Step) Kind() (ActionKind, bool) {
	return ParseAction(s.Action)
}

// Scenario is a named ordered sequence of steps with descriptive metadata.
type Scenario struct {
	Description  string `json:"description"`
	PreRequisite string `json:"preRequisite"`
	Steps        []Step `json:"testStep"`
}

// Labels returns the numbered step list shown in reports.
func (s *Scenario) Labels() []string {
	out := make([]string, len(s.Steps))
	for i, st := range s.Steps {
		out[i] = strconv.Itoa(i+1) + ". " + st.Label
	}
	return out
}

// Kind tags a tree node.
type Kind int

const (
	KindScenario Kind = iota + 1
	KindChapter
)

func (k Kind) String() string {
	switch k {
	case KindScenario:
		return "scenario"
	case KindChapter:
		return "chapter"
	default:
		return "unknown"
	}
}

// Node is one entry of the tests tree: either a scenario or a chapter
// grouping further nodes. Children keep file order.
type Node struct {
	Name     string
	Kind     Kind
	Scenario *Scenario
	Children []*Node
}

// Suite is a loaded scenario file. It is not modified after Load.
type Suite struct {
	Path  string
	Info  Info
	Tests *Node // synthetic chapter holding the top-level entries
}

// Entry is a flattened view of one scenario, used for listings.
type Entry struct {
	Name    string `json:"name"`
	Chapter string `json:"chapter,omitempty"`
	Steps   int    `json:"steps"`
}
