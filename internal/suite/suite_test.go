package suite

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeSuite(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suite.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func mustParse(t *testing.T, content string) *Suite {
	t.Helper()
	s, err := Parse([]byte(content))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return s
}

const scenarioBody = `{"description": "d", "preRequisite": "p", "testStep": []}`

func TestLoadLoginSuite(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "login.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	rt, err := s.RunType()
	if err != nil || rt != RunTest {
		t.Fatalf("RunType = %q, %v", rt, err)
	}
	if s.RunName() != "Login" {
		t.Errorf("RunName = %q", s.RunName())
	}

	sc, ok := s.FindScenario("Login")
	if !ok {
		t.Fatal("Login not found")
	}
	want := []Step{
		{Action: "land-on-page", Label: "Open login page", Args: Args{URL: "https://shop.example/login"}},
		{Action: "click", Label: "Press sign in", Args: Args{Selector: "#sign-in", Delay: 2}},
	}
	if diff := cmp.Diff(want, sc.Steps); diff != "" {
		t.Errorf("steps mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"1. Open login page", "2. Press sign in"}, sc.Labels()); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	if sc.Description != "User signs in with valid credentials" || sc.PreRequisite != "A registered user exists" {
		t.Errorf("metadata = %q / %q", sc.Description, sc.PreRequisite)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LoadError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped ErrNotExist, got %v", err)
	}
}

func TestLoadInvalidStructure(t *testing.T) {
	tests := map[string]string{
		"bad json":         `{"info": `,
		"missing info":     `{"tests": {}}`,
		"missing tests":    `{"info": {"name": "x"}}`,
		"tests not object": `{"info": {}, "tests": []}`,
		"entry not object": `{"info": {}, "tests": {"Login": "nope"}}`,
		"bad steps":        `{"info": {}, "tests": {"Login": {"testStep": {}}}}`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeSuite(t, content))
			var le *LoadError
			if !errors.As(err, &le) {
				t.Fatalf("expected *LoadError, got %v", err)
			}
		})
	}
}

func TestRunTypeAliases(t *testing.T) {
	tests := []struct {
		raw     string
		want    RunType
		wantErr bool
	}{
		{"test", RunTest, false},
		{"chapter", RunChapter, false},
		{"cap", RunChapter, false},
		{" Chapter ", RunChapter, false},
		{"suite", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		s := &Suite{Info: Info{RunType: tt.raw}}
		got, err := s.RunType()
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownRunType) {
				t.Errorf("RunType(%q) error = %v, want ErrUnknownRunType", tt.raw, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("RunType(%q) = %q, %v", tt.raw, got, err)
		}
	}
}

func TestTaggedNodes(t *testing.T) {
	s := mustParse(t, `{"info": {}, "tests": {
		"Solo": `+scenarioBody+`,
		"Cart": {"Add": `+scenarioBody+`, "Remove": `+scenarioBody+`}
	}}`)

	if got := len(s.Tests.Children); got != 2 {
		t.Fatalf("root children = %d", got)
	}
	solo, cart := s.Tests.Children[0], s.Tests.Children[1]
	if solo.Name != "Solo" || solo.Kind != KindScenario || solo.Scenario == nil {
		t.Errorf("Solo = %+v", solo)
	}
	if cart.Name != "Cart" || cart.Kind != KindChapter || len(cart.Children) != 2 {
		t.Errorf("Cart = %+v", cart)
	}
}

func TestFindUsesLIFOOrder(t *testing.T) {
	// Both chapters are pushed while scanning the root; B is popped first.
	s := mustParse(t, `{"info": {}, "tests": {
		"A": {"X": {"description": "from A", "testStep": []}},
		"B": {"X": {"description": "from B", "testStep": []}}
	}}`)

	for i := 0; i < 5; i++ {
		sc, ok := s.FindScenario("X")
		if !ok {
			t.Fatal("X not found")
		}
		if sc.Description != "from B" {
			t.Fatalf("FindScenario(X) = %q, want from B", sc.Description)
		}
	}
}

func TestFindPrefersShallowMatchInScannedObject(t *testing.T) {
	s := mustParse(t, `{"info": {}, "tests": {
		"Group": {"X": {"description": "nested", "testStep": []}},
		"X": {"description": "top", "testStep": []}
	}}`)

	sc, ok := s.FindScenario("X")
	if !ok || sc.Description != "top" {
		t.Fatalf("FindScenario(X) = %+v, %v; want top", sc, ok)
	}
}

func TestFindScenarioRejectsChapterMatch(t *testing.T) {
	s := mustParse(t, `{"info": {}, "tests": {
		"Cart": {"Add": `+scenarioBody+`}
	}}`)

	if _, ok := s.FindScenario("Cart"); ok {
		t.Error("FindScenario should not return a chapter")
	}
	n, ok := s.Find("Cart")
	if !ok || n.Kind != KindChapter {
		t.Errorf("Find(Cart) = %+v, %v", n, ok)
	}
	if _, ok := s.Find("description"); ok {
		t.Error("scenario bodies must not be searched")
	}
	if _, ok := s.Find("Missing"); ok {
		t.Error("Find(Missing) should report not found")
	}
}

func TestChapterScenariosKeepFileOrder(t *testing.T) {
	s := mustParse(t, `{"info": {}, "tests": {
		"Cart": {
			"zeta": `+scenarioBody+`,
			"alpha": `+scenarioBody+`,
			"Nested": {"inner": `+scenarioBody+`},
			"mid": `+scenarioBody+`
		}
	}}`)

	var names []string
	for _, n := range s.ChapterScenarios("Cart") {
		names = append(names, n.Name)
	}
	if diff := cmp.Diff([]string{"zeta", "alpha", "mid"}, names); diff != "" {
		t.Errorf("chapter order (-want +got):\n%s", diff)
	}
	if got := s.ChapterScenarios("Missing"); got != nil {
		t.Errorf("missing chapter = %v", got)
	}
}

func TestEntries(t *testing.T) {
	s := mustParse(t, `{"info": {}, "tests": {
		"Solo": `+scenarioBody+`,
		"Cart": {"Add": `+scenarioBody+`, "More": {"Deep": `+scenarioBody+`}}
	}}`)

	want := []Entry{
		{Name: "Solo"},
		{Name: "Add", Chapter: "Cart"},
		{Name: "Deep", Chapter: "Cart/More"},
	}
	if diff := cmp.Diff(want, s.Entries()); diff != "" {
		t.Errorf("entries (-want +got):\n%s", diff)
	}
}

func TestLegacyVocabulary(t *testing.T) {
	s := mustParse(t, `{"info": {"runType": "cap", "runName": "Cart"}, "tests": {
		"Cart": {"Add": {"testStep": [
			{"actionName": "clicca", "stepName": "c", "args": {"selector": "#a", "ritardo": 3}},
			{"actionName": "inserisci_testo", "stepName": "f", "args": {"selector": "#b", "text": "hi"}}
		]}}
	}}`)

	rt, err := s.RunType()
	if err != nil || rt != RunChapter {
		t.Fatalf("RunType = %q, %v", rt, err)
	}
	steps := s.ChapterScenarios("Cart")[0].Scenario.Steps
	if k, ok := steps[0].Kind(); !ok || k != ActionClick {
		t.Errorf("clicca = %q, %v", k, ok)
	}
	if steps[0].Args.Delay != 3 {
		t.Errorf("ritardo delay = %v, want 3", steps[0].Args.Delay)
	}
	if k, ok := steps[1].Kind(); !ok || k != ActionFillText {
		t.Errorf("inserisci_testo = %q, %v", k, ok)
	}
}

func TestParseAction(t *testing.T) {
	tests := map[string]ActionKind{
		"settaggio_storage":            ActionInitializeStorage,
		"atterraggio_pagina":           ActionLandOnPage,
		"clic_radio_e_controlla_stato": ActionClickRadioCheck,
		"controlla":                    ActionCheck,
		"fill-text":                    ActionFillText,
	}
	for name, want := range tests {
		if got, ok := ParseAction(name); !ok || got != want {
			t.Errorf("ParseAction(%q) = %q, %v", name, got, ok)
		}
	}
	if _, ok := ParseAction("hover"); ok {
		t.Error("hover should not resolve")
	}
}

func TestProjects(t *testing.T) {
	s := &Suite{Info: Info{Name: "Shop", Browsers: []string{"chrome", "opera", "safari"}}}
	projects, unknown := s.Projects()

	want := []Project{
		{Name: "Shop--chrome", Browser: Chromium},
		{Name: "Shop--safari", Browser: WebKit},
	}
	if diff := cmp.Diff(want, projects); diff != "" {
		t.Errorf("projects (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"opera"}, unknown); diff != "" {
		t.Errorf("unknown (-want +got):\n%s", diff)
	}
}

func TestLoadFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user.json")
	content := `{"token": "abc", "prefs": {"theme": "dark", "n": [1, 2]}, "count": 3}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	f, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if diff := cmp.Diff([]string{"token", "prefs", "count"}, f.Keys); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
	want := map[string]string{
		"token": `"abc"`,
		"prefs": `{"theme":"dark","n":[1,2]}`,
		"count": `3`,
	}
	if diff := cmp.Diff(want, f.Map()); diff != "" {
		t.Errorf("values (-want +got):\n%s", diff)
	}
}

func TestLoadFixtureMissing(t *testing.T) {
	if _, err := LoadFixture(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error")
	}
}

func TestCheck(t *testing.T) {
	s := mustParse(t, `{"info": {"name": "Shop", "runType": "test", "runName": "Ghost", "browsers": ["opera"]}, "tests": {
		"Login": {"testStep": [
			{"actionName": "hover", "stepName": "h", "args": {}},
			{"actionName": "land-on-page", "stepName": "l", "args": {}},
			{"actionName": "settaggio_storage", "stepName": "s", "args": {"storageType": "cookie"}},
			{"actionName": "click", "stepName": "c", "args": {"selector": "#ok"}}
		]}
	}}`)

	var got []string
	for _, p := range s.Check() {
		got = append(got, p.String())
	}
	want := []string{
		`runName "Ghost" does not resolve to a scenario`,
		`unknown browser "opera"`,
		`no runnable browser in info.browsers`,
		`Login step 1: unknown action "hover"`,
		`Login step 2: missing url`,
		`Login step 3: storageType must be "local" or "session", got "cookie"`,
		`Login step 3: missing storageConfigName`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("problems (-want +got):\n%s", diff)
	}
}

func TestCheckCleanSuite(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "login.json"))
	if err != nil {
		t.Fatal(err)
	}
	if problems := s.Check(); len(problems) != 0 {
		t.Errorf("unexpected problems: %v", problems)
	}
}

func TestTargetingLeavesOriginalUntouched(t *testing.T) {
	s := mustParse(t, `{"info": {"name": "Shop", "runType": "chapter", "runName": "Cart", "browsers": ["chrome"]}, "tests": {
		"Solo": `+scenarioBody+`
	}}`)

	got := s.Targeting(RunTest, "Solo")
	rt, err := got.RunType()
	if err != nil || rt != RunTest || got.RunName() != "Solo" {
		t.Errorf("Targeting header = %+v", got.Info)
	}
	got.Info.Browsers[0] = "firefox"
	if s.Info.RunType != "chapter" || s.RunName() != "Cart" || s.Info.Browsers[0] != "chrome" {
		t.Errorf("original header changed: %+v", s.Info)
	}
	if got.Tests != s.Tests {
		t.Error("tests tree should be shared")
	}
}
