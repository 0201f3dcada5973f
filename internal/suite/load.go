package suite

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// scenarioKey marks a JSON object as a scenario rather than a chapter.
const scenarioKey = "testStep"

// ErrUnknownRunType is returned when info.runType is neither test nor chapter.
var ErrUnknownRunType = errors.New("unknown run type")

// LoadError reports a scenario file that is missing or malformed.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load suite %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load reads and parses the scenario file at path.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	s, err := Parse(data)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	s.Path = path
	return s, nil
}

// Parse builds a Suite from raw JSON, keeping the key order of the tests tree.
func Parse(data []byte) (*Suite, error) {
	var doc struct {
		Info  *Info           `json:"info"`
		Tests json.RawMessage `json:"tests"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if doc.Info == nil {
		return nil, errors.New(`missing "info" object`)
	}
	if len(doc.Tests) == 0 || string(doc.Tests) == "null" {
		return nil, errors.New(`missing "tests" object`)
	}

	root, err := decodeChapter("", doc.Tests)
	if err != nil {
		return nil, fmt.Errorf("tests: %w", err)
	}
	return &Suite{Info: *doc.Info, Tests: root}, nil
}

type member struct {
	key   string
	value json.RawMessage
}

// decodeNode tags raw as a scenario when it carries a testStep key and as a
// chapter otherwise.
func decodeNode(name string, raw json.RawMessage) (*Node, error) {
	members, err := orderedMembers(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	for _, m := range members {
		if m.key == scenarioKey {
			var sc Scenario
			if err := json.Unmarshal(raw, &sc); err != nil {
				return nil, fmt.Errorf("scenario %s: %w", name, err)
			}
			return &Node{Name: name, Kind: KindScenario, Scenario: &sc}, nil
		}
	}
	return chapterFrom(name, members)
}

func decodeChapter(name string, raw json.RawMessage) (*Node, error) {
	members, err := orderedMembers(raw)
	if err != nil {
		return nil, err
	}
	return chapterFrom(name, members)
}

func chapterFrom(name string, members []member) (*Node, error) {
	n := &Node{Name: name, Kind: KindChapter}
	for _, m := range members {
		child, err := decodeNode(m.key, m.value)
		if err != nil {
			if name != "" {
				return nil, fmt.Errorf("%s/%w", name, err)
			}
			return nil, err
		}
		n.Children = append(n.Children, child)
	}
	return n, nil
}

// orderedMembers decodes a JSON object into its members in file order. A
// repeated key keeps its first position and takes the last value.
func orderedMembers(raw json.RawMessage) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected an object, got %s", describeToken(tok))
	}

	var (
		members []member
		index   = map[string]int{}
	)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		if i, dup := index[key]; dup {
			members[i].value = value
			continue
		}
		index[key] = len(members)
		members = append(members, member{key: key, value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return members, nil
}

func describeToken(tok json.Token) string {
	switch v := tok.(type) {
	case json.Delim:
		if v == '[' {
			return "an array"
		}
		return strconv.Quote(v.String())
	case string:
		return "a string"
	case float64, json.Number:
		return "a number"
	case bool:
		return "a boolean"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", tok)
	}
}

// RunType returns the normalized run type. Legacy "cap" reads as chapter.
func (s *Suite) RunType() (RunType, error) {
	rt, ok := runTypeAliases[strings.ToLower(strings.TrimSpace(s.Info.RunType))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRunType, s.Info.RunType)
	}
	return rt, nil
}

// RunName is the scenario or chapter the run targets.
func (s *Suite) RunName() string {
	return s.Info.RunName
}

// Targeting returns a copy of the suite whose header selects rt and name.
// The tests tree is shared.
func (s *Suite) Targeting(rt RunType, name string) *Suite {
	cp := *s
	cp.Info.RunType = string(rt)
	cp.Info.RunName = name
	cp.Info.Browsers = append([]string(nil), s.Info.Browsers...)
	return &cp
}
