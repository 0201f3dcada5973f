package suite

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Fixture is a storage fixture: flat keys with values already rendered as
// compact JSON strings, in file order.
type Fixture struct {
	Keys   []string
	Values map[string]string
}

// LoadFixture reads the storage fixture at path.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	members, err := orderedMembers(data)
	if err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	f := &Fixture{Values: make(map[string]string, len(members))}
	for _, m := range members {
		var buf bytes.Buffer
		if err := json.Compact(&buf, m.value); err != nil {
			return nil, fmt.Errorf("parse fixture %s: %s: %w", path, m.key, err)
		}
		f.Keys = append(f.Keys, m.key)
		f.Values[m.key] = buf.String()
	}
	return f, nil
}

// Map returns the fixture as a plain map for page evaluation.
func (f *Fixture) Map() map[string]string {
	out := make(map[string]string, len(f.Values))
	for k, v := range f.Values {
		out[k] = v
	}
	return out
}
