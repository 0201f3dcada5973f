package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Filter selects journal entries.
type Filter struct {
	RunID    string
	Scenario string
	Last     int // keep only the last n matches, 0 for all
}

// Tail reads the journal and returns the entries matching filter in file
// order. Malformed lines are skipped.
func Tail(path string, filter Filter) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	var out []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		if filter.RunID != "" && e.RunID != filter.RunID {
			continue
		}
		if filter.Scenario != "" && e.Scenario != filter.Scenario {
			continue
		}
		out = append(out, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan journal: %w", err)
	}
	if filter.Last > 0 && len(out) > filter.Last {
		out = out[len(out)-filter.Last:]
	}
	return out, nil
}

// FormatTimeline renders entries one per line.
func FormatTimeline(entries []Entry) string {
	if len(entries) == 0 {
		return "No journal entries found.\n"
	}
	var b strings.Builder
	for _, e := range entries {
		detail := e.Step
		switch {
		case e.Error != "":
			detail += "  " + e.Error
		case e.Path != "":
			detail = e.Path
		}
		fmt.Fprintf(&b, "%-8s %-8s %-14s %-20s %-24s %2s %s\n",
			timeOnly(e.Timestamp), short(e.RunID), e.Event, truncate(e.Project, 20),
			truncate(e.Scenario, 24), index(e.Index), detail)
	}
	return b.String()
}

func timeOnly(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("15:04:05")
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func index(i int) string {
	if i == 0 {
		return ""
	}
	return fmt.Sprint(i)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
