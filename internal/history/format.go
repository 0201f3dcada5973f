package history

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatText renders records as a table, newest first.
func FormatText(records []Record, now time.Time) string {
	if len(records) == 0 {
		return "No runs recorded.\n"
	}
	var b strings.Builder
	for _, r := range records {
		status := "PASS"
		switch {
		case r.Skipped:
			status = "SKIP"
		case !r.Passed:
			status = "FAIL"
		}
		fmt.Fprintf(&b, "%-4s  %-24s %-20s %2d/%-2d  %-8s %s\n",
			status, r.Scenario, r.Project, r.StepsRun, r.StepsTotal,
			r.Duration.Round(time.Millisecond), humanize.RelTime(r.StartedAt, now, "ago", "from now"))
		if r.Error != "" {
			fmt.Fprintf(&b, "      %s\n", r.Error)
		}
	}
	return b.String()
}

// FormatJSON renders records as JSON.
func FormatJSON(records []Record) (string, error) {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal history: %w", err)
	}
	return string(data), nil
}
