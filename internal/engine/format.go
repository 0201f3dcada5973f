package engine

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatText renders results as human-readable text.
func FormatText(results []*Result) string {
	var b strings.Builder

	total := len(results)
	fmt.Fprintf(&b, "Ran %d scenario", total)
	if total != 1 {
		b.WriteString("s")
	}
	b.WriteString(".\n\n")

	passed := 0
	for _, r := range results {
		switch {
		case r.Skipped:
			fmt.Fprintf(&b, "  SKIP  %s [%s]: %s\n", r.Scenario, r.Project, r.Error)
		case r.Passed:
			passed++
			fmt.Fprintf(&b, "  PASS  %s [%s] (%d/%d steps, %s)\n",
				r.Scenario, r.Project, r.StepsRun, r.StepsTotal, r.Duration.Round(time.Millisecond))
		default:
			label := ""
			if r.FailingStep != nil {
				label = r.FailingStep.Label
			}
			fmt.Fprintf(&b, "  FAIL  %s [%s] (%d/%d steps)\n", r.Scenario, r.Project, r.StepsRun, r.StepsTotal)
			fmt.Fprintf(&b, "    step %d %q: %s\n", r.FailedAt, label, r.Error)
		}
		if r.ReportPath != "" {
			fmt.Fprintf(&b, "    report: %s\n", r.ReportPath)
		}
		if r.SaveErr != nil {
			fmt.Fprintf(&b, "    report not saved: %v\n", r.SaveErr)
		}
	}

	fmt.Fprintf(&b, "\n%s of %s scenarios passed.", humanize.Comma(int64(passed)), humanize.Comma(int64(total)))
	if failed := total - passed; failed > 0 {
		fmt.Fprintf(&b, " %d failed.", failed)
	}
	b.WriteString("\n")

	return b.String()
}

// FormatJSON renders results as JSON.
func FormatJSON(results []*Result) (string, error) {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal results: %w", err)
	}
	return string(data), nil
}
