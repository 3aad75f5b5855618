package generator

import (
	"fmt"
	"strings"
	"time"
)

// maxListed caps how many files and warnings the rendered summary shows
// before truncating with a "+K more" line.
const maxListed = 10

// Summary is the user-facing outcome of one run.
type Summary struct {
	RunID string

	Apps      int
	Entities  int
	Endpoints int

	Files    []string
	Warnings []string

	Duration time.Duration
}

// Format renders the summary as terminal-ready text: counts first, then the
// first entries of each list with a truncation marker.
func (s *Summary) Format() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run %s finished in %s\n", s.RunID, s.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "  apps: %d  entities: %d  endpoints: %d\n", s.Apps, s.Entities, s.Endpoints)
	fmt.Fprintf(&b, "  files written: %d  warnings: %d\n", len(s.Files), len(s.Warnings))

	if len(s.Files) > 0 {
		b.WriteString("\nFiles:\n")
		for _, line := range truncateList(s.Files, maxListed) {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}

	if len(s.Warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, line := range truncateList(s.Warnings, maxListed) {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}

	return b.String()
}

// truncateList returns the first n items, appending a "+K more" marker when
// items are dropped.
func truncateList(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	out := make([]string, 0, n+1)
	out = append(out, items[:n]...)
	out = append(out, fmt.Sprintf("+%d more", len(items)-n))
	return out
}
