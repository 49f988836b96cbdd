package notify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hamed0406/httpprobe/internal/domain"
)

// FormatSummary renders an iteration summary as a notification.
func FormatSummary(s domain.IterationSummary) (title, text string) {
	title = fmt.Sprintf("🔴 Probe iteration %d: %d of %d targets failed", s.Iteration, s.Failed+s.Missing(), s.Targets)

	var b strings.Builder
	fmt.Fprintf(&b, "Run: %s\nStarted: %s\nWritten: %d\n", s.RunID, s.StartedAt.Format(domain.DatetimeLayout), s.Written)
	kinds := make([]string, 0, len(s.Failures))
	for k := range s.Failures {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(&b, "%s: %d\n", k, s.Failures[k])
	}
	if m := s.Missing(); m > 0 {
		fmt.Fprintf(&b, "no result before drain timeout: %d\n", m)
	}
	return title, strings.TrimRight(b.String(), "\n")
}
