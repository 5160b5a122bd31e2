package notifier

import (
	"fmt"
	"strings"

	"MacroPulse/internal/model"
)

// FormatSummary renders a run summary as a Telegram HTML message.
func FormatSummary(s *model.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s run</b> (%s)\n", s.Mode, s.Started.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "✅ %d succeeded | ⏭ %d skipped | ❌ %d failed\n",
		s.Succeeded(), s.Skipped(), s.Failed())

	var issues []string
	for _, u := range s.Units {
		if u.Status != model.StatusSucceeded {
			issues = append(issues, fmt.Sprintf("• %s — %s: %s", u.Unit, u.Status, u.Reason))
		}
	}
	if len(issues) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(issues, "\n"))
	}
	return b.String()
}
