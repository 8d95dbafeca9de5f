package live

import (
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the experiment header line.
func renderHeader(state State, now time.Time, noColor bool) string {
	line := "Experiment " + state.Experiment
	if state.TotalTasks > 0 {
		line += " | Tasks: " + fmtInt(state.TotalTasks)
	}
	if !state.StartedAt.IsZero() {
		line += " | Elapsed: " + now.Sub(state.StartedAt).Round(time.Second).String()
	}
	return stylize(line, noColor, lipgloss.Color("33"))
}

// renderSummary renders the status counts line.
func renderSummary(state State, noColor bool) string {
	counts := state.Counts
	line := "Running: " + fmtInt(counts.Running) +
		" Completed: " + fmtInt(counts.Completed) +
		" Failed: " + fmtInt(counts.Failed) +
		" Retries: " + fmtInt(counts.Retries) +
		" Restricted: " + fmtInt(counts.Restricted) +
		" Empty: " + fmtInt(counts.Empty)
	if state.Sleeping > 0 {
		line += " | sleeping " + state.Sleeping.String()
	}
	return stylize(line, noColor, lipgloss.Color("242"))
}

// renderFooter renders the last event line.
func renderFooter(state State, noColor bool) string {
	if state.LastEvent == "" {
		return ""
	}
	return stylize("Last event: "+state.LastEvent, noColor, lipgloss.Color("244"))
}
