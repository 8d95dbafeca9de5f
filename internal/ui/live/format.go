package live

import (
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
)

func fmtInt(value int) string {
	return strconv.Itoa(value)
}

// formatProgress renders a current/total pair, or a dash before any progress.
func formatProgress(p Progress) string {
	if p.Total == 0 {
		return "-"
	}
	return fmtInt(p.Current) + "/" + fmtInt(p.Total)
}

// formatRowDuration shows elapsed time for running rows and final time for
// finished ones.
func formatRowDuration(row TaskRow, now time.Time) string {
	if row.StartedAt.IsZero() {
		return ""
	}
	end := row.FinishedAt
	if end.IsZero() {
		end = now
	}
	return end.Sub(row.StartedAt).Round(time.Second).String()
}

// formatAttempt shows the attempt counter only once a retry happened.
func formatAttempt(attempt int) string {
	if attempt <= 1 {
		return ""
	}
	return "#" + fmtInt(attempt)
}

// formatStatus renders the row status with an optional error suffix.
func formatStatus(row TaskRow) string {
	status := row.Status
	if status == "" {
		status = "pending"
	}
	if row.Error != "" {
		const limit = 40
		msg := row.Error
		if len(msg) > limit {
			msg = msg[:limit-3] + "..."
		}
		return status + ": " + msg
	}
	return status
}

// stylize applies optional color styling.
func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
