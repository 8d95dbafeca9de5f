package live

import (
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

func defaultColumns() []table.Column {
	return []table.Column{
		{Title: "Task", Width: 10},
		{Title: "Seed", Width: 14},
		{Title: "Mode", Width: 6},
		{Title: "Phase", Width: 11},
		{Title: "Train", Width: 7},
		{Title: "Collect", Width: 8},
		{Title: "Time", Width: 8},
		{Title: "Status", Width: 32},
	}
}

func columnsForWidth(width int) []table.Column {
	columns := defaultColumns()
	if width <= 0 {
		return columns
	}
	fixed := 0
	for _, col := range columns[:len(columns)-1] {
		fixed += col.Width
	}
	last := width - fixed - len(columns)*2
	if last < 16 {
		last = 16
	}
	columns[len(columns)-1].Width = last
	return columns
}

// tableStyles returns table styles for the UI.
func tableStyles(noColor bool) table.Styles {
	if noColor {
		return table.DefaultStyles()
	}
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Foreground(lipgloss.Color("252"))
	return styles
}

// rowsForState converts UI state into table rows.
func rowsForState(state State, now time.Time) []table.Row {
	rows := make([]table.Row, 0, len(state.Rows))
	for _, row := range state.Rows {
		rows = append(rows, table.Row{
			row.TaskID,
			row.Seed,
			row.Mode,
			row.Phase,
			formatProgress(row.Training),
			formatProgress(row.Collection),
			formatRowDuration(row, now),
			formatStatus(row) + attemptSuffix(row),
		})
	}
	return rows
}

func attemptSuffix(row TaskRow) string {
	attempt := formatAttempt(row.Attempt)
	if attempt == "" {
		return ""
	}
	return " " + attempt
}
