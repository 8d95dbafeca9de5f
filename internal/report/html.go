package report

import (
	"fmt"
	"html"
	"os"
	"strings"
)

// BuildHTML renders a self-contained HTML report for an experiment.
func BuildHTML(name string, results []TaskResult) string {
	s := Summarize(results)
	var b strings.Builder
	b.WriteString("<!doctype html>\n<html><head><meta charset=\"utf-8\">")
	fmt.Fprintf(&b, "<title>Audit Report %s</title>", html.EscapeString(name))
	b.WriteString("<style>body{font-family:sans-serif;margin:2em}table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:4px 10px;text-align:left}</style>")
	b.WriteString("</head><body>")
	fmt.Fprintf(&b, "<h1>Audit Report: %s</h1>", html.EscapeString(name))
	fmt.Fprintf(&b, "<p>%d tasks (%d long, %d short), %d hops, %d sidebar and %d preload recommendations, %d restricted videos.</p>",
		s.Tasks, s.LongTasks, s.ShortTasks, s.Hops, s.SidebarRecs, s.PreloadRecs, s.Restricted)
	b.WriteString("<table><tr><th>Task</th><th>Seed</th><th>Mode</th><th>Hops</th><th>Sidebar</th><th>Preload</th><th>Restricted</th></tr>")
	for _, result := range results {
		recs := result.Report.Recommendations
		sidebar := 0
		for _, batch := range recs.Sidebar {
			sidebar += len(batch)
		}
		preload := 0
		for _, batch := range recs.Preload {
			preload += len(batch)
		}
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%d</td><td>%d</td><td>%d</td><td>%d</td></tr>",
			html.EscapeString(result.TaskID),
			html.EscapeString(result.Report.SeedID),
			html.EscapeString(string(result.Report.PlayerMode)),
			len(recs.Autoplay), sidebar, preload, len(recs.Restricted))
	}
	b.WriteString("</table></body></html>\n")
	return b.String()
}

// WriteHTML writes the rendered report to path.
func WriteHTML(path, name string, results []TaskResult) error {
	if err := os.WriteFile(path, []byte(BuildHTML(name, results)), 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}
