package report

import (
	"fmt"
	"io"

	"ytaudit/internal/spec"
)

// Summary aggregates counts across every task in an experiment.
type Summary struct {
	Tasks        int
	LongTasks    int
	ShortTasks   int
	Hops         int
	SidebarRecs  int
	PreloadRecs  int
	EmptyBatches int
	Restricted   int
}

// Summarize folds all task results into one summary.
func Summarize(results []TaskResult) Summary {
	var s Summary
	for _, result := range results {
		s.Tasks++
		switch result.Report.PlayerMode {
		case spec.ModeShort:
			s.ShortTasks++
		default:
			s.LongTasks++
		}
		recs := result.Report.Recommendations
		s.Hops += len(recs.Autoplay)
		for _, batch := range recs.Sidebar {
			s.SidebarRecs += len(batch)
			if len(batch) == 0 {
				s.EmptyBatches++
			}
		}
		for _, batch := range recs.Preload {
			s.PreloadRecs += len(batch)
			if len(batch) == 0 {
				s.EmptyBatches++
			}
		}
		s.Restricted += len(recs.Restricted)
	}
	return s
}

// WriteText prints a human-readable experiment summary.
func WriteText(w io.Writer, name string, results []TaskResult) error {
	s := Summarize(results)
	lines := []string{
		fmt.Sprintf("Experiment: %s", name),
		fmt.Sprintf("Tasks: %d (%d long, %d short)", s.Tasks, s.LongTasks, s.ShortTasks),
		fmt.Sprintf("Autoplay hops: %d", s.Hops),
		fmt.Sprintf("Sidebar recommendations: %d", s.SidebarRecs),
		fmt.Sprintf("Preload recommendations: %d", s.PreloadRecs),
		fmt.Sprintf("Empty batches: %d", s.EmptyBatches),
		fmt.Sprintf("Restricted videos: %d", s.Restricted),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	for _, result := range results {
		if _, err := fmt.Fprintf(w, "  %s  seed=%s mode=%s hops=%d restricted=%d\n",
			result.TaskID,
			result.Report.SeedID,
			result.Report.PlayerMode,
			len(result.Report.Recommendations.Autoplay),
			len(result.Report.Recommendations.Restricted),
		); err != nil {
			return err
		}
	}
	return nil
}
