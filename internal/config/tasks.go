package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"ytaudit/internal/spec"
)

// TaskSpecs converts the configured tasks into immutable task specs.
func TaskSpecs(cfg spec.Config) ([]spec.TaskSpec, error) {
	tasks := make([]spec.TaskSpec, 0, len(cfg.Tasks))
	for i, task := range cfg.Tasks {
		taskSpec, err := spec.NewTaskSpec(task.SeedIDs, task.Mode, task.Label)
		if err != nil {
			return nil, fmt.Errorf("tasks[%d]: %w", i, err)
		}
		tasks = append(tasks, taskSpec)
	}
	return tasks, nil
}

// PairFilter selects which half of a seed pair becomes a task.
type PairFilter string

const (
	// PairBoth expands each pair into one long and one short task.
	PairBoth PairFilter = "paired"
	// PairLong keeps only the long-form seed of each pair.
	PairLong PairFilter = "long"
	// PairShort keeps only the short-form seed of each pair.
	PairShort PairFilter = "short"
)

// TasksFromPairs parses the legacy JSON seed-pair format: a list of pair
// groups, each group a list of {"long": url, "short": url} entries. Video IDs
// are the last path segment of each URL.
func TasksFromPairs(data []byte, filter PairFilter) ([]spec.TaskConfig, error) {
	switch filter {
	case PairBoth, PairLong, PairShort:
	default:
		return nil, fmt.Errorf("pairs: unknown filter %q", filter)
	}

	var groups [][]map[string]string
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("parse pairs: %w", err)
	}

	var tasks []spec.TaskConfig
	for _, group := range groups {
		for _, item := range group {
			if url, ok := item["long"]; ok && filter != PairShort {
				tasks = append(tasks, spec.TaskConfig{
					SeedIDs: []string{lastSegment(url)},
					Mode:    spec.ModeLong,
				})
			}
			if url, ok := item["short"]; ok && filter != PairLong {
				tasks = append(tasks, spec.TaskConfig{
					SeedIDs: []string{lastSegment(url)},
					Mode:    spec.ModeShort,
				})
			}
		}
	}
	return tasks, nil
}

func lastSegment(url string) string {
	idx := strings.LastIndex(url, "/")
	if idx < 0 {
		return url
	}
	return url[idx+1:]
}
