package config

import (
	"fmt"
	"strings"

	"ytaudit/internal/spec"
)

// Issue captures a validation problem with a config field.
type Issue struct {
	Field   string
	Message string
}

// ValidationError aggregates config validation issues.
type ValidationError struct {
	Issues []Issue
}

// Error renders validation errors as a multi-line string.
func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return "config validation failed"
	}
	lines := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		lines = append(lines, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return strings.Join(lines, "\n")
}

// Validate checks a normalized config for correctness.
func Validate(cfg *spec.Config) error {
	var issues []Issue
	add := func(field, message string) {
		issues = append(issues, Issue{Field: field, Message: message})
	}

	if strings.TrimSpace(cfg.Name) == "" {
		add("name", "is required")
	}
	if err := cfg.WatchTime.Validate(); err != nil {
		add("watch_time", err.Error())
	}
	if cfg.Hops < 1 {
		add("hops", fmt.Sprintf("must be at least 1, got %d", cfg.Hops))
	}
	if cfg.Threads < 1 {
		add("threads", fmt.Sprintf("must be at least 1, got %d", cfg.Threads))
	}
	if cfg.MaxRetries < 1 {
		add("max_retries", fmt.Sprintf("must be at least 1, got %d", cfg.MaxRetries))
	}
	if cfg.Attempts < 1 {
		add("err_attempts", fmt.Sprintf("must be at least 1, got %d", cfg.Attempts))
	}
	if cfg.SleepRange.Min < 0 {
		add("sleep_range.min", "must not be negative")
	}
	if cfg.SleepRange.Max < cfg.SleepRange.Min {
		add("sleep_range.max", "must not be below sleep_range.min")
	}

	if len(cfg.Tasks) == 0 {
		add("tasks", "at least one task is required")
	}
	for i, task := range cfg.Tasks {
		fieldPrefix := fmt.Sprintf("tasks[%d]", i)
		if len(task.SeedIDs) == 0 {
			add(fieldPrefix+".seed_ids", "must not be empty")
		}
		for j, id := range task.SeedIDs {
			if strings.TrimSpace(id) == "" {
				add(fmt.Sprintf("%s.seed_ids[%d]", fieldPrefix, j), "must not be blank")
			}
		}
		if !task.Mode.Valid() {
			add(fieldPrefix+".mode", fmt.Sprintf("must be %q or %q, got %q", spec.ModeLong, spec.ModeShort, task.Mode))
		}
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}
