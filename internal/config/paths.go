package config

import (
	"fmt"
	"os"
	"path/filepath"

	"ytaudit/internal/spec"
)

// Subdirectories created under each experiment directory.
const (
	ResultsDirName = "results"
	LogsDirName    = "logs"
	StatusFileName = "status.json"
)

// ExperimentDir returns the directory holding one experiment's data.
func ExperimentDir(cfg spec.Config) string {
	return filepath.Join(cfg.OutputDir, cfg.Name)
}

// StatusPath returns the durable status snapshot path for an experiment.
func StatusPath(experimentDir string) string {
	return filepath.Join(experimentDir, StatusFileName)
}

// ResultsDir returns the result-file directory for an experiment.
func ResultsDir(experimentDir string) string {
	return filepath.Join(experimentDir, ResultsDirName)
}

// CreateExperimentDir creates the experiment directory structure.
func CreateExperimentDir(cfg spec.Config) (string, error) {
	dir := ExperimentDir(cfg)
	for _, sub := range []string{dir, filepath.Join(dir, ResultsDirName), filepath.Join(dir, LogsDirName)} {
		if err := os.MkdirAll(sub, 0o755); err != nil {
			return "", fmt.Errorf("create experiment dir: %w", err)
		}
	}
	return dir, nil
}
