package cucumber

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ytaudit/internal/cli"

	"github.com/cucumber/godog"
)

type featureState struct {
	workDir     string
	previousWD  string
	stdout      bytes.Buffer
	stderr      bytes.Buffer
	exitCode    int
	initialized bool
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	state := &featureState{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		state.reset()
		return ctx, nil
	})

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		state.cleanup()
		return ctx, nil
	})

	ctx.Step(`^an empty workspace$`, state.anEmptyWorkspace)
	ctx.Step(`^a workspace with a valid experiment configuration$`, state.aWorkspaceWithValidConfig)
	ctx.Step(`^a workspace with an invalid experiment configuration$`, state.aWorkspaceWithInvalidConfig)
	ctx.Step(`^I run "([^"]+)"$`, state.iRunCommand)
	ctx.Step(`^the output lists these commands:$`, state.theOutputListsCommands)
	ctx.Step(`^the output contains "([^"]+)"$`, state.theOutputContains)
	ctx.Step(`^the exit code is zero$`, state.theExitCodeIsZero)
	ctx.Step(`^the exit code is non-zero$`, state.theExitCodeIsNonZero)
	ctx.Step(`^the error message points to the invalid field$`, state.theErrorMessagePointsToInvalidField)
	ctx.Step(`^the workspace contains "([^"]+)"$`, state.theWorkspaceContains)
}

func (s *featureState) reset() {
	s.stdout.Reset()
	s.stderr.Reset()
	s.exitCode = 0
	s.initialized = false
}

func (s *featureState) cleanup() {
	if s.previousWD != "" {
		_ = os.Chdir(s.previousWD)
		s.previousWD = ""
	}
	if s.workDir != "" {
		_ = os.RemoveAll(s.workDir)
		s.workDir = ""
	}
}

func (s *featureState) anEmptyWorkspace() error {
	if s.initialized {
		return nil
	}
	dir, err := os.MkdirTemp("", "ytaudit-feature-*")
	if err != nil {
		return fmt.Errorf("create temp workspace: %w", err)
	}
	s.workDir = dir
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working dir: %w", err)
	}
	s.previousWD = wd
	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("chdir: %w", err)
	}
	s.initialized = true
	return nil
}

func (s *featureState) aWorkspaceWithValidConfig() error {
	if err := s.anEmptyWorkspace(); err != nil {
		return err
	}
	return s.writeConfig(validConfigYAML())
}

func (s *featureState) aWorkspaceWithInvalidConfig() error {
	if err := s.anEmptyWorkspace(); err != nil {
		return err
	}
	return s.writeConfig(invalidConfigYAML())
}

func (s *featureState) iRunCommand(command string) error {
	args := strings.Fields(command)
	if len(args) == 0 {
		return fmt.Errorf("command is empty")
	}
	if args[0] == "ytaudit" {
		args = args[1:]
	}
	s.stdout.Reset()
	s.stderr.Reset()
	s.exitCode = cli.Run(args, &s.stdout, &s.stderr)
	return nil
}

func (s *featureState) theOutputListsCommands(table *godog.Table) error {
	output := s.stdout.String()
	for _, row := range table.Rows {
		for _, cell := range row.Cells {
			command := strings.TrimSpace(cell.Value)
			if command == "" {
				continue
			}
			if !strings.Contains(output, command) {
				return fmt.Errorf("expected command %q in output", command)
			}
		}
	}
	return nil
}

func (s *featureState) theOutputContains(text string) error {
	if !strings.Contains(s.stdout.String(), text) {
		return fmt.Errorf("expected %q in output, got %q", text, s.stdout.String())
	}
	return nil
}

func (s *featureState) theExitCodeIsZero() error {
	if s.exitCode != 0 {
		return fmt.Errorf("expected exit code 0, got %d (stderr: %s)", s.exitCode, s.stderr.String())
	}
	return nil
}

func (s *featureState) theExitCodeIsNonZero() error {
	if s.exitCode == 0 {
		return fmt.Errorf("expected non-zero exit code")
	}
	return nil
}

func (s *featureState) theErrorMessagePointsToInvalidField() error {
	errOutput := s.stderr.String()
	if !strings.Contains(errOutput, "hops") {
		return fmt.Errorf("expected error to mention hops, got %q", errOutput)
	}
	return nil
}

func (s *featureState) theWorkspaceContains(name string) error {
	if _, err := os.Stat(filepath.Join(s.workDir, name)); err != nil {
		return fmt.Errorf("expected %s in workspace: %w", name, err)
	}
	return nil
}

func (s *featureState) writeConfig(contents string) error {
	if s.workDir == "" {
		return fmt.Errorf("workspace is not set")
	}
	path := filepath.Join(s.workDir, "audit.yml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func validConfigYAML() string {
	return `version: 1
name: feature-smoke
output_dir: experiments
watch_time: 5
hops: 3
threads: 1
max_retries: 2
sleep_range:
  min: 1
  max: 2
tasks:
  - seed_ids: ["seedA"]
    mode: long
`
}

func invalidConfigYAML() string {
	return `version: 1
name: feature-smoke
hops: -1
tasks:
  - seed_ids: ["seedA"]
    mode: long
`
}
