package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"ytaudit/internal/state"
	"ytaudit/internal/statusserver"
)

func stubServeStatus(t *testing.T, fn func(ctx context.Context, cfg statusserver.Config) error) {
	t.Helper()
	orig := serveStatus
	serveStatus = fn
	t.Cleanup(func() { serveStatus = orig })
}

func TestServeRequiresExistingStatus(t *testing.T) {
	configPath, _ := writeConfig(t, "serve-empty")

	stubServeStatus(t, func(ctx context.Context, cfg statusserver.Config) error {
		t.Fatal("server should not start")
		return nil
	})

	var out, errOut bytes.Buffer
	code := Run([]string{"serve", "--config", configPath}, &out, &errOut)
	if code != ExitError {
		t.Fatalf("expected exit %d, got %d", ExitError, code)
	}
	if !strings.Contains(errOut.String(), "No status found") {
		t.Fatalf("expected missing status error, got %q", errOut.String())
	}
}

func TestServeLoadsTrackerAndStarts(t *testing.T) {
	configPath, outputDir := writeConfig(t, "serve-live")

	dir := filepath.Join(outputDir, "serve-live")
	tracker, err := state.NewTracker("serve-live", dir)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	if err := tracker.Start(4); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var gotCfg statusserver.Config
	stubServeStatus(t, func(ctx context.Context, cfg statusserver.Config) error {
		gotCfg = cfg
		return nil
	})

	var out, errOut bytes.Buffer
	code := Run([]string{"serve", "--config", configPath, "--addr", "127.0.0.1:9413"}, &out, &errOut)
	if code != ExitOK {
		t.Fatalf("expected exit %d, got %d (stderr: %s)", ExitOK, code, errOut.String())
	}
	if gotCfg.Addr != "127.0.0.1:9413" {
		t.Fatalf("unexpected addr %q", gotCfg.Addr)
	}
	if gotCfg.Tracker == nil {
		t.Fatal("expected a tracker")
	}
	snap := gotCfg.Tracker.Snapshot()
	if snap.Status != state.StatusRunning {
		t.Fatalf("expected loaded snapshot, got status %q", snap.Status)
	}
	if snap.Batch.TotalTasks != 4 {
		t.Fatalf("expected 4 total tasks, got %d", snap.Batch.TotalTasks)
	}
}

func TestServeRejectsEmptyAddr(t *testing.T) {
	configPath, _ := writeConfig(t, "serve-noaddr")

	var out, errOut bytes.Buffer
	code := Run([]string{"serve", "--config", configPath, "--addr", ""}, &out, &errOut)
	if code != ExitUsage {
		t.Fatalf("expected exit %d, got %d", ExitUsage, code)
	}
}
