package cli

import (
	"os"
	"path/filepath"
	"testing"
)

// writeConfig drops a minimal valid experiment config into a temp dir and
// returns its path. The output dir lives alongside it so tests never write
// outside t.TempDir().
func writeConfig(t *testing.T, name string) (configPath, outputDir string) {
	t.Helper()
	dir := t.TempDir()
	outputDir = filepath.Join(dir, "experiments")
	configPath = filepath.Join(dir, "audit.yml")
	body := `version: 1
name: ` + name + `
output_dir: ` + outputDir + `
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
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath, outputDir
}
