package spec

import "testing"

// TestParseConfigValid verifies valid config parsing succeeds.
func TestParseConfigValid(t *testing.T) {
	data := []byte(`version: 1
name: pilot
output_dir: "./experiments"
watch_time: 10
hops: 15
threads: 2
max_retries: 3
sleep_range:
  min: 300
  max: 900
browser:
  headless: true
tasks:
  - seed_ids: ["abc123"]
    mode: long
`)
	cfg, err := ParseConfig(data)
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}
	if cfg.Name != "pilot" {
		t.Fatalf("expected name pilot, got %q", cfg.Name)
	}
	if len(cfg.Tasks) != 1 || cfg.Tasks[0].Mode != ModeLong {
		t.Fatalf("unexpected tasks: %+v", cfg.Tasks)
	}
}

// TestParseConfigUnknownField verifies unknown fields are rejected.
func TestParseConfigUnknownField(t *testing.T) {
	data := []byte("version: 1\nname: x\nunknown: true\n")
	if _, err := ParseConfig(data); err == nil {
		t.Fatalf("expected parse error for unknown field")
	}
}

// TestParseConfigRejectsMultipleDocs verifies multiple YAML docs are rejected.
func TestParseConfigRejectsMultipleDocs(t *testing.T) {
	data := []byte("version: 1\n---\nversion: 1\n")
	if _, err := ParseConfig(data); err == nil {
		t.Fatalf("expected parse error for multiple documents")
	}
}

// TestParseConfigWatchTimeTag verifies the literal's spelling picks the
// budget interpretation.
func TestParseConfigWatchTimeTag(t *testing.T) {
	intCfg, err := ParseConfig([]byte("name: x\nwatch_time: 30\n"))
	if err != nil {
		t.Fatalf("parse int watch_time: %v", err)
	}
	if intCfg.WatchTime != Seconds(30) {
		t.Fatalf("expected Seconds(30), got %v", intCfg.WatchTime)
	}

	fracCfg, err := ParseConfig([]byte("name: x\nwatch_time: 0.5\n"))
	if err != nil {
		t.Fatalf("parse float watch_time: %v", err)
	}
	if fracCfg.WatchTime != Fraction(0.5) {
		t.Fatalf("expected Fraction(0.5), got %v", fracCfg.WatchTime)
	}
}

// TestParseConfigWatchTimeString verifies non-numeric budgets are rejected.
func TestParseConfigWatchTimeString(t *testing.T) {
	if _, err := ParseConfig([]byte("name: x\nwatch_time: fast\n")); err == nil {
		t.Fatalf("expected parse error for string watch_time")
	}
}
