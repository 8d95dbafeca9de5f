package config

import "ytaudit/internal/spec"

// Defaults applied to unset config fields, matching the documented
// experiment setup.
const (
	DefaultWatchSeconds = 10
	DefaultHops         = 15
	DefaultThreads      = 2
	DefaultMaxRetries   = 3
	DefaultAttempts     = 5
	DefaultSleepMin     = 300
	DefaultSleepMax     = 900
	DefaultOutputDir    = "experiments"
)

// Normalize fills unset fields with defaults and derives task labels.
func Normalize(cfg *spec.Config) {
	if cfg.WatchTime.IsZero() {
		cfg.WatchTime = spec.Seconds(DefaultWatchSeconds)
	}
	if cfg.Hops == 0 {
		cfg.Hops = DefaultHops
	}
	if cfg.Threads == 0 {
		cfg.Threads = DefaultThreads
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = DefaultAttempts
	}
	if cfg.SleepRange.Min == 0 && cfg.SleepRange.Max == 0 {
		cfg.SleepRange = spec.SleepRange{Min: DefaultSleepMin, Max: DefaultSleepMax}
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}
	for i := range cfg.Tasks {
		if cfg.Tasks[i].Label == "" && len(cfg.Tasks[i].SeedIDs) > 0 {
			cfg.Tasks[i].Label = cfg.Tasks[i].SeedIDs[len(cfg.Tasks[i].SeedIDs)-1]
		}
	}
}
