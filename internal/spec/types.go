package spec

// Config is the top-level experiment configuration.
type Config struct {
	Version    int          `yaml:"version"`
	Name       string       `yaml:"name"`
	OutputDir  string       `yaml:"output_dir"`
	WatchTime  WatchBudget  `yaml:"watch_time"`
	Hops       int          `yaml:"hops"`
	Threads    int          `yaml:"threads"`
	MaxRetries int          `yaml:"max_retries"`
	Attempts   int          `yaml:"err_attempts"`
	SleepRange SleepRange   `yaml:"sleep_range"`
	Browser    BrowserFlags `yaml:"browser"`
	Tasks      []TaskConfig `yaml:"tasks"`
}

// BrowserFlags holds the browser launch switches for every session.
type BrowserFlags struct {
	Headless  bool   `yaml:"headless"`
	Incognito bool   `yaml:"incognito"`
	Adblock   string `yaml:"adblock"`
}

// SleepRange bounds the randomized pause between task waves, in seconds.
type SleepRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// TaskConfig describes one audit task as written in the config file.
type TaskConfig struct {
	SeedIDs []string `yaml:"seed_ids"`
	Mode    Mode     `yaml:"mode"`
	Label   string   `yaml:"label"`
}
