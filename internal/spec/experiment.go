package spec

import "fmt"

// Mode selects the video surface a session audits.
type Mode string

const (
	// ModeLong audits regular watch-page videos.
	ModeLong Mode = "long"
	// ModeShort audits the Shorts player.
	ModeShort Mode = "short"
)

// Valid reports whether the mode is one of the supported surfaces.
func (m Mode) Valid() bool {
	return m == ModeLong || m == ModeShort
}

// TaskSpec is one immutable unit of work for the batch runner.
type TaskSpec struct {
	SeedIDs []string
	Mode    Mode
	Label   string
}

// NewTaskSpec builds a task, defaulting the label to the last seed ID.
func NewTaskSpec(seedIDs []string, mode Mode, label string) (TaskSpec, error) {
	if len(seedIDs) == 0 {
		return TaskSpec{}, fmt.Errorf("task: seed_ids must not be empty")
	}
	if !mode.Valid() {
		return TaskSpec{}, fmt.Errorf("task: invalid mode %q", mode)
	}
	if label == "" {
		label = seedIDs[len(seedIDs)-1]
	}
	ids := make([]string, len(seedIDs))
	copy(ids, seedIDs)
	return TaskSpec{SeedIDs: ids, Mode: mode, Label: label}, nil
}

// SeedID returns the final seed, the one the measurement starts from.
func (t TaskSpec) SeedID() string {
	return t.SeedIDs[len(t.SeedIDs)-1]
}

// TrainingIDs returns every seed before the final one.
func (t TaskSpec) TrainingIDs() []string {
	if len(t.SeedIDs) < 2 {
		return nil
	}
	return t.SeedIDs[:len(t.SeedIDs)-1]
}

// RestrictedVideo records one content-restriction event with its stated reason.
type RestrictedVideo struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// Recommendations holds the four collections gathered by a session.
type Recommendations struct {
	Autoplay   []string          `json:"autoplay_rec"`
	Sidebar    [][]string        `json:"sidebar_rec"`
	Preload    [][]string        `json:"preload_rec"`
	Restricted []RestrictedVideo `json:"restricted"`
}

// Report is the immutable per-task result produced by a finished session.
type Report struct {
	TrainingIDs     []string        `json:"training_ids"`
	SeedID          string          `json:"seed_id"`
	PlayerMode      Mode            `json:"player_mode"`
	MaxDuration     WatchBudget     `json:"max_duration"`
	Recommendations Recommendations `json:"recommendations"`
}
