package spec

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// WatchBudget is the per-video watch allowance. It carries one of two
// interpretations chosen by how the value was written, not by its magnitude:
// an integral literal is an absolute number of seconds, a fractional literal
// is a share of the video's own duration.
type WatchBudget struct {
	fractional bool
	seconds    int
	fraction   float64
}

// Seconds returns an absolute watch budget.
func Seconds(n int) WatchBudget {
	return WatchBudget{seconds: n}
}

// Fraction returns a relative watch budget in (0, 1].
func Fraction(p float64) WatchBudget {
	return WatchBudget{fractional: true, fraction: p}
}

// IsZero reports whether the budget was never set.
func (b WatchBudget) IsZero() bool {
	return !b.fractional && b.seconds == 0
}

// Validate checks the budget is positive and, when fractional, at most 1.
func (b WatchBudget) Validate() error {
	if b.fractional {
		if b.fraction <= 0 || b.fraction > 1 {
			return fmt.Errorf("watch budget: fraction must be in (0, 1], got %v", b.fraction)
		}
		return nil
	}
	if b.seconds <= 0 {
		return fmt.Errorf("watch budget: seconds must be positive, got %d", b.seconds)
	}
	return nil
}

// Wait computes how long to watch a video of the given duration in seconds.
// Fractional budgets watch floor(duration*p) seconds. Absolute budgets watch
// min(duration, budget)-1 seconds, handing control back one second before the
// player would advance on its own. Never negative.
func (b WatchBudget) Wait(duration float64) time.Duration {
	var wait int
	if b.fractional {
		wait = int(duration * b.fraction)
	} else {
		wait = b.seconds
		if duration < float64(wait) {
			wait = int(duration)
		}
		wait--
	}
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait) * time.Second
}

// String renders the budget the way it was configured.
func (b WatchBudget) String() string {
	if b.fractional {
		return strconv.FormatFloat(b.fraction, 'g', -1, 64)
	}
	return strconv.Itoa(b.seconds)
}

// UnmarshalYAML decodes a bare scalar, keeping the int/float distinction.
func (b *WatchBudget) UnmarshalYAML(node *yaml.Node) error {
	switch node.Tag {
	case "!!int":
		n, err := strconv.Atoi(node.Value)
		if err != nil {
			return fmt.Errorf("watch budget: %w", err)
		}
		*b = Seconds(n)
		return nil
	case "!!float":
		p, err := strconv.ParseFloat(node.Value, 64)
		if err != nil {
			return fmt.Errorf("watch budget: %w", err)
		}
		*b = Fraction(p)
		return nil
	default:
		return fmt.Errorf("watch budget: expected a number, got %s", node.Tag)
	}
}

// MarshalYAML writes the budget back as the scalar it came from.
func (b WatchBudget) MarshalYAML() (any, error) {
	if b.fractional {
		return b.fraction, nil
	}
	return b.seconds, nil
}

// MarshalJSON writes an integral or fractional number matching the tag. A
// whole-valued fraction keeps its decimal point so the interpretation
// survives a round trip.
func (b WatchBudget) MarshalJSON() ([]byte, error) {
	if b.fractional {
		text := strconv.FormatFloat(b.fraction, 'g', -1, 64)
		if !strings.ContainsAny(text, ".eE") {
			text += ".0"
		}
		return []byte(text), nil
	}
	return json.Marshal(b.seconds)
}

// UnmarshalJSON restores the tag from the literal's spelling.
func (b *WatchBudget) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	if strings.ContainsAny(text, ".eE") {
		p, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return fmt.Errorf("watch budget: %w", err)
		}
		*b = Fraction(p)
		return nil
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return fmt.Errorf("watch budget: %w", err)
	}
	*b = Seconds(n)
	return nil
}
