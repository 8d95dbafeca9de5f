package spec

import (
	"encoding/json"
	"testing"
	"time"
)

// TestWatchBudgetWait verifies the two wait-interval interpretations.
func TestWatchBudgetWait(t *testing.T) {
	cases := []struct {
		name     string
		budget   WatchBudget
		duration float64
		want     time.Duration
	}{
		{"fraction half", Fraction(0.5), 200, 100 * time.Second},
		{"seconds below duration", Seconds(30), 200, 29 * time.Second},
		{"seconds above duration", Seconds(300), 200, 199 * time.Second},
		{"seconds equal duration", Seconds(200), 200, 199 * time.Second},
		{"fraction of short video", Fraction(0.1), 5, 0},
		{"one second budget", Seconds(1), 200, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.budget.Wait(tc.duration)
			if got != tc.want {
				t.Fatalf("Wait(%v) = %v, want %v", tc.duration, got, tc.want)
			}
		})
	}
}

// TestWatchBudgetWaitNeverNegative verifies clamping at zero.
func TestWatchBudgetWaitNeverNegative(t *testing.T) {
	if got := Seconds(30).Wait(0); got != 0 {
		t.Fatalf("expected zero wait, got %v", got)
	}
}

// TestWatchBudgetValidate verifies range checks for both interpretations.
func TestWatchBudgetValidate(t *testing.T) {
	if err := Seconds(10).Validate(); err != nil {
		t.Fatalf("Seconds(10) should validate: %v", err)
	}
	if err := Fraction(0.5).Validate(); err != nil {
		t.Fatalf("Fraction(0.5) should validate: %v", err)
	}
	if err := Seconds(0).Validate(); err == nil {
		t.Fatalf("Seconds(0) should fail validation")
	}
	if err := Fraction(1.5).Validate(); err == nil {
		t.Fatalf("Fraction(1.5) should fail validation")
	}
}

// TestWatchBudgetJSONRoundTrip verifies the interpretation survives JSON.
func TestWatchBudgetJSONRoundTrip(t *testing.T) {
	for _, budget := range []WatchBudget{Seconds(30), Fraction(0.5), Fraction(1)} {
		payload, err := json.Marshal(budget)
		if err != nil {
			t.Fatalf("marshal %v: %v", budget, err)
		}
		var decoded WatchBudget
		if err := json.Unmarshal(payload, &decoded); err != nil {
			t.Fatalf("unmarshal %s: %v", payload, err)
		}
		if decoded != budget {
			t.Fatalf("round trip changed %v to %v (payload %s)", budget, decoded, payload)
		}
	}
}
