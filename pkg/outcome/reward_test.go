package outcome

import (
	"testing"
	"time"
)

func TestBaseReward(t *testing.T) {
	tests := []struct {
		choice string
		want   float64
	}{
		{ChoiceGoBack, 1.0},
		{ChoiceQuit, 1.0},
		{ChoiceTakeBreak, 1.0},
		{ChoiceSnooze, 0.5},
		{ChoiceContinue, 0.0},
		{ChoiceSkip, 0.0},
		{ChoiceDismiss, 0.0},
		{"", 0.0},
	}

	for _, tt := range tests {
		if got := baseReward(tt.choice); got != tt.want {
			t.Errorf("baseReward(%q) = %v, want %v", tt.choice, got, tt.want)
		}
	}
}

func TestComputeReward(t *testing.T) {
	tests := []struct {
		name        string
		choice      string
		effective   bool
		quickReopen bool
		postIdle    time.Duration
		want        float64
	}{
		{
			"compliant go-back with long idle clamps at one",
			ChoiceGoBack, true, false, 20 * time.Minute,
			1.0, // 1.0 + 0.3 + 0.2 clamped
		},
		{
			"go-back followed by quick reopen",
			ChoiceGoBack, false, true, 2 * time.Minute,
			0.2, // 1.0 - 0.5 - 0.3
		},
		{
			"snooze with medium idle",
			ChoiceSnooze, false, false, 10 * time.Minute,
			0.5, // neither idle band applies
		},
		{
			"dismiss with quick reopen clamps low",
			ChoiceDismiss, false, true, time.Minute,
			-0.8, // 0.0 - 0.5 - 0.3
		},
		{
			"effective dismiss with long idle",
			ChoiceDismiss, true, false, 15 * time.Minute,
			0.5, // 0.0 + 0.3 + 0.2
		},
		{
			"timeout with short idle",
			"", false, false, time.Minute,
			-0.3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeReward(tt.choice, tt.effective, tt.quickReopen, tt.postIdle)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("ComputeReward = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClampReward(t *testing.T) {
	if got := clampReward(1.7); got != 1.0 {
		t.Errorf("clampReward(1.7) = %v, want 1.0", got)
	}
	if got := clampReward(-1.3); got != -1.0 {
		t.Errorf("clampReward(-1.3) = %v, want -1.0", got)
	}
	if got := clampReward(0.4); got != 0.4 {
		t.Errorf("clampReward(0.4) = %v, want 0.4", got)
	}
}

func TestOutcomePredicates(t *testing.T) {
	if !(Outcome{Choice: ChoiceGoBack}).WentBack() || !(Outcome{Choice: ChoiceQuit}).WentBack() {
		t.Error("go_back and quit must count as went-back")
	}
	if (Outcome{Choice: ChoiceTakeBreak}).WentBack() {
		t.Error("take_a_break is not a went-back")
	}

	for _, c := range []string{ChoiceSkip, ChoiceDismiss, ChoiceContinue} {
		if !(Outcome{Choice: c}).Dismissed() {
			t.Errorf("%s must count as dismissed", c)
		}
	}

	if !(Outcome{Choice: "", SessionDuration: 100 * time.Millisecond}).TimedOut() {
		t.Error("empty choice with near-zero session must count as timeout")
	}
	if (Outcome{Choice: "", SessionDuration: 2 * time.Second}).TimedOut() {
		t.Error("a real session with no choice is not a timeout")
	}
}
