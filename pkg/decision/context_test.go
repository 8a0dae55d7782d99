package decision

import "testing"

func TestValidate(t *testing.T) {
	if err := (Context{}).Validate(); err == nil {
		t.Error("a context without a target app must be rejected")
	}
	if err := (Context{TargetApp: "social"}).Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestIsLateNight(t *testing.T) {
	tests := []struct {
		hour int
		want bool
	}{
		{22, false}, {23, true}, {0, true}, {5, true}, {6, false}, {12, false},
	}

	for _, tt := range tests {
		c := Context{HourOfDay: tt.hour}
		if got := c.IsLateNight(); got != tt.want {
			t.Errorf("IsLateNight at %dh = %v, want %v", tt.hour, got, tt.want)
		}
	}
}

func TestIsWeekendMorning(t *testing.T) {
	tests := []struct {
		name    string
		weekend bool
		hour    int
		want    bool
	}{
		{"saturday nine", true, 9, true},
		{"saturday eleven", true, 11, true},
		{"saturday noon", true, 12, false},
		{"saturday seven", true, 7, false},
		{"tuesday nine", false, 9, false},
	}

	for _, tt := range tests {
		c := Context{IsWeekend: tt.weekend, HourOfDay: tt.hour}
		if got := c.IsWeekendMorning(); got != tt.want {
			t.Errorf("%s: IsWeekendMorning = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSessionAndFrequencyBands(t *testing.T) {
	if !(Context{SessionMinutes: 15}).IsExtendedSession() {
		t.Error("15 minutes is an extended session")
	}
	if (Context{SessionMinutes: 14.9}).IsExtendedSession() {
		t.Error("14.9 minutes is not an extended session")
	}

	if !(Context{SessionsToday: 10}).IsHighFrequencyDay() {
		t.Error("ten sessions is a high-frequency day")
	}
	if (Context{SessionsToday: 9}).IsHighFrequencyDay() {
		t.Error("nine sessions is not a high-frequency day")
	}

	if !(Context{SessionsToday: 1}).IsFirstSessionOfDay() {
		t.Error("the first session must report as such")
	}
	if (Context{SessionsToday: 2}).IsFirstSessionOfDay() {
		t.Error("the second session is not the first")
	}
}

func TestIsDaytime(t *testing.T) {
	tests := []struct {
		hour int
		want bool
	}{
		{5, false}, {6, true}, {22, true}, {23, false},
	}

	for _, tt := range tests {
		c := Context{HourOfDay: tt.hour}
		if got := c.IsDaytime(); got != tt.want {
			t.Errorf("IsDaytime at %dh = %v, want %v", tt.hour, got, tt.want)
		}
	}
}
