package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/screenbalance/jitai-engine/pkg/provider"
)

type failingUsage struct{}

func (failingUsage) GetSessions(context.Context, string, time.Time, time.Time) ([]provider.Session, error) {
	return nil, errors.New("usage capture offline")
}

func (failingUsage) GetSessionsInRange(context.Context, string, string) ([]provider.Session, error) {
	return nil, errors.New("usage capture offline")
}

func TestBuildTimeFields(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) // Saturday morning
	install := provider.FixedInstallClock{Date: now.AddDate(0, 0, -40)}

	b := NewContextBuilder(nil, nil, install).WithClock(func() time.Time { return now })

	dctx := b.Build(context.Background(), "social", now.Add(-6*time.Minute))

	if dctx.TargetApp != "social" || dctx.HourOfDay != 9 || dctx.DayOfWeek != time.Saturday {
		t.Errorf("time fields = %+v", dctx)
	}
	if !dctx.IsWeekend || !dctx.IsWeekendMorning() {
		t.Error("a Saturday at 9h is a weekend morning")
	}
	if dctx.SessionMinutes != 6 {
		t.Errorf("SessionMinutes = %v, want 6", dctx.SessionMinutes)
	}
	if dctx.DaysSinceInstall != 40 {
		t.Errorf("DaysSinceInstall = %d, want 40", dctx.DaysSinceInstall)
	}
	if dctx.FrictionLevel != 3 {
		t.Errorf("FrictionLevel = %d, want full strength past one month", dctx.FrictionLevel)
	}
}

func TestFrictionRampsWithAccountAge(t *testing.T) {
	tests := []struct {
		days int
		want int
	}{
		{0, 1}, {6, 1}, {7, 2}, {29, 2}, {30, 3}, {365, 3},
	}

	for _, tt := range tests {
		if got := frictionFor(tt.days); got != tt.want {
			t.Errorf("frictionFor(%d) = %d, want %d", tt.days, got, tt.want)
		}
	}
}

func TestBuildDerivesUsageFields(t *testing.T) {
	now := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	sessionStart := now.Add(-2 * time.Minute)

	usage := provider.NewMemoryUsageHistory()
	usage.Add(
		// Earlier today: two sessions, 10 and 20 minutes, the second
		// ending one minute before the current one starts.
		provider.Session{App: "social", Start: now.Add(-5 * time.Hour), End: now.Add(-5 * time.Hour).Add(10 * time.Minute)},
		provider.Session{App: "social", Start: sessionStart.Add(-21 * time.Minute), End: sessionStart.Add(-time.Minute)},
		// Yesterday: one 30-minute session.
		provider.Session{App: "social", Start: now.AddDate(0, 0, -1).Add(-2 * time.Hour), End: now.AddDate(0, 0, -1).Add(-90 * time.Minute)},
		// Another app is invisible to this context.
		provider.Session{App: "games", Start: now.Add(-3 * time.Hour), End: now.Add(-2 * time.Hour)},
	)

	goals := provider.NewMemoryGoals()
	goals.Set("social", provider.Goal{DailyLimitMinutes: 30, CurrentStreak: 4})

	b := NewContextBuilder(usage, goals, nil).WithClock(func() time.Time { return now })
	dctx := b.Build(context.Background(), "social", sessionStart)

	// Two finished sessions today plus the in-progress one.
	if dctx.SessionsToday != 3 {
		t.Errorf("SessionsToday = %d, want 3", dctx.SessionsToday)
	}
	if dctx.UsageTodayMinutes != 32 {
		t.Errorf("UsageTodayMinutes = %v, want 10 + 20 + 2", dctx.UsageTodayMinutes)
	}
	if dctx.UsageYesterdayMinutes != 30 {
		t.Errorf("UsageYesterdayMinutes = %v, want 30", dctx.UsageYesterdayMinutes)
	}
	if dctx.BestSessionMin != 30 {
		t.Errorf("BestSessionMin = %v, want 30", dctx.BestSessionMin)
	}

	// A one-minute gap to the previous session is a quick reopen.
	if !dctx.QuickReopen || dctx.MillisSinceLastEnd != time.Minute.Milliseconds() {
		t.Errorf("reopen gap = %dms quick=%v, want 60000ms quick", dctx.MillisSinceLastEnd, dctx.QuickReopen)
	}

	// 32 used minutes against a 30-minute goal.
	if !dctx.HasGoal || !dctx.OverGoal || dctx.StreakDays != 4 {
		t.Errorf("goal fields = %+v", dctx)
	}
}

func TestBuildDegradesWithoutProviders(t *testing.T) {
	now := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)

	b := NewContextBuilder(failingUsage{}, nil, nil).WithClock(func() time.Time { return now })
	dctx := b.Build(context.Background(), "social", now.Add(-5*time.Minute))

	// Provider failure leaves a valid time-only context.
	if err := dctx.Validate(); err != nil {
		t.Fatalf("degraded context invalid: %v", err)
	}
	if dctx.SessionsToday != 0 || dctx.QuickReopen {
		t.Errorf("degraded context carries usage fields: %+v", dctx)
	}
	if dctx.SessionMinutes != 5 {
		t.Errorf("SessionMinutes = %v, want 5", dctx.SessionMinutes)
	}
}
