package persona

import (
	"context"
	"testing"
	"time"

	"github.com/screenbalance/jitai-engine/pkg/provider"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		a    Analytics
		want Persona
	}{
		{
			name: "young account is always new user",
			a:    Analytics{DaysSinceInstall: 10, AvgDailySessions: 30, QuickReopenRate: 0.9},
			want: NewUser,
		},
		{
			name: "escalating with heavy reopening is problematic",
			a:    Analytics{DaysSinceInstall: 30, Trend: TrendEscalating, QuickReopenRate: 0.45, AvgDailySessions: 12},
			want: ProblematicPattern,
		},
		{
			name: "many short compulsive sessions",
			a:    Analytics{DaysSinceInstall: 30, AvgDailySessions: 20, QuickReopenRate: 0.4, AvgSessionMinutes: 3, Trend: TrendStable},
			want: HeavyCompulsive,
		},
		{
			name: "fewer but long sessions is binge",
			a:    Analytics{DaysSinceInstall: 30, AvgDailySessions: 7, AvgSessionMinutes: 25, Trend: TrendStable},
			want: HeavyBinge,
		},
		{
			name: "mid-band session count is moderate",
			a:    Analytics{DaysSinceInstall: 30, AvgDailySessions: 10, AvgSessionMinutes: 8, Trend: TrendStable},
			want: ModerateBalanced,
		},
		{
			name: "light usage is casual",
			a:    Analytics{DaysSinceInstall: 30, AvgDailySessions: 4, AvgSessionMinutes: 10, Trend: TrendStable},
			want: Casual,
		},
		{
			name: "high count without compulsive markers falls back to moderate",
			a:    Analytics{DaysSinceInstall: 30, AvgDailySessions: 14, AvgSessionMinutes: 10, QuickReopenRate: 0.1, Trend: TrendStable},
			want: ModerateBalanced,
		},
		{
			name: "zeroed analytics classify as new user",
			a:    Analytics{},
			want: NewUser,
		},
		{
			name: "problematic wins over compulsive when both match",
			a:    Analytics{DaysSinceInstall: 30, Trend: TrendEscalating, QuickReopenRate: 0.5, AvgDailySessions: 20, AvgSessionMinutes: 3},
			want: ProblematicPattern,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.a); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfidenceFor(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{0, ConfidenceLow},
		{6, ConfidenceLow},
		{7, ConfidenceMedium},
		{13, ConfidenceMedium},
		{14, ConfidenceHigh},
		{100, ConfidenceHigh},
	}

	for _, tt := range tests {
		if got := confidenceFor(tt.days); got != tt.want {
			t.Errorf("confidenceFor(%d) = %v, want %v", tt.days, got, tt.want)
		}
	}
}

// countingUsage wraps the in-memory provider and counts range fetches so
// cache behavior is observable.
type countingUsage struct {
	*provider.MemoryUsageHistory
	calls int
}

func (c *countingUsage) GetSessionsInRange(ctx context.Context, startDate, endDate string) ([]provider.Session, error) {
	c.calls++
	return c.MemoryUsageHistory.GetSessionsInRange(ctx, startDate, endDate)
}

func TestDetectServesFromCache(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	usage := &countingUsage{MemoryUsageHistory: provider.NewMemoryUsageHistory()}
	install := provider.FixedInstallClock{Date: now.AddDate(0, 0, -30)}

	c := NewClassifier(NewAnalyticsBuilder(usage, install)).WithClock(clock)

	first := c.Detect(context.Background())
	second := c.Detect(context.Background())

	if usage.calls != 1 {
		t.Fatalf("expected 1 provider fetch, got %d", usage.calls)
	}
	if first.Persona != second.Persona || !first.DetectedAt.Equal(second.DetectedAt) {
		t.Errorf("cached detection differs: %+v vs %+v", first, second)
	}

	// Past the TTL the classifier refreshes.
	now = now.Add(DefaultCacheTTL + time.Minute)
	c.Detect(context.Background())
	if usage.calls != 2 {
		t.Errorf("expected refresh after TTL, got %d fetches", usage.calls)
	}
}

func TestDetectInvalidateForcesRefresh(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	usage := &countingUsage{MemoryUsageHistory: provider.NewMemoryUsageHistory()}
	install := provider.FixedInstallClock{Date: now.AddDate(0, 0, -30)}

	c := NewClassifier(NewAnalyticsBuilder(usage, install)).WithClock(clock)

	c.Detect(context.Background())
	c.Invalidate()
	c.Detect(context.Background())

	if usage.calls != 2 {
		t.Errorf("expected refetch after invalidate, got %d fetches", usage.calls)
	}
}

func TestDetectConfidenceTracksAccountAge(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	usage := &countingUsage{MemoryUsageHistory: provider.NewMemoryUsageHistory()}
	install := provider.FixedInstallClock{Date: now.AddDate(0, 0, -5)}

	c := NewClassifier(NewAnalyticsBuilder(usage, install)).WithClock(clock)

	det := c.Detect(context.Background())
	if det.Persona != NewUser {
		t.Errorf("expected new user for a 5 day old account, got %v", det.Persona)
	}
	if det.Confidence != ConfidenceLow {
		t.Errorf("expected low confidence, got %v", det.Confidence)
	}
}
