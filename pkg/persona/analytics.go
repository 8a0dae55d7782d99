package persona

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/screenbalance/jitai-engine/pkg/provider"
)

const (
	minWindowDays = 3
	maxWindowDays = 14

	// quickReopenGap is the maximum gap between closing and reopening the
	// app for the reopen to count as compulsive.
	quickReopenGap = 2 * time.Minute

	// analyticsTimeout bounds the usage-history fetch. On timeout the
	// builder falls back to zeroed analytics rather than failing the
	// decision.
	analyticsTimeout = 3 * time.Second
)

// AnalyticsBuilder assembles Analytics from the usage history provider
// over a rolling window that widens as the account ages (3 to 14 days).
type AnalyticsBuilder struct {
	usage   provider.UsageHistoryProvider
	install provider.InstallationClock
	nowFn   func() time.Time
}

// NewAnalyticsBuilder creates a builder over the given providers.
func NewAnalyticsBuilder(usage provider.UsageHistoryProvider, install provider.InstallationClock) *AnalyticsBuilder {
	return &AnalyticsBuilder{
		usage:   usage,
		install: install,
		nowFn:   time.Now,
	}
}

// WithClock overrides the builder clock. Test hook.
func (b *AnalyticsBuilder) WithClock(now func() time.Time) *AnalyticsBuilder {
	b.nowFn = now
	return b
}

// Build produces fresh analytics for the current window. Provider failures
// degrade to zeroed analytics (classified as NewUser) instead of
// propagating.
func (b *AnalyticsBuilder) Build(ctx context.Context) Analytics {
	now := b.nowFn()
	daysSinceInstall := int(now.Sub(b.install.InstallDate()).Hours() / 24)
	if daysSinceInstall < 0 {
		daysSinceInstall = 0
	}

	windowDays := daysSinceInstall
	if windowDays < minWindowDays {
		windowDays = minWindowDays
	}
	if windowDays > maxWindowDays {
		windowDays = maxWindowDays
	}

	ctx, cancel := context.WithTimeout(ctx, analyticsTimeout)
	defer cancel()

	from := now.AddDate(0, 0, -windowDays)
	sessions, err := b.usage.GetSessionsInRange(ctx, from.Format("2006-01-02"), now.Format("2006-01-02"))
	if err != nil {
		logrus.Warnf("usage history unavailable, using zeroed analytics: %v", err)
		return Analytics{DaysSinceInstall: daysSinceInstall, Trend: TrendStable, WindowEnd: now}
	}

	return computeAnalytics(sessions, daysSinceInstall, windowDays, now)
}

// computeAnalytics is the pure aggregation over fetched sessions.
func computeAnalytics(sessions []provider.Session, daysSinceInstall, windowDays int, now time.Time) Analytics {
	a := Analytics{
		DaysSinceInstall: daysSinceInstall,
		TotalSessions:    len(sessions),
		Trend:            TrendStable,
		WindowEnd:        now,
	}
	if len(sessions) == 0 {
		return a
	}

	a.AvgDailySessions = float64(len(sessions)) / float64(windowDays)

	var totalMinutes float64
	dailyCounts := make([]float64, windowDays)
	quickReopens := 0

	windowStart := now.AddDate(0, 0, -windowDays)
	var prevEnd time.Time
	for i, s := range sessions {
		totalMinutes += s.Duration().Minutes()

		day := int(s.Start.Sub(windowStart).Hours() / 24)
		if day >= 0 && day < windowDays {
			dailyCounts[day]++
		}

		if i > 0 && !prevEnd.IsZero() && s.Start.Sub(prevEnd) <= quickReopenGap && s.Start.After(prevEnd) {
			quickReopens++
		}
		if s.End.After(prevEnd) {
			prevEnd = s.End
		}
	}

	a.AvgSessionMinutes = totalMinutes / float64(len(sessions))
	if len(sessions) > 1 {
		a.QuickReopenRate = float64(quickReopens) / float64(len(sessions)-1)
	}
	a.Trend = classifyTrend(regressionSlope(bucketize(dailyCounts, 5)), a.AvgDailySessions)

	return a
}

// bucketize averages daily counts into n buckets so the trend regression
// is stable across window widths.
func bucketize(daily []float64, n int) []float64 {
	if len(daily) == 0 {
		return nil
	}
	if len(daily) <= n {
		return daily
	}

	buckets := make([]float64, n)
	per := float64(len(daily)) / float64(n)
	for i := 0; i < n; i++ {
		start := int(float64(i) * per)
		end := int(float64(i+1) * per)
		if end > len(daily) {
			end = len(daily)
		}
		var sum float64
		for _, v := range daily[start:end] {
			sum += v
		}
		if end > start {
			buckets[i] = sum / float64(end-start)
		}
	}
	return buckets
}

// regressionSlope is the least-squares slope of values over their index.
func regressionSlope(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// classifyTrend maps the bucket slope (and session volume) to a trend label.
func classifyTrend(slope, avgDailySessions float64) string {
	switch {
	case slope > 0.5 && avgDailySessions > 10:
		return TrendEscalating
	case slope > 0.2:
		return TrendIncreasing
	case slope < -0.5:
		return TrendDeclining
	case slope < -0.2:
		return TrendDecreasing
	default:
		return TrendStable
	}
}
