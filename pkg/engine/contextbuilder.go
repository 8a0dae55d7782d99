package engine

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/screenbalance/jitai-engine/pkg/decision"
	"github.com/screenbalance/jitai-engine/pkg/provider"
)

const (
	// contextQuickReopenGap matches the compulsive-reopen threshold used
	// by the persona analytics.
	contextQuickReopenGap = 2 * time.Minute

	// contextFetchTimeout bounds the provider reads. On timeout the
	// builder degrades to a time-only context.
	contextFetchTimeout = 3 * time.Second
)

// ContextBuilder assembles the immutable decision context from the host
// providers. Hosts with richer telemetry can build decision.Context
// themselves; this is the default assembly from usage sessions, the daily
// goal and wall-clock time.
type ContextBuilder struct {
	usage   provider.UsageHistoryProvider
	goals   provider.GoalProvider
	install provider.InstallationClock
	nowFn   func() time.Time
}

// NewContextBuilder creates a builder over the host providers. goals may
// be nil when the host has no goal feature.
func NewContextBuilder(usage provider.UsageHistoryProvider, goals provider.GoalProvider, install provider.InstallationClock) *ContextBuilder {
	return &ContextBuilder{
		usage:   usage,
		goals:   goals,
		install: install,
		nowFn:   time.Now,
	}
}

// WithClock overrides the builder clock. Test hook.
func (b *ContextBuilder) WithClock(now func() time.Time) *ContextBuilder {
	b.nowFn = now
	return b
}

// Build assembles a context for one app session that started at
// sessionStart. Provider failures degrade to a time-only context rather
// than failing: a decision on thin data beats no decision.
func (b *ContextBuilder) Build(ctx context.Context, app string, sessionStart time.Time) decision.Context {
	now := b.nowFn()

	dctx := decision.Context{
		Timestamp: now,
		TargetApp: app,
		HourOfDay: now.Hour(),
		DayOfWeek: now.Weekday(),
		IsWeekend: now.Weekday() == time.Saturday || now.Weekday() == time.Sunday,
	}
	if !sessionStart.IsZero() {
		dctx.SessionMinutes = now.Sub(sessionStart).Minutes()
	}
	if b.install != nil {
		days := int(now.Sub(b.install.InstallDate()).Hours() / 24)
		if days < 0 {
			days = 0
		}
		dctx.DaysSinceInstall = days
		dctx.FrictionLevel = frictionFor(days)
	}

	ctx, cancel := context.WithTimeout(ctx, contextFetchTimeout)
	defer cancel()

	b.fillUsage(ctx, &dctx, app, sessionStart, now)
	b.fillGoal(ctx, &dctx, app)

	return dctx
}

// frictionFor ramps the friction level up as the account ages: gentle in
// the first week, full strength after the first month.
func frictionFor(daysSinceInstall int) int {
	switch {
	case daysSinceInstall < 7:
		return 1
	case daysSinceInstall < 30:
		return 2
	default:
		return 3
	}
}

// fillUsage derives today's session counts, reopen gap and the usage
// comparison fields from the last eight days of sessions for the app.
func (b *ContextBuilder) fillUsage(ctx context.Context, dctx *decision.Context, app string, sessionStart, now time.Time) {
	if b.usage == nil {
		return
	}

	from := now.AddDate(0, 0, -8)
	sessions, err := b.usage.GetSessions(ctx, app, from, now)
	if err != nil {
		logrus.Warnf("usage history unavailable for context, using time-only context: %v", err)
		return
	}

	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfYesterday := startOfToday.AddDate(0, 0, -1)
	weekStart := startOfToday.AddDate(0, 0, -7)

	var lastEnd time.Time
	var weeklyMinutes float64
	var bestSession float64
	for _, s := range sessions {
		// The in-progress session is the subject of the decision, not
		// history.
		if !sessionStart.IsZero() && !s.Start.Before(sessionStart) {
			continue
		}

		minutes := s.Duration().Minutes()
		if minutes > bestSession {
			bestSession = minutes
		}

		if !s.Start.Before(startOfToday) {
			dctx.SessionsToday++
			dctx.UsageTodayMinutes += minutes
		} else if !s.Start.Before(startOfYesterday) {
			dctx.UsageYesterdayMinutes += minutes
		}
		if !s.Start.Before(weekStart) && s.Start.Before(startOfToday) {
			weeklyMinutes += minutes
		}

		if s.End.After(lastEnd) {
			lastEnd = s.End
		}
	}

	// The current session counts toward today.
	if !sessionStart.IsZero() {
		dctx.SessionsToday++
		dctx.UsageTodayMinutes += dctx.SessionMinutes
	}
	dctx.WeeklyAverageMinutes = weeklyMinutes / 7
	dctx.BestSessionMin = bestSession

	if !lastEnd.IsZero() && !sessionStart.IsZero() && sessionStart.After(lastEnd) {
		gap := sessionStart.Sub(lastEnd)
		dctx.MillisSinceLastEnd = gap.Milliseconds()
		dctx.QuickReopen = gap <= contextQuickReopenGap
	}
}

func (b *ContextBuilder) fillGoal(ctx context.Context, dctx *decision.Context, app string) {
	if b.goals == nil {
		return
	}

	goal, err := b.goals.GetGoal(ctx, app)
	if err != nil {
		logrus.Warnf("goal provider unavailable for context: %v", err)
		return
	}
	if goal == nil {
		return
	}

	dctx.DailyGoalMinutes = goal.DailyLimitMinutes
	dctx.HasGoal = true
	dctx.OverGoal = goal.DailyLimitMinutes > 0 && dctx.UsageTodayMinutes > float64(goal.DailyLimitMinutes)
	dctx.StreakDays = goal.CurrentStreak
}
