package decision

import (
	"fmt"
	"time"
)

// Context is the immutable snapshot of the user's current session that one
// decision is made from. It is assembled by the host's context builder;
// the engine only reads it. Derived booleans are methods, never fields:
// they are recomputed from the stored values on every call.
type Context struct {
	Timestamp time.Time
	TargetApp string

	HourOfDay int
	DayOfWeek time.Weekday
	IsWeekend bool

	SessionMinutes        float64
	SessionsToday         int
	MillisSinceLastEnd    int64
	QuickReopen           bool
	UsageTodayMinutes     float64
	UsageYesterdayMinutes float64
	WeeklyAverageMinutes  float64

	DailyGoalMinutes int // 0 means no goal set
	HasGoal          bool
	OverGoal         bool

	StreakDays       int
	DaysSinceInstall int
	FrictionLevel    int
	BestSessionMin   float64
}

// Validate rejects a context with no target app. That is the one fatal
// precondition: a decision without a subject is a programming error, not a
// degradable input.
func (c Context) Validate() error {
	if c.TargetApp == "" {
		return fmt.Errorf("decision context has no target app")
	}
	return nil
}

// IsLateNight reports whether the snapshot falls in the late-night bucket.
func (c Context) IsLateNight() bool {
	return c.HourOfDay >= 23 || c.HourOfDay < 6
}

// IsWeekendMorning reports a weekend morning (8-11h).
func (c Context) IsWeekendMorning() bool {
	return c.IsWeekend && c.HourOfDay >= 8 && c.HourOfDay <= 11
}

// IsExtendedSession reports a session of 15 minutes or more.
func (c Context) IsExtendedSession() bool {
	return c.SessionMinutes >= 15
}

// IsHighFrequencyDay reports 10 or more sessions today.
func (c Context) IsHighFrequencyDay() bool {
	return c.SessionsToday >= 10
}

// IsFirstSessionOfDay reports whether this is today's first session.
func (c Context) IsFirstSessionOfDay() bool {
	return c.SessionsToday <= 1
}

// IsDaytime reports the 6-23h band used by the adaptive and onboarding
// frequency policies.
func (c Context) IsDaytime() bool {
	return c.HourOfDay >= 6 && c.HourOfDay < 23
}
