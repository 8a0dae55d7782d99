package opportunity

import (
	"context"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/screenbalance/jitai-engine/pkg/decision"
	"github.com/screenbalance/jitai-engine/pkg/outcome"
)

// Factor caps. The total score is the plain sum of the five sub-scores, so
// the caps bound it to [0, 100].
const (
	maxTimeReceptiveness = 25
	maxSessionPattern    = 20
	maxCognitiveLoad     = 15
	maxHistoricalSuccess = 20
	maxUserState         = 20
)

const (
	// historicalMinOutcomes is how many prior outcomes for an app the
	// success factor needs before it trusts the data.
	historicalMinOutcomes = 10

	// historicalMinHourMatches is how many of those must fall near the
	// current hour before the hour-filtered rate is used.
	historicalMinHourMatches = 5

	// historicalNeutral is the factor value with insufficient data.
	historicalNeutral = 12

	// historicalFetchLimit bounds the history read per scoring pass.
	historicalFetchLimit = 100
)

// timeReceptiveness scores the hour-of-day bucket, with boosts when the
// user is over goal or it is a weekend morning.
func timeReceptiveness(c decision.Context) int {
	var points int
	switch {
	case c.HourOfDay >= 23 || c.HourOfDay < 6: // late night
		points = 8
	case c.HourOfDay < 9: // early morning
		points = 12
	case c.HourOfDay < 12: // morning
		points = 18
	case c.HourOfDay < 17: // midday
		points = 15
	default: // evening
		points = 20
	}

	if c.OverGoal {
		points += 5
	}
	if c.IsWeekendMorning() {
		points += 4
	}

	return clampFactor(points, maxTimeReceptiveness)
}

// sessionPattern scores the shape of the current session. Quick reopens
// are the strongest signal; first sessions and long sessions also rank.
func sessionPattern(c decision.Context) int {
	switch {
	case c.QuickReopen:
		return 20
	case c.IsFirstSessionOfDay():
		return 15
	case c.SessionMinutes >= 30:
		return 18
	case c.SessionMinutes >= 15:
		return 12
	case c.SessionMinutes >= 5:
		return 8
	default:
		return 5
	}
}

// cognitiveLoad estimates how interruptible the user is. Higher is better
// (less loaded). Starts at the cap and subtracts for engagement depth.
func cognitiveLoad(c decision.Context) int {
	points := maxCognitiveLoad

	// Mid-flow engagement costs attention unless the session is itself a
	// compulsive reopen.
	if !c.QuickReopen {
		points -= 3
	}

	if c.SessionMinutes >= 20 {
		points -= 5
	} else if c.SessionMinutes >= 10 {
		points -= 2
	}

	if c.IsLateNight() {
		points += 2
	}

	return clampFactor(points, maxCognitiveLoad)
}

// historicalSuccess measures how often interventions near this hour made
// the user leave the app. Insufficient data yields a neutral score rather
// than an error.
func (s *Scorer) historicalSuccess(ctx context.Context, c decision.Context) int {
	if s.history == nil {
		return historicalNeutral
	}

	outcomes, err := s.history.GetRecentForApp(ctx, c.TargetApp, historicalFetchLimit)
	if err != nil {
		logrus.Warnf("outcome history unavailable for %s, using neutral success score: %v", c.TargetApp, err)
		return historicalNeutral
	}
	if len(outcomes) < historicalMinOutcomes {
		return historicalNeutral
	}

	// Prefer outcomes within two hours of the current hour; fall back to
	// the whole sample when too few match.
	var matched []outcome.Outcome
	for _, o := range outcomes {
		if hourDistance(o.Timestamp.Hour(), c.HourOfDay) <= 2 {
			matched = append(matched, o)
		}
	}
	if len(matched) < historicalMinHourMatches {
		matched = outcomes
	}

	wentBack := 0
	for _, o := range matched {
		if o.WentBack() {
			wentBack++
		}
	}
	rate := float64(wentBack) / float64(len(matched))

	switch {
	case rate >= 0.6:
		return 20
	case rate >= 0.5:
		return 17
	case rate >= 0.4:
		return 14
	case rate >= 0.3:
		return 10
	default:
		return 5
	}
}

// userState scores motivation signals: streaks, improving usage, and goal
// pressure.
func userState(c decision.Context) int {
	points := 10

	if c.StreakDays >= 7 {
		points += 5
	} else if c.StreakDays >= 3 {
		points += 3
	}

	if c.UsageTodayMinutes < c.UsageYesterdayMinutes {
		points += 3
	}
	if c.UsageTodayMinutes < c.WeeklyAverageMinutes {
		points += 2
	}
	if c.OverGoal {
		points += 3
	}
	if c.StreakDays >= 14 {
		points += 2
	}

	return clampFactor(points, maxUserState)
}

// hourDistance is the circular distance between two hours of day.
func hourDistance(a, b int) int {
	d := int(math.Abs(float64(a - b)))
	if d > 12 {
		d = 24 - d
	}
	return d
}

func clampFactor(points, max int) int {
	if points < 0 {
		return 0
	}
	if points > max {
		return max
	}
	return points
}
