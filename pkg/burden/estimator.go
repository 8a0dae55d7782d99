package burden

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/screenbalance/jitai-engine/pkg/outcome"
)

// Burden levels with their recommended cooldown multipliers. The rate
// limiter scales its persona cooldown by the multiplier.
const (
	LevelLow      = "low"
	LevelModerate = "moderate"
	LevelHigh     = "high"
	LevelCritical = "critical"
)

// Trend labels for engagement and effectiveness direction.
const (
	TrendIncreasing = "increasing"
	TrendStable     = "stable"
	TrendDeclining  = "declining"
)

const (
	// DefaultCacheTTL is how long computed metrics stay valid.
	DefaultCacheTTL = 10 * time.Minute

	// sampleWindow is the outcome history window the estimator reads.
	sampleWindow = 30 * 24 * time.Hour

	// minSamples is the minimum outcome count for any rate calculation;
	// below it the estimator returns neutral defaults.
	minSamples = 5

	trendDelta = 0.1
)

// Metrics is the aggregated fatigue picture over the sample window.
type Metrics struct {
	AvgResponseTimeMs  float64
	DismissRate        float64
	TimeoutRate        float64
	SnoozeCount        int
	EngagementTrend    string
	InterventionsIn24h int
	InterventionsIn7d  int
	Effectiveness7d    float64
	EffectivenessTrend string
	HelpfulnessRatio   float64
	SampleSize         int

	Score      int
	Level      string
	Multiplier float64

	ComputedAt time.Time
}

// Estimator computes the user's intervention fatigue from recent outcome
// history. Results are cached; the cache is invalidated whenever a new
// outcome is recorded.
type Estimator struct {
	history outcome.HistoryStore
	ttl     time.Duration
	nowFn   func() time.Time

	mu     sync.Mutex
	cached *Metrics
}

// NewEstimator creates an estimator over the outcome history store.
func NewEstimator(history outcome.HistoryStore) *Estimator {
	return &Estimator{
		history: history,
		ttl:     DefaultCacheTTL,
		nowFn:   time.Now,
	}
}

// WithTTL overrides the cache TTL.
func (e *Estimator) WithTTL(ttl time.Duration) *Estimator {
	e.ttl = ttl
	return e
}

// WithClock overrides the estimator clock. Test hook.
func (e *Estimator) WithClock(now func() time.Time) *Estimator {
	e.nowFn = now
	return e
}

// Estimate returns the current burden metrics, serving from cache while
// the TTL holds. History failures degrade to neutral metrics.
func (e *Estimator) Estimate(ctx context.Context) Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.nowFn()
	if e.cached != nil && now.Sub(e.cached.ComputedAt) < e.ttl {
		return *e.cached
	}

	var outcomes []outcome.Outcome
	if e.history != nil {
		start := now.Add(-sampleWindow)
		var err error
		outcomes, err = e.history.GetResultsInRange(ctx, start.UnixMilli(), now.UnixMilli())
		if err != nil {
			logrus.Warnf("outcome history unavailable, using neutral burden: %v", err)
			outcomes = nil
		}
	}

	m := Compute(outcomes, now)
	e.cached = &m
	return m
}

// Invalidate drops the cached metrics. Called by the outcome recorder on
// every new record.
func (e *Estimator) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cached = nil
}

// Compute aggregates outcomes into burden metrics. Pure; exported for
// direct use in tests.
func Compute(outcomes []outcome.Outcome, now time.Time) Metrics {
	m := Metrics{
		SampleSize:         len(outcomes),
		EngagementTrend:    TrendStable,
		EffectivenessTrend: TrendStable,
		ComputedAt:         now,
	}

	// Neutral defaults with thin data: no measured dismissal or timeout
	// pressure, coin-flip effectiveness/helpfulness, and a moderate level
	// so the cooldown multiplier stays at 1.0.
	if len(outcomes) < minSamples {
		m.Effectiveness7d = 0.5
		m.HelpfulnessRatio = 0.5
		m.Score = score(m)
		m.Level, m.Multiplier = LevelModerate, 1.0
		return m
	}

	var dismissed, timedOut, helpful int
	var responseMs float64
	var sevenDayTotal, sevenDayEffective int

	for _, o := range outcomes {
		if o.Dismissed() {
			dismissed++
		}
		if o.TimedOut() {
			timedOut++
		}
		if o.Choice == outcome.ChoiceSnooze {
			m.SnoozeCount++
		}
		if o.Reward > 0 {
			helpful++
		}

		// Response time proxy: the post-intervention session duration.
		responseMs += float64(o.SessionDuration.Milliseconds())

		age := now.Sub(o.Timestamp)
		if age <= 24*time.Hour {
			m.InterventionsIn24h++
		}
		if age <= 7*24*time.Hour {
			m.InterventionsIn7d++
			sevenDayTotal++
			if effective(o) {
				sevenDayEffective++
			}
		}
	}

	n := float64(len(outcomes))
	m.DismissRate = float64(dismissed) / n
	m.TimeoutRate = float64(timedOut) / n
	m.AvgResponseTimeMs = responseMs / n
	m.HelpfulnessRatio = float64(helpful) / n

	if sevenDayTotal > 0 {
		m.Effectiveness7d = float64(sevenDayEffective) / float64(sevenDayTotal)
	} else {
		m.Effectiveness7d = 0.5
	}

	m.EngagementTrend = halfWindowTrend(outcomes, func(o outcome.Outcome) bool { return !o.Dismissed() })
	m.EffectivenessTrend = halfWindowTrend(outcomes, effective)

	m.Score = score(m)
	m.Level, m.Multiplier = levelFor(m.Score)
	return m
}

func effective(o outcome.Outcome) bool {
	return o.Effective || o.WentBack()
}

// halfWindowTrend compares a rate between the older and newer halves of
// the sample. Outcomes arrive oldest-first from the history store.
func halfWindowTrend(outcomes []outcome.Outcome, pred func(outcome.Outcome) bool) string {
	half := len(outcomes) / 2
	if half == 0 {
		return TrendStable
	}

	rate := func(sample []outcome.Outcome) float64 {
		hits := 0
		for _, o := range sample {
			if pred(o) {
				hits++
			}
		}
		return float64(hits) / float64(len(sample))
	}

	delta := rate(outcomes[half:]) - rate(outcomes[:half])
	switch {
	case delta > trendDelta:
		return TrendIncreasing
	case delta < -trendDelta:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// score folds the rates into the 0-100 burden score.
func score(m Metrics) int {
	s := 30*m.DismissRate +
		20*m.TimeoutRate +
		capFloat(2*float64(m.SnoozeCount), 10) +
		capFloat(2*float64(m.InterventionsIn24h), 15) +
		25*(1-m.Effectiveness7d)

	if s > 100 {
		s = 100
	}
	if s < 0 {
		s = 0
	}
	return int(s)
}

func levelFor(score int) (string, float64) {
	switch {
	case score < 25:
		return LevelLow, 0.5
	case score < 50:
		return LevelModerate, 1.0
	case score < 75:
		return LevelHigh, 1.5
	default:
		return LevelCritical, 3.0
	}
}

func capFloat(v, max float64) float64 {
	if v > max {
		return max
	}
	return v
}
