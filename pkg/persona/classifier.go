package persona

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultCacheTTL is how long a detected persona stays valid. Behavior
// drifts slowly; six hours amortizes the usage-history scan.
const DefaultCacheTTL = 6 * time.Hour

// classificationRule pairs a predicate with the persona it yields. Rules
// are evaluated in order; the first match wins.
type classificationRule struct {
	persona Persona
	matches func(Analytics) bool
}

// rules is the ordered classification table. Order is part of the
// contract: earlier rules shadow later ones.
var rules = []classificationRule{
	{NewUser, func(a Analytics) bool {
		return a.DaysSinceInstall < 14
	}},
	{ProblematicPattern, func(a Analytics) bool {
		return a.Trend == TrendEscalating && a.QuickReopenRate > 0.40
	}},
	{HeavyCompulsive, func(a Analytics) bool {
		return a.AvgDailySessions >= 15 && a.QuickReopenRate >= 0.35 && a.AvgSessionMinutes < 5
	}},
	{HeavyBinge, func(a Analytics) bool {
		return a.AvgDailySessions >= 6 && a.AvgSessionMinutes >= 20
	}},
	{ModerateBalanced, func(a Analytics) bool {
		return a.AvgDailySessions >= 8 && a.AvgDailySessions <= 13
	}},
	{Casual, func(a Analytics) bool {
		return a.AvgDailySessions < 8
	}},
}

// Classify maps analytics to a persona by walking the ordered rule table.
// It never fails: analytics that match nothing fall back to
// ModerateBalanced.
func Classify(a Analytics) Persona {
	for _, r := range rules {
		if r.matches(a) {
			return r.persona
		}
	}
	return ModerateBalanced
}

// confidenceFor maps account age to classification confidence.
func confidenceFor(daysSinceInstall int) string {
	switch {
	case daysSinceInstall < 7:
		return ConfidenceLow
	case daysSinceInstall < 14:
		return ConfidenceMedium
	default:
		return ConfidenceHigh
	}
}

// Classifier detects the current user's persona from rolling analytics and
// caches the result. There is a single current user, so the cache is a
// single slot.
type Classifier struct {
	builder *AnalyticsBuilder
	ttl     time.Duration
	nowFn   func() time.Time

	mu       sync.Mutex
	cached   *Detected
	cachedAt time.Time
}

// NewClassifier creates a classifier over the given analytics builder.
func NewClassifier(builder *AnalyticsBuilder) *Classifier {
	return &Classifier{
		builder: builder,
		ttl:     DefaultCacheTTL,
		nowFn:   time.Now,
	}
}

// WithTTL overrides the cache TTL.
func (c *Classifier) WithTTL(ttl time.Duration) *Classifier {
	c.ttl = ttl
	return c
}

// WithClock overrides the classifier clock. Test hook.
func (c *Classifier) WithClock(now func() time.Time) *Classifier {
	c.nowFn = now
	c.builder.WithClock(now)
	return c
}

// Detect returns the current persona, serving from cache while the TTL
// holds. It never returns an error; missing usage data classifies as
// NewUser via zeroed analytics.
func (c *Classifier) Detect(ctx context.Context) Detected {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFn()
	if c.cached != nil && now.Sub(c.cachedAt) < c.ttl {
		return *c.cached
	}

	analytics := c.builder.Build(ctx)
	detected := Detected{
		Persona:    Classify(analytics),
		Confidence: confidenceFor(analytics.DaysSinceInstall),
		Analytics:  analytics,
		DetectedAt: now,
	}

	c.cached = &detected
	c.cachedAt = now

	logrus.Infof("detected persona %s (confidence=%s trend=%s avgDaily=%.1f)",
		detected.Persona, detected.Confidence, analytics.Trend, analytics.AvgDailySessions)

	return detected
}

// Invalidate drops the cached persona. Called when behavior is expected to
// have shifted materially.
func (c *Classifier) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached = nil
}
