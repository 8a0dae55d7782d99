package opportunity

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/screenbalance/jitai-engine/pkg/decision"
	"github.com/screenbalance/jitai-engine/pkg/outcome"
)

// Levels map the 0-100 score into coarse receptiveness bands.
const (
	LevelExcellent = "excellent"
	LevelGood      = "good"
	LevelModerate  = "moderate"
	LevelPoor      = "poor"
)

// Decisions mirror the level thresholds; the rate limiter consumes these.
const (
	DecideInterveneNow     = "intervene_now"
	DecideInterveneCareful = "intervene_with_consideration"
	DecideWait             = "wait"
	DecideSkip             = "skip"
)

// DefaultCacheTTL is the per-app detection cache lifetime.
const DefaultCacheTTL = 5 * time.Minute

// Factors is the sub-score breakdown, kept for explainability.
type Factors struct {
	TimeReceptiveness int `json:"timeReceptiveness"` // max 25
	SessionPattern    int `json:"sessionPattern"`    // max 20
	CognitiveLoad     int `json:"cognitiveLoad"`     // max 15
	HistoricalSuccess int `json:"historicalSuccess"` // max 20
	UserState         int `json:"userState"`         // max 20
}

// Detection is one scored moment: the total, its level/decision mapping,
// and the factor breakdown.
type Detection struct {
	Score    int       `json:"score"`
	Level    string    `json:"level"`
	Decision string    `json:"decision"`
	Factors  Factors   `json:"factors"`
	ScoredAt time.Time `json:"scoredAt"`
}

// Scorer computes how receptive the user is right now. Detections are
// cached per target app for a short TTL; the history store feeds the
// historical-success factor.
type Scorer struct {
	history outcome.HistoryStore
	ttl     time.Duration
	nowFn   func() time.Time

	mu    sync.Mutex
	cache map[string]Detection
}

// NewScorer creates a scorer. history may be nil, in which case the
// historical-success factor is always neutral.
func NewScorer(history outcome.HistoryStore) *Scorer {
	return &Scorer{
		history: history,
		ttl:     DefaultCacheTTL,
		nowFn:   time.Now,
		cache:   make(map[string]Detection),
	}
}

// WithTTL overrides the cache TTL.
func (s *Scorer) WithTTL(ttl time.Duration) *Scorer {
	s.ttl = ttl
	return s
}

// WithClock overrides the scorer clock. Test hook.
func (s *Scorer) WithClock(now func() time.Time) *Scorer {
	s.nowFn = now
	return s
}

// Score computes the opportunity detection for the given context, serving
// a cached detection for the same target app while the TTL holds.
// forceRefresh bypasses the cache.
func (s *Scorer) Score(ctx context.Context, dctx decision.Context, forceRefresh bool) Detection {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFn()
	if !forceRefresh {
		if cached, ok := s.cache[dctx.TargetApp]; ok && now.Sub(cached.ScoredAt) < s.ttl {
			return cached
		}
	}

	factors := Factors{
		TimeReceptiveness: timeReceptiveness(dctx),
		SessionPattern:    sessionPattern(dctx),
		CognitiveLoad:     cognitiveLoad(dctx),
		HistoricalSuccess: s.historicalSuccess(ctx, dctx),
		UserState:         userState(dctx),
	}

	score := factors.TimeReceptiveness + factors.SessionPattern +
		factors.CognitiveLoad + factors.HistoricalSuccess + factors.UserState

	d := Detection{
		Score:    score,
		Level:    levelFor(score),
		Decision: decisionFor(score),
		Factors:  factors,
		ScoredAt: now,
	}
	s.cache[dctx.TargetApp] = d

	logrus.Debugf("opportunity for %s: score=%d level=%s decision=%s", dctx.TargetApp, d.Score, d.Level, d.Decision)

	return d
}

// Invalidate drops the cached detection for one app.
func (s *Scorer) Invalidate(app string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, app)
}

func levelFor(score int) string {
	switch {
	case score >= 70:
		return LevelExcellent
	case score >= 50:
		return LevelGood
	case score >= 30:
		return LevelModerate
	default:
		return LevelPoor
	}
}

func decisionFor(score int) string {
	switch {
	case score >= 70:
		return DecideInterveneNow
	case score >= 50:
		return DecideInterveneCareful
	case score >= 30:
		return DecideWait
	default:
		return DecideSkip
	}
}
