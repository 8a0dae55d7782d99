package engine

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/screenbalance/jitai-engine/pkg/bandit"
	"github.com/screenbalance/jitai-engine/pkg/burden"
	"github.com/screenbalance/jitai-engine/pkg/common"
	"github.com/screenbalance/jitai-engine/pkg/content"
	"github.com/screenbalance/jitai-engine/pkg/decision"
	"github.com/screenbalance/jitai-engine/pkg/metrics"
	"github.com/screenbalance/jitai-engine/pkg/opportunity"
	"github.com/screenbalance/jitai-engine/pkg/outcome"
	"github.com/screenbalance/jitai-engine/pkg/persona"
	"github.com/screenbalance/jitai-engine/pkg/provider"
	"github.com/screenbalance/jitai-engine/pkg/ratelimit"
)

// Decision is the engine's answer for one intervention request.
type Decision struct {
	SessionID string
	Allowed   bool

	Verdict     ratelimit.Verdict
	Persona     persona.Detected
	Opportunity opportunity.Detection
	Burden      burden.Metrics

	// Selection is populated only when Allowed is true.
	Selection *content.Selection

	DecidedAt time.Time
}

// Deps are the engine's collaborators, built by the bootstrap layer.
// Stores and the delivery channel may be nil in tests.
type Deps struct {
	Usage    provider.UsageHistoryProvider
	Goals    provider.GoalProvider
	Install  provider.InstallationClock
	Delivery provider.DeliveryChannel

	History      outcome.HistoryStore
	BanditStore  bandit.StateStore
	LimiterStore ratelimit.StateStore
	LogStore     decision.LogStore
}

// Engine wires the full decision pipeline: persona classification,
// opportunity scoring, burden estimation, the rate-limit gate, content
// selection with the bandit learner, outcome tracking and the decision
// log. One engine serves one user.
type Engine struct {
	cfg Config

	builder    *ContextBuilder
	classifier *persona.Classifier
	scorer     *opportunity.Scorer
	estimator  *burden.Estimator
	limiter    *ratelimit.Limiter
	learner    *bandit.Learner
	selector   *content.Selector
	arena      *outcome.Arena
	recorder   *outcome.Recorder
	log        *decision.Log

	delivery    provider.DeliveryChannel
	banditStore bandit.StateStore

	nowFn func() time.Time
	newID func() string
}

// New builds an engine from its dependencies and tunables.
func New(cfg Config, deps Deps) *Engine {
	seed := cfg.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	builder := persona.NewAnalyticsBuilder(deps.Usage, deps.Install)
	classifier := persona.NewClassifier(builder).WithTTL(cfg.PersonaCacheTTL)
	scorer := opportunity.NewScorer(deps.History).WithTTL(cfg.OpportunityCacheTTL)
	estimator := burden.NewEstimator(deps.History).WithTTL(cfg.BurdenCacheTTL)
	limiter := ratelimit.NewLimiter(deps.LimiterStore)
	learner := bandit.NewLearner(bandit.Config{ExplorationRate: cfg.ExplorationRate}, rng)
	selector := content.NewSelector(learner, rng)
	arena := outcome.NewArena()
	recorder := outcome.NewRecorder(arena, deps.History, learner, estimator)

	return &Engine{
		cfg:         cfg,
		builder:     NewContextBuilder(deps.Usage, deps.Goals, deps.Install),
		classifier:  classifier,
		scorer:      scorer,
		estimator:   estimator,
		limiter:     limiter,
		learner:     learner,
		selector:    selector,
		arena:       arena,
		recorder:    recorder,
		log:         decision.NewLog(deps.LogStore),
		delivery:    deps.Delivery,
		banditStore: deps.BanditStore,
		nowFn:       time.Now,
		newID:       uuid.NewString,
	}
}

// WithClock overrides every internal clock. Test hook.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.nowFn = now
	e.builder.WithClock(now)
	e.classifier.WithClock(now)
	e.scorer.WithClock(now)
	e.estimator.WithClock(now)
	e.limiter.WithClock(now)
	e.arena.WithClock(now)
	e.recorder.WithClock(now)
	e.log.WithClock(now)
	return e
}

// Restore loads durable state (rate limiter, bandit posteriors) from the
// stores. Missing or unreadable state starts fresh; Restore never fails
// startup.
func (e *Engine) Restore(ctx context.Context) {
	e.limiter.Restore(ctx)

	if e.banditStore == nil {
		return
	}
	state, err := e.banditStore.LoadBanditState(ctx)
	if err != nil {
		logrus.Warnf("could not restore bandit state, starting from uniform prior: %v", err)
		return
	}
	e.learner.Restore(state)
}

// BuildContext assembles a decision context for one app session through
// the default context builder. Hosts with richer telemetry can skip this
// and hand Decide their own context.
func (e *Engine) BuildContext(ctx context.Context, app string, sessionStart time.Time) decision.Context {
	return e.builder.Build(ctx, app, sessionStart)
}

// Decide runs the full pipeline for one potential intervention.
// interventionType is the host's trigger kind ("timer", "launch", ...).
//
// Persona and opportunity are always computed, whatever the verdict, so
// caches and analytics accumulate even on denials. They are independent
// and run concurrently.
func (e *Engine) Decide(ctx context.Context, dctx decision.Context, interventionType string) (*Decision, error) {
	if err := dctx.Validate(); err != nil {
		return nil, err
	}

	scope := common.GetScopeFromContext(ctx, "Engine.Decide")
	defer scope.Finish()
	ctx = scope.Ctx
	scope.SetAttributes("app", dctx.TargetApp)

	var (
		wg  sync.WaitGroup
		det persona.Detected
		opp opportunity.Detection
		bm  burden.Metrics
	)
	wg.Add(3)
	go func() { defer wg.Done(); det = e.classifier.Detect(ctx) }()
	go func() { defer wg.Done(); opp = e.scorer.Score(ctx, dctx, false) }()
	go func() { defer wg.Done(); bm = e.estimator.Estimate(ctx) }()
	wg.Wait()

	e.log.Append(decision.EventPersonaDetected, "", dctx.TargetApp, map[string]interface{}{
		"persona":    string(det.Persona),
		"confidence": det.Confidence,
		"trend":      det.Analytics.Trend,
	})
	e.log.Append(decision.EventOpportunityScored, "", dctx.TargetApp, map[string]interface{}{
		"score":    opp.Score,
		"level":    opp.Level,
		"decision": opp.Decision,
	})

	metrics.OpportunityScore.Observe(float64(opp.Score))
	metrics.BurdenScore.Set(float64(bm.Score))

	verdict := e.limiter.Check(det, opp, dctx)
	scope.SetAttributes("persona", string(det.Persona))
	scope.SetAttributes("opportunityScore", opp.Score)
	scope.SetAttributes("verdict", verdict.State)
	metrics.DecisionsTotal.WithLabelValues(verdict.State).Inc()
	e.log.Append(decision.EventRateLimit, "", dctx.TargetApp, map[string]interface{}{
		"verdict":     verdict.State,
		"policy":      verdict.Policy,
		"source":      verdict.Source,
		"remainingMs": verdict.Remaining.Milliseconds(),
	})

	d := &Decision{
		Verdict:     verdict,
		Persona:     det,
		Opportunity: opp,
		Burden:      bm,
		DecidedAt:   e.nowFn(),
	}

	if !verdict.Allowed {
		logrus.Debugf("intervention for %s denied: %s (%s)", dctx.TargetApp, verdict.State, verdict.Source)
		return d, nil
	}

	sel := e.selector.Select(dctx, det, e.effectivenessStats(), interventionType)
	sessionID := e.newID()

	e.limiter.RecordIntervention(det)
	e.arena.Track(outcome.Tracking{
		SessionID:        sessionID,
		App:              dctx.TargetApp,
		ContentType:      string(sel.Category),
		Persona:          string(det.Persona),
		OpportunityScore: opp.Score,
		BurdenScore:      bm.Score,
		ShownAt:          e.nowFn(),
	})

	metrics.InterventionsShownTotal.WithLabelValues(string(sel.Category)).Inc()
	e.log.Append(decision.EventArmSelected, sessionID, dctx.TargetApp, map[string]interface{}{
		"arm":      sel.Arm.Arm,
		"strategy": sel.Arm.Strategy,
		"sampled":  sel.Arm.Sampled,
		"pulls":    sel.Arm.Pulls,
	})
	e.log.Append(decision.EventContentSelected, sessionID, dctx.TargetApp, map[string]interface{}{
		"category": string(sel.Category),
		"reason":   sel.Reason,
	})

	d.SessionID = sessionID
	d.Allowed = true
	d.Selection = &sel

	e.deliver(ctx, sessionID, dctx.TargetApp, sel)

	logrus.Infof("intervention %s for %s: category=%s persona=%s opportunity=%d",
		sessionID, dctx.TargetApp, sel.Category, det.Persona, opp.Score)

	return d, nil
}

// deliver hands the message to the host channel. Delivery failures do not
// fail the decision: the tracking entry ages out if no outcome ever lands.
func (e *Engine) deliver(ctx context.Context, sessionID, app string, sel content.Selection) {
	if e.delivery == nil {
		return
	}

	err := e.delivery.Deliver(ctx, sessionID, app, string(sel.Category), sel.Message)
	fields := map[string]interface{}{"category": string(sel.Category)}
	if err != nil {
		fields["error"] = err.Error()
		logrus.Errorf("delivery failed for session %s: %v", sessionID, err)
	}
	e.log.Append(decision.EventDelivery, sessionID, app, fields)
}

// RecordResponse closes the loop for one shown intervention: reward
// computation, bandit update, burden invalidation and rate-limiter
// feedback. An unknown session returns (nil, nil).
func (e *Engine) RecordResponse(ctx context.Context, resp outcome.Response) (*outcome.Outcome, error) {
	scope := common.GetScopeFromContext(ctx, "Engine.RecordResponse")
	defer scope.Finish()
	ctx = scope.Ctx

	o, err := e.recorder.Record(ctx, resp)
	if err != nil {
		scope.TraceError(err)
		return nil, err
	}
	if o == nil {
		return nil, nil
	}
	scope.SetAttributes("choice", o.Choice)
	scope.SetAttributes("reward", o.Reward)

	metrics.OutcomesTotal.WithLabelValues(o.Choice).Inc()
	metrics.RewardObserved.Observe(o.Reward)

	e.log.Append(decision.EventOutcomeRecorded, o.SessionID, o.App, map[string]interface{}{
		"choice":    o.Choice,
		"reward":    o.Reward,
		"compliant": o.Compliant,
	})

	e.applyLimiterFeedback(*o)
	e.persistBandit(ctx)

	return o, nil
}

// applyLimiterFeedback translates one outcome into cadence feedback:
// compliance resets and shortens the cooldown, dismissal escalates and
// lengthens it.
func (e *Engine) applyLimiterFeedback(o outcome.Outcome) {
	switch {
	case o.Compliant, o.Reward >= 0.5:
		e.limiter.ResetCooldown()
		e.limiter.ApplyFeedback(ratelimit.FeedbackHelpful)
	case o.Dismissed(), o.TimedOut():
		e.limiter.Escalate()
		e.limiter.ApplyFeedback(ratelimit.FeedbackDisruptive)
	default:
		e.limiter.ApplyFeedback(ratelimit.FeedbackNeutral)
	}
}

func (e *Engine) persistBandit(ctx context.Context) {
	if e.banditStore == nil {
		return
	}
	if err := e.banditStore.SaveBanditState(ctx, e.learner.Snapshot()); err != nil {
		logrus.Errorf("failed to persist bandit state (will retry on next outcome): %v", err)
	}
}

// effectivenessStats folds the recent in-memory outcomes into per-category
// shown/dismissed counts for the selector's weight rescaling.
func (e *Engine) effectivenessStats() *content.EffectivenessStats {
	recent := e.recorder.Recent()
	if len(recent) == 0 {
		return nil
	}

	stats := &content.EffectivenessStats{
		Shown:     make(map[content.Category]int),
		Dismissed: make(map[content.Category]int),
	}
	for _, o := range recent {
		cat := content.Category(o.ContentType)
		stats.Shown[cat]++
		if o.Dismissed() {
			stats.Dismissed[cat]++
		}
	}
	return stats
}

// Snapshot is a point-in-time view of the engine's mutable state, for the
// operational surface.
type Snapshot struct {
	Bandit     *bandit.State
	Limiter    ratelimit.State
	Pending    int
	LogSummary map[string]int
}

// Snapshot captures the engine's durable and in-flight state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Bandit:     e.learner.Snapshot(),
		Limiter:    e.limiter.Snapshot(),
		Pending:    e.arena.Len(),
		LogSummary: e.log.Summary(),
	}
}

// Log exposes the decision log for the operational surface.
func (e *Engine) Log() *decision.Log {
	return e.log
}

// Learner exposes the bandit learner for the operational surface.
func (e *Engine) Learner() *bandit.Learner {
	return e.learner
}
