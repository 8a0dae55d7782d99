package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/screenbalance/jitai-engine/pkg/decision"
	"github.com/screenbalance/jitai-engine/pkg/opportunity"
	"github.com/screenbalance/jitai-engine/pkg/persona"
)

// Gate verdicts. Exactly one per decision request.
const (
	VerdictAllowed            = "allowed"
	VerdictCoolingDown        = "cooling_down"
	VerdictPersonaBlocked     = "persona_blocked"
	VerdictOpportunityBlocked = "opportunity_blocked"
)

const (
	// baseCooldown is the unscaled cooldown between interventions.
	baseCooldown = 5 * time.Minute

	// escalationStep grows the cooldown on repeated dismissal, up to
	// escalationCap.
	escalationStep = 5 * time.Minute
	escalationCap  = 30 * time.Minute

	// opportunityRetry is the fixed suggested retry when the moment
	// itself said skip.
	opportunityRetry = 5 * time.Minute

	feedbackFloor = 0.5
	feedbackCeil  = 3.0
)

// Feedback kinds reported by the host after the user reacts to the
// cadence of interventions.
const (
	FeedbackHelpful    = "helpful"
	FeedbackDisruptive = "disruptive"
	FeedbackNeutral    = "neutral"
)

// Verdict is the gate's answer for one decision request.
type Verdict struct {
	State     string        // one of the Verdict* constants
	Allowed   bool
	Remaining time.Duration // time until the gate may open again
	Source    string        // which check produced the denial
	Policy    string        // frequency policy that was applied
}

// Limiter is the stateful gate combining the cooldown timer, the persona
// frequency policy, and the opportunity decision. Besides the bandit it is
// the only component with session-spanning mutable state; that state is
// durable across restarts.
type Limiter struct {
	store StateStore
	nowFn func() time.Time

	mu    sync.Mutex
	state State
	dirty bool
}

// NewLimiter creates a limiter with a fresh state (base cooldown, neutral
// feedback multiplier). store may be nil in tests.
func NewLimiter(store StateStore) *Limiter {
	return &Limiter{
		store: store,
		nowFn: time.Now,
		state: State{
			CooldownMs:         baseCooldown.Milliseconds(),
			FeedbackMultiplier: 1.0,
		},
	}
}

// WithClock overrides the limiter clock. Test hook.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.nowFn = now
	return l
}

// Restore loads persisted state from the store. Missing or unreadable
// state keeps the fresh defaults.
func (l *Limiter) Restore(ctx context.Context) {
	if l.store == nil {
		return
	}

	s, err := l.store.LoadLimiterState(ctx)
	if err != nil {
		logrus.Warnf("could not restore rate limiter state, starting fresh: %v", err)
		return
	}
	if s == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.state = *s
	if l.state.FeedbackMultiplier < feedbackFloor || l.state.FeedbackMultiplier > feedbackCeil {
		l.state.FeedbackMultiplier = 1.0
	}
	if l.state.CooldownMs <= 0 {
		l.state.CooldownMs = baseCooldown.Milliseconds()
	}
	logrus.Infof("restored rate limiter state: cooldown=%v multiplier=%.2f",
		time.Duration(l.state.CooldownMs)*time.Millisecond, l.state.FeedbackMultiplier)
}

// Check runs the gate for one decision request. Persona and opportunity
// are always computed before this call, whatever the verdict: analytics
// must accumulate even on denials.
func (l *Limiter) Check(det persona.Detected, opp opportunity.Detection, dctx decision.Context) Verdict {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFn()
	policy := policyFor(det.Persona)

	// 1. Cooldown window from the last shown intervention.
	last := l.state.lastIntervention()
	cooldown := time.Duration(l.state.CooldownMs) * time.Millisecond
	if !last.IsZero() {
		elapsed := now.Sub(last)
		if elapsed < cooldown {
			return Verdict{
				State:     VerdictCoolingDown,
				Remaining: cooldown - elapsed,
				Source:    "basic-rate-limit",
				Policy:    policy,
			}
		}
	}

	// 2. Persona frequency policy.
	if !policyAllows(policy, opp, dctx) {
		return Verdict{
			State:     VerdictPersonaBlocked,
			Remaining: l.personaCooldownLocked(det.Persona),
			Source:    "persona-policy",
			Policy:    policy,
		}
	}

	// 3. The moment itself said skip.
	if opp.Decision == opportunity.DecideSkip {
		return Verdict{
			State:     VerdictOpportunityBlocked,
			Remaining: opportunityRetry,
			Source:    "opportunity",
			Policy:    policy,
		}
	}

	return Verdict{State: VerdictAllowed, Allowed: true, Policy: policy}
}

// RecordIntervention marks an intervention as shown: the cooldown window
// restarts scaled by the persona and feedback multipliers.
func (l *Limiter) RecordIntervention(det persona.Detected) {
	l.mu.Lock()

	now := l.nowFn()
	l.state.LastInterventionMs = now.UnixMilli()
	l.state.CooldownMs = l.personaCooldownLocked(det.Persona).Milliseconds()
	l.mu.Unlock()

	l.persist()
}

// ApplyFeedback adjusts future cooldowns from the user's reaction:
// helpful shortens them, disruptive lengthens them, neutral no-ops.
func (l *Limiter) ApplyFeedback(kind string) {
	l.mu.Lock()

	switch kind {
	case FeedbackHelpful:
		l.state.FeedbackMultiplier *= 0.9
		if l.state.FeedbackMultiplier < feedbackFloor {
			l.state.FeedbackMultiplier = feedbackFloor
		}
	case FeedbackDisruptive:
		l.state.FeedbackMultiplier *= 1.2
		if l.state.FeedbackMultiplier > feedbackCeil {
			l.state.FeedbackMultiplier = feedbackCeil
		}
	case FeedbackNeutral:
		// no-op
	default:
		logrus.Warnf("ignoring unknown feedback kind %q", kind)
	}

	multiplier := l.state.FeedbackMultiplier
	l.mu.Unlock()

	logrus.Debugf("feedback %s applied, multiplier now %.2f", kind, multiplier)
	l.persist()
}

// Escalate additively grows the cooldown after repeated dismissals, capped
// at escalationCap.
func (l *Limiter) Escalate() {
	l.mu.Lock()

	cooldown := time.Duration(l.state.CooldownMs)*time.Millisecond + escalationStep
	if cooldown > escalationCap {
		cooldown = escalationCap
	}
	l.state.CooldownMs = cooldown.Milliseconds()
	l.mu.Unlock()

	logrus.Infof("cooldown escalated to %v", cooldown)
	l.persist()
}

// ResetCooldown restores the base cooldown after positive engagement.
func (l *Limiter) ResetCooldown() {
	l.mu.Lock()
	l.state.CooldownMs = baseCooldown.Milliseconds()
	l.mu.Unlock()

	l.persist()
}

// Snapshot returns a copy of the durable state.
func (l *Limiter) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// personaCooldownLocked is the cooldown for the next window: base scaled
// by the persona multiplier and the feedback multiplier. Caller holds the
// lock.
func (l *Limiter) personaCooldownLocked(p persona.Persona) time.Duration {
	return time.Duration(float64(baseCooldown) * cooldownMultiplier(p) * l.state.FeedbackMultiplier)
}

// persist writes the state with replace-whole-value semantics. Failures
// leave the in-memory state authoritative; the next mutation retries.
func (l *Limiter) persist() {
	if l.store == nil {
		return
	}

	l.mu.Lock()
	s := l.state
	l.mu.Unlock()

	if err := l.store.SaveLimiterState(context.Background(), &s); err != nil {
		logrus.Errorf("failed to persist rate limiter state (will retry on next mutation): %v", err)
		l.mu.Lock()
		l.dirty = true
		l.mu.Unlock()
		return
	}

	l.mu.Lock()
	l.dirty = false
	l.mu.Unlock()
}
