package outcome

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ringCapacity bounds the in-memory outcome buffer.
const ringCapacity = 100

// ArmUpdater receives the computed reward for the content category that
// was shown. Satisfied by the bandit learner.
type ArmUpdater interface {
	Update(arm string, reward float64)
}

// CacheInvalidator is notified whenever a new outcome lands, so burden
// metrics are recomputed on the next request. Satisfied by the burden
// estimator.
type CacheInvalidator interface {
	Invalidate()
}

// Response is everything the delivery channel reports back for one
// resolved intervention.
type Response struct {
	SessionID string
	Choice    string
	Effective bool

	// TimeToDecision is how long the user took to act on the message.
	TimeToDecision time.Duration

	// SessionDuration is how long the post-intervention session ran.
	SessionDuration time.Duration

	// ReopenedAfter is how long after the intervention the user reopened
	// the target app. Zero means the user has not reopened it.
	ReopenedAfter time.Duration
}

// Recorder closes the feedback loop: it converts a delivery response into
// an Outcome, persists it, updates the bandit, and invalidates the burden
// cache. Recording never fails the decision path; persistence errors are
// logged and the in-memory record stays authoritative.
type Recorder struct {
	arena       *Arena
	store       HistoryStore
	bandit      ArmUpdater
	invalidator CacheInvalidator
	nowFn       func() time.Time

	mu     sync.Mutex
	recent []Outcome
}

// NewRecorder creates a recorder. store, bandit and invalidator may be nil
// in tests; nil collaborators are skipped.
func NewRecorder(arena *Arena, store HistoryStore, bandit ArmUpdater, invalidator CacheInvalidator) *Recorder {
	return &Recorder{
		arena:       arena,
		store:       store,
		bandit:      bandit,
		invalidator: invalidator,
		nowFn:       time.Now,
	}
}

// WithClock overrides the recorder clock. Test hook.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.nowFn = now
	return r
}

// Record resolves a shown intervention. A response for an unknown session
// is logged and dropped (nil, nil) rather than failing: the tracking entry
// may have expired or the host may be replaying.
func (r *Recorder) Record(ctx context.Context, resp Response) (*Outcome, error) {
	if resp.SessionID == "" {
		return nil, fmt.Errorf("outcome response has no session id")
	}

	tracking, ok := r.arena.Resolve(resp.SessionID)
	if !ok {
		logrus.Warnf("dropping outcome for unknown session %s", resp.SessionID)
		return nil, nil
	}

	quickReopen := resp.ReopenedAfter > 0 && resp.ReopenedAfter <= QuickReopenWindow

	postIdle := resp.ReopenedAfter
	if postIdle == 0 {
		postIdle = r.nowFn().Sub(tracking.ShownAt)
	}

	o := Outcome{
		SessionID:         resp.SessionID,
		App:               tracking.App,
		ContentType:       tracking.ContentType,
		Choice:            resp.Choice,
		Effective:         resp.Effective,
		TimeToDecision:    resp.TimeToDecision,
		SessionDuration:   resp.SessionDuration,
		QuickReopenAfter:  quickReopen,
		ComplianceMinutes: postIdle.Minutes(),
		Compliant:         resp.Effective && !quickReopen,
		Persona:           tracking.Persona,
		OpportunityScore:  tracking.OpportunityScore,
		BurdenScore:       tracking.BurdenScore,
		Reward:            ComputeReward(resp.Choice, resp.Effective, quickReopen, postIdle),
		Timestamp:         r.nowFn(),
	}

	r.append(o)

	if r.store != nil {
		if err := r.store.Save(ctx, o); err != nil {
			// In-memory state stays authoritative; the write is retried
			// implicitly when the next outcome lands.
			logrus.Errorf("failed to persist outcome for session %s: %v", o.SessionID, err)
		}
	}

	if r.bandit != nil {
		r.bandit.Update(o.ContentType, o.Reward)
	}
	if r.invalidator != nil {
		r.invalidator.Invalidate()
	}

	logrus.Infof("recorded outcome for session %s: choice=%s reward=%.2f compliant=%v",
		o.SessionID, o.Choice, o.Reward, o.Compliant)

	return &o, nil
}

// Recent returns a copy of the bounded in-memory outcome buffer, newest
// last.
func (r *Recorder) Recent() []Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Outcome, len(r.recent))
	copy(out, r.recent)
	return out
}

func (r *Recorder) append(o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.recent = append(r.recent, o)
	if len(r.recent) > ringCapacity {
		r.recent = r.recent[len(r.recent)-ringCapacity:]
	}
}
