package ratelimit

import (
	"context"
	"time"
)

// State is the limiter's durable snapshot, stored as an opaque blob by the
// host's persistence layer. Whole-value replace on every write.
type State struct {
	LastInterventionMs int64   `json:"last_intervention_ms"`
	CooldownMs         int64   `json:"cooldown_ms"`
	FeedbackMultiplier float64 `json:"feedback_multiplier"`
}

// StateStore persists the limiter state. Implemented by pkg/store.
type StateStore interface {
	LoadLimiterState(ctx context.Context) (*State, error)
	SaveLimiterState(ctx context.Context, s *State) error
}

// lastIntervention converts the persisted epoch millis back to a time.
func (s State) lastIntervention() time.Time {
	if s.LastInterventionMs == 0 {
		return time.Time{}
	}
	return time.UnixMilli(s.LastInterventionMs)
}
