package outcome

import (
	"context"
	"time"
)

// User choices reported by the delivery channel when an intervention is
// resolved. The empty string means the intervention timed out without any
// user action.
const (
	ChoiceGoBack    = "go_back"
	ChoiceQuit      = "quit"
	ChoiceTakeBreak = "take_a_break"
	ChoiceSnooze    = "snooze"
	ChoiceContinue  = "continue"
	ChoiceSkip      = "skip"
	ChoiceDismiss   = "dismiss"
)

// Outcome is the immutable record of one resolved intervention. It is
// created when the user acts on, dismisses, or times out an intervention
// and feeds the bandit learner and the burden estimator.
type Outcome struct {
	SessionID         string        `json:"sessionId"`
	App               string        `json:"app"`
	ContentType       string        `json:"contentType"`
	Choice            string        `json:"choice"`
	Effective         bool          `json:"effective"`
	TimeToDecision    time.Duration `json:"timeToDecision"`
	SessionDuration   time.Duration `json:"sessionDuration"`
	QuickReopenAfter  bool          `json:"quickReopenAfter"`
	ComplianceMinutes float64       `json:"complianceMinutes"`
	Compliant         bool          `json:"compliant"`

	// Snapshot of the decision-time context, kept for offline analysis.
	Persona          string `json:"persona"`
	OpportunityScore int    `json:"opportunityScore"`
	BurdenScore      int    `json:"burdenScore"`

	Reward    float64   `json:"reward"`
	Timestamp time.Time `json:"timestamp"`
}

// WentBack reports whether the user left the target app in response to the
// intervention. Used for historical-success scoring.
func (o Outcome) WentBack() bool {
	return o.Choice == ChoiceGoBack || o.Choice == ChoiceQuit
}

// Dismissed reports whether the user brushed the intervention off.
func (o Outcome) Dismissed() bool {
	return o.Choice == ChoiceSkip || o.Choice == ChoiceDismiss || o.Choice == ChoiceContinue
}

// TimedOut reports whether the intervention expired without a user action.
// A near-zero session duration with an empty choice is counted as a timeout.
// Known approximation: this also catches legitimately instantaneous
// dismissals that arrive with no choice attached.
func (o Outcome) TimedOut() bool {
	return o.Choice == "" && o.SessionDuration < time.Second
}

// HistoryStore persists resolved outcomes and serves range queries for the
// burden estimator and the opportunity scorer.
type HistoryStore interface {
	Save(ctx context.Context, o Outcome) error
	GetResultsInRange(ctx context.Context, startMs, endMs int64) ([]Outcome, error)
	GetRecentForApp(ctx context.Context, app string, limit int) ([]Outcome, error)
}
