package bandit

import (
	"context"

	"github.com/sirupsen/logrus"
)

// State is the learner's durable snapshot. It is stored by the host's
// persistence layer as an opaque versioned blob and restored on startup.
type State struct {
	Arms       map[string]Arm `json:"arms"`
	Pulls      map[string]int `json:"pulls"`
	TotalPulls int            `json:"total_pulls"`
}

// StateStore persists the learner state with replace-whole-value
// semantics. Implemented by pkg/store.
type StateStore interface {
	LoadBanditState(ctx context.Context) (*State, error)
	SaveBanditState(ctx context.Context, s *State) error
}

// Snapshot returns a copy of the learner's durable state.
func (l *Learner) Snapshot() *State {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := &State{
		Arms:       make(map[string]Arm, len(l.arms)),
		Pulls:      make(map[string]int, len(l.pulls)),
		TotalPulls: l.totalPulls,
	}
	for name, a := range l.arms {
		s.Arms[name] = *a
	}
	for name, n := range l.pulls {
		s.Pulls[name] = n
	}
	return s
}

// Restore replaces the learner's state with a persisted snapshot. Arms with
// out-of-range parameters are repaired to the uniform prior rather than
// rejected; a corrupt blob must not prevent decisions.
func (l *Learner) Restore(s *State) {
	if s == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.arms = make(map[string]*Arm, len(s.Arms))
	for name, a := range s.Arms {
		if a.Alpha < 1 || a.Beta < 1 {
			logrus.Warnf("repairing bandit arm %s with invalid posterior (alpha=%.2f beta=%.2f)", name, a.Alpha, a.Beta)
			a = Arm{Alpha: 1, Beta: 1}
		}
		arm := a
		l.arms[name] = &arm
	}

	l.pulls = make(map[string]int, len(s.Pulls))
	for name, n := range s.Pulls {
		if n < 0 {
			n = 0
		}
		l.pulls[name] = n
	}

	l.totalPulls = s.TotalPulls
	if l.totalPulls < 0 {
		l.totalPulls = 0
	}

	logrus.Infof("restored bandit state: %d arms, %d total pulls", len(l.arms), l.totalPulls)
}
