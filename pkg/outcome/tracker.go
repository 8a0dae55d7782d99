package outcome

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// trackingTTL bounds how long a shown intervention waits for a response
// before its tracking entry is swept. Keeps the arena from growing without
// bound when the host never reports back.
const trackingTTL = 6 * time.Hour

// Tracking is the decision-time snapshot kept between "intervention shown"
// and "outcome recorded".
type Tracking struct {
	SessionID        string
	App              string
	ContentType      string
	Persona          string
	OpportunityScore int
	BurdenScore      int
	ShownAt          time.Time
}

// Arena holds tracking entries for interventions that were shown but not
// yet resolved. Entries are created when an intervention is shown and
// removed when its outcome is recorded or its TTL expires.
type Arena struct {
	mu      sync.Mutex
	entries map[string]Tracking
	nowFn   func() time.Time
}

// NewArena creates an empty tracking arena.
func NewArena() *Arena {
	return &Arena{
		entries: make(map[string]Tracking),
		nowFn:   time.Now,
	}
}

// WithClock overrides the arena clock. Test hook.
func (a *Arena) WithClock(now func() time.Time) *Arena {
	a.nowFn = now
	return a
}

// Track registers a shown intervention. An existing entry for the same
// session is overwritten; the old entry is stale by definition.
func (a *Arena) Track(t Tracking) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if t.ShownAt.IsZero() {
		t.ShownAt = a.nowFn()
	}
	a.entries[t.SessionID] = t
	a.sweepLocked()
}

// Resolve removes and returns the tracking entry for a session.
// The second return value is false when no entry exists.
func (a *Arena) Resolve(sessionID string) (Tracking, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	t, ok := a.entries[sessionID]
	if ok {
		delete(a.entries, sessionID)
	}
	return t, ok
}

// Len returns the number of pending entries.
func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

func (a *Arena) sweepLocked() {
	now := a.nowFn()
	for id, t := range a.entries {
		if now.Sub(t.ShownAt) > trackingTTL {
			logrus.Warnf("sweeping expired tracking entry for session %s (shown %v ago)", id, now.Sub(t.ShownAt))
			delete(a.entries, id)
		}
	}
}
