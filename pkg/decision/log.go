package decision

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Decision log event types, one per decision point.
const (
	EventPersonaDetected   = "persona_detected"
	EventOpportunityScored = "opportunity_scored"
	EventRateLimit         = "rate_limit"
	EventContentSelected   = "content_selected"
	EventArmSelected       = "arm_selected"
	EventDelivery          = "delivery"
	EventOutcomeRecorded   = "outcome_recorded"
)

const (
	logCapacity    = 1000
	logPersistTail = 100
)

// LogEntry is one structured decision-point record.
type LogEntry struct {
	Type      string                 `json:"type"`
	SessionID string                 `json:"sessionId,omitempty"`
	App       string                 `json:"app,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// LogStore persists the most recent log tail. Implemented by pkg/store.
type LogStore interface {
	SaveLogTail(ctx context.Context, entries []LogEntry) error
	LoadLogTail(ctx context.Context) ([]LogEntry, error)
}

// Log is the append-only decision log: a capped in-memory ring used for
// debugging and offline analysis. It observes the decision path without
// ever altering it; Append cannot fail and persistence errors are
// swallowed after logging.
type Log struct {
	mu      sync.Mutex
	entries []LogEntry
	store   LogStore
	nowFn   func() time.Time
}

// NewLog creates a decision log. store may be nil, in which case the tail
// is not persisted.
func NewLog(store LogStore) *Log {
	return &Log{store: store, nowFn: time.Now}
}

// WithClock overrides the log clock. Test hook.
func (l *Log) WithClock(now func() time.Time) *Log {
	l.nowFn = now
	return l
}

// Append records one event. Never returns an error and never panics; a
// failing persistence write must not affect the decision path.
func (l *Log) Append(eventType, sessionID, app string, fields map[string]interface{}) {
	l.mu.Lock()

	entry := LogEntry{
		Type:      eventType,
		SessionID: sessionID,
		App:       app,
		Timestamp: l.nowFn(),
		Fields:    fields,
	}
	l.entries = append(l.entries, entry)
	if len(l.entries) > logCapacity {
		l.entries = l.entries[len(l.entries)-logCapacity:]
	}

	tail := l.tailLocked(logPersistTail)
	store := l.store
	l.mu.Unlock()

	if store != nil {
		if err := store.SaveLogTail(context.Background(), tail); err != nil {
			logrus.Debugf("decision log tail persist failed (ignored): %v", err)
		}
	}
}

// Range returns entries with timestamps in [from, to).
func (l *Log) Range(from, to time.Time) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []LogEntry
	for _, e := range l.entries {
		if e.Timestamp.Before(from) || !e.Timestamp.Before(to) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Summary counts entries per event type.
func (l *Log) Summary() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()

	summary := make(map[string]int)
	for _, e := range l.entries {
		summary[e.Type]++
	}
	return summary
}

// Len returns the number of buffered entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Tail returns a copy of the most recent n entries.
func (l *Log) Tail(n int) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tailLocked(n)
}

func (l *Log) tailLocked(n int) []LogEntry {
	if n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]LogEntry, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}
