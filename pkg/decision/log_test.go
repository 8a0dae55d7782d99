package decision

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type stubLogStore struct {
	tail  []LogEntry
	saves int
	fail  bool
}

func (s *stubLogStore) SaveLogTail(_ context.Context, entries []LogEntry) error {
	if s.fail {
		return errors.New("store down")
	}
	s.tail = entries
	s.saves++
	return nil
}

func (s *stubLogStore) LoadLogTail(context.Context) ([]LogEntry, error) {
	return s.tail, nil
}

func TestAppendAndSummary(t *testing.T) {
	l := NewLog(nil)

	l.Append(EventPersonaDetected, "s1", "social", map[string]interface{}{"persona": "casual"})
	l.Append(EventOpportunityScored, "s1", "social", nil)
	l.Append(EventPersonaDetected, "s2", "games", nil)

	if l.Len() != 3 {
		t.Fatalf("Len = %d, want 3", l.Len())
	}

	summary := l.Summary()
	if summary[EventPersonaDetected] != 2 || summary[EventOpportunityScored] != 1 {
		t.Errorf("Summary = %v", summary)
	}
}

func TestAppendSurvivesStoreFailure(t *testing.T) {
	l := NewLog(&stubLogStore{fail: true})

	// Append has no error to return; the entry must land regardless.
	l.Append(EventRateLimit, "s1", "social", nil)

	if l.Len() != 1 {
		t.Errorf("Len = %d, want 1 despite the failing store", l.Len())
	}
}

func TestAppendPersistsTail(t *testing.T) {
	store := &stubLogStore{}
	l := NewLog(store)

	for i := 0; i < logPersistTail+20; i++ {
		l.Append(EventContentSelected, fmt.Sprintf("s%d", i), "social", nil)
	}

	if store.saves != logPersistTail+20 {
		t.Errorf("saves = %d, want one per append", store.saves)
	}
	if len(store.tail) != logPersistTail {
		t.Fatalf("persisted tail = %d entries, want %d", len(store.tail), logPersistTail)
	}
	if got := store.tail[len(store.tail)-1].SessionID; got != fmt.Sprintf("s%d", logPersistTail+19) {
		t.Errorf("tail ends at %s, want the newest entry", got)
	}
}

func TestLogCapacity(t *testing.T) {
	l := NewLog(nil)

	for i := 0; i < logCapacity+50; i++ {
		l.Append(EventDelivery, fmt.Sprintf("s%d", i), "social", nil)
	}

	if l.Len() != logCapacity {
		t.Fatalf("Len = %d, want the %d cap", l.Len(), logCapacity)
	}

	tail := l.Tail(1)
	if tail[0].SessionID != fmt.Sprintf("s%d", logCapacity+49) {
		t.Errorf("newest entry = %s", tail[0].SessionID)
	}
}

func TestRangeIsHalfOpen(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	l := NewLog(nil).WithClock(func() time.Time { return now })

	l.Append(EventPersonaDetected, "s1", "social", nil)
	now = now.Add(time.Minute)
	l.Append(EventPersonaDetected, "s2", "social", nil)
	now = now.Add(time.Minute)
	l.Append(EventPersonaDetected, "s3", "social", nil)

	from := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	got := l.Range(from, from.Add(2*time.Minute))

	if len(got) != 2 || got[0].SessionID != "s1" || got[1].SessionID != "s2" {
		t.Errorf("Range = %+v, want s1 and s2", got)
	}
}

func TestTailCopies(t *testing.T) {
	l := NewLog(nil)
	l.Append(EventOutcomeRecorded, "s1", "social", nil)

	tail := l.Tail(5)
	if len(tail) != 1 {
		t.Fatalf("Tail = %d entries, want 1", len(tail))
	}
	tail[0].SessionID = "mutated"

	if l.Tail(1)[0].SessionID != "s1" {
		t.Error("Tail must return a copy")
	}
}
