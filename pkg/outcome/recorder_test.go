package outcome

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type stubStore struct {
	saved []Outcome
	fail  bool
}

func (s *stubStore) Save(_ context.Context, o Outcome) error {
	if s.fail {
		return errors.New("store down")
	}
	s.saved = append(s.saved, o)
	return nil
}

func (s *stubStore) GetResultsInRange(context.Context, int64, int64) ([]Outcome, error) {
	return nil, nil
}

func (s *stubStore) GetRecentForApp(context.Context, string, int) ([]Outcome, error) {
	return nil, nil
}

type stubBandit struct {
	arm    string
	reward float64
	calls  int
}

func (b *stubBandit) Update(arm string, reward float64) {
	b.arm, b.reward = arm, reward
	b.calls++
}

type stubInvalidator struct{ calls int }

func (i *stubInvalidator) Invalidate() { i.calls++ }

func TestRecordRequiresSessionID(t *testing.T) {
	r := NewRecorder(NewArena(), nil, nil, nil)

	if _, err := r.Record(context.Background(), Response{}); err == nil {
		t.Error("expected an error for an empty session id")
	}
}

func TestRecordDropsUnknownSession(t *testing.T) {
	bandit := &stubBandit{}
	r := NewRecorder(NewArena(), nil, bandit, nil)

	o, err := r.Record(context.Background(), Response{SessionID: "ghost", Choice: ChoiceGoBack})
	if o != nil || err != nil {
		t.Errorf("unknown session = (%v, %v), want (nil, nil)", o, err)
	}
	if bandit.calls != 0 {
		t.Error("unknown session must not reach the bandit")
	}
}

func TestRecordClosesTheLoop(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	arena := NewArena().WithClock(func() time.Time { return now })
	store := &stubStore{}
	bandit := &stubBandit{}
	inv := &stubInvalidator{}

	r := NewRecorder(arena, store, bandit, inv).WithClock(func() time.Time { return now })

	arena.Track(Tracking{
		SessionID:        "s1",
		App:              "social",
		ContentType:      "reflection",
		Persona:          "moderate_balanced",
		OpportunityScore: 72,
		BurdenScore:      18,
	})

	o, err := r.Record(context.Background(), Response{
		SessionID:     "s1",
		Choice:        ChoiceGoBack,
		ReopenedAfter: 2 * time.Minute,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	if !o.QuickReopenAfter {
		t.Error("a two-minute reopen must count as a quick reopen")
	}
	if o.Compliant {
		t.Error("a quick reopen is never compliant")
	}
	if o.ComplianceMinutes != 2 {
		t.Errorf("ComplianceMinutes = %v, want 2", o.ComplianceMinutes)
	}
	// 1.0 base - 0.5 quick reopen - 0.3 short idle.
	if diff := o.Reward - 0.2; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Reward = %v, want 0.2", o.Reward)
	}
	if o.App != "social" || o.Persona != "moderate_balanced" || o.OpportunityScore != 72 || o.BurdenScore != 18 {
		t.Errorf("decision snapshot not carried over: %+v", o)
	}

	if len(store.saved) != 1 || store.saved[0].SessionID != "s1" {
		t.Errorf("store.saved = %+v, want the one outcome", store.saved)
	}
	if bandit.arm != "reflection" || bandit.reward != o.Reward {
		t.Errorf("bandit update = (%s, %v), want (reflection, %v)", bandit.arm, bandit.reward, o.Reward)
	}
	if inv.calls != 1 {
		t.Errorf("invalidator calls = %d, want 1", inv.calls)
	}
	if arena.Len() != 0 {
		t.Error("recording must consume the tracking entry")
	}
}

func TestRecordFallsBackToElapsedIdle(t *testing.T) {
	shownAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	now := shownAt
	arena := NewArena().WithClock(func() time.Time { return now })
	r := NewRecorder(arena, nil, nil, nil).WithClock(func() time.Time { return now })

	arena.Track(Tracking{SessionID: "s1", ContentType: "stats"})

	// No reopen reported: the idle time is measured from ShownAt.
	now = shownAt.Add(20 * time.Minute)
	o, err := r.Record(context.Background(), Response{
		SessionID: "s1",
		Choice:    ChoiceTakeBreak,
		Effective: true,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	if o.QuickReopenAfter {
		t.Error("no reopen must not count as a quick reopen")
	}
	if o.ComplianceMinutes != 20 {
		t.Errorf("ComplianceMinutes = %v, want 20", o.ComplianceMinutes)
	}
	if !o.Compliant {
		t.Error("effective with no quick reopen must be compliant")
	}
	// 1.0 base + 0.3 effective + 0.2 long idle, clamped.
	if o.Reward != 1.0 {
		t.Errorf("Reward = %v, want clamped 1.0", o.Reward)
	}
}

func TestRecordSurvivesStoreFailure(t *testing.T) {
	arena := NewArena()
	store := &stubStore{fail: true}
	bandit := &stubBandit{}

	r := NewRecorder(arena, store, bandit, nil)
	arena.Track(Tracking{SessionID: "s1", ContentType: "quote"})

	o, err := r.Record(context.Background(), Response{SessionID: "s1", Choice: ChoiceDismiss})
	if err != nil || o == nil {
		t.Fatalf("Record = (%v, %v), want the outcome despite the store failure", o, err)
	}
	if bandit.calls != 1 {
		t.Error("the bandit update must not depend on persistence")
	}
	if len(r.Recent()) != 1 {
		t.Error("the in-memory record stays authoritative")
	}
}

func TestRecentIsBounded(t *testing.T) {
	arena := NewArena()
	r := NewRecorder(arena, nil, nil, nil)

	for i := 0; i < ringCapacity+5; i++ {
		id := fmt.Sprintf("s%d", i)
		arena.Track(Tracking{SessionID: id})
		if _, err := r.Record(context.Background(), Response{SessionID: id, Choice: ChoiceGoBack}); err != nil {
			t.Fatalf("Record %s: %v", id, err)
		}
	}

	recent := r.Recent()
	if len(recent) != ringCapacity {
		t.Fatalf("Recent len = %d, want %d", len(recent), ringCapacity)
	}
	if recent[0].SessionID != "s5" {
		t.Errorf("oldest kept = %s, want s5", recent[0].SessionID)
	}
	if recent[len(recent)-1].SessionID != fmt.Sprintf("s%d", ringCapacity+4) {
		t.Errorf("newest kept = %s", recent[len(recent)-1].SessionID)
	}
}
