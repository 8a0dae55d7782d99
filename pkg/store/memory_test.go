package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/screenbalance/jitai-engine/pkg/bandit"
	"github.com/screenbalance/jitai-engine/pkg/outcome"
)

func TestMemoryFailWrites(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	m.FailWrites = true

	if err := m.SaveBanditState(ctx, &bandit.State{}); err == nil {
		t.Error("expected a write error")
	}
	if err := m.Save(ctx, outcome.Outcome{}); err == nil {
		t.Error("expected a write error")
	}

	m.FailWrites = false
	if err := m.SaveBanditState(ctx, &bandit.State{TotalPulls: 3}); err != nil {
		t.Fatalf("SaveBanditState: %v", err)
	}
	got, _ := m.LoadBanditState(ctx)
	if got == nil || got.TotalPulls != 3 {
		t.Errorf("LoadBanditState = %+v", got)
	}
}

func TestMemoryOutcomeQueriesMatchRedisSemantics(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		app := "social"
		if i == 3 {
			app = "games"
		}
		err := m.Save(ctx, outcome.Outcome{
			SessionID: fmt.Sprintf("s%d", i),
			App:       app,
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	ranged, err := m.GetResultsInRange(ctx, base.UnixMilli(), base.Add(time.Hour).UnixMilli())
	if err != nil || len(ranged) != 2 {
		t.Errorf("GetResultsInRange = %d entries (%v), want 2", len(ranged), err)
	}

	byApp, err := m.GetRecentForApp(ctx, "social", 2)
	if err != nil || len(byApp) != 2 {
		t.Fatalf("GetRecentForApp = %d entries (%v), want 2", len(byApp), err)
	}
	if byApp[0].SessionID != "s1" || byApp[1].SessionID != "s2" {
		t.Errorf("GetRecentForApp kept %s/%s, want the newest matches", byApp[0].SessionID, byApp[1].SessionID)
	}
}
