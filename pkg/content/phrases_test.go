package content

import (
	"math/rand"
	"testing"

	"github.com/screenbalance/jitai-engine/pkg/decision"
)

func TestConditionForPrecedence(t *testing.T) {
	tests := []struct {
		name string
		dctx decision.Context
		want phraseCondition
	}{
		{
			"quick reopen beats everything",
			decision.Context{QuickReopen: true, HourOfDay: 23, SessionMinutes: 30, StreakDays: 5},
			condQuickReopen,
		},
		{
			"late night past 23h",
			decision.Context{HourOfDay: 23, SessionMinutes: 30},
			condLateNight,
		},
		{
			"early hours count as late night",
			decision.Context{HourOfDay: 5},
			condLateNight,
		},
		{
			"long session at 15 minutes",
			decision.Context{HourOfDay: 14, SessionMinutes: 15, StreakDays: 5},
			condLongSession,
		},
		{
			"streak from three days",
			decision.Context{HourOfDay: 14, StreakDays: 3},
			condStreak,
		},
		{
			"morning band",
			decision.Context{HourOfDay: 8},
			condMorning,
		},
		{
			"afternoon falls through to default",
			decision.Context{HourOfDay: 14},
			condDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := conditionFor(tt.dctx); got != tt.want {
				t.Errorf("conditionFor = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPhraseForMatchesConditionPool(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	dctx := decision.Context{QuickReopen: true, HourOfDay: 14}

	pool := phrasePools[Reflection][condQuickReopen]
	for i := 0; i < 20; i++ {
		got := PhraseFor(Reflection, dctx, rng)
		if !contains(pool, got) {
			t.Fatalf("phrase %q not in the quick-reopen pool", got)
		}
	}
}

func TestPhraseForFallsBackToDefaultPool(t *testing.T) {
	rng := rand.New(rand.NewSource(2))

	// The time-alternative category has no quick-reopen pool.
	dctx := decision.Context{QuickReopen: true, HourOfDay: 14}

	pool := phrasePools[TimeAlternative][condDefault]
	for i := 0; i < 20; i++ {
		got := PhraseFor(TimeAlternative, dctx, rng)
		if !contains(pool, got) {
			t.Fatalf("phrase %q not in the default pool", got)
		}
	}
}

func TestPhraseForUnknownCategory(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	if got := PhraseFor(Category("hologram"), decision.Context{}, rng); got != "" {
		t.Errorf("PhraseFor unknown category = %q, want empty", got)
	}
}

func TestEveryCategoryHasDefaultPhrases(t *testing.T) {
	for _, cat := range Categories {
		if len(phrasePools[cat][condDefault]) == 0 {
			t.Errorf("%s has no default phrase pool", cat)
		}
	}
}

func contains(pool []string, s string) bool {
	for _, p := range pool {
		if p == s {
			return true
		}
	}
	return false
}
