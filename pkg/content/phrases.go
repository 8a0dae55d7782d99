package content

import (
	"math/rand"

	"github.com/screenbalance/jitai-engine/pkg/decision"
)

// Phrase pools. The category is the learnable decision; the literal phrase
// within a category is uniform-random from the pool matching the context
// and is not learned.

// phraseCondition narrows a pool to a sub-condition of the context.
type phraseCondition string

const (
	condDefault     phraseCondition = "default"
	condLateNight   phraseCondition = "late_night"
	condQuickReopen phraseCondition = "quick_reopen"
	condLongSession phraseCondition = "long_session"
	condMorning     phraseCondition = "morning"
	condStreak      phraseCondition = "streak"
)

var phrasePools = map[Category]map[phraseCondition][]string{
	Reflection: {
		condDefault: {
			"What were you hoping to find when you opened this?",
			"Is this how you wanted to spend this moment?",
			"Take a second: what brought you here right now?",
		},
		condQuickReopen: {
			"You just closed this. What changed in the last two minutes?",
			"Back already? Ask yourself what you came back for.",
		},
		condLateNight: {
			"It's late. Is this worth trading sleep for?",
		},
	},
	TimeAlternative: {
		condDefault: {
			"These minutes could be a walk around the block.",
			"Ten minutes here is ten minutes of anything else.",
		},
		condLongSession: {
			"You've been here a while. A stretch break pays this back.",
			"Long session. Your eyes will thank you for a pause.",
		},
	},
	Breathing: {
		condDefault: {
			"Try one slow breath in, and a slower one out.",
			"Four counts in, hold, four counts out. Just once.",
		},
		condQuickReopen: {
			"Before you scroll: one deep breath first.",
		},
	},
	Stats: {
		condDefault: {
			"Here's where today stands against your usual.",
			"Your numbers for today are ready to look at.",
		},
		condMorning: {
			"Fresh day, clean slate. Yesterday's total is behind you.",
		},
	},
	EmotionalAppeal: {
		condDefault: {
			"Future you is watching this decision.",
			"You told yourself this mattered. It still does.",
		},
		condLateNight: {
			"Tomorrow-morning you is begging for this one favor.",
		},
	},
	Quote: {
		condDefault: {
			"\"The time you enjoy wasting is not wasted time\" — unless you're not enjoying it.",
			"\"We are what we repeatedly do.\"",
			"\"Attention is the rarest and purest form of generosity.\"",
		},
	},
	Gamification: {
		condDefault: {
			"Close now and keep your streak alive.",
			"One skipped scroll = one point for you.",
		},
		condStreak: {
			"Your streak is on the line. Protect it.",
		},
	},
	ActivitySuggestion: {
		condDefault: {
			"Water, window, walk. Pick one.",
			"There's a thing on your to-do list that takes two minutes.",
		},
		condMorning: {
			"Mornings are for momentum. Start something small.",
		},
	},
}

// PhraseFor returns one phrase for the category, preferring the pool that
// matches the context's sub-condition and falling back to the default
// pool.
func PhraseFor(cat Category, dctx decision.Context, rng *rand.Rand) string {
	pools, ok := phrasePools[cat]
	if !ok {
		return ""
	}

	pool := pools[conditionFor(dctx)]
	if len(pool) == 0 {
		pool = pools[condDefault]
	}
	if len(pool) == 0 {
		return ""
	}
	return pool[rng.Intn(len(pool))]
}

// conditionFor picks the most specific sub-condition for the context.
// Quick reopens dominate: they are the moment the message targets.
func conditionFor(dctx decision.Context) phraseCondition {
	switch {
	case dctx.QuickReopen:
		return condQuickReopen
	case dctx.IsLateNight():
		return condLateNight
	case dctx.SessionMinutes >= 15:
		return condLongSession
	case dctx.StreakDays >= 3:
		return condStreak
	case dctx.HourOfDay >= 6 && dctx.HourOfDay < 12:
		return condMorning
	default:
		return condDefault
	}
}
