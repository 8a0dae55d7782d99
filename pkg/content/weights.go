package content

import (
	"github.com/screenbalance/jitai-engine/pkg/decision"
	"github.com/screenbalance/jitai-engine/pkg/persona"
)

// Category is one kind of intervention message. Categories double as the
// bandit learner's arms.
type Category string

const (
	Reflection         Category = "reflection"
	TimeAlternative    Category = "time_alternative"
	Breathing          Category = "breathing"
	Stats              Category = "stats"
	EmotionalAppeal    Category = "emotional_appeal"
	Quote              Category = "quote"
	Gamification       Category = "gamification"
	ActivitySuggestion Category = "activity_suggestion"
)

// Categories lists all content categories in a stable order.
var Categories = []Category{
	Reflection,
	TimeAlternative,
	Breathing,
	Stats,
	EmotionalAppeal,
	Quote,
	Gamification,
	ActivitySuggestion,
}

// baseWeights is the per-persona starting weight table. Each row sums to
// 100 before contextual adjustments; adjustments may push the total off
// 100, which is fine, the draw normalizes.
var baseWeights = map[persona.Persona]map[Category]float64{
	persona.HeavyCompulsive: {
		Reflection: 25, Breathing: 20, TimeAlternative: 15, Stats: 10,
		EmotionalAppeal: 10, ActivitySuggestion: 10, Quote: 5, Gamification: 5,
	},
	persona.HeavyBinge: {
		TimeAlternative: 25, Stats: 15, Reflection: 15, ActivitySuggestion: 15,
		Breathing: 10, EmotionalAppeal: 8, Gamification: 7, Quote: 5,
	},
	persona.ModerateBalanced: {
		Stats: 20, Reflection: 15, ActivitySuggestion: 15, TimeAlternative: 13,
		Quote: 12, Gamification: 10, Breathing: 8, EmotionalAppeal: 7,
	},
	persona.Casual: {
		Quote: 20, Stats: 18, Gamification: 15, ActivitySuggestion: 15,
		Reflection: 10, TimeAlternative: 10, Breathing: 6, EmotionalAppeal: 6,
	},
	persona.ProblematicPattern: {
		Reflection: 30, Breathing: 20, EmotionalAppeal: 15, TimeAlternative: 15,
		Stats: 10, ActivitySuggestion: 5, Quote: 5, Gamification: 0,
	},
	persona.NewUser: {
		Stats: 22, Quote: 18, Gamification: 15, ActivitySuggestion: 15,
		Reflection: 10, TimeAlternative: 10, Breathing: 5, EmotionalAppeal: 5,
	},
}

// BaseWeightsFor returns a mutable copy of the persona's base weight row.
// Unknown personas fall back to the moderate table.
func BaseWeightsFor(p persona.Persona) map[Category]float64 {
	row, ok := baseWeights[p]
	if !ok {
		row = baseWeights[persona.ModerateBalanced]
	}

	out := make(map[Category]float64, len(row))
	for cat, w := range row {
		out[cat] = w
	}
	return out
}

// applyPersonaAdjustments applies the persona-specific contextual boosts
// and penalties in place.
func applyPersonaAdjustments(weights map[Category]float64, p persona.Persona, dctx decision.Context) {
	switch p {
	case persona.HeavyCompulsive:
		if dctx.QuickReopen {
			weights[Reflection] *= 2
		}
		if dctx.IsHighFrequencyDay() {
			weights[Breathing] *= 1.5
		}
	case persona.HeavyBinge:
		if dctx.IsExtendedSession() {
			weights[TimeAlternative] *= 1.5
		}
	case persona.ProblematicPattern:
		if dctx.QuickReopen {
			weights[ActivitySuggestion] = 0
			weights[Reflection] += 30
		}
	case persona.NewUser:
		if dctx.IsFirstSessionOfDay() {
			weights[Stats] += 10
		}
	}
}

// applyUniversalAdjustments applies the persona-independent boosts in
// place.
func applyUniversalAdjustments(weights map[Category]float64, dctx decision.Context, interventionType string) {
	if dctx.IsWeekendMorning() {
		weights[ActivitySuggestion] += 15
	}
	if interventionType == "timer" {
		weights[TimeAlternative] += 20
	}
}

// clampWeights floors every weight at zero and drops zero entries.
func clampWeights(weights map[Category]float64) {
	for cat, w := range weights {
		if w <= 0 {
			delete(weights, cat)
		}
	}
}

// EffectivenessStats holds observed per-category delivery counts used to
// rescale weights once enough history exists.
type EffectivenessStats struct {
	Shown     map[Category]int
	Dismissed map[Category]int
}

// minEffectivenessSamples gates the rescaling step.
const minEffectivenessSamples = 30

// applyEffectiveness rescales weights by how each category's dismissal
// rate compares to the cross-category average: categories dismissed less
// than average get boosted, categories dismissed far more get damped.
func applyEffectiveness(weights map[Category]float64, stats *EffectivenessStats) {
	if stats == nil {
		return
	}

	total := 0
	for _, n := range stats.Shown {
		total += n
	}
	if total < minEffectivenessSamples {
		return
	}

	rates := make(map[Category]float64)
	var sum float64
	for cat, shown := range stats.Shown {
		if shown == 0 {
			continue
		}
		rate := float64(stats.Dismissed[cat]) / float64(shown)
		rates[cat] = rate
		sum += rate
	}
	if len(rates) == 0 {
		return
	}
	avg := sum / float64(len(rates))

	for cat := range weights {
		rate, ok := rates[cat]
		if !ok {
			continue
		}
		// delta > 0 means fewer dismissals than average.
		delta := avg - rate
		switch {
		case delta >= 0.15:
			weights[cat] *= 1.25
		case delta >= 0.05:
			weights[cat] *= 1.15
		case delta >= 0:
			weights[cat] *= 1.05
		case delta <= -0.15:
			weights[cat] *= 0.8
		}
	}
}
