package content

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/screenbalance/jitai-engine/pkg/bandit"
	"github.com/screenbalance/jitai-engine/pkg/decision"
	"github.com/screenbalance/jitai-engine/pkg/persona"
)

// antiRepeatWindow is how many recent choices are excluded from the next
// draw.
const antiRepeatWindow = 10

// Selection is the result of one content choice.
type Selection struct {
	Category Category
	Message  string
	Reason   string
	Weights  map[Category]float64
	Arm      bandit.Selection
}

// Selector chooses a content category from persona base weights, context
// adjustments, and the bandit learner's posteriors, with anti-repetition
// over the last choices.
type Selector struct {
	learner *bandit.Learner
	rng     *rand.Rand

	mu     sync.Mutex
	recent []Category
}

// NewSelector creates a selector. The RNG is injected so draws are
// reproducible under a seeded source in tests.
func NewSelector(learner *bandit.Learner, rng *rand.Rand) *Selector {
	return &Selector{learner: learner, rng: rng}
}

// Select runs the weight pipeline and picks a category. interventionType
// is the host's trigger kind; "timer" triggers always favor the
// time-alternative category.
func (s *Selector) Select(dctx decision.Context, det persona.Detected, stats *EffectivenessStats, interventionType string) Selection {
	s.mu.Lock()
	defer s.mu.Unlock()

	weights := BaseWeightsFor(det.Persona)
	applyPersonaAdjustments(weights, det.Persona, dctx)
	applyUniversalAdjustments(weights, dctx, interventionType)
	clampWeights(weights)
	applyEffectiveness(weights, stats)

	excluded := make(map[Category]bool, len(s.recent))
	for _, cat := range s.recent {
		excluded[cat] = true
	}

	eligible := eligibleCategories(weights, excluded)
	if len(eligible) == 0 {
		// Everything recent: clear the exclusion window and draw from the
		// full weighted set.
		s.recent = s.recent[:0]
		excluded = map[Category]bool{}
		eligible = eligibleCategories(weights, excluded)
	}

	var chosen Category
	var reason string
	armSel := s.learner.Select(categoryNames(eligible))

	if s.learner.SufficientData() && armSel.Strategy != bandit.StrategyDefault {
		chosen = Category(armSel.Arm)
		reason = fmt.Sprintf("bandit %s (sampled %.2f, %d pulls)", armSel.Strategy, armSel.Sampled, armSel.Pulls)
	} else {
		chosen = pickWeighted(weights, excluded, s.rng)
		reason = fmt.Sprintf("weighted draw over %s base weights", det.Persona)
	}

	s.recent = append(s.recent, chosen)
	if len(s.recent) > antiRepeatWindow {
		s.recent = s.recent[len(s.recent)-antiRepeatWindow:]
	}

	logrus.Debugf("selected content category %s (%s)", chosen, reason)

	return Selection{
		Category: chosen,
		Message:  PhraseFor(chosen, dctx, s.rng),
		Reason:   reason,
		Weights:  weights,
		Arm:      armSel,
	}
}

// pickWeighted draws a category proportionally to its weight, skipping
// excluded categories. Pure given the RNG. Falls back to the full set when
// exclusion empties the candidates.
func pickWeighted(weights map[Category]float64, excluded map[Category]bool, rng *rand.Rand) Category {
	candidates := eligibleCategories(weights, excluded)
	if len(candidates) == 0 {
		candidates = eligibleCategories(weights, nil)
	}
	if len(candidates) == 0 {
		return Reflection
	}

	var total float64
	for _, cat := range candidates {
		total += weights[cat]
	}

	r := rng.Float64() * total
	for _, cat := range candidates {
		r -= weights[cat]
		if r < 0 {
			return cat
		}
	}
	return candidates[len(candidates)-1]
}

// eligibleCategories returns the positively weighted, non-excluded
// categories in a stable order so draws are reproducible.
func eligibleCategories(weights map[Category]float64, excluded map[Category]bool) []Category {
	var out []Category
	for cat, w := range weights {
		if w <= 0 || excluded[cat] {
			continue
		}
		out = append(out, cat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func categoryNames(cats []Category) []string {
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = string(c)
	}
	return out
}

// Recent returns a copy of the anti-repetition window, oldest first.
func (s *Selector) Recent() []Category {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Category, len(s.recent))
	copy(out, s.recent)
	return out
}
