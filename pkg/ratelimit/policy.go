package ratelimit

import (
	"github.com/screenbalance/jitai-engine/pkg/decision"
	"github.com/screenbalance/jitai-engine/pkg/opportunity"
	"github.com/screenbalance/jitai-engine/pkg/persona"
)

// Frequency policies. Each persona maps to one policy; the policy decides
// how good a moment has to be before an intervention is allowed.
const (
	PolicyMinimal      = "minimal"
	PolicyConservative = "conservative"
	PolicyBalanced     = "balanced"
	PolicyModerate     = "moderate"
	PolicyAdaptive     = "adaptive"
	PolicyOnboarding   = "onboarding"
)

// policyFor maps personas to frequency policies. Problematic users get the
// strictest gate so interventions stay rare and high-value; new users get
// the gentle onboarding gate.
func policyFor(p persona.Persona) string {
	switch p {
	case persona.ProblematicPattern:
		return PolicyMinimal
	case persona.HeavyCompulsive:
		return PolicyConservative
	case persona.HeavyBinge:
		return PolicyBalanced
	case persona.ModerateBalanced:
		return PolicyModerate
	case persona.Casual:
		return PolicyAdaptive
	case persona.NewUser:
		return PolicyOnboarding
	default:
		return PolicyBalanced
	}
}

// cooldownMultiplier scales the base cooldown per persona.
func cooldownMultiplier(p persona.Persona) float64 {
	switch p {
	case persona.ProblematicPattern:
		return 2.0
	case persona.HeavyCompulsive:
		return 1.5
	case persona.HeavyBinge, persona.ModerateBalanced:
		return 1.0
	case persona.Casual:
		return 0.7
	case persona.NewUser:
		return 0.5
	default:
		return 1.0
	}
}

// policyAllows applies the frequency policy to the scored moment.
func policyAllows(policy string, opp opportunity.Detection, dctx decision.Context) bool {
	switch policy {
	case PolicyMinimal:
		return opp.Level == opportunity.LevelExcellent
	case PolicyConservative:
		return opp.Level == opportunity.LevelExcellent || opp.Level == opportunity.LevelGood
	case PolicyBalanced:
		return opp.Level != opportunity.LevelPoor
	case PolicyModerate:
		return opp.Score >= 25
	case PolicyAdaptive:
		if opp.Level == opportunity.LevelExcellent {
			return true
		}
		if opp.Level == opportunity.LevelGood && dctx.IsDaytime() {
			return true
		}
		return opp.Score >= 40
	case PolicyOnboarding:
		return dctx.IsDaytime() && opp.Score >= 30
	default:
		return opp.Level != opportunity.LevelPoor
	}
}
