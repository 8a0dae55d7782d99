package outcome

import "time"

// Reward tuning. Rewards are clamped to [-1, 1] before they reach the
// bandit learner.
const (
	rewardEffectiveBonus   = 0.3
	rewardQuickReopenPenal = 0.5
	rewardLongIdleBonus    = 0.2
	rewardShortIdlePenal   = 0.3

	longIdleThreshold  = 15 * time.Minute
	shortIdleThreshold = 5 * time.Minute

	// QuickReopenWindow is how soon a reopen after an intervention counts
	// as non-compliance.
	QuickReopenWindow = 5 * time.Minute
)

// baseReward maps the user's choice to the base reward value.
func baseReward(choice string) float64 {
	switch choice {
	case ChoiceGoBack, ChoiceQuit, ChoiceTakeBreak:
		return 1.0
	case ChoiceSnooze:
		return 0.5
	default:
		// continue, skip, dismiss, timeout
		return 0.0
	}
}

// ComputeReward converts a resolved intervention into a bounded scalar
// reward. quickReopen is true when the user reopened the target app within
// QuickReopenWindow; postIdle is how long the user stayed away from the app
// after the intervention.
func ComputeReward(choice string, effective bool, quickReopen bool, postIdle time.Duration) float64 {
	reward := baseReward(choice)

	if effective {
		reward += rewardEffectiveBonus
	}
	if quickReopen {
		reward -= rewardQuickReopenPenal
	}

	if postIdle >= longIdleThreshold {
		reward += rewardLongIdleBonus
	} else if postIdle < shortIdleThreshold {
		reward -= rewardShortIdlePenal
	}

	return clampReward(reward)
}

func clampReward(r float64) float64 {
	if r > 1.0 {
		return 1.0
	}
	if r < -1.0 {
		return -1.0
	}
	return r
}
