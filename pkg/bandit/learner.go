package bandit

import (
	"math/rand"
	"sync"

	"github.com/sirupsen/logrus"
)

// Selection strategies reported alongside the chosen arm.
const (
	StrategyExploration  = "exploration"
	StrategyExploitation = "exploitation"
	StrategyDefault      = "default"
)

const (
	// explorationPullThreshold marks arms with too few pulls as still
	// exploratory regardless of their sampled value.
	explorationPullThreshold = 3

	// sufficientDataPulls is the total pull count after which the learner
	// considers its posteriors informative.
	sufficientDataPulls = 20

	// confidencePullScale normalizes per-arm pulls into a [0,1] confidence.
	confidencePullScale = 20
)

// defaultArm is returned when no arms are eligible.
const defaultArm = "reflection"

// Config contains tuning knobs for the learner.
type Config struct {
	// ExplorationRate is the probability of labeling a selection as
	// exploration independent of pull counts. Typical: 0.1.
	ExplorationRate float64
}

// DefaultConfig returns the default learner configuration.
func DefaultConfig() Config {
	return Config{ExplorationRate: 0.1}
}

// Arm is the Beta posterior for one content category. Alpha and Beta never
// drop below 1; reward updates only ever add to them.
type Arm struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
}

// Selection is the ephemeral result of one arm draw.
type Selection struct {
	Arm        string
	Confidence float64
	Strategy   string
	Sampled    float64
	Pulls      int
}

// Learner is a Thompson Sampling bandit over content categories. Each arm
// keeps a Beta(alpha, beta) posterior initialized to the uniform Beta(1,1)
// prior; Select draws a sample per eligible arm and picks the maximum.
type Learner struct {
	cfg Config
	rng *rand.Rand

	mu         sync.RWMutex
	arms       map[string]*Arm
	pulls      map[string]int
	totalPulls int
}

// NewLearner creates a learner with the given RNG. Injecting the RNG keeps
// selections reproducible under a seeded source in tests.
func NewLearner(cfg Config, rng *rand.Rand) *Learner {
	if cfg.ExplorationRate <= 0 {
		cfg.ExplorationRate = DefaultConfig().ExplorationRate
	}
	return &Learner{
		cfg:   cfg,
		rng:   rng,
		arms:  make(map[string]*Arm),
		pulls: make(map[string]int),
	}
}

// Select draws a Thompson sample for each eligible arm and returns the arm
// with the maximum sample. With no eligible arms it falls back to the
// reflection category with a placeholder sample and the "default" strategy.
func (l *Learner) Select(eligible []string) Selection {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(eligible) == 0 {
		return Selection{
			Arm:      defaultArm,
			Strategy: StrategyDefault,
			Sampled:  l.rng.Float64(),
		}
	}

	var best Selection
	for i, name := range eligible {
		arm := l.armLocked(name)
		sampled := SampleBeta(arm.Alpha, arm.Beta, l.rng)
		if i == 0 || sampled > best.Sampled {
			best = Selection{Arm: name, Sampled: sampled, Pulls: l.pulls[name]}
		}
	}

	best.Confidence = float64(best.Pulls) / confidencePullScale
	if best.Confidence > 1 {
		best.Confidence = 1
	}

	if best.Pulls < explorationPullThreshold || l.rng.Float64() < l.cfg.ExplorationRate {
		best.Strategy = StrategyExploration
	} else {
		best.Strategy = StrategyExploitation
	}

	logrus.Debugf("bandit selected arm %s (sampled=%.3f strategy=%s pulls=%d)",
		best.Arm, best.Sampled, best.Strategy, best.Pulls)

	return best
}

// Update applies a reward in [-1, 1] to the arm that was shown. Rewards
// above 0.3 count as a success, below -0.3 as a failure; the neutral band
// splits credit between both posterior parameters. Alpha and Beta are never
// decremented. Each update counts as one pull of the arm.
func (l *Learner) Update(arm string, reward float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.armLocked(arm)
	l.pulls[arm]++
	l.totalPulls++
	switch {
	case reward > 0.3:
		a.Alpha++
	case reward < -0.3:
		a.Beta++
	default:
		a.Alpha += 0.5
		a.Beta += 0.5
	}

	logrus.Debugf("bandit updated arm %s: reward=%.2f alpha=%.1f beta=%.1f", arm, reward, a.Alpha, a.Beta)
}

// Reset restores one arm to the uniform prior and zeroes its pull count.
// Maintenance operation; never called automatically.
func (l *Learner) Reset(arm string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.totalPulls -= l.pulls[arm]
	l.arms[arm] = &Arm{Alpha: 1, Beta: 1}
	l.pulls[arm] = 0
}

// ResetAll restores every arm to the uniform prior.
func (l *Learner) ResetAll() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for name := range l.arms {
		l.arms[name] = &Arm{Alpha: 1, Beta: 1}
		l.pulls[name] = 0
	}
	l.totalPulls = 0
}

// SufficientData reports whether the learner has accumulated enough pulls
// for its posteriors to be informative.
func (l *Learner) SufficientData() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalPulls >= sufficientDataPulls
}

// ArmState returns a copy of the posterior for one arm.
func (l *Learner) ArmState(arm string) Arm {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if a, ok := l.arms[arm]; ok {
		return *a
	}
	return Arm{Alpha: 1, Beta: 1}
}

// Pulls returns the pull count for one arm.
func (l *Learner) Pulls(arm string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.pulls[arm]
}

// armLocked returns the arm, creating it with the uniform prior on first
// touch. Caller holds the lock.
func (l *Learner) armLocked(name string) *Arm {
	a, ok := l.arms[name]
	if !ok {
		a = &Arm{Alpha: 1, Beta: 1}
		l.arms[name] = a
	}
	return a
}
