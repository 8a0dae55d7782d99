package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Application metrics for the decision engine. Registered on the metrics
// server's registry at startup; incremented from the engine's decision and
// feedback paths.

var (
	// DecisionsTotal counts gate verdicts by state.
	DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jitai_decisions_total",
			Help: "Total number of intervention decisions by verdict",
		},
		[]string{"verdict"},
	)

	// InterventionsShownTotal counts shown interventions by content
	// category.
	InterventionsShownTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jitai_interventions_shown_total",
			Help: "Total number of interventions shown by content category",
		},
		[]string{"category"},
	)

	// OutcomesTotal counts recorded outcomes by user choice.
	OutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jitai_outcomes_total",
			Help: "Total number of recorded intervention outcomes by choice",
		},
		[]string{"choice"},
	)

	// RewardObserved tracks the distribution of computed rewards.
	RewardObserved = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jitai_reward_observed",
			Help:    "Distribution of rewards fed to the bandit learner",
			Buckets: prometheus.LinearBuckets(-1.0, 0.25, 9),
		},
	)

	// OpportunityScore tracks the distribution of opportunity scores.
	OpportunityScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jitai_opportunity_score",
			Help:    "Distribution of opportunity scores at decision time",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	// BurdenScore exposes the most recent burden score.
	BurdenScore = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "jitai_burden_score",
			Help: "Most recently computed user burden score",
		},
	)
)

// Register adds all engine collectors to the registry.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(
		DecisionsTotal,
		InterventionsShownTotal,
		OutcomesTotal,
		RewardObserved,
		OpportunityScore,
		BurdenScore,
	)
}
