package bandit

import (
	"math"
	"math/rand"
)

// SampleBeta draws one sample from Beta(alpha, beta) using the ratio of two
// Gamma draws: X ~ Gamma(alpha, 1), Y ~ Gamma(beta, 1), X/(X+Y) ~ Beta.
// Parameters at or below zero are treated as 1 (the uniform prior).
func SampleBeta(alpha, beta float64, rng *rand.Rand) float64 {
	if alpha <= 0 {
		alpha = 1
	}
	if beta <= 0 {
		beta = 1
	}

	x := sampleGamma(alpha, rng)
	y := sampleGamma(beta, rng)

	if x+y == 0 {
		return 0.5
	}
	return x / (x + y)
}

// sampleGamma draws from Gamma(shape, 1) with the Marsaglia-Tsang squeeze
// method. Shapes below 1 use the boosting identity
// Gamma(a) = Gamma(a+1) * U^(1/a).
func sampleGamma(shape float64, rng *rand.Rand) float64 {
	if shape < 1 {
		u := rng.Float64()
		for u == 0 {
			u = rng.Float64()
		}
		return sampleGamma(shape+1, rng) * math.Pow(u, 1/shape)
	}

	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)

	for {
		var x, v float64
		for {
			x = rng.NormFloat64()
			v = 1.0 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v

		u := rng.Float64()
		if u < 1.0-0.0331*x*x*x*x {
			return d * v
		}
		if u > 0 && math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v
		}
	}
}
