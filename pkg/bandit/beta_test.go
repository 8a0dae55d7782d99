package bandit

import (
	"math"
	"math/rand"
	"testing"
)

func TestSampleBetaInUnitInterval(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	params := []struct{ alpha, beta float64 }{
		{1, 1}, {0.5, 0.5}, {2, 5}, {30, 1}, {1, 30}, {100, 100},
	}

	for _, p := range params {
		for i := 0; i < 1000; i++ {
			x := SampleBeta(p.alpha, p.beta, rng)
			if x < 0 || x > 1 {
				t.Fatalf("SampleBeta(%v, %v) = %v outside [0,1]", p.alpha, p.beta, x)
			}
		}
	}
}

func TestSampleBetaMean(t *testing.T) {
	rng := rand.New(rand.NewSource(2))

	tests := []struct {
		alpha, beta float64
	}{
		{2, 2},
		{5, 1},
		{1, 5},
		{0.5, 0.5},
		{10, 30},
	}

	const n = 20000
	for _, tt := range tests {
		var sum float64
		for i := 0; i < n; i++ {
			sum += SampleBeta(tt.alpha, tt.beta, rng)
		}
		got := sum / n
		want := tt.alpha / (tt.alpha + tt.beta)

		if math.Abs(got-want) > 0.02 {
			t.Errorf("Beta(%v, %v) sample mean = %.4f, want ~%.4f", tt.alpha, tt.beta, got, want)
		}
	}
}

func TestSampleBetaInvalidParamsFallBackToUniform(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	var sum float64
	const n = 20000
	for i := 0; i < n; i++ {
		sum += SampleBeta(0, -2, rng)
	}
	got := sum / n

	// Treated as Beta(1,1): mean 0.5.
	if math.Abs(got-0.5) > 0.02 {
		t.Errorf("invalid params sample mean = %.4f, want ~0.5", got)
	}
}

func TestSampleGammaMean(t *testing.T) {
	rng := rand.New(rand.NewSource(4))

	for _, shape := range []float64{0.5, 1, 2.5, 10} {
		var sum float64
		const n = 20000
		for i := 0; i < n; i++ {
			sum += sampleGamma(shape, rng)
		}
		got := sum / n

		// Gamma(shape, 1) has mean shape.
		if math.Abs(got-shape) > 0.1*shape+0.05 {
			t.Errorf("Gamma(%v) sample mean = %.4f, want ~%.4f", shape, got, shape)
		}
	}
}
