package genotype

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// below1 is the largest float64 strictly less than 1.
var below1 = math.Nextafter(1, 0)

func uniform(rng *rand.Rand) float64 {
	return rng.Float64()
}

// skewed draws from Beta(1, beta), which piles mass near 0. A non-positive
// beta falls back to a uniform draw.
func skewed(rng *rand.Rand, beta float64) float64 {
	if beta <= 0 {
		return rng.Float64()
	}
	d := distuv.Beta{Alpha: 1, Beta: beta, Src: rng}
	return clampUnit(d.Rand())
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0 || math.IsNaN(v):
		return 0
	case v >= 1:
		return below1
	}
	return v
}

func inUnit(v float64) bool {
	return v >= 0 && v < 1
}
