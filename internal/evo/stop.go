package evo

// StopPredicate is evaluated after every truncation. Returning true ends the
// run as converged.
type StopPredicate func(report GenerationReport) bool

// FitnessBelow stops once the best fitness drops under threshold.
func FitnessBelow(threshold float64) StopPredicate {
	return func(r GenerationReport) bool {
		return r.Best < threshold
	}
}

// MaxGenerations stops after n completed generations. n <= 0 never stops.
func MaxGenerations(n int) StopPredicate {
	return func(r GenerationReport) bool {
		return n > 0 && r.Generation >= n
	}
}

func AnyOf(preds ...StopPredicate) StopPredicate {
	return func(r GenerationReport) bool {
		for _, p := range preds {
			if p != nil && p(r) {
				return true
			}
		}
		return false
	}
}
