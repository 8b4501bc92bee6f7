package evo

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"imagelife/internal/phenotype"
)

// Pair is one breeding couple. The same individual may appear twice.
type Pair struct {
	Mother *phenotype.Individual
	Father *phenotype.Individual
}

// Selector chooses breeding pairs from a population ranked best first.
type Selector interface {
	Name() string
	// ChildrenPerPair is the number of offspring each pair produces.
	ChildrenPerPair() int
	Pairs(rng *rand.Rand, ranked []*phenotype.Individual) ([]Pair, error)
}

// BetaSelector samples both parents at floor(Beta(Alpha, Beta)*len), which
// favours the front of the ranking when Beta > Alpha.
type BetaSelector struct {
	Alpha float64
	Beta  float64
	// PairCount defaults to half the population, at least one.
	PairCount int
}

const (
	defaultBetaAlpha = 1
	defaultBetaBeta  = 3
)

func (BetaSelector) Name() string {
	return "beta"
}

func (BetaSelector) ChildrenPerPair() int {
	return 2
}

func (s BetaSelector) Pairs(rng *rand.Rand, ranked []*phenotype.Individual) ([]Pair, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if len(ranked) == 0 {
		return nil, fmt.Errorf("beta selection: %w", ErrEmptyPopulation)
	}
	alpha, beta := s.Alpha, s.Beta
	if alpha <= 0 {
		alpha = defaultBetaAlpha
	}
	if beta <= 0 {
		beta = defaultBetaBeta
	}
	count := s.PairCount
	if count <= 0 {
		count = max(len(ranked)/2, 1)
	}

	dist := distuv.Beta{Alpha: alpha, Beta: beta, Src: rng}
	pick := func() *phenotype.Individual {
		idx := int(math.Floor(dist.Rand() * float64(len(ranked))))
		idx = min(max(idx, 0), len(ranked)-1)
		return ranked[idx]
	}
	pairs := make([]Pair, 0, count)
	for i := 0; i < count; i++ {
		pairs = append(pairs, Pair{Mother: pick(), Father: pick()})
	}
	return pairs, nil
}

// WindowSelector pairs neighbours (0,1), (1,2), ... over the first
// ceil(len*Fraction) ranked individuals, never fewer than two.
type WindowSelector struct {
	Fraction float64
}

const defaultWindowFraction = 0.25

func (WindowSelector) Name() string {
	return "window"
}

func (WindowSelector) ChildrenPerPair() int {
	return 1
}

func (s WindowSelector) Pairs(_ *rand.Rand, ranked []*phenotype.Individual) ([]Pair, error) {
	if len(ranked) < 2 {
		return nil, fmt.Errorf("window selection needs 2 individuals, have %d: %w", len(ranked), ErrEmptyPopulation)
	}
	fraction := s.Fraction
	if fraction <= 0 || fraction > 1 {
		fraction = defaultWindowFraction
	}
	width := int(math.Ceil(float64(len(ranked)) * fraction))
	width = min(max(width, 2), len(ranked))

	pairs := make([]Pair, 0, width-1)
	for i := 0; i+1 < width; i++ {
		pairs = append(pairs, Pair{Mother: ranked[i], Father: ranked[i+1]})
	}
	return pairs, nil
}

// HillClimbSelector breeds the best individual with itself, producing one
// mutated copy per generation.
type HillClimbSelector struct{}

func (HillClimbSelector) Name() string {
	return "hillclimb"
}

func (HillClimbSelector) ChildrenPerPair() int {
	return 1
}

func (HillClimbSelector) Pairs(_ *rand.Rand, ranked []*phenotype.Individual) ([]Pair, error) {
	if len(ranked) == 0 {
		return nil, fmt.Errorf("hill-climb selection: %w", ErrEmptyPopulation)
	}
	return []Pair{{Mother: ranked[0], Father: ranked[0]}}, nil
}

// SelectorFromName builds a selector from its CLI name.
func SelectorFromName(name string) (Selector, error) {
	switch name {
	case "", "beta":
		return BetaSelector{}, nil
	case "window":
		return WindowSelector{}, nil
	case "hillclimb":
		return HillClimbSelector{}, nil
	default:
		return nil, fmt.Errorf("unsupported selection policy: %s", name)
	}
}
