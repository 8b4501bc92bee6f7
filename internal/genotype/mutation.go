package genotype

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// MutationPolicy decides how many gene mutations a child receives.
type MutationPolicy interface {
	Name() string
	MutationCount(genome Genome, rng *rand.Rand) (int, error)
}

type ConstMutations struct {
	Count int
}

func (ConstMutations) Name() string {
	return "const"
}

func (p ConstMutations) MutationCount(_ Genome, _ *rand.Rand) (int, error) {
	if p.Count <= 0 {
		return 0, fmt.Errorf("const mutation count must be > 0")
	}
	return p.Count, nil
}

// UniformMutations draws the count uniformly from [1, Max].
type UniformMutations struct {
	Max int
}

func (UniformMutations) Name() string {
	return "uniform"
}

func (p UniformMutations) MutationCount(_ Genome, rng *rand.Rand) (int, error) {
	if p.Max <= 0 {
		return 0, fmt.Errorf("uniform mutation max must be > 0")
	}
	if rng == nil {
		return 0, fmt.Errorf("random source is required")
	}
	return 1 + rng.IntN(p.Max), nil
}

// ProportionalMutations scales the count with genome length.
type ProportionalMutations struct {
	Fraction float64
	MaxCount int
}

func (ProportionalMutations) Name() string {
	return "proportional"
}

func (p ProportionalMutations) MutationCount(genome Genome, _ *rand.Rand) (int, error) {
	if p.Fraction <= 0 {
		return 0, fmt.Errorf("proportional fraction must be > 0")
	}
	count := int(math.Round(float64(genome.Len()) * p.Fraction))
	if count < 1 {
		count = 1
	}
	if p.MaxCount > 0 && count > p.MaxCount {
		count = p.MaxCount
	}
	return count, nil
}

// Mutator is the post-crossover mutation step.
type Mutator interface {
	Name() string
	Mutate(rng *rand.Rand, genome *Genome) ([]Slot, error)
}

// PointMutator redraws policy-many slots on randomly chosen genes.
type PointMutator struct {
	Policy MutationPolicy
	Gene   GeneConfig
}

func (m PointMutator) Name() string {
	if m.Policy == nil {
		return "point"
	}
	return "point(" + m.Policy.Name() + ")"
}

func (m PointMutator) Mutate(rng *rand.Rand, genome *Genome) ([]Slot, error) {
	if m.Policy == nil {
		return nil, fmt.Errorf("mutation policy is required")
	}
	count, err := m.Policy.MutationCount(*genome, rng)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, fmt.Errorf("invalid mutation count from policy: %d", count)
	}
	return genome.Mutate(rng, count, m.Gene), nil
}

// PolicyFromName builds a mutation policy from its CLI name and parameter.
func PolicyFromName(name string, param float64, maxCount int) (MutationPolicy, error) {
	switch name {
	case "", "const":
		count := int(param)
		if count <= 0 {
			return nil, fmt.Errorf("mutation count must be > 0 for const policy")
		}
		return ConstMutations{Count: count}, nil
	case "uniform":
		if int(param) <= 0 {
			return nil, fmt.Errorf("mutation max must be > 0 for uniform policy")
		}
		return UniformMutations{Max: int(param)}, nil
	case "proportional":
		if param <= 0 {
			return nil, fmt.Errorf("mutation fraction must be > 0 for proportional policy")
		}
		return ProportionalMutations{Fraction: param, MaxCount: maxCount}, nil
	default:
		return nil, fmt.Errorf("unsupported mutation policy: %s", name)
	}
}
