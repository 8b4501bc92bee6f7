package genotype

import (
	"fmt"
	"math/rand/v2"
)

// Split records how Recombine cut the parents.
type Split struct {
	Point int
	// Swapped is set when the second parent supplied the head.
	Swapped bool
}

// Recombine performs single-point crossover: child = head[:p] + tail[p:]
// with p uniform in [0, len). The head parent is a with probability 1/2.
func Recombine(rng *rand.Rand, a, b Genome) (Genome, Split, error) {
	if a.Len() != b.Len() {
		return Genome{}, Split{}, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, a.Len(), b.Len())
	}
	if a.Len() == 0 {
		return Genome{}, Split{}, fmt.Errorf("%w: empty parents", ErrLengthMismatch)
	}

	split := Split{Point: rng.IntN(a.Len())}
	head, tail := a, b
	if rng.IntN(2) == 1 {
		head, tail = b, a
		split.Swapped = true
	}
	genes := make([]Gene, 0, a.Len())
	genes = append(genes, head.Genes[:split.Point]...)
	genes = append(genes, tail.Genes[split.Point:]...)
	return Genome{Genes: genes}, split, nil
}

// Crossover recombines a and b and mutates the child once. The returned
// child is never the unmutated recombination.
func Crossover(rng *rand.Rand, a, b Genome, m Mutator) (Genome, error) {
	if m == nil {
		return Genome{}, fmt.Errorf("mutator is required")
	}
	child, _, err := Recombine(rng, a, b)
	if err != nil {
		return Genome{}, err
	}
	if _, err := m.Mutate(rng, &child); err != nil {
		return Genome{}, fmt.Errorf("%s: %w", m.Name(), err)
	}
	return child, nil
}
