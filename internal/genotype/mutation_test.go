package genotype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutationPolicies(t *testing.T) {
	genome := taggedGenome(0, 20)

	c, err := ConstMutations{Count: 3}.MutationCount(genome, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, c)

	p, err := ProportionalMutations{Fraction: 0.25, MaxCount: 4}.MutationCount(genome, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, p)

	p, err = ProportionalMutations{Fraction: 0.01}.MutationCount(genome, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, p)

	_, err = ConstMutations{}.MutationCount(genome, nil)
	assert.Error(t, err)
	_, err = UniformMutations{Max: 3}.MutationCount(genome, nil)
	assert.Error(t, err)
}

func TestUniformMutationsRange(t *testing.T) {
	rng := newRNG(30)
	seen := map[int]struct{}{}
	for i := 0; i < 256; i++ {
		count, err := UniformMutations{Max: 10}.MutationCount(Genome{}, rng)
		require.NoError(t, err)
		require.GreaterOrEqual(t, count, 1)
		require.LessOrEqual(t, count, 10)
		seen[count] = struct{}{}
	}
	assert.Len(t, seen, 10)
}

func TestPointMutatorAppliesPolicyCount(t *testing.T) {
	rng := newRNG(31)
	g := NewGenome(rng, GenomeConfig{Length: 4})
	slots, err := PointMutator{Policy: ConstMutations{Count: 5}}.Mutate(rng, &g)
	require.NoError(t, err)
	assert.Len(t, slots, 5)

	_, err = PointMutator{}.Mutate(rng, &g)
	assert.Error(t, err)
}

func TestPolicyFromName(t *testing.T) {
	p, err := PolicyFromName("uniform", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, UniformMutations{Max: 10}, p)

	p, err = PolicyFromName("", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, ConstMutations{Count: 2}, p)

	_, err = PolicyFromName("gaussian", 1, 0)
	assert.Error(t, err)
	_, err = PolicyFromName("const", 0, 0)
	assert.Error(t, err)
}
