package phenotype

import (
	"image"
	"image/color"
	"image/draw"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagelife/internal/fitness"
	"imagelife/internal/genotype"
)

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func invisible(n int) genotype.Genome {
	return genotype.Genome{Genes: make([]genotype.Gene, n)}
}

func TestIdenticalRasterScoresZero(t *testing.T) {
	oracle, err := fitness.NewOracle(solid(10, 10, color.Black))
	require.NoError(t, err)

	ind, err := New(oracle, "a", invisible(3))
	require.NoError(t, err)
	got, err := ind.Fitness()
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestFitnessComputedOnce(t *testing.T) {
	calls := 0
	oracle, err := fitness.NewOracle(solid(4, 4, color.Black), fitness.WithComparator(func(a, b []uint8) float64 {
		calls++
		return fitness.MeanAbsoluteDifference(a, b)
	}))
	require.NoError(t, err)

	ind, err := New(oracle, "zero", invisible(1))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		got, err := ind.Fitness()
		require.NoError(t, err)
		assert.Zero(t, got)
	}
	assert.Equal(t, 1, calls, "a perfect score must not be recomputed")
}

func TestBackgroundIsOpaque(t *testing.T) {
	oracle, err := fitness.NewOracle(solid(2, 2, color.White))
	require.NoError(t, err)

	ind, err := New(oracle, "bg", invisible(1), WithBackground(color.NRGBA{255, 255, 255, 10}))
	require.NoError(t, err)
	rgba := ind.Image().(*image.RGBA)
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, rgba.RGBAAt(1, 1))

	got, err := ind.Fitness()
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestNewRequiresOracle(t *testing.T) {
	_, err := New(nil, "x", invisible(1))
	assert.ErrorIs(t, err, fitness.ErrUninitializedTarget)
}

func TestGenomeIsOwned(t *testing.T) {
	oracle, err := fitness.NewOracle(solid(4, 4, color.Black))
	require.NoError(t, err)
	source := genotype.NewGenome(newRNG(1), genotype.GenomeConfig{Length: 3})
	snapshot := source.Clone()

	ind, err := New(oracle, "owned", source)
	require.NoError(t, err)
	source.Genes[0].Alpha = 0.5

	assert.Equal(t, snapshot, ind.Genome())
	view := ind.Genome()
	view.Genes[1].Alpha = 0.5
	assert.Equal(t, snapshot, ind.Genome())
}

func TestNewFromParents(t *testing.T) {
	oracle, err := fitness.NewOracle(solid(8, 8, color.Gray{Y: 128}))
	require.NoError(t, err)
	rng := newRNG(2)
	cfg := genotype.GenomeConfig{Length: 6}

	a, err := NewRandom(oracle, rng, "a", cfg)
	require.NoError(t, err)
	b, err := NewRandom(oracle, rng, "b", cfg)
	require.NoError(t, err)

	child, err := NewFromParents(oracle, rng, "c", a, b, genotype.PointMutator{Policy: genotype.ConstMutations{Count: 1}})
	require.NoError(t, err)
	assert.Equal(t, 6, child.Genome().Len())
	assert.Equal(t, []string{"a", "b"}, child.Parents())
	assert.Nil(t, a.Parents())

	_, err = NewFromParents(oracle, rng, "d", a, nil, genotype.PointMutator{Policy: genotype.ConstMutations{Count: 1}})
	assert.Error(t, err)
}

func TestNewRandomValidatesConfig(t *testing.T) {
	oracle, err := fitness.NewOracle(solid(2, 2, color.Black))
	require.NoError(t, err)
	_, err = NewRandom(oracle, newRNG(3), "bad", genotype.GenomeConfig{})
	assert.Error(t, err)
}
