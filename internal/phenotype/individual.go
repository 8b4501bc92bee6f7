// Package phenotype binds a genome to its rendered raster and fitness.
package phenotype

import (
	"fmt"
	"image"
	"image/color"
	"math/rand/v2"
	"sync"

	"imagelife/internal/fitness"
	"imagelife/internal/genotype"
	"imagelife/internal/raster"
)

type Option func(*options)

type options struct {
	background color.Color
}

// WithBackground sets the opaque color the surface is cleared to before the
// genome is painted. Defaults to black.
func WithBackground(c color.Color) Option {
	return func(o *options) {
		if c != nil {
			o.background = c
		}
	}
}

// Individual is one candidate image. The genome and raster never change
// after construction.
type Individual struct {
	id      string
	parents []string
	genome  genotype.Genome
	surface *raster.Surface
	oracle  *fitness.Oracle

	once    sync.Once
	fitness float64
	err     error
}

// New clones genome and renders it at the oracle's target size.
func New(oracle *fitness.Oracle, id string, genome genotype.Genome, opts ...Option) (*Individual, error) {
	if oracle == nil {
		return nil, fmt.Errorf("new individual %s: %w", id, fitness.ErrUninitializedTarget)
	}
	if genome.Len() == 0 {
		return nil, fmt.Errorf("new individual %s: empty genome", id)
	}
	cfg := options{background: color.Black}
	for _, opt := range opts {
		opt(&cfg)
	}

	w, h := oracle.Size()
	surface := raster.NewSurface(w, h)
	surface.Clear(opaque(cfg.background))
	owned := genome.Clone()
	owned.Render(surface)

	return &Individual{
		id:      id,
		genome:  owned,
		surface: surface,
		oracle:  oracle,
	}, nil
}

func NewRandom(oracle *fitness.Oracle, rng *rand.Rand, id string, cfg genotype.GenomeConfig, opts ...Option) (*Individual, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new random individual %s: %w", id, err)
	}
	return New(oracle, id, genotype.NewGenome(rng, cfg), opts...)
}

// NewFromParents crosses the parents' genomes and applies mutator once.
// Passing the same individual twice yields a mutated copy.
func NewFromParents(oracle *fitness.Oracle, rng *rand.Rand, id string, a, b *Individual, mutator genotype.Mutator, opts ...Option) (*Individual, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("new child %s: missing parent", id)
	}
	child, err := genotype.Crossover(rng, a.genome, b.genome, mutator)
	if err != nil {
		return nil, fmt.Errorf("new child %s of %s x %s: %w", id, a.id, b.id, err)
	}
	return NewBred(oracle, id, child, a.id, b.id, opts...)
}

// NewBred wraps a genome that was already produced by crossover, recording
// the parent IDs.
func NewBred(oracle *fitness.Oracle, id string, child genotype.Genome, motherID, fatherID string, opts ...Option) (*Individual, error) {
	ind, err := New(oracle, id, child, opts...)
	if err != nil {
		return nil, err
	}
	ind.parents = []string{motherID, fatherID}
	return ind, nil
}

func (i *Individual) ID() string {
	return i.id
}

// Parents returns the IDs of the individuals this one was bred from, or nil
// for a seeded individual.
func (i *Individual) Parents() []string {
	return append([]string(nil), i.parents...)
}

// Genome returns a copy of the genome.
func (i *Individual) Genome() genotype.Genome {
	return i.genome.Clone()
}

// Image returns the rendered raster. Callers must not modify it.
func (i *Individual) Image() image.Image {
	return i.surface.Image()
}

// Fitness scores the raster on first call and returns the cached result
// afterwards, including a cached error.
func (i *Individual) Fitness() (float64, error) {
	i.once.Do(func() {
		i.fitness, i.err = i.oracle.Score(i.surface.Image())
		if i.err != nil {
			i.err = fmt.Errorf("score individual %s: %w", i.id, i.err)
		}
	})
	return i.fitness, i.err
}

func opaque(c color.Color) color.Color {
	n := color.NRGBA64Model.Convert(c).(color.NRGBA64)
	n.A = 0xffff
	return n
}
