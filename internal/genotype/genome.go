package genotype

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"imagelife/internal/raster"
)

var ErrLengthMismatch = errors.New("genome length mismatch")

// GenomeConfig fixes the genome shape for a run.
type GenomeConfig struct {
	Length int
	Gene   GeneConfig
}

func (c GenomeConfig) Validate() error {
	if c.Length <= 0 {
		return fmt.Errorf("genome length must be > 0")
	}
	if c.Gene.Layout != LayoutTriangle && c.Gene.Layout != LayoutPolar {
		return fmt.Errorf("unsupported gene layout: %s", c.Gene.Layout)
	}
	if c.Gene.Skew < 0 {
		return fmt.Errorf("gene skew must be >= 0")
	}
	return nil
}

// Genome is an ordered, fixed-length sequence of genes.
type Genome struct {
	Genes []Gene
}

// NewGenome builds cfg.Length independent random genes.
func NewGenome(rng *rand.Rand, cfg GenomeConfig) Genome {
	genes := make([]Gene, cfg.Length)
	for i := range genes {
		genes[i] = NewGene(rng, cfg.Gene)
	}
	return Genome{Genes: genes}
}

func (g Genome) Len() int {
	return len(g.Genes)
}

// Clone returns a genome that shares no storage with g.
func (g Genome) Clone() Genome {
	return Genome{Genes: append([]Gene(nil), g.Genes...)}
}

// Mutate applies count gene mutations at uniformly chosen indices, with
// replacement, and returns the slots touched.
func (g *Genome) Mutate(rng *rand.Rand, count int, cfg GeneConfig) []Slot {
	if len(g.Genes) == 0 {
		return nil
	}
	slots := make([]Slot, 0, count)
	for i := 0; i < count; i++ {
		idx := rng.IntN(len(g.Genes))
		slots = append(slots, g.Genes[idx].Mutate(rng, cfg))
	}
	return slots
}

// Render paints genes in ascending depth. Equal depths keep genome order.
func (g Genome) Render(s *raster.Surface) {
	order := make([]int, len(g.Genes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return g.Genes[order[i]].Depth < g.Genes[order[j]].Depth
	})
	for _, idx := range order {
		g.Genes[idx].Render(s)
	}
}

func (g Genome) Validate() error {
	for i, gene := range g.Genes {
		if err := gene.Validate(); err != nil {
			return fmt.Errorf("gene %d: %w", i, err)
		}
	}
	return nil
}
