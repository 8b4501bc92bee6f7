package imagelife

import (
	"fmt"

	"imagelife/internal/evo"
	"imagelife/internal/genotype"
	"imagelife/internal/model"
	"imagelife/internal/phenotype"
	"imagelife/internal/storage"
)

func generationRecord(r evo.GenerationReport) model.GenerationRecord {
	return model.GenerationRecord{
		Generation: r.Generation,
		ElapsedMS:  r.Elapsed.Milliseconds(),
		Best:       r.Best,
		Second:     r.Second,
		Third:      r.Third,
		Worst:      r.Worst,
		Mean:       r.Mean,
		Population: r.Population,
		BestID:     r.BestID,
	}
}

func genomeRecord(runID string, generation int, best *phenotype.Individual, background string) (model.GenomeRecord, error) {
	score, err := best.Fitness()
	if err != nil {
		return model.GenomeRecord{}, err
	}
	b := best.Image().Bounds()
	genome := best.Genome()
	genes := make([]model.GeneRecord, 0, genome.Len())
	for _, g := range genome.Genes {
		genes = append(genes, geneRecord(g))
	}
	return model.GenomeRecord{
		VersionedRecord: storage.Versioned(),
		RunID:           runID,
		IndividualID:    best.ID(),
		Parents:         best.Parents(),
		Generation:      generation,
		Fitness:         score,
		Width:           b.Dx(),
		Height:          b.Dy(),
		Background:      background,
		Genes:           genes,
	}, nil
}

func geneRecord(g genotype.Gene) model.GeneRecord {
	rec := model.GeneRecord{
		Color:  g.Color,
		Alpha:  g.Alpha,
		Depth:  g.Depth,
		Layout: g.Layout.String(),
	}
	switch g.Layout {
	case genotype.LayoutPolar:
		rec.Center = &model.Point{X: g.Center.X, Y: g.Center.Y}
		rec.Angles = append([]float64(nil), g.Angles[:]...)
		rec.Radius = g.Radius
	default:
		rec.Vertices = make([]model.Point, len(g.Vertices))
		for i, v := range g.Vertices {
			rec.Vertices[i] = model.Point{X: v.X, Y: v.Y}
		}
	}
	return rec
}

func genomeFromRecord(rec model.GenomeRecord) (genotype.Genome, error) {
	genes := make([]genotype.Gene, 0, len(rec.Genes))
	for i, gr := range rec.Genes {
		layout, err := genotype.ParseLayout(gr.Layout)
		if err != nil {
			return genotype.Genome{}, fmt.Errorf("gene %d: %w", i, err)
		}
		g := genotype.Gene{Color: gr.Color, Alpha: gr.Alpha, Depth: gr.Depth, Layout: layout}
		switch layout {
		case genotype.LayoutPolar:
			if gr.Center == nil || len(gr.Angles) != len(g.Angles) {
				return genotype.Genome{}, fmt.Errorf("gene %d: incomplete polar shape", i)
			}
			g.Center = genotype.Point{X: gr.Center.X, Y: gr.Center.Y}
			copy(g.Angles[:], gr.Angles)
			g.Radius = gr.Radius
		default:
			if len(gr.Vertices) != len(g.Vertices) {
				return genotype.Genome{}, fmt.Errorf("gene %d: want %d vertices, have %d", i, len(g.Vertices), len(gr.Vertices))
			}
			for j, v := range gr.Vertices {
				g.Vertices[j] = genotype.Point{X: v.X, Y: v.Y}
			}
		}
		genes = append(genes, g)
	}
	genome := genotype.Genome{Genes: genes}
	if err := genome.Validate(); err != nil {
		return genotype.Genome{}, err
	}
	return genome, nil
}
