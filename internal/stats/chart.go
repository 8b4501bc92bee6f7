package stats

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"imagelife/internal/model"
)

// WriteFitnessChart plots best and mean fitness per generation. The format
// follows the extension of path (png, svg, pdf).
func WriteFitnessChart(path, title string, records []model.GenerationRecord) error {
	if len(records) == 0 {
		return fmt.Errorf("fitness chart: no generations recorded")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Fitness (lower is better)"

	bestPts := make(plotter.XYs, len(records))
	meanPts := make(plotter.XYs, len(records))
	for i, r := range records {
		bestPts[i].X = float64(r.Generation)
		bestPts[i].Y = r.Best
		meanPts[i].X = float64(r.Generation)
		meanPts[i].Y = r.Mean
	}

	bestLine, err := plotter.NewLine(bestPts)
	if err != nil {
		return err
	}
	meanLine, err := plotter.NewLine(meanPts)
	if err != nil {
		return err
	}
	meanLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(plotter.NewGrid(), bestLine, meanLine)
	p.Legend.Add("best", bestLine)
	p.Legend.Add("mean", meanLine)
	p.Legend.Top = true

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save fitness chart: %w", err)
	}
	return nil
}
