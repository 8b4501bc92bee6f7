package imagelife

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagelife/internal/evo"
	"imagelife/internal/fitness"
	"imagelife/internal/genotype"
	"imagelife/internal/model"
)

func newMemoryClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(Options{StoreKind: "memory"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Init(context.Background()))
	return client
}

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(255 * x / w), uint8(255 * y / h), 90, 255})
		}
	}
	return img
}

func TestClientRunJournalsEverything(t *testing.T) {
	client := newMemoryClient(t)
	var progress bytes.Buffer

	summary, err := client.Run(context.Background(), RunRequest{
		TargetImage:    gradient(16, 12),
		Population:     6,
		GenomeLength:   8,
		Layout:         "polar",
		Skew:           2,
		MaxGenerations: 5,
		Seed:           42,
		Workers:        2,
		Progress:       &progress,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 5, summary.Generations)
	assert.Equal(t, evo.StateConverged.String(), summary.State)
	assert.Len(t, summary.History, 5)
	assert.Equal(t, image.Rect(0, 0, 16, 12), summary.Best.Bounds())
	assert.Equal(t, 5, strings.Count(progress.String(), "\n"))

	runs, err := client.Runs(context.Background(), RunsRequest{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, summary.RunID, runs[0].RunID)
	assert.Equal(t, summary.BestFitness, runs[0].BestFitness)
	assert.Equal(t, "converged", runs[0].State)
	assert.False(t, runs[0].FinishedAt.IsZero())

	history, err := client.History(context.Background(), HistoryRequest{Latest: true})
	require.NoError(t, err)
	require.Len(t, history.Generations, 5)
	assert.Equal(t, summary.BestFitness, history.Summary.FinalBest)

	// Re-rendering the stored genome at the run's size reproduces the score.
	img, rec, err := client.RenderBest(context.Background(), RenderRequest{RunID: summary.RunID})
	require.NoError(t, err)
	assert.Len(t, rec.Genes, 8)
	oracle, err := fitness.NewOracle(gradient(16, 12))
	require.NoError(t, err)
	score, err := oracle.Score(img)
	require.NoError(t, err)
	assert.InDelta(t, summary.BestFitness, score, 1e-9)

	big, _, err := client.RenderBest(context.Background(), RenderRequest{Latest: true, Width: 64})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 48), big.Bounds())
}

func TestClientRunCancelled(t *testing.T) {
	client := newMemoryClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := client.Run(ctx, RunRequest{TargetImage: gradient(4, 4), Population: 2, GenomeLength: 1, MaxGenerations: 3})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "cancelled", summary.State)

	runs, err := client.Runs(context.Background(), RunsRequest{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "cancelled", runs[0].State)
}

func TestClientRunFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "target.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, gradient(40, 20)))
	require.NoError(t, f.Close())

	client := newMemoryClient(t)
	summary, err := client.Run(context.Background(), RunRequest{
		TargetPath:     path,
		MaxDimension:   10,
		Population:     3,
		GenomeLength:   2,
		Selection:      "window",
		MutationPolicy: "uniform",
		Mutations:      3,
		MaxGenerations: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 10, 5), summary.Best.Bounds())
}

func TestClientRunValidation(t *testing.T) {
	client := newMemoryClient(t)
	ctx := context.Background()

	_, err := client.Run(ctx, RunRequest{})
	assert.ErrorIs(t, err, fitness.ErrUninitializedTarget)

	_, err = client.Run(ctx, RunRequest{TargetImage: gradient(2, 2), Selection: "roulette"})
	assert.Error(t, err)
	_, err = client.Run(ctx, RunRequest{TargetImage: gradient(2, 2), Background: "not-a-color"})
	assert.Error(t, err)
	_, err = client.Run(ctx, RunRequest{TargetImage: gradient(2, 2), Layout: "hexagon"})
	assert.Error(t, err)
}

func TestClientLookupErrors(t *testing.T) {
	client := newMemoryClient(t)
	ctx := context.Background()

	_, err := client.History(ctx, HistoryRequest{Latest: true})
	assert.ErrorIs(t, err, ErrNoRuns)
	_, err = client.History(ctx, HistoryRequest{})
	assert.Error(t, err)
	_, _, err = client.RenderBest(ctx, RenderRequest{RunID: "missing"})
	assert.Error(t, err)
}

func TestClientChart(t *testing.T) {
	client := newMemoryClient(t)
	_, err := client.Run(context.Background(), RunRequest{TargetImage: gradient(6, 6), Population: 3, GenomeLength: 2, MaxGenerations: 3})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "chart.png")
	got, err := client.Chart(context.Background(), ChartRequest{Latest: true, Path: path})
	require.NoError(t, err)
	assert.Equal(t, path, got)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestClientExport(t *testing.T) {
	client := newMemoryClient(t)
	summary, err := client.Run(context.Background(), RunRequest{TargetImage: gradient(6, 4), Population: 3, GenomeLength: 2, MaxGenerations: 2})
	require.NoError(t, err)

	out := t.TempDir()
	dir, err := client.Export(context.Background(), ExportRequest{Latest: true, OutDir: out})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, summary.RunID), dir)
	for _, name := range []string{"run.json", "summary.json", "history.csv", "best_genome.json", "best.png"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	f, err := os.Open(filepath.Join(dir, "best.png"))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 6, 4), img.Bounds())

	_, err = client.Export(context.Background(), ExportRequest{RunID: "missing", OutDir: out})
	assert.Error(t, err)
}

func TestGenomeRecordConversion(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 5^0x9e3779b97f4a7c15))
	for _, layout := range []genotype.Layout{genotype.LayoutTriangle, genotype.LayoutPolar} {
		genome := genotype.NewGenome(rng, genotype.GenomeConfig{Length: 4, Gene: genotype.GeneConfig{Layout: layout}})
		rec := model.GenomeRecord{}
		for _, g := range genome.Genes {
			rec.Genes = append(rec.Genes, geneRecord(g))
		}
		back, err := genomeFromRecord(rec)
		require.NoError(t, err)
		assert.Equal(t, genome, back)
	}

	_, err := genomeFromRecord(model.GenomeRecord{Genes: []model.GeneRecord{{Layout: "polar"}}})
	assert.Error(t, err)
	_, err = genomeFromRecord(model.GenomeRecord{Genes: []model.GeneRecord{{Layout: "triangle", Vertices: []model.Point{{}}}}})
	assert.Error(t, err)
}

func TestRenderSize(t *testing.T) {
	cases := []struct {
		srcW, srcH, w, h int
		wantW, wantH     int
	}{
		{32, 24, 0, 0, 32, 24},
		{32, 24, 64, 0, 64, 48},
		{32, 24, 0, 12, 16, 12},
		{32, 24, 10, 10, 10, 10},
	}
	for _, tc := range cases {
		w, h := renderSize(tc.srcW, tc.srcH, tc.w, tc.h)
		assert.Equal(t, tc.wantW, w)
		assert.Equal(t, tc.wantH, h)
	}
}
