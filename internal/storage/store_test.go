package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagelife/internal/model"
)

func sampleRun(id string, started time.Time) model.RunRecord {
	return model.RunRecord{
		VersionedRecord: Versioned(),
		ID:              id,
		Target:          "target.png",
		Width:           32,
		Height:          24,
		Config: model.RunConfig{
			Population:   8,
			Survivors:    8,
			GenomeLength: 50,
			Layout:       "triangle",
			Selection:    "beta",
			Seed:         42,
		},
		StartedAt: started.UTC(),
		State:     "running",
	}
}

func sampleGenome(runID string) model.GenomeRecord {
	return model.GenomeRecord{
		VersionedRecord: Versioned(),
		RunID:           runID,
		IndividualID:    "g3-1",
		Parents:         []string{"g2-0", "g2-4"},
		Generation:      3,
		Fitness:         12.5,
		Width:           32,
		Height:          24,
		Background:      "black",
		Genes: []model.GeneRecord{
			{Color: [3]float64{0.1, 0.2, 0.3}, Alpha: 0.4, Depth: 0.5, Layout: "triangle", Vertices: []model.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}},
			{Color: [3]float64{0.9, 0.8, 0.7}, Alpha: 0.2, Depth: 0.1, Layout: "polar", Center: &model.Point{X: 0.5, Y: 0.5}, Angles: []float64{0, 0.3, 0.6}, Radius: 0.25},
		},
	}
}

// exerciseStore runs the journal contract every backend must satisfy.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Init(ctx))

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	older := sampleRun("run-old", base)
	newer := sampleRun("run-new", base.Add(time.Hour))
	require.NoError(t, store.SaveRun(ctx, older))
	require.NoError(t, store.SaveRun(ctx, newer))

	got, ok, err := store.GetRun(ctx, "run-old")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, older.Config, got.Config)
	assert.True(t, older.StartedAt.Equal(got.StartedAt))

	_, ok, err = store.GetRun(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-new", runs[0].ID)
	assert.Equal(t, "run-old", runs[1].ID)

	older.State = "converged"
	older.Generations = 3
	require.NoError(t, store.SaveRun(ctx, older))
	got, _, err = store.GetRun(ctx, "run-old")
	require.NoError(t, err)
	assert.Equal(t, "converged", got.State)

	for g := 1; g <= 3; g++ {
		require.NoError(t, store.AppendGeneration(ctx, "run-old", model.GenerationRecord{Generation: g, Best: float64(10 - g)}))
	}
	gens, ok, err := store.GetGenerations(ctx, "run-old")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, gens, 3)
	assert.Equal(t, 1, gens[0].Generation)
	assert.Equal(t, 7.0, gens[2].Best)

	_, ok, err = store.GetGenerations(ctx, "run-new")
	require.NoError(t, err)
	assert.False(t, ok)

	genome := sampleGenome("run-old")
	require.NoError(t, store.SaveBestGenome(ctx, genome))
	loaded, ok, err := store.GetBestGenome(ctx, "run-old")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, genome.Genes, loaded.Genes)
	assert.Equal(t, genome.Parents, loaded.Parents)

	require.NoError(t, store.DeleteRun(ctx, "run-old"))
	_, ok, err = store.GetRun(ctx, "run-old")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = store.GetBestGenome(ctx, "run-old")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = store.GetGenerations(ctx, "run-old")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Error(t, store.SaveRun(ctx, model.RunRecord{}))
}
