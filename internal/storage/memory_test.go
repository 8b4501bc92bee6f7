package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagelife/internal/model"
)

func TestMemoryStoreJournal(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	assert.ErrorIs(t, store.SaveRun(ctx, model.RunRecord{ID: "r"}), ErrNotInitialized)
	_, err := store.ListRuns(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestMemoryStoreInitIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Init(ctx))
	require.NoError(t, store.SaveRun(ctx, sampleRun("r", time.Now())))
	require.NoError(t, store.Init(ctx))

	_, ok, err := store.GetRun(ctx, "r")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStoreGenerationsAreCopied(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Init(ctx))
	require.NoError(t, store.AppendGeneration(ctx, "r", model.GenerationRecord{Generation: 1, Best: 3}))

	gens, _, err := store.GetGenerations(ctx, "r")
	require.NoError(t, err)
	gens[0].Best = 99

	again, _, err := store.GetGenerations(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, 3.0, again[0].Best)
}
