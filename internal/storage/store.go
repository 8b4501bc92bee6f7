package storage

import (
	"context"
	"errors"

	"imagelife/internal/model"
)

var ErrNotInitialized = errors.New("store is not initialized")

// Store persists the run journal: run records, per-generation summaries and
// the best genome of each run.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	// ListRuns returns every run, most recently started first.
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	DeleteRun(ctx context.Context, id string) error
	AppendGeneration(ctx context.Context, runID string, record model.GenerationRecord) error
	GetGenerations(ctx context.Context, runID string) ([]model.GenerationRecord, bool, error)
	SaveBestGenome(ctx context.Context, record model.GenomeRecord) error
	GetBestGenome(ctx context.Context, runID string) (model.GenomeRecord, bool, error)
}

// Versioned stamps the current schema and codec versions.
func Versioned() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}
