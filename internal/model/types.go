package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunConfig is the reproducible part of a run's configuration.
type RunConfig struct {
	Population     int     `json:"population"`
	Survivors      int     `json:"survivors"`
	GenomeLength   int     `json:"genome_length"`
	Layout         string  `json:"layout"`
	Skew           float64 `json:"skew"`
	Selection      string  `json:"selection"`
	MutationPolicy string  `json:"mutation_policy"`
	Mutations      float64 `json:"mutations"`
	Threshold      float64 `json:"threshold"`
	MaxGenerations int     `json:"max_generations"`
	Seed           uint64  `json:"seed"`
	Background     string  `json:"background"`
}

type RunRecord struct {
	VersionedRecord
	ID          string    `json:"id"`
	Target      string    `json:"target"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Config      RunConfig `json:"config"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at,omitempty"`
	Generations int       `json:"generations"`
	BestFitness float64   `json:"best_fitness"`
	State       string    `json:"state"`
}

// GenerationRecord is one per-generation fitness summary.
type GenerationRecord struct {
	Generation int     `json:"generation"`
	ElapsedMS  int64   `json:"elapsed_ms"`
	Best       float64 `json:"best"`
	Second     float64 `json:"second"`
	Third      float64 `json:"third"`
	Worst      float64 `json:"worst"`
	Mean       float64 `json:"mean"`
	Population int     `json:"population"`
	BestID     string  `json:"best_id"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type GeneRecord struct {
	Color    [3]float64 `json:"color"`
	Alpha    float64    `json:"alpha"`
	Depth    float64    `json:"depth"`
	Layout   string     `json:"layout"`
	Vertices []Point    `json:"vertices,omitempty"`
	Center   *Point     `json:"center,omitempty"`
	Angles   []float64  `json:"angles,omitempty"`
	Radius   float64    `json:"radius,omitempty"`
}

// GenomeRecord snapshots the best individual of a run. Coordinates are
// normalized, so the genome can be rendered at any size.
type GenomeRecord struct {
	VersionedRecord
	RunID        string       `json:"run_id"`
	IndividualID string       `json:"individual_id"`
	Parents      []string     `json:"parents,omitempty"`
	Generation   int          `json:"generation"`
	Fitness      float64      `json:"fitness"`
	Width        int          `json:"width"`
	Height       int          `json:"height"`
	Background   string       `json:"background"`
	Genes        []GeneRecord `json:"genes"`
}
