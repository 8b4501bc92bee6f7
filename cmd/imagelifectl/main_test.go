package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagelife/pkg/imagelife"
)

func writeTarget(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(10 * x), G: uint8(20 * y), B: 128, A: 255})
		}
	}
	path := filepath.Join(dir, "target.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func decodePNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	return img
}

func TestRunRequiresCommand(t *testing.T) {
	err := run(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing command")
	assert.Contains(t, err.Error(), "usage: imagelifectl")
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	err := run(context.Background(), []string{"evolve"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command: evolve")
}

func TestRunCommandWritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	target := writeTarget(t, dir, 20, 10)
	out := filepath.Join(dir, "best.png")
	chart := filepath.Join(dir, "chart.png")

	err := run(context.Background(), []string{
		"run",
		"--store", "memory",
		"--display", "none",
		"--pop", "4",
		"--genome", "3",
		"--gens", "3",
		"--workers", "2",
		"--seed", "5",
		"--quiet",
		"--out", out,
		"--chart", chart,
		target,
	})
	require.NoError(t, err)

	best := decodePNG(t, out)
	assert.Equal(t, image.Rect(0, 0, 20, 10), best.Bounds())
	info, err := os.Stat(chart)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRunCommandReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	target := writeTarget(t, dir, 40, 20)
	out := filepath.Join(dir, "best.png")
	cfg := writeConfig(t, `
target = "`+filepath.ToSlash(target)+`"
population = 3
genome_length = 2
max_generations = 2
max_dimension = 10
display = "none"
selection = "hillclimb"
`)

	err := run(context.Background(), []string{
		"run",
		"--store", "memory",
		"--config", cfg,
		"--quiet",
		"--out", out,
	})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 10, 5), decodePNG(t, out).Bounds())
}

func TestRunCommandSnapshotMirrorsFrames(t *testing.T) {
	dir := t.TempDir()
	target := writeTarget(t, dir, 8, 8)
	snapshot := filepath.Join(dir, "live.png")

	err := run(context.Background(), []string{
		"run",
		"--store", "memory",
		"--display", "none",
		"--snapshot", snapshot,
		"--pop", "2",
		"--genome", "2",
		"--gens", "2",
		"--quiet",
		target,
	})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 8), decodePNG(t, snapshot).Bounds())
}

func TestRunCommandCancelledBeforeStartIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	target := writeTarget(t, dir, 8, 8)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := run(ctx, []string{
		"run",
		"--store", "memory",
		"--display", "none",
		"--pop", "2",
		"--genome", "2",
		"--quiet",
		target,
	})
	require.NoError(t, err)
}

func TestRunCommandValidation(t *testing.T) {
	dir := t.TempDir()
	target := writeTarget(t, dir, 8, 8)

	cases := []struct {
		name string
		args []string
		want string
	}{
		{name: "no target", args: []string{"run", "--display", "none"}, want: "target image is required"},
		{name: "bad display", args: []string{"run", "--display", "hologram", target}, want: "unsupported display"},
		{name: "bad selection", args: []string{"run", "--display", "none", "--gens", "1", "--selection", "roulette", target}, want: "unsupported selection"},
		{name: "bad log level", args: []string{"run", "--display", "none", "--log-level", "loud", target}, want: "invalid log level"},
		{name: "bad store", args: []string{"run", "--display", "none", "--store", "etcd", target}, want: "unsupported store backend"},
		{name: "missing target file", args: []string{"run", "--display", "none", "--gens", "1", filepath.Join(dir, "absent.png")}, want: "load target"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := run(context.Background(), tc.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestQueryCommandsRequireRunSelection(t *testing.T) {
	for _, cmd := range []string{"history", "best", "chart", "export"} {
		t.Run(cmd, func(t *testing.T) {
			err := run(context.Background(), []string{cmd, "--store", "memory"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "--run-id or --latest")
		})
	}
}

func TestQueryCommandsOnEmptyStore(t *testing.T) {
	err := run(context.Background(), []string{"history", "--store", "memory", "--latest"})
	require.ErrorIs(t, err, imagelife.ErrNoRuns)

	err = run(context.Background(), []string{"best", "--store", "memory", "--run-id", "missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")

	err = run(context.Background(), []string{"runs", "--limit", "0"})
	require.Error(t, err)
}

func TestBestRejectsNegativeSize(t *testing.T) {
	err := run(context.Background(), []string{"best", "--store", "memory", "--latest", "--width", "-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be >= 0")
}

func TestWriteRunsText(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	items := []imagelife.RunItem{
		{
			RunID:        "run-b",
			Target:       "mona.png",
			StartedAt:    now.Add(-2 * time.Hour),
			FinishedAt:   now.Add(-2*time.Hour + 1500*time.Millisecond),
			Population:   50,
			GenomeLength: 40,
			Generations:  1200,
			BestFitness:  12.5,
			State:        "converged",
		},
		{
			RunID:        "run-a",
			Target:       "flag.png",
			StartedAt:    now.Add(-3 * time.Hour),
			Population:   10,
			GenomeLength: 5,
			State:        "running",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, writeRuns(&buf, items, false, now))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `run_id=run-b started="2 hours ago" target=mona.png pop=50 genome=40 gens=1200 best_fitness=12.500000 state=converged duration=1.5s`, lines[0])
	assert.Contains(t, lines[1], "duration=n/a")
}

func TestWriteRunsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRuns(&buf, nil, false, time.Now()))
	assert.Equal(t, "no runs found\n", buf.String())
}

func TestWriteRunsJSON(t *testing.T) {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	items := []imagelife.RunItem{{RunID: "run-a", Target: "flag.png", StartedAt: started, Population: 10, State: "running"}}

	var buf bytes.Buffer
	require.NoError(t, writeRuns(&buf, items, true, started))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "run-a", decoded[0]["run_id"])
	assert.Equal(t, "2026-03-01T10:00:00Z", decoded[0]["started_at_utc"])
	assert.NotContains(t, decoded[0], "finished_at_utc")
}

func TestConfigureLogging(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, configureLogging("info", &buf))
	t.Cleanup(func() { _ = configureLogging("warn", os.Stderr) })
	require.Error(t, configureLogging("chatty", &buf))
}
