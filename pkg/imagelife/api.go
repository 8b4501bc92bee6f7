// Package imagelife is the programmatic entry point: it loads a target,
// runs the evolver and keeps a journal of runs in a store.
package imagelife

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/google/uuid"

	"imagelife/internal/evo"
	"imagelife/internal/fitness"
	"imagelife/internal/genotype"
	"imagelife/internal/logging"
	"imagelife/internal/model"
	"imagelife/internal/raster"
	"imagelife/internal/stats"
	"imagelife/internal/storage"
)

const (
	defaultDBPath       = "imagelife.db"
	defaultPopulation   = 50
	defaultGenomeLength = 50
	defaultMaxDimension = 128
	defaultBackground   = "black"
	defaultExportDir    = "exports"
)

var ErrNoRuns = errors.New("no runs recorded")

type Options struct {
	StoreKind string
	DBPath    string
}

type Client struct {
	store storage.Store
}

type RunRequest struct {
	// Target is decoded from TargetPath unless TargetImage is set.
	TargetPath   string
	TargetImage  image.Image
	MaxDimension int

	Population     int
	Survivors      int
	GenomeLength   int
	Layout         string
	Skew           float64
	Selection      string
	MutationPolicy string
	// Mutations is the policy parameter: the count for const, the maximum
	// for uniform, the fraction for proportional.
	Mutations   float64
	MutationMax int

	Threshold       float64
	MaxGenerations  int
	Workers         int
	Seed            uint64
	Background      string
	RefreshInterval time.Duration

	Display  evo.Display
	Progress io.Writer
}

type RunSummary struct {
	RunID       string
	Generations int
	BestFitness float64
	State       string
	Elapsed     time.Duration
	Best        image.Image
	History     []evo.GenerationReport
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID        string
	Target       string
	StartedAt    time.Time
	FinishedAt   time.Time
	Population   int
	GenomeLength int
	Generations  int
	BestFitness  float64
	State        string
}

type HistoryRequest struct {
	RunID  string
	Latest bool
}

type HistoryResult struct {
	RunID       string
	Generations []model.GenerationRecord
	Summary     stats.HistorySummary
}

type RenderRequest struct {
	RunID  string
	Latest bool
	// Width and Height default to the run's target size. Setting only one
	// keeps the aspect ratio.
	Width  int
	Height int
}

type ChartRequest struct {
	RunID  string
	Latest bool
	Path   string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

// Run evolves an approximation of the request's target. The run record,
// every generation and the final best genome are journaled, also when the
// run is cancelled.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if err := c.store.Init(ctx); err != nil {
		return RunSummary{}, err
	}
	req = withRunDefaults(req)

	target, label, err := loadTarget(req)
	if err != nil {
		return RunSummary{}, err
	}
	background, err := raster.ParseColor(req.Background)
	if err != nil {
		return RunSummary{}, err
	}
	oracle, err := fitness.NewOracle(target)
	if err != nil {
		return RunSummary{}, err
	}
	layout, err := genotype.ParseLayout(req.Layout)
	if err != nil {
		return RunSummary{}, err
	}
	selector, err := evo.SelectorFromName(req.Selection)
	if err != nil {
		return RunSummary{}, err
	}
	policy, err := genotype.PolicyFromName(req.MutationPolicy, req.Mutations, req.MutationMax)
	if err != nil {
		return RunSummary{}, err
	}
	geneCfg := genotype.GeneConfig{Layout: layout, Skew: req.Skew}

	runID := uuid.NewString()
	w, h := oracle.Size()
	started := time.Now().UTC()
	record := model.RunRecord{
		VersionedRecord: storage.Versioned(),
		ID:              runID,
		Target:          label,
		Width:           w,
		Height:          h,
		Config: model.RunConfig{
			Population:     req.Population,
			Survivors:      req.Survivors,
			GenomeLength:   req.GenomeLength,
			Layout:         layout.String(),
			Skew:           req.Skew,
			Selection:      selector.Name(),
			MutationPolicy: policy.Name(),
			Mutations:      req.Mutations,
			Threshold:      req.Threshold,
			MaxGenerations: req.MaxGenerations,
			Seed:           req.Seed,
			Background:     req.Background,
		},
		StartedAt: started,
		State:     evo.StateRunning.String(),
	}
	if err := c.store.SaveRun(ctx, record); err != nil {
		return RunSummary{}, fmt.Errorf("save run %s: %w", runID, err)
	}

	// The journal outlives a cancelled run context.
	journalCtx := context.WithoutCancel(ctx)
	reporters := []evo.Reporter{evo.ReporterFunc(func(r evo.GenerationReport) error {
		return c.store.AppendGeneration(journalCtx, runID, generationRecord(r))
	})}
	if req.Progress != nil {
		reporters = append(reporters, evo.ConsoleReporter{W: req.Progress})
	}

	var stops []evo.StopPredicate
	if req.Threshold > 0 {
		stops = append(stops, evo.FitnessBelow(req.Threshold))
	}
	if req.MaxGenerations > 0 {
		stops = append(stops, evo.MaxGenerations(req.MaxGenerations))
	}

	evolver, err := evo.NewEvolver(evo.Config{
		Oracle:          oracle,
		Genome:          genotype.GenomeConfig{Length: req.GenomeLength, Gene: geneCfg},
		PopulationSize:  req.Population,
		SurvivorCount:   req.Survivors,
		Selector:        selector,
		Mutator:         genotype.PointMutator{Policy: policy, Gene: geneCfg},
		Stop:            evo.AnyOf(stops...),
		Workers:         req.Workers,
		Seed:            req.Seed,
		Background:      background,
		Display:         req.Display,
		RefreshInterval: req.RefreshInterval,
		Reporters:       reporters,
	})
	if err != nil {
		return RunSummary{}, err
	}

	logging.Logger().Info("run started", "run_id", runID, "target", label, "width", w, "height", h, "seed", req.Seed)
	result, runErr := evolver.Run(ctx)

	record.FinishedAt = time.Now().UTC()
	record.Generations = result.Generations
	record.State = result.State.String()
	if runErr != nil && !errors.Is(runErr, ctx.Err()) {
		record.State = "failed"
	}
	summary := RunSummary{
		RunID:       runID,
		Generations: result.Generations,
		State:       record.State,
		Elapsed:     record.FinishedAt.Sub(started),
		History:     result.History,
	}
	if result.Best != nil {
		if best, err := result.Best.Fitness(); err == nil {
			record.BestFitness = best
			summary.BestFitness = best
		}
		summary.Best = result.Best.Image()
		snapshot, err := genomeRecord(runID, result.Generations, result.Best, req.Background)
		if err == nil {
			err = c.store.SaveBestGenome(journalCtx, snapshot)
		}
		if err != nil && runErr == nil {
			runErr = fmt.Errorf("save best genome of run %s: %w", runID, err)
		}
	}
	if err := c.store.SaveRun(journalCtx, record); err != nil && runErr == nil {
		runErr = fmt.Errorf("save run %s: %w", runID, err)
	}
	logging.Logger().Info("run finished", "run_id", runID, "state", record.State, "generations", record.Generations, "best", record.BestFitness)
	return summary, runErr
}

func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if err := c.store.Init(ctx); err != nil {
		return nil, err
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if req.Limit > 0 && len(runs) > req.Limit {
		runs = runs[:req.Limit]
	}
	items := make([]RunItem, 0, len(runs))
	for _, r := range runs {
		items = append(items, RunItem{
			RunID:        r.ID,
			Target:       r.Target,
			StartedAt:    r.StartedAt,
			FinishedAt:   r.FinishedAt,
			Population:   r.Config.Population,
			GenomeLength: r.Config.GenomeLength,
			Generations:  r.Generations,
			BestFitness:  r.BestFitness,
			State:        r.State,
		})
	}
	return items, nil
}

func (c *Client) History(ctx context.Context, req HistoryRequest) (HistoryResult, error) {
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return HistoryResult{}, err
	}
	records, ok, err := c.store.GetGenerations(ctx, runID)
	if err != nil {
		return HistoryResult{}, err
	}
	if !ok {
		return HistoryResult{}, fmt.Errorf("no generations recorded for run %s", runID)
	}
	return HistoryResult{RunID: runID, Generations: records, Summary: stats.Summarize(records)}, nil
}

// RenderBest repaints the stored best genome of a run at the requested size.
func (c *Client) RenderBest(ctx context.Context, req RenderRequest) (image.Image, model.GenomeRecord, error) {
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return nil, model.GenomeRecord{}, err
	}
	rec, ok, err := c.store.GetBestGenome(ctx, runID)
	if err != nil {
		return nil, model.GenomeRecord{}, err
	}
	if !ok {
		return nil, model.GenomeRecord{}, fmt.Errorf("no best genome recorded for run %s", runID)
	}
	genome, err := genomeFromRecord(rec)
	if err != nil {
		return nil, rec, fmt.Errorf("run %s: %w", runID, err)
	}

	w, h := renderSize(rec.Width, rec.Height, req.Width, req.Height)
	if w <= 0 || h <= 0 {
		return nil, rec, fmt.Errorf("invalid render size %dx%d", w, h)
	}
	background := defaultBackground
	if rec.Background != "" {
		background = rec.Background
	}
	bg, err := raster.ParseColor(background)
	if err != nil {
		return nil, rec, err
	}
	surface := raster.NewSurface(w, h)
	surface.Clear(bg)
	genome.Render(surface)
	return surface.Image(), rec, nil
}

func (c *Client) Chart(ctx context.Context, req ChartRequest) (string, error) {
	history, err := c.History(ctx, HistoryRequest{RunID: req.RunID, Latest: req.Latest})
	if err != nil {
		return "", err
	}
	path := req.Path
	if path == "" {
		path = history.RunID + "-fitness.png"
	}
	if err := stats.WriteFitnessChart(path, "run "+history.RunID, history.Generations); err != nil {
		return "", err
	}
	return path, nil
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

// Export writes a run's record, history, best genome and rendered best image
// under OutDir and returns the run's directory.
func (c *Client) Export(ctx context.Context, req ExportRequest) (string, error) {
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return "", err
	}
	run, _, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return "", err
	}
	generations, _, err := c.store.GetGenerations(ctx, runID)
	if err != nil {
		return "", err
	}
	exp := stats.RunExport{Run: run, Generations: generations}
	if _, ok, err := c.store.GetBestGenome(ctx, runID); err != nil {
		return "", err
	} else if ok {
		img, rec, err := c.RenderBest(ctx, RenderRequest{RunID: runID})
		if err != nil {
			return "", err
		}
		exp.Genome = &rec
		exp.Image = img
	}
	outDir := req.OutDir
	if outDir == "" {
		outDir = defaultExportDir
	}
	return stats.WriteRunExport(outDir, exp)
}

func (c *Client) resolveRunID(ctx context.Context, runID string, latest bool) (string, error) {
	if err := c.store.Init(ctx); err != nil {
		return "", err
	}
	if runID != "" {
		if _, ok, err := c.store.GetRun(ctx, runID); err != nil {
			return "", err
		} else if !ok {
			return "", fmt.Errorf("run not found: %s", runID)
		}
		return runID, nil
	}
	if !latest {
		return "", fmt.Errorf("run id is required (or use latest)")
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", ErrNoRuns
	}
	return runs[0].ID, nil
}

func withRunDefaults(req RunRequest) RunRequest {
	if req.MaxDimension == 0 {
		req.MaxDimension = defaultMaxDimension
	}
	if req.Population <= 0 {
		req.Population = defaultPopulation
	}
	if req.Survivors <= 0 {
		req.Survivors = req.Population
	}
	if req.GenomeLength <= 0 {
		req.GenomeLength = defaultGenomeLength
	}
	if req.Mutations <= 0 {
		req.Mutations = 1
	}
	if req.Workers <= 0 {
		req.Workers = 4
	}
	if req.Background == "" {
		req.Background = defaultBackground
	}
	return req
}

func loadTarget(req RunRequest) (*image.RGBA, string, error) {
	if req.TargetImage != nil {
		return raster.Fit(req.TargetImage, req.MaxDimension), "<image>", nil
	}
	if req.TargetPath == "" {
		return nil, "", fmt.Errorf("target image is required: %w", fitness.ErrUninitializedTarget)
	}
	img, err := raster.LoadTarget(req.TargetPath, req.MaxDimension)
	if err != nil {
		return nil, "", fmt.Errorf("load target: %w", err)
	}
	return img, req.TargetPath, nil
}

func renderSize(srcW, srcH, w, h int) (int, int) {
	switch {
	case w > 0 && h > 0:
		return w, h
	case w > 0 && srcW > 0:
		return w, max(1, srcH*w/srcW)
	case h > 0 && srcH > 0:
		return max(1, srcW*h/srcH), h
	default:
		return srcW, srcH
	}
}
