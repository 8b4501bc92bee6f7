package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"imagelife/internal/display"
	"imagelife/internal/evo"
	"imagelife/internal/logging"
	"imagelife/internal/stats"
	"imagelife/internal/storage"
	"imagelife/pkg/imagelife"
)

const defaultDBPath = "imagelife.db"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "history":
		return runHistory(ctx, args[1:])
	case "best":
		return runBest(ctx, args[1:])
	case "chart":
		return runChart(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config TOML path")
	target := fs.String("target", "", "target image path (png, jpeg, gif, bmp, tiff, webp)")
	population := fs.Int("pop", 50, "population size")
	survivors := fs.Int("survivors", 0, "individuals kept after truncation (0 keeps pop)")
	genomeLength := fs.Int("genome", 50, "genes per genome")
	layout := fs.String("layout", "triangle", "gene layout: triangle|polar")
	skew := fs.Float64("skew", 3, "beta parameter for alpha and radius draws (0 draws uniformly)")
	selection := fs.String("selection", "beta", "parent selection: beta|window|hillclimb")
	mutationPolicy := fs.String("mutation-policy", "const", "mutation count policy: const|uniform|proportional")
	mutations := fs.Float64("mutations", 1, "policy parameter: count (const), max (uniform), fraction (proportional)")
	mutationMax := fs.Int("mutation-max", 0, "cap for the proportional policy (<=0 disables cap)")
	threshold := fs.Float64("threshold", 0, "stop once best fitness drops below this (0 disables)")
	generations := fs.Int("gens", 0, "stop after this many generations (0 disables)")
	workers := fs.Int("workers", 4, "render and score workers")
	seed := fs.Uint64("seed", 1, "rng seed")
	maxDim := fs.Int("max-dim", 128, "downscale the target so its longer side is at most this (0 keeps size)")
	background := fs.String("background", "black", "canvas background color name or #rrggbb")
	refreshMS := fs.Int("refresh-ms", int(evo.DefaultRefreshInterval/time.Millisecond), "display refresh interval in milliseconds")
	displayKind := fs.String("display", display.KindAuto, "display: auto|none|terminal|window")
	scale := fs.Int("scale", 4, "window scale factor")
	snapshot := fs.String("snapshot", "", "mirror displayed frames to this PNG (display none)")
	outPath := fs.String("out", "", "write the final best image to this PNG")
	chartPath := fs.String("chart", "", "write a fitness chart PNG after the run")
	quiet := fs.Bool("quiet", false, "suppress per-generation lines")
	logLevel := fs.String("log-level", "warn", "log level: debug|info|warn|error")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	opts := runOptions{
		Target:         *target,
		Population:     *population,
		Survivors:      *survivors,
		GenomeLength:   *genomeLength,
		Layout:         *layout,
		Skew:           *skew,
		Selection:      *selection,
		MutationPolicy: *mutationPolicy,
		Mutations:      *mutations,
		MutationMax:    *mutationMax,
		Threshold:      *threshold,
		MaxGenerations: *generations,
		Workers:        *workers,
		Seed:           *seed,
		MaxDimension:   *maxDim,
		Background:     *background,
		RefreshMS:      *refreshMS,
		Display:        *displayKind,
	}
	if *configPath != "" {
		fileOpts, err := loadRunOptions(*configPath, opts)
		if err != nil {
			return err
		}
		overrideFromFlags(&fileOpts, opts, setFlags)
		opts = fileOpts
	}
	if opts.Target == "" && fs.NArg() > 0 {
		opts.Target = fs.Arg(0)
	}
	if err := opts.validate(); err != nil {
		return usageError(err.Error())
	}
	if err := configureLogging(*logLevel, os.Stderr); err != nil {
		return err
	}

	client, err := imagelife.New(imagelife.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	host, err := display.New(opts.Display, display.Options{
		Title:        "imagelife " + filepath.Base(opts.Target),
		Scale:        *scale,
		SnapshotPath: *snapshot,
	})
	if err != nil {
		return err
	}

	req := opts.request()
	req.Display = host
	// The terminal display owns the screen; progress lines would tear it.
	if _, fullscreen := host.(*display.Terminal); !fullscreen && !*quiet {
		req.Progress = os.Stdout
	}

	var summary imagelife.RunSummary
	runErr := host.Serve(ctx, func(ctx context.Context) error {
		var err error
		summary, err = client.Run(ctx, req)
		return err
	})
	if err := host.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if summary.RunID == "" {
		return runErr
	}

	fmt.Printf("run_id=%s\n", summary.RunID)
	fmt.Printf("state=%s generations=%s best_fitness=%.6f elapsed=%s\n",
		summary.State,
		humanize.Comma(int64(summary.Generations)),
		summary.BestFitness,
		summary.Elapsed.Round(time.Millisecond),
	)

	// Artifacts are written even after an interrupt.
	afterCtx := context.WithoutCancel(ctx)
	if *outPath != "" && summary.Best != nil {
		if err := display.WritePNG(*outPath, summary.Best); err != nil {
			return err
		}
		fmt.Printf("best_image=%s\n", *outPath)
	}
	if *chartPath != "" && summary.Generations > 0 {
		path, err := client.Chart(afterCtx, imagelife.ChartRequest{RunID: summary.RunID, Path: *chartPath})
		if err != nil {
			return err
		}
		fmt.Printf("chart=%s\n", path)
	}
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := imagelife.New(imagelife.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	items, err := client.Runs(ctx, imagelife.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	return writeRuns(os.Stdout, items, *jsonOut, time.Now())
}

func writeRuns(w io.Writer, items []imagelife.RunItem, asJSON bool, now time.Time) error {
	if asJSON {
		type runsItem struct {
			RunID         string    `json:"run_id"`
			Target        string    `json:"target"`
			StartedAtUTC  time.Time `json:"started_at_utc"`
			FinishedAtUTC time.Time `json:"finished_at_utc,omitzero"`
			Population    int       `json:"population"`
			GenomeLength  int       `json:"genome_length"`
			Generations   int       `json:"generations"`
			BestFitness   float64   `json:"best_fitness"`
			State         string    `json:"state"`
		}
		out := make([]runsItem, 0, len(items))
		for _, it := range items {
			out = append(out, runsItem{
				RunID:         it.RunID,
				Target:        it.Target,
				StartedAtUTC:  it.StartedAt.UTC(),
				FinishedAtUTC: it.FinishedAt.UTC(),
				Population:    it.Population,
				GenomeLength:  it.GenomeLength,
				Generations:   it.Generations,
				BestFitness:   it.BestFitness,
				State:         it.State,
			})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "no runs found")
		return err
	}
	for _, it := range items {
		duration := "n/a"
		if !it.FinishedAt.IsZero() {
			duration = it.FinishedAt.Sub(it.StartedAt).Round(time.Millisecond).String()
		}
		if _, err := fmt.Fprintf(w, "run_id=%s started=%q target=%s pop=%d genome=%d gens=%d best_fitness=%.6f state=%s duration=%s\n",
			it.RunID,
			humanize.RelTime(it.StartedAt, now, "ago", "from now"),
			it.Target,
			it.Population,
			it.GenomeLength,
			it.Generations,
			it.BestFitness,
			it.State,
			duration,
		); err != nil {
			return err
		}
	}
	return nil
}

func runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run")
	csvPath := fs.String("csv", "", "write the generation history to this CSV file")
	limit := fs.Int("limit", 0, "print only the last N generations (0 prints none)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" && !*latest {
		return errors.New("history requires --run-id or --latest")
	}

	client, err := imagelife.New(imagelife.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.History(ctx, imagelife.HistoryRequest{RunID: *runID, Latest: *latest})
	if err != nil {
		return err
	}

	s := history.Summary
	fmt.Printf("run_id=%s generations=%d first_best=%.6f final_best=%.6f improvement=%.6f mean_best=%.6f std_best=%.6f stalled=%d\n",
		history.RunID, s.Generations, s.FirstBest, s.FinalBest, s.Improvement, s.MeanBest, s.StdBest, s.Stalled)
	if *limit > 0 {
		records := history.Generations
		if len(records) > *limit {
			records = records[len(records)-*limit:]
		}
		for _, r := range records {
			fmt.Printf("generation=%d elapsed_ms=%d best=%.4f second=%.4f third=%.4f worst=%.4f mean=%.4f\n",
				r.Generation, r.ElapsedMS, r.Best, r.Second, r.Third, r.Worst, r.Mean)
		}
	}
	if *csvPath != "" {
		f, err := os.Create(*csvPath)
		if err != nil {
			return err
		}
		if err := stats.WriteHistoryCSV(f, history.Generations); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("csv=%s\n", *csvPath)
	}
	return nil
}

func runBest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("best", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run")
	outPath := fs.String("out", "", "output PNG path (default <run-id>-best.png)")
	width := fs.Int("width", 0, "render width (0 keeps the target size or aspect)")
	height := fs.Int("height", 0, "render height (0 keeps the target size or aspect)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" && !*latest {
		return errors.New("best requires --run-id or --latest")
	}
	if *width < 0 || *height < 0 {
		return errors.New("width and height must be >= 0")
	}

	client, err := imagelife.New(imagelife.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	img, rec, err := client.RenderBest(ctx, imagelife.RenderRequest{RunID: *runID, Latest: *latest, Width: *width, Height: *height})
	if err != nil {
		return err
	}
	path := *outPath
	if path == "" {
		path = rec.RunID + "-best.png"
	}
	if err := display.WritePNG(path, img); err != nil {
		return err
	}
	b := img.Bounds()
	fmt.Printf("run_id=%s individual=%s generation=%d fitness=%.6f size=%dx%d out=%s\n",
		rec.RunID, rec.IndividualID, rec.Generation, rec.Fitness, b.Dx(), b.Dy(), path)
	return nil
}

func runChart(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("chart", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run")
	outPath := fs.String("out", "", "output PNG path (default <run-id>-fitness.png)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" && !*latest {
		return errors.New("chart requires --run-id or --latest")
	}

	client, err := imagelife.New(imagelife.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	path, err := client.Chart(ctx, imagelife.ChartRequest{RunID: *runID, Latest: *latest, Path: *outPath})
	if err != nil {
		return err
	}
	fmt.Printf("chart=%s\n", path)
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run")
	outDir := fs.String("out", "exports", "export directory")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" && !*latest {
		return errors.New("export requires --run-id or --latest")
	}

	client, err := imagelife.New(imagelife.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	dir, err := client.Export(ctx, imagelife.ExportRequest{RunID: *runID, Latest: *latest, OutDir: *outDir})
	if err != nil {
		return err
	}
	fmt.Printf("exported=%s\n", dir)
	return nil
}

func configureLogging(level string, w io.Writer) error {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})))
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: imagelifectl <run|runs|history|best|chart|export> [flags]", msg)
}
