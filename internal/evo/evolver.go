// Package evo runs the generational loop: seed, rank, reproduce, truncate,
// until a stop predicate fires or the run is cancelled.
package evo

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/sourcegraph/conc/pool"

	"imagelife/internal/fitness"
	"imagelife/internal/genotype"
	"imagelife/internal/logging"
	"imagelife/internal/phenotype"
)

var ErrEmptyPopulation = errors.New("population too small")

const DefaultRefreshInterval = 500 * time.Millisecond

type Config struct {
	Oracle         *fitness.Oracle
	Genome         genotype.GenomeConfig
	PopulationSize int
	// SurvivorCount is the population kept after truncation. Defaults to
	// PopulationSize.
	SurvivorCount int
	Selector      Selector
	Mutator       genotype.Mutator
	Stop          StopPredicate
	Workers       int
	Seed          uint64
	Background    color.Color

	Display         Display
	RefreshInterval time.Duration
	Reporters       []Reporter

	// Now is the clock used for elapsed time and display throttling.
	Now func() time.Time
}

type RunResult struct {
	Generations int
	Best        *phenotype.Individual
	History     []GenerationReport
	State       State
	// Population is the final ranked population, best first.
	Population []*phenotype.Individual
}

type Evolver struct {
	cfg   Config
	rng   *rand.Rand
	state State
	log   *slog.Logger
	opts  []phenotype.Option
}

func NewEvolver(cfg Config) (*Evolver, error) {
	if cfg.Oracle == nil {
		return nil, fmt.Errorf("new evolver: %w", fitness.ErrUninitializedTarget)
	}
	if err := cfg.Genome.Validate(); err != nil {
		return nil, fmt.Errorf("new evolver: %w", err)
	}
	if cfg.PopulationSize <= 0 {
		return nil, fmt.Errorf("population size must be > 0")
	}
	if cfg.SurvivorCount == 0 {
		cfg.SurvivorCount = cfg.PopulationSize
	}
	if cfg.SurvivorCount < 0 || cfg.SurvivorCount > cfg.PopulationSize {
		return nil, fmt.Errorf("survivor count must be in [1, population size]")
	}
	if cfg.Selector == nil {
		cfg.Selector = BetaSelector{}
	}
	if cfg.Selector.ChildrenPerPair() <= 0 {
		return nil, fmt.Errorf("selector %s produces no children", cfg.Selector.Name())
	}
	if cfg.Mutator == nil {
		cfg.Mutator = genotype.PointMutator{Policy: genotype.ConstMutations{Count: 1}, Gene: cfg.Genome.Gene}
	}
	if cfg.Stop == nil {
		return nil, fmt.Errorf("stop predicate is required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	var opts []phenotype.Option
	if cfg.Background != nil {
		opts = append(opts, phenotype.WithBackground(cfg.Background))
	}
	return &Evolver{
		cfg:   cfg,
		rng:   rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		state: StateSeeding,
		log:   logging.Logger().With("component", "evo"),
		opts:  opts,
	}, nil
}

// State returns the phase the loop last entered.
func (e *Evolver) State() State {
	return e.state
}

func (e *Evolver) enter(s State) {
	e.state = s
	e.log.Debug("state", "state", s.String())
}

// Run evolves until the stop predicate fires, the display asks to quit, or
// ctx is done. A cancelled context returns the partial result together with
// ctx.Err(); a quit request is not an error.
func (e *Evolver) Run(ctx context.Context) (RunResult, error) {
	start := e.cfg.Now()
	result := RunResult{}

	e.enter(StateSeeding)
	genomes := make([]genotype.Genome, e.cfg.PopulationSize)
	for i := range genomes {
		genomes[i] = genotype.NewGenome(e.rng, e.cfg.Genome)
	}
	population, err := e.materialize(ctx, 0, genomes, nil)
	if err != nil {
		return e.interrupted(ctx, result, err)
	}
	if err := e.rank(population); err != nil {
		return result, err
	}
	e.enter(StateRanked)
	result.Best = population[0]
	result.Population = population
	e.log.Info("population seeded",
		"population", len(population),
		"genome_length", e.cfg.Genome.Length,
		"selection", e.cfg.Selector.Name(),
		"mutation", e.cfg.Mutator.Name(),
	)

	var lastFrame time.Time
	for generation := 1; ; generation++ {
		if err := ctx.Err(); err != nil {
			return e.interrupted(ctx, result, err)
		}
		e.enter(StateRunning)

		e.enter(StateReproducing)
		children, err := e.reproduce(ctx, generation, population)
		if err != nil {
			return e.interrupted(ctx, result, err)
		}
		// Children go first so that on equal fitness the newer genome wins.
		population = append(children, population...)

		population, err = e.truncate(population)
		if err != nil {
			return result, err
		}
		e.enter(StateTruncated)

		report, err := e.summarize(generation, e.cfg.Now().Sub(start), population)
		if err != nil {
			return result, err
		}
		result.Generations = generation
		result.Best = population[0]
		result.Population = population
		result.History = append(result.History, report)
		for _, r := range e.cfg.Reporters {
			if err := r.Report(report); err != nil {
				return result, fmt.Errorf("report generation %d: %w", generation, err)
			}
		}
		e.log.Debug("generation",
			"generation", generation,
			"best", report.Best,
			"mean", report.Mean,
			"worst", report.Worst,
		)

		if e.cfg.Display != nil {
			now := e.cfg.Now()
			if lastFrame.IsZero() || now.Sub(lastFrame) >= e.cfg.RefreshInterval {
				if err := e.cfg.Display.Present(result.Best.Image()); err != nil {
					return result, fmt.Errorf("present generation %d: %w", generation, err)
				}
				lastFrame = now
			}
			if e.cfg.Display.Poll() {
				e.enter(StateCancelled)
				result.State = StateCancelled
				e.log.Info("run stopped by display", "generation", generation, "best", report.Best)
				return result, nil
			}
		}

		if e.cfg.Stop(report) {
			e.enter(StateConverged)
			result.State = StateConverged
			e.log.Info("run converged", "generation", generation, "best", report.Best)
			return result, nil
		}
	}
}

func (e *Evolver) interrupted(ctx context.Context, result RunResult, err error) (RunResult, error) {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		e.enter(StateCancelled)
		result.State = StateCancelled
		e.log.Info("run cancelled", "generations", result.Generations)
		return result, ctxErr
	}
	return result, err
}

// reproduce builds every child genome on the run's random source, then
// renders and scores them in parallel.
func (e *Evolver) reproduce(ctx context.Context, generation int, ranked []*phenotype.Individual) ([]*phenotype.Individual, error) {
	pairs, err := e.cfg.Selector.Pairs(e.rng, ranked)
	if err != nil {
		return nil, err
	}
	perPair := e.cfg.Selector.ChildrenPerPair()
	genomes := make([]genotype.Genome, 0, len(pairs)*perPair)
	parents := make([]Pair, 0, len(pairs)*perPair)
	for _, pair := range pairs {
		mother, father := pair.Mother.Genome(), pair.Father.Genome()
		for i := 0; i < perPair; i++ {
			child, err := genotype.Crossover(e.rng, mother, father, e.cfg.Mutator)
			if err != nil {
				return nil, fmt.Errorf("crossover %s x %s: %w", pair.Mother.ID(), pair.Father.ID(), err)
			}
			genomes = append(genomes, child)
			parents = append(parents, pair)
		}
	}
	return e.materialize(ctx, generation, genomes, parents)
}

// materialize renders and scores genomes with at most Workers goroutines.
// parents, when set, is aligned with genomes.
func (e *Evolver) materialize(ctx context.Context, generation int, genomes []genotype.Genome, parents []Pair) ([]*phenotype.Individual, error) {
	out := make([]*phenotype.Individual, len(genomes))
	p := pool.New().WithMaxGoroutines(e.cfg.Workers).WithContext(ctx).WithCancelOnError()
	for i := range genomes {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			id := fmt.Sprintf("g%d-%d", generation, i)
			var (
				ind *phenotype.Individual
				err error
			)
			if parents != nil {
				ind, err = phenotype.NewBred(e.cfg.Oracle, id, genomes[i], parents[i].Mother.ID(), parents[i].Father.ID(), e.opts...)
			} else {
				ind, err = phenotype.New(e.cfg.Oracle, id, genomes[i], e.opts...)
			}
			if err != nil {
				return err
			}
			if _, err := ind.Fitness(); err != nil {
				return err
			}
			out[i] = ind
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// rank sorts ascending by fitness. Ties keep their current order.
func (e *Evolver) rank(population []*phenotype.Individual) error {
	if len(population) == 0 {
		return ErrEmptyPopulation
	}
	scores := make(map[*phenotype.Individual]float64, len(population))
	for _, ind := range population {
		f, err := ind.Fitness()
		if err != nil {
			return err
		}
		scores[ind] = f
	}
	sort.SliceStable(population, func(i, j int) bool {
		return scores[population[i]] < scores[population[j]]
	})
	return nil
}

// truncate re-ranks and keeps the best SurvivorCount individuals.
func (e *Evolver) truncate(population []*phenotype.Individual) ([]*phenotype.Individual, error) {
	if len(population) < e.cfg.SurvivorCount {
		return nil, fmt.Errorf("truncate %d to %d survivors: %w", len(population), e.cfg.SurvivorCount, ErrEmptyPopulation)
	}
	if err := e.rank(population); err != nil {
		return nil, err
	}
	kept := make([]*phenotype.Individual, e.cfg.SurvivorCount)
	copy(kept, population)
	return kept, nil
}

func (e *Evolver) summarize(generation int, elapsed time.Duration, ranked []*phenotype.Individual) (GenerationReport, error) {
	if len(ranked) == 0 {
		return GenerationReport{}, ErrEmptyPopulation
	}
	scores := make([]float64, len(ranked))
	sum := 0.0
	for i, ind := range ranked {
		f, err := ind.Fitness()
		if err != nil {
			return GenerationReport{}, err
		}
		scores[i] = f
		sum += f
	}
	at := func(i int) float64 {
		return scores[min(i, len(scores)-1)]
	}
	return GenerationReport{
		Generation: generation,
		Elapsed:    elapsed,
		Best:       at(0),
		Second:     at(1),
		Third:      at(2),
		Worst:      scores[len(scores)-1],
		Mean:       sum / float64(len(scores)),
		Population: len(ranked),
		BestID:     ranked[0].ID(),
	}, nil
}
