package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"imagelife/internal/display"
	"imagelife/pkg/imagelife"
)

// runOptions is the run configuration shared by the run flags and the TOML
// config file.
type runOptions struct {
	Target         string  `toml:"target"`
	Population     int     `toml:"population"`
	Survivors      int     `toml:"survivors"`
	GenomeLength   int     `toml:"genome_length"`
	Layout         string  `toml:"layout"`
	Skew           float64 `toml:"skew"`
	Selection      string  `toml:"selection"`
	MutationPolicy string  `toml:"mutation_policy"`
	Mutations      float64 `toml:"mutations"`
	MutationMax    int     `toml:"mutation_max"`
	Threshold      float64 `toml:"threshold"`
	MaxGenerations int     `toml:"max_generations"`
	Workers        int     `toml:"workers"`
	Seed           uint64  `toml:"seed"`
	MaxDimension   int     `toml:"max_dimension"`
	Background     string  `toml:"background"`
	RefreshMS      int     `toml:"refresh_ms"`
	Display        string  `toml:"display"`
}

// loadRunOptions decodes path over base. Keys missing from the file keep
// their base value; unknown keys are rejected.
func loadRunOptions(path string, base runOptions) (runOptions, error) {
	opts := base
	md, err := toml.DecodeFile(path, &opts)
	if err != nil {
		return runOptions{}, fmt.Errorf("load run config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return runOptions{}, fmt.Errorf("load run config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return opts, nil
}

// overrideFromFlags copies every explicitly set flag from flagOpts into opts.
func overrideFromFlags(opts *runOptions, flagOpts runOptions, set map[string]bool) {
	for name := range set {
		switch name {
		case "target":
			opts.Target = flagOpts.Target
		case "pop":
			opts.Population = flagOpts.Population
		case "survivors":
			opts.Survivors = flagOpts.Survivors
		case "genome":
			opts.GenomeLength = flagOpts.GenomeLength
		case "layout":
			opts.Layout = flagOpts.Layout
		case "skew":
			opts.Skew = flagOpts.Skew
		case "selection":
			opts.Selection = flagOpts.Selection
		case "mutation-policy":
			opts.MutationPolicy = flagOpts.MutationPolicy
		case "mutations":
			opts.Mutations = flagOpts.Mutations
		case "mutation-max":
			opts.MutationMax = flagOpts.MutationMax
		case "threshold":
			opts.Threshold = flagOpts.Threshold
		case "gens":
			opts.MaxGenerations = flagOpts.MaxGenerations
		case "workers":
			opts.Workers = flagOpts.Workers
		case "seed":
			opts.Seed = flagOpts.Seed
		case "max-dim":
			opts.MaxDimension = flagOpts.MaxDimension
		case "background":
			opts.Background = flagOpts.Background
		case "refresh-ms":
			opts.RefreshMS = flagOpts.RefreshMS
		case "display":
			opts.Display = flagOpts.Display
		}
	}
}

func (o runOptions) validate() error {
	switch {
	case o.Target == "":
		return fmt.Errorf("target image is required")
	case o.Population <= 0:
		return fmt.Errorf("population must be > 0")
	case o.Survivors < 0 || o.Survivors > o.Population:
		return fmt.Errorf("survivors must be in [0, population]")
	case o.GenomeLength <= 0:
		return fmt.Errorf("genome length must be > 0")
	case o.Threshold < 0:
		return fmt.Errorf("threshold must be >= 0")
	case o.MaxGenerations < 0:
		return fmt.Errorf("max generations must be >= 0")
	case o.RefreshMS < 0:
		return fmt.Errorf("refresh interval must be >= 0")
	}
	switch o.Display {
	case "", display.KindAuto, display.KindHeadless, "headless", display.KindTerminal, display.KindWindow:
	default:
		return fmt.Errorf("unsupported display: %s", o.Display)
	}
	return nil
}

func (o runOptions) request() imagelife.RunRequest {
	return imagelife.RunRequest{
		TargetPath:      o.Target,
		MaxDimension:    o.MaxDimension,
		Population:      o.Population,
		Survivors:       o.Survivors,
		GenomeLength:    o.GenomeLength,
		Layout:          o.Layout,
		Skew:            o.Skew,
		Selection:       o.Selection,
		MutationPolicy:  o.MutationPolicy,
		Mutations:       o.Mutations,
		MutationMax:     o.MutationMax,
		Threshold:       o.Threshold,
		MaxGenerations:  o.MaxGenerations,
		Workers:         o.Workers,
		Seed:            o.Seed,
		Background:      o.Background,
		RefreshInterval: time.Duration(o.RefreshMS) * time.Millisecond,
	}
}
