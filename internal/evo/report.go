package evo

import (
	"fmt"
	"image"
	"io"
	"time"
)

// GenerationReport summarizes the ranked population after truncation.
type GenerationReport struct {
	Generation int           `json:"generation"`
	Elapsed    time.Duration `json:"elapsed"`
	Best       float64       `json:"best"`
	Second     float64       `json:"second"`
	Third      float64       `json:"third"`
	Worst      float64       `json:"worst"`
	Mean       float64       `json:"mean"`
	Population int           `json:"population"`
	// BestID identifies the individual behind Best.
	BestID string `json:"best_id"`
}

// Reporter receives one report per generation.
type Reporter interface {
	Report(report GenerationReport) error
}

type ReporterFunc func(GenerationReport) error

func (f ReporterFunc) Report(r GenerationReport) error {
	return f(r)
}

// ConsoleReporter writes one line per generation.
type ConsoleReporter struct {
	W io.Writer
}

func (c ConsoleReporter) Report(r GenerationReport) error {
	_, err := fmt.Fprintf(c.W, "generation=%d elapsed=%s best=%.4f second=%.4f third=%.4f worst=%.4f\n",
		r.Generation, r.Elapsed.Round(time.Millisecond), r.Best, r.Second, r.Third, r.Worst)
	return err
}

// Display presents the current best raster and relays quit requests.
type Display interface {
	Present(img image.Image) error
	// Poll drains pending input without blocking and reports whether the
	// user asked to quit.
	Poll() bool
}
