// Package stats summarizes and exports per-generation fitness history.
package stats

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"imagelife/internal/model"
)

var historyHeader = []string{"generation", "elapsed_ms", "best", "second", "third", "worst", "mean", "population", "best_id"}

// HistorySummary condenses a run's fitness history.
type HistorySummary struct {
	Generations int     `json:"generations"`
	FirstBest   float64 `json:"first_best"`
	FinalBest   float64 `json:"final_best"`
	Improvement float64 `json:"improvement"`
	MeanBest    float64 `json:"mean_best"`
	StdBest     float64 `json:"std_best"`
	// Stalled counts trailing generations without a new best.
	Stalled int `json:"stalled"`
}

func Summarize(records []model.GenerationRecord) HistorySummary {
	if len(records) == 0 {
		return HistorySummary{}
	}
	best := make([]float64, len(records))
	for i, r := range records {
		best[i] = r.Best
	}
	mean, std := 0.0, 0.0
	if len(best) > 1 {
		mean, std = stat.MeanStdDev(best, nil)
	} else {
		mean = best[0]
	}

	stalled := 0
	for i := len(best) - 1; i > 0 && best[i] >= best[i-1]; i-- {
		stalled++
	}
	return HistorySummary{
		Generations: records[len(records)-1].Generation,
		FirstBest:   best[0],
		FinalBest:   best[len(best)-1],
		Improvement: best[0] - best[len(best)-1],
		MeanBest:    mean,
		StdBest:     std,
		Stalled:     stalled,
	}
}

func WriteHistoryCSV(w io.Writer, records []model.GenerationRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(historyHeader); err != nil {
		return err
	}
	for _, r := range records {
		if err := writer.Write([]string{
			strconv.Itoa(r.Generation),
			strconv.FormatInt(r.ElapsedMS, 10),
			formatFloat(r.Best),
			formatFloat(r.Second),
			formatFloat(r.Third),
			formatFloat(r.Worst),
			formatFloat(r.Mean),
			strconv.Itoa(r.Population),
			r.BestID,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func ReadHistoryCSV(r io.Reader) ([]model.GenerationRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(historyHeader)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	if header[0] != historyHeader[0] {
		return nil, fmt.Errorf("unexpected history header: %v", header)
	}

	var records []model.GenerationRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		var rec model.GenerationRecord
		if rec.Generation, err = strconv.Atoi(row[0]); err != nil {
			return nil, fmt.Errorf("generation: %w", err)
		}
		if rec.ElapsedMS, err = strconv.ParseInt(row[1], 10, 64); err != nil {
			return nil, fmt.Errorf("elapsed_ms: %w", err)
		}
		floats := []*float64{&rec.Best, &rec.Second, &rec.Third, &rec.Worst, &rec.Mean}
		for i, dst := range floats {
			if *dst, err = strconv.ParseFloat(row[2+i], 64); err != nil {
				return nil, fmt.Errorf("%s: %w", historyHeader[2+i], err)
			}
		}
		if rec.Population, err = strconv.Atoi(row[7]); err != nil {
			return nil, fmt.Errorf("population: %w", err)
		}
		rec.BestID = row[8]
		records = append(records, rec)
	}
	return records, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
