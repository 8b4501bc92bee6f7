package stats

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"imagelife/internal/model"
)

// RunExport is the material written for one exported run. Genome and Image
// are optional.
type RunExport struct {
	Run         model.RunRecord
	Generations []model.GenerationRecord
	Genome      *model.GenomeRecord
	Image       image.Image
}

// WriteRunExport writes exp into <outDir>/<run id> and returns that
// directory:
//
//	run.json          run record and configuration
//	summary.json      HistorySummary of the generations
//	history.csv       one row per generation
//	best_genome.json  stored best genome
//	best.png          best genome rendered at target size
func WriteRunExport(outDir string, exp RunExport) (string, error) {
	if exp.Run.ID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(outDir, exp.Run.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "run.json"), exp.Run); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "summary.json"), Summarize(exp.Generations)); err != nil {
		return "", err
	}
	if err := writeHistoryFile(filepath.Join(runDir, "history.csv"), exp.Generations); err != nil {
		return "", err
	}
	if exp.Genome != nil {
		if err := writeJSON(filepath.Join(runDir, "best_genome.json"), exp.Genome); err != nil {
			return "", err
		}
	}
	if exp.Image != nil {
		if err := writePNG(filepath.Join(runDir, "best.png"), exp.Image); err != nil {
			return "", err
		}
	}
	return runDir, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func writeHistoryFile(path string, records []model.GenerationRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteHistoryCSV(f, records); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
