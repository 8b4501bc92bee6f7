package display

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"sync"
)

// Headless keeps the last frame in memory and optionally mirrors it to a PNG
// file. It never requests a quit.
type Headless struct {
	mu       sync.Mutex
	last     *image.RGBA
	frames   int
	snapshot string
}

func NewHeadless(opts Options) *Headless {
	return &Headless{snapshot: opts.SnapshotPath}
}

func (h *Headless) Present(img image.Image) error {
	b := img.Bounds()
	frame := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(frame, frame.Bounds(), img, b.Min, draw.Src)

	h.mu.Lock()
	h.last = frame
	h.frames++
	h.mu.Unlock()

	if h.snapshot == "" {
		return nil
	}
	return WritePNG(h.snapshot, frame)
}

func (h *Headless) Poll() bool {
	return false
}

func (h *Headless) Serve(ctx context.Context, work func(context.Context) error) error {
	return work(ctx)
}

func (h *Headless) Close() error {
	return nil
}

// Last returns the most recent frame and the number of frames presented.
func (h *Headless) Last() (image.Image, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.last == nil {
		return nil, h.frames
	}
	return h.last, h.frames
}

// WritePNG encodes img to path through a temporary file in the same
// directory, so readers never see a partial image.
func WritePNG(path string, img image.Image) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".frame-*.png")
	if err != nil {
		return fmt.Errorf("create frame file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("encode frame: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close frame file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish frame: %w", err)
	}
	return nil
}
