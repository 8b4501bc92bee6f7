// Package fitness scores rendered candidates against the target image.
package fitness

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"imagelife/internal/raster"
)

var (
	ErrUninitializedTarget = errors.New("fitness target is not initialized")
	ErrDimensionMismatch   = errors.New("raster dimensions differ from target")
)

// Comparator returns the distance between two packed RGB buffers of equal
// length. Lower is better; identical buffers must score 0.
type Comparator func(a, b []uint8) float64

type Option func(*Oracle)

// WithComparator replaces MeanAbsoluteDifference.
func WithComparator(fn Comparator) Option {
	return func(o *Oracle) {
		if fn != nil {
			o.compare = fn
		}
	}
}

// Oracle holds the target raster. It is immutable after NewOracle and safe
// for concurrent use when its comparator is.
type Oracle struct {
	target  *image.RGBA
	packed  []uint8
	compare Comparator
}

func NewOracle(target image.Image, opts ...Option) (*Oracle, error) {
	if target == nil {
		return nil, fmt.Errorf("new oracle: %w", ErrUninitializedTarget)
	}
	b := target.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("new oracle: empty target %dx%d: %w", b.Dx(), b.Dy(), ErrUninitializedTarget)
	}
	own := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(own, own.Bounds(), target, b.Min, draw.Src)

	o := &Oracle{
		target:  own,
		packed:  raster.PackRGB(own),
		compare: MeanAbsoluteDifference,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Size reports the target dimensions. A nil oracle reports 0x0.
func (o *Oracle) Size() (int, int) {
	if o == nil {
		return 0, 0
	}
	b := o.target.Bounds()
	return b.Dx(), b.Dy()
}

// Target returns a copy of the target raster.
func (o *Oracle) Target() image.Image {
	if o == nil {
		return nil
	}
	cp := image.NewRGBA(o.target.Bounds())
	copy(cp.Pix, o.target.Pix)
	return cp
}

// Score compares img with the target. Alpha of the candidate is ignored.
func (o *Oracle) Score(img image.Image) (float64, error) {
	if o == nil {
		return 0, ErrUninitializedTarget
	}
	if img == nil {
		return 0, fmt.Errorf("score: nil raster")
	}
	w, h := o.Size()
	b := img.Bounds()
	if b.Dx() != w || b.Dy() != h {
		return 0, fmt.Errorf("score %dx%d against %dx%d: %w", b.Dx(), b.Dy(), w, h, ErrDimensionMismatch)
	}
	return o.compare(raster.PackRGB(img), o.packed), nil
}
