// Package raster provides the pixel surfaces individuals are rendered onto
// and the helpers used to load and compare target images.
package raster

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/vector"
)

// Vec is a point in pixel space.
type Vec struct {
	X, Y float64
}

// Surface is an RGBA raster with an attached polygon rasterizer. A surface
// is owned by one goroutine at a time.
type Surface struct {
	img *image.RGBA
	z   *vector.Rasterizer
}

func NewSurface(width, height int) *Surface {
	return &Surface{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// Size returns the surface dimensions in pixels.
func (s *Surface) Size() (int, int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// Clear replaces every pixel with c.
func (s *Surface) Clear(c color.Color) {
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// FillTriangle paints an anti-aliased triangle with c composited over the
// current contents.
func (s *Surface) FillTriangle(pts [3]Vec, c color.NRGBA) {
	if c.A == 0 {
		return
	}
	w, h := s.Size()
	if s.z == nil {
		s.z = vector.NewRasterizer(w, h)
	} else {
		s.z.Reset(w, h)
	}
	s.z.DrawOp = draw.Over
	s.z.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	s.z.LineTo(float32(pts[1].X), float32(pts[1].Y))
	s.z.LineTo(float32(pts[2].X), float32(pts[2].Y))
	s.z.ClosePath()
	s.z.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{})
}

// Image exposes the backing raster. Callers must not mutate it.
func (s *Surface) Image() *image.RGBA {
	return s.img
}

// Quantize maps a unit-interval channel value to 8 bits with
// round(255*v), clamped to [0, 255].
func Quantize(v float64) uint8 {
	scaled := 255*v + 0.5
	switch {
	case scaled <= 0:
		return 0
	case scaled >= 255:
		return 255
	}
	return uint8(scaled)
}

// PackRGB flattens img into an R,G,B byte sequence in row-major order.
// Alpha is dropped; *image.RGBA pixels are premultiplied, so translucent
// pixels compare as if composited over black.
func PackRGB(img image.Image) []uint8 {
	b := img.Bounds()
	out := make([]uint8, 0, b.Dx()*b.Dy()*3)
	if rgba, ok := img.(*image.RGBA); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := rgba.Pix[rgba.PixOffset(b.Min.X, y):rgba.PixOffset(b.Max.X, y)]
			for i := 0; i < len(row); i += 4 {
				out = append(out, row[i], row[i+1], row[i+2])
			}
		}
		return out
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			out = append(out, uint8(r>>8), uint8(g>>8), uint8(bl>>8))
		}
	}
	return out
}
