// Package genotype defines the triangle genes that encode a candidate image
// and the genome-level operators (mutation, crossover, rendering).
package genotype

import (
	"fmt"
	"image/color"
	"math"
	"math/rand/v2"

	"imagelife/internal/raster"
)

// Layout selects how a gene encodes its triangle.
type Layout uint8

const (
	// LayoutTriangle stores three free vertices.
	LayoutTriangle Layout = iota
	// LayoutPolar stores a center, three angles and a shared radius.
	LayoutPolar
)

func (l Layout) String() string {
	switch l {
	case LayoutTriangle:
		return "triangle"
	case LayoutPolar:
		return "polar"
	default:
		return fmt.Sprintf("layout(%d)", uint8(l))
	}
}

func ParseLayout(name string) (Layout, error) {
	switch name {
	case "", "triangle":
		return LayoutTriangle, nil
	case "polar":
		return LayoutPolar, nil
	default:
		return 0, fmt.Errorf("unsupported gene layout: %s", name)
	}
}

// GeneConfig controls how genes are drawn.
type GeneConfig struct {
	Layout Layout
	// Skew is the beta parameter of the Beta(1, Skew) draw used for alpha and
	// radius. Zero keeps those draws uniform.
	Skew float64
}

// Point is a position in normalized [0,1) plane coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Gene is one filled, alpha-blended triangle. It holds only arrays and
// scalars, so assigning a Gene copies it.
type Gene struct {
	Color [3]float64 `json:"color"`
	Alpha float64    `json:"alpha"`
	// Depth orders genes for painting only.
	Depth float64 `json:"depth"`

	Layout   Layout   `json:"layout"`
	Vertices [3]Point `json:"vertices,omitempty"`

	Center Point      `json:"center,omitempty"`
	Angles [3]float64 `json:"angles,omitempty"`
	Radius float64    `json:"radius,omitempty"`
}

// NewGene draws every field independently.
func NewGene(rng *rand.Rand, cfg GeneConfig) Gene {
	g := Gene{Layout: cfg.Layout}
	for i := range g.Color {
		g.Color[i] = uniform(rng)
	}
	g.Alpha = skewed(rng, cfg.Skew)
	g.Depth = uniform(rng)
	switch cfg.Layout {
	case LayoutPolar:
		g.Center = Point{X: uniform(rng), Y: uniform(rng)}
		for i := range g.Angles {
			g.Angles[i] = uniform(rng)
		}
		g.Radius = skewed(rng, cfg.Skew)
	default:
		for i := range g.Vertices {
			g.Vertices[i] = Point{X: uniform(rng), Y: uniform(rng)}
		}
	}
	return g
}

// CopyGene returns an independent copy of g.
func CopyGene(g Gene) Gene {
	return g
}

// Slots lists the mutable slots for the gene's layout.
func (g Gene) Slots() []Slot {
	if g.Layout == LayoutPolar {
		return polarSlots
	}
	return triangleSlots
}

// Mutate redraws one uniformly chosen slot from its creation distribution
// and reports which slot changed.
func (g *Gene) Mutate(rng *rand.Rand, cfg GeneConfig) Slot {
	slots := g.Slots()
	slot := slots[rng.IntN(len(slots))]
	g.redraw(rng, cfg, slot)
	return slot
}

func (g *Gene) redraw(rng *rand.Rand, cfg GeneConfig, slot Slot) {
	switch slot.Kind {
	case SlotColor:
		g.Color[slot.Index] = uniform(rng)
	case SlotAlpha:
		g.Alpha = skewed(rng, cfg.Skew)
	case SlotDepth:
		g.Depth = uniform(rng)
	case SlotVertex:
		g.Vertices[slot.Index] = Point{X: uniform(rng), Y: uniform(rng)}
	case SlotCenter:
		g.Center = Point{X: uniform(rng), Y: uniform(rng)}
	case SlotAngle:
		g.Angles[slot.Index] = uniform(rng)
	case SlotRadius:
		g.Radius = skewed(rng, cfg.Skew)
	case SlotRotation:
		shift := uniform(rng)
		for i := range g.Angles {
			_, frac := math.Modf(g.Angles[i] + shift)
			g.Angles[i] = clampUnit(frac)
		}
	}
}

// Points resolves the triangle against a width x height raster.
func (g Gene) Points(width, height int) [3]raster.Vec {
	w, h := float64(width), float64(height)
	var pts [3]raster.Vec
	switch g.Layout {
	case LayoutPolar:
		for i, a := range g.Angles {
			theta := 2 * math.Pi * a
			pts[i] = raster.Vec{
				X: (g.Center.X + g.Radius*math.Cos(theta)) * w,
				Y: (g.Center.Y + g.Radius*math.Sin(theta)) * h,
			}
		}
	default:
		for i, v := range g.Vertices {
			pts[i] = raster.Vec{X: v.X * w, Y: v.Y * h}
		}
	}
	return pts
}

// RGBA returns the gene's quantized, non-premultiplied color.
func (g Gene) RGBA() color.NRGBA {
	return color.NRGBA{
		R: raster.Quantize(g.Color[0]),
		G: raster.Quantize(g.Color[1]),
		B: raster.Quantize(g.Color[2]),
		A: raster.Quantize(g.Alpha),
	}
}

// Render paints the gene onto s.
func (g Gene) Render(s *raster.Surface) {
	w, h := s.Size()
	s.FillTriangle(g.Points(w, h), g.RGBA())
}

// Validate reports the first field outside [0,1).
func (g Gene) Validate() error {
	check := func(name string, v float64) error {
		if !inUnit(v) {
			return fmt.Errorf("gene %s out of range: %v", name, v)
		}
		return nil
	}
	for i, c := range g.Color {
		if err := check(fmt.Sprintf("color[%d]", i), c); err != nil {
			return err
		}
	}
	if err := check("alpha", g.Alpha); err != nil {
		return err
	}
	if err := check("depth", g.Depth); err != nil {
		return err
	}
	switch g.Layout {
	case LayoutTriangle:
		for i, v := range g.Vertices {
			if err := check(fmt.Sprintf("vertex[%d].x", i), v.X); err != nil {
				return err
			}
			if err := check(fmt.Sprintf("vertex[%d].y", i), v.Y); err != nil {
				return err
			}
		}
	case LayoutPolar:
		if err := check("center.x", g.Center.X); err != nil {
			return err
		}
		if err := check("center.y", g.Center.Y); err != nil {
			return err
		}
		for i, a := range g.Angles {
			if err := check(fmt.Sprintf("angle[%d]", i), a); err != nil {
				return err
			}
		}
		if err := check("radius", g.Radius); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported gene layout: %s", g.Layout)
	}
	return nil
}
