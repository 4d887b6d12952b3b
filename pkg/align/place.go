package align

import (
	"gonum.org/v1/gonum/floats"

	"github.com/matzehuels/scorealign/pkg/render"
)

// DefaultOffsetX is the horizontal correction applied to chart placement.
const DefaultOffsetX = -85.0

// MinChartWidth is the narrowest canvas PlaceChart returns. It leaves room
// for the plot paddings and a few pixels per beat of a one-note measure.
const MinChartWidth = 96.0

// Note glyphs larger than this in either direction are not noteheads.
const maxGlyphSize = 100.0

// PlacementSource records which evidence a placement was derived from.
type PlacementSource string

const (
	FromNotes    PlacementSource = "notes"
	FromBounds   PlacementSource = "bounds"
	FromGeometry PlacementSource = "geometry"
)

// Placement is the horizontal span of the chart canvas in render space.
type Placement struct {
	Left   float64         `json:"left"`
	Width  float64         `json:"width"`
	Source PlacementSource `json:"source"`
}

// Right returns the right edge of the canvas.
func (p Placement) Right() float64 { return p.Left + p.Width }

// PlaceChart spans the chart from the first to the last note of the render
// and shifts it by offsetX. Without note glyphs it uses the render bounds,
// then the detected measure geometry. It reports false when none of them is
// available.
//
// A span narrower than MinChartWidth, as left by a system holding a single
// note, is replaced by the measure geometry span when that is wider, and is
// then widened to MinChartWidth from its left edge.
func PlaceChart(tree *render.Tree, geoms []MeasureGeometry, offsetX float64) (Placement, bool) {
	var lefts, rights []float64
	for _, e := range tree.Filter(render.KindNote) {
		b := e.Box
		if b.Width > 0 && b.Width < maxGlyphSize && b.Height > 0 && b.Height < maxGlyphSize {
			lefts = append(lefts, b.X)
			rights = append(rights, b.Right())
		}
	}

	var p Placement
	switch {
	case len(lefts) > 0:
		lo, hi := floats.Min(lefts), floats.Max(rights)
		p = Placement{Left: lo + offsetX, Width: hi - lo, Source: FromNotes}
	case !tree.Empty() && !tree.Bounds.Empty():
		p = Placement{Left: tree.Bounds.X + offsetX, Width: tree.Bounds.Width, Source: FromBounds}
	case len(geoms) > 0:
		p = geometrySpan(geoms, offsetX)
	default:
		return Placement{}, false
	}

	if p.Width < MinChartWidth && len(geoms) > 0 {
		if g := geometrySpan(geoms, offsetX); g.Width > p.Width {
			p = g
		}
	}
	p.Width = max(p.Width, MinChartWidth)
	return p, true
}

func geometrySpan(geoms []MeasureGeometry, offsetX float64) Placement {
	first, last := geoms[0], geoms[len(geoms)-1]
	return Placement{Left: first.X + offsetX, Width: last.Right() - first.X, Source: FromGeometry}
}
