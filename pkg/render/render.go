package render

import (
	"context"
	"math"
)

// Box is an axis-aligned rectangle in render space. Y grows downwards.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the right edge.
func (b Box) Right() float64 { return b.X + b.Width }

// Bottom returns the bottom edge.
func (b Box) Bottom() float64 { return b.Y + b.Height }

// CenterX returns the horizontal center.
func (b Box) CenterX() float64 { return b.X + b.Width/2 }

// Empty reports whether the box has no area.
func (b Box) Empty() bool { return b.Width <= 0 || b.Height <= 0 }

// Union returns the smallest box holding both b and o. An empty box is
// ignored.
func (b Box) Union(o Box) Box {
	if b.Empty() {
		return o
	}
	if o.Empty() {
		return b
	}
	x0 := math.Min(b.X, o.X)
	y0 := math.Min(b.Y, o.Y)
	x1 := math.Max(b.Right(), o.Right())
	y1 := math.Max(b.Bottom(), o.Bottom())
	return Box{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Kind classifies a rendered element.
type Kind string

const (
	// KindMeasureNumber is a printed measure number. Label holds its text.
	KindMeasureNumber Kind = "measure-number"
	// KindMeasure is the group of one engraved measure, staff lines included.
	KindMeasure Kind = "measure"
	// KindNote is a notehead or rest glyph.
	KindNote Kind = "note"
	// KindStaff is a staff line segment or other furniture.
	KindStaff Kind = "staff"
)

// Element is one measurable item of a rendered fragment.
type Element struct {
	Kind  Kind   `json:"kind"`
	Label string `json:"label,omitempty"`
	Box   Box    `json:"box"`
}

// Tree is the visual output of one fragment render.
type Tree struct {
	Bounds   Box       `json:"bounds"`
	Elements []Element `json:"elements"`
}

// Empty reports whether the render produced nothing measurable.
func (t *Tree) Empty() bool {
	return t == nil || (t.Bounds.Empty() && len(t.Elements) == 0)
}

// Filter returns the elements of the given kind in document order.
func (t *Tree) Filter(kind Kind) []Element {
	if t == nil {
		return nil
	}
	var out []Element
	for _, e := range t.Elements {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// ScoreRenderer engraves a standalone MusicXML fragment into a box of the
// given width.
type ScoreRenderer interface {
	Render(ctx context.Context, fragment []byte, width float64) (*Tree, error)
}

// Synchronous is implemented by score renderers whose tree is complete as
// soon as Render returns. Callers may skip waiting for such renders to
// settle.
type Synchronous interface {
	Synchronous() bool
}

// Point is one chart sample. A nil Y is a gap.
type Point struct {
	X float64  `json:"x"`
	Y *float64 `json:"y"`
}

// Area is the plotting rectangle inside the chart canvas, in pixels from
// the canvas' top-left corner.
type Area struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the right edge of the area.
func (a Area) Right() float64 { return a.Left + a.Width }

// ChartSpec is the input of a chart render.
type ChartSpec struct {
	Points []Point
	MinX   float64
	MaxX   float64
	Width  float64 // canvas width in pixels
	Height float64 // canvas height in pixels
}

// Chart is a plotted series. ValueToPixel maps a layout-space x value to a
// canvas pixel and is only valid after the chart has been plotted.
type Chart interface {
	ValueToPixel(x float64) float64
	PlotArea() Area
}

// ChartRenderer plots a series.
type ChartRenderer interface {
	Plot(ctx context.Context, spec ChartSpec) (Chart, error)
}
