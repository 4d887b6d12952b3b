// Package plot is a reference [render.ChartRenderer] with a linear x scale.
//
// The plot area is the canvas minus fixed paddings for the axes. Its pixel
// mapping is fixed when [Plotter.Plot] runs, mirroring chart libraries that
// only expose their scales after drawing.
package plot

import (
	"context"
	"math"

	"github.com/matzehuels/scorealign/pkg/errors"
	"github.com/matzehuels/scorealign/pkg/render"
)

// Padding is the space between the canvas edge and the plot area.
type Padding struct {
	Left, Right, Top, Bottom float64
}

// DefaultPadding leaves room for the y axis on the left and tick labels at
// the bottom.
func DefaultPadding() Padding {
	return Padding{Left: 40, Right: 8, Top: 8, Bottom: 24}
}

// Plotter plots chart specs.
type Plotter struct {
	Padding Padding
}

// New creates a plotter with the default padding.
func New() *Plotter { return &Plotter{Padding: DefaultPadding()} }

// Plot fixes the scales of spec and returns the plotted chart.
func (p *Plotter) Plot(ctx context.Context, spec render.ChartSpec) (render.Chart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	area := render.Area{
		Left:   p.Padding.Left,
		Top:    p.Padding.Top,
		Width:  spec.Width - p.Padding.Left - p.Padding.Right,
		Height: spec.Height - p.Padding.Top - p.Padding.Bottom,
	}
	if area.Width <= 0 || area.Height <= 0 {
		return nil, errors.New(errors.ErrCodeRenderFailed, "chart canvas %.0fx%.0f is too small", spec.Width, spec.Height)
	}
	if !(spec.MaxX > spec.MinX) {
		return nil, errors.New(errors.ErrCodeRenderFailed, "empty x domain [%g, %g]", spec.MinX, spec.MaxX)
	}

	c := &Chart{area: area, minX: spec.MinX, maxX: spec.MaxX, minY: math.Inf(1), maxY: math.Inf(-1)}
	for _, pt := range spec.Points {
		if pt.Y == nil {
			continue
		}
		c.minY = min(c.minY, *pt.Y)
		c.maxY = max(c.maxY, *pt.Y)
	}
	if math.IsInf(c.minY, 1) {
		c.minY, c.maxY = 0, 1
	}
	if c.maxY == c.minY {
		c.minY, c.maxY = c.minY-0.5, c.maxY+0.5
	}
	return c, nil
}

// Chart is a plotted series with linear scales.
type Chart struct {
	area       render.Area
	minX, maxX float64
	minY, maxY float64
}

// ValueToPixel maps x to a canvas pixel.
func (c *Chart) ValueToPixel(x float64) float64 {
	return c.area.Left + (x-c.minX)/(c.maxX-c.minX)*c.area.Width
}

// YToPixel maps y to a canvas pixel; larger values are higher up.
func (c *Chart) YToPixel(y float64) float64 {
	return c.area.Top + (c.maxY-y)/(c.maxY-c.minY)*c.area.Height
}

// PlotArea returns the plotting rectangle.
func (c *Chart) PlotArea() render.Area { return c.area }

// YRange returns the value range of the y axis.
func (c *Chart) YRange() (lo, hi float64) { return c.minY, c.maxY }
