package sink

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/matzehuels/scorealign/pkg/align"
	"github.com/matzehuels/scorealign/pkg/chartdata"
	"github.com/matzehuels/scorealign/pkg/render"
)

const (
	captionHeight      = 24.0
	rowGap             = 24.0
	defaultScoreHeight = 120.0
	defaultChartHeight = 150.0
)

const pageCSS = `
    .caption { font: 14px sans-serif; fill: #333; }
    .measure { fill: none; stroke: #bbb; stroke-width: 1; }
    .staff line { stroke: #222; stroke-width: 1; }
    .note { fill: #111; }
    .number { font: 9px sans-serif; fill: #666; }
    .error { font: 13px sans-serif; fill: #c0392b; }
    .plot-area { fill: none; stroke: #eee; }
    .minima { stroke: #e74c3c; stroke-width: 1; stroke-dasharray: 4 3; }
    .minima-label { font: 10px sans-serif; fill: #e74c3c; }`

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	minimaLines bool
	color       string
}

// WithMinimaLines toggles the vertical lines through each local minimum.
func WithMinimaLines(on bool) SVGOption { return func(r *svgRenderer) { r.minimaLines = on } }

// WithColor overrides the line color.
func WithColor(hex string) SVGOption { return func(r *svgRenderer) { r.color = hex } }

// RenderSVG draws every row of p below each other.
func RenderSVG(p Page, opts ...SVGOption) []byte {
	r := svgRenderer{minimaLines: true, color: LevelColor(p.Level)}
	for _, opt := range opts {
		opt(&r)
	}

	chartH := p.ChartHeight
	if chartH <= 0 {
		chartH = defaultChartHeight
	}

	width := p.Width
	for _, row := range p.Rows {
		if row.Tree != nil {
			width = max(width, row.Tree.Bounds.Right())
		}
	}

	var body bytes.Buffer
	y := 0.0
	for _, row := range p.Rows {
		y += r.renderRow(&body, row, y, width, chartH) + rowGap
	}
	height := max(y, 1)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", pageCSS)
	if p.Title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", escape(p.Title))
	}
	buf.Write(body.Bytes())
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// renderRow writes one system and returns its height.
func (r *svgRenderer) renderRow(buf *bytes.Buffer, row Row, y, width, chartH float64) float64 {
	scoreH := defaultScoreHeight
	if row.Tree != nil && row.Err == nil && !row.Tree.Bounds.Empty() {
		scoreH = row.Tree.Bounds.Bottom()
	}
	rowH := captionHeight + scoreH + chartH

	fmt.Fprintf(buf, `  <g class="system" id="system-%d" transform="translate(0,%.1f)">`+"\n", row.System.Index, y)
	fmt.Fprintf(buf, `    <text class="caption" x="0" y="16">%s</text>`+"\n", escape(row.System.Label()))

	fmt.Fprintf(buf, `    <g class="score" transform="translate(0,%.1f)">`+"\n", captionHeight)
	if row.Err != nil {
		fmt.Fprintf(buf, `      <text class="error" x="8" y="24">Score render failed: %s</text>`+"\n", escape(row.Err.Error()))
	} else {
		renderTree(buf, row.Tree)
	}
	buf.WriteString("    </g>\n")

	if row.Chart != nil {
		r.renderChart(buf, row, captionHeight+scoreH)
		if r.minimaLines {
			renderMinima(buf, row, rowH, width)
		}
	}

	buf.WriteString("  </g>\n")
	return rowH
}

func renderTree(buf *bytes.Buffer, tree *render.Tree) {
	if tree == nil {
		return
	}
	for _, e := range tree.Elements {
		b := e.Box
		switch e.Kind {
		case render.KindMeasure:
			fmt.Fprintf(buf, `      <rect class="measure" x="%.1f" y="%.1f" width="%.1f" height="%.1f"/>`+"\n", b.X, b.Y, b.Width, b.Height)
		case render.KindStaff:
			buf.WriteString(`      <g class="staff">`)
			for i := 0; i < 5; i++ {
				ly := b.Y + float64(i)*b.Height/4
				fmt.Fprintf(buf, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`, b.X, ly, b.Right(), ly)
			}
			buf.WriteString("</g>\n")
		case render.KindNote:
			fmt.Fprintf(buf, `      <ellipse class="note" cx="%.1f" cy="%.1f" rx="%.1f" ry="%.1f"/>`+"\n",
				b.CenterX(), b.Y+b.Height/2, b.Width/2, b.Height/2)
		case render.KindMeasureNumber:
			fmt.Fprintf(buf, `      <text class="number" x="%.1f" y="%.1f">%s</text>`+"\n", b.X, b.Bottom(), escape(e.Label))
		}
	}
}

type yScaler interface {
	YToPixel(y float64) float64
}

func (r *svgRenderer) renderChart(buf *bytes.Buffer, row Row, top float64) {
	area := row.Chart.PlotArea()
	toY := chartY(row.Chart, row.Series, area)

	fmt.Fprintf(buf, `    <g class="chart" transform="translate(%.1f,%.1f)">`+"\n", row.Placement.Left, top)
	fmt.Fprintf(buf, `      <rect class="plot-area" x="%.1f" y="%.1f" width="%.1f" height="%.1f"/>`+"\n",
		area.Left, area.Top, area.Width, area.Height)

	var pts []string
	for _, p := range row.Series.Points {
		if p.Y == nil {
			continue
		}
		pts = append(pts, fmt.Sprintf("%.1f,%.1f", row.Chart.ValueToPixel(p.X), toY(*p.Y)))
	}
	if len(pts) > 0 {
		fmt.Fprintf(buf, `      <polyline fill="none" stroke="%s" stroke-width="2" points="%s"/>`+"\n", r.color, strings.Join(pts, " "))
	}
	buf.WriteString("    </g>\n")
}

// chartY returns the y mapping of a chart, falling back to the series'
// value range over the plot area.
func chartY(c render.Chart, s chartdata.Series, area render.Area) func(float64) float64 {
	if ys, ok := c.(yScaler); ok {
		return ys.YToPixel
	}
	lo, hi := s.Range()
	if hi <= lo {
		lo, hi = lo-0.5, hi+0.5
	}
	return func(y float64) float64 { return area.Top + (hi-y)/(hi-lo)*area.Height }
}

func renderMinima(buf *bytes.Buffer, row Row, rowH, width float64) {
	for _, m := range row.Series.Markers {
		if !m.Resolved {
			continue
		}
		if _, ok := align.ToRowPercent(m.PixelX, row.Placement.Left, width); !ok {
			continue
		}
		x := row.Placement.Left + m.PixelX
		fmt.Fprintf(buf, `    <line class="minima" data-index="%d" x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n",
			m.DisplayIndex, x, captionHeight, x, rowH)
		fmt.Fprintf(buf, `    <text class="minima-label" x="%.1f" y="%.1f">%s</text>`+"\n",
			x+3, rowH-4, escape(m.Label()))
	}
}

func escape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
