package align

import (
	"github.com/matzehuels/scorealign/pkg/chartdata"
	"github.com/matzehuels/scorealign/pkg/render"
)

// DefaultLineOffsetScale shifts marker lines left by one beat width.
const DefaultLineOffsetScale = 1.0

// ResolveMarkers sets the canvas pixel of every marker from the plotted
// chart. The width of one beat is the pixel distance between the first two
// beat points; markers past the first beat are moved left by offsetScale
// beat widths. Markers whose point is missing stay unresolved.
func ResolveMarkers(chart render.Chart, points []render.Point, markers []chartdata.Marker, offsetScale float64) []chartdata.Marker {
	out := make([]chartdata.Marker, len(markers))
	copy(out, markers)
	if chart == nil {
		return out
	}

	var beatWidth float64
	if len(points) > 2 {
		beatWidth = chart.ValueToPixel(points[2].X) - chart.ValueToPixel(points[1].X)
	}

	for i := range out {
		pi := out[i].PointIndex
		if pi <= 0 || pi >= len(points) {
			continue
		}
		px := chart.ValueToPixel(points[pi].X)
		if beatWidth > 0 && pi > 1 {
			px -= offsetScale * beatWidth
		}
		out[i].PixelX = px
		out[i].Resolved = true
	}
	return out
}

// Markers outside this band of the row width are not drawn.
const (
	minRowPercent = -5.0
	maxRowPercent = 105.0
)

// ToRowPercent converts a canvas pixel to a percentage of the system row.
// canvasLeft is the canvas' left edge within the row. It reports false when
// the result falls outside [-5, 105].
func ToRowPercent(pixelX, canvasLeft, rowWidth float64) (float64, bool) {
	if rowWidth <= 0 {
		return 0, false
	}
	pct := (canvasLeft + pixelX) / rowWidth * 100
	return pct, pct >= minRowPercent && pct <= maxRowPercent
}
