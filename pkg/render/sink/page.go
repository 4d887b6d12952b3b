package sink

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/scorealign/pkg/align"
	"github.com/matzehuels/scorealign/pkg/chartdata"
	"github.com/matzehuels/scorealign/pkg/layout"
	"github.com/matzehuels/scorealign/pkg/render"
)

// Row is one rendered system.
type Row struct {
	System    layout.System
	Tree      *render.Tree // nil when the score failed to render
	Err       error        // score render failure shown inline
	Geometry  []align.MeasureGeometry
	Placement align.Placement
	Chart     render.Chart // nil when the chart was not plotted
	Series    chartdata.Series
}

// Page is the output of one layout pass.
type Page struct {
	Title       string
	Width       float64 // container width
	Level       int     // signal level plotted
	ChartHeight float64
	Rows        []Row
}

// LevelColor returns the line color of a signal level. Level 1 is the
// teal used by the web viewer; later levels rotate the hue.
func LevelColor(level int) string {
	hue := 190 + float64(max(level-1, 0))*67
	for hue >= 360 {
		hue -= 360
	}
	return colorful.Hcl(hue, 0.45, 0.7).Clamped().Hex()
}
