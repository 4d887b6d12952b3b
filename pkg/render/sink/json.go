package sink

import (
	"encoding/json"

	"github.com/matzehuels/scorealign/pkg/align"
	"github.com/matzehuels/scorealign/pkg/chartdata"
	"github.com/matzehuels/scorealign/pkg/render"
)

type jsonOutput struct {
	Title   string       `json:"title,omitempty"`
	Width   float64      `json:"width"`
	Level   int          `json:"level"`
	Systems []jsonSystem `json:"systems"`
}

type jsonSystem struct {
	Index     int                     `json:"index"`
	Caption   string                  `json:"caption"`
	Measures  []int                   `json:"measures"`
	NewPiece  bool                    `json:"new_piece,omitempty"`
	Break     bool                    `json:"break,omitempty"`
	Error     string                  `json:"error,omitempty"`
	Bounds    *render.Box             `json:"bounds,omitempty"`
	Geometry  []align.MeasureGeometry `json:"geometry,omitempty"`
	Placement *align.Placement        `json:"placement,omitempty"`
	PlotArea  *render.Area            `json:"plot_area,omitempty"`
	MinX      float64                 `json:"min_x"`
	MaxX      float64                 `json:"max_x"`
	Points    []chartdata.Point       `json:"points"`
	Labels    []string                `json:"labels,omitempty"`
	Markers   []chartdata.Marker      `json:"markers,omitempty"`
}

// RenderJSON exports the page as a pretty-printed JSON document.
//
// RenderJSON does not modify p and is safe to call concurrently.
func RenderJSON(p Page) ([]byte, error) {
	out := jsonOutput{
		Title:   p.Title,
		Width:   p.Width,
		Level:   p.Level,
		Systems: make([]jsonSystem, 0, len(p.Rows)),
	}
	for _, row := range p.Rows {
		out.Systems = append(out.Systems, buildJSONSystem(row))
	}
	return json.MarshalIndent(out, "", "  ")
}

func buildJSONSystem(row Row) jsonSystem {
	js := jsonSystem{
		Index:    row.System.Index,
		Caption:  row.System.Label(),
		Measures: row.System.Measures,
		NewPiece: row.System.NewPiece,
		Break:    row.System.Break,
		Geometry: row.Geometry,
		MinX:     row.Series.MinX,
		MaxX:     row.Series.MaxX,
		Points:   row.Series.Points,
		Labels:   row.Series.Labels,
		Markers:  row.Series.Markers,
	}
	if row.Err != nil {
		js.Error = row.Err.Error()
	}
	if row.Tree != nil {
		b := row.Tree.Bounds
		js.Bounds = &b
	}
	if row.Placement.Width > 0 {
		pl := row.Placement
		js.Placement = &pl
	}
	if row.Chart != nil {
		a := row.Chart.PlotArea()
		js.PlotArea = &a
	}
	if js.Points == nil {
		js.Points = []chartdata.Point{}
	}
	return js
}
