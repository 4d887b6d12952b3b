// Package chartdata turns the signal samples of one system into a chart
// series.
//
// A system covering measures a..b spans the global beat indices
// [(a-1)*bpm, (a-1)*bpm + bpm*len - 1]. [Build] walks that range, carries the
// last value forward over missing samples, collects local minima as
// [Marker]s and places every beat on the chart's x axis through a [Mapper].
// Measures are walked in system order, so a system holding a break still
// gets the beats of exactly its own measures. A synthetic {0, nil} point always leads the series so the chart starts
// with the same blank lead-in as the engraved score.
package chartdata

import (
	"io"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scorealign/pkg/beat"
	"github.com/matzehuels/scorealign/pkg/layout"
	"github.com/matzehuels/scorealign/pkg/render"
	"github.com/matzehuels/scorealign/pkg/signal"
)

// DefaultMaxX is the x domain used when a series has no usable extent.
const DefaultMaxX = 100.0

// Point is a chart sample; a nil Y is a gap.
type Point = render.Point

// Samples looks up signal samples by global beat index.
type Samples interface {
	Lookup(index int) (signal.Sample, bool)
}

// Mapper places a beat, counted from the start of the system, on the x axis.
type Mapper interface {
	BeatX(beatInSystem int) float64
}

// Marker is a local minimum of the signal inside a system.
type Marker struct {
	Index             int     `json:"index"`        // global 0-based beat index
	DisplayIndex      int     `json:"displayIndex"` // 1-based index shown to users
	Value             float64 `json:"value"`
	Measure           int     `json:"measure"` // sequential measure number
	PositionInMeasure float64 `json:"positionInMeasure"`
	PointIndex        int     `json:"pointIndex"` // position in Series.Points
	PixelX            float64 `json:"pixelX"`     // canvas pixel, valid when Resolved
	Resolved          bool    `json:"resolved"`
}

// Label returns the caption drawn next to the marker line.
func (m Marker) Label() string {
	return "Index: " + strconv.Itoa(m.DisplayIndex) + " | Energy: " + strconv.FormatFloat(m.Value, 'f', 4, 64)
}

// Series is the chart input of one system.
type Series struct {
	System        int      `json:"system"`
	StartIndex    int      `json:"startIndex"`
	ExpectedBeats int      `json:"expectedBeats"`
	Points        []Point  `json:"points"`
	Labels        []string `json:"labels"`
	Markers       []Marker `json:"markers"`
	MinX          float64  `json:"minX"`
	MaxX          float64  `json:"maxX"`
}

// Beats returns the number of beat points, excluding the leading point.
func (s Series) Beats() int { return max(len(s.Points)-1, 0) }

// Range returns the smallest and largest value of the series, or 0, 0 when
// it holds none.
func (s Series) Range() (lo, hi float64) {
	first := true
	for _, p := range s.Points {
		if p.Y == nil {
			continue
		}
		if first {
			lo, hi, first = *p.Y, *p.Y, false
			continue
		}
		lo, hi = min(lo, *p.Y), max(hi, *p.Y)
	}
	return lo, hi
}

// Spec returns the render input for a canvas of the given size.
func (s Series) Spec(width, height float64) render.ChartSpec {
	return render.ChartSpec{Points: s.Points, MinX: s.MinX, MaxX: s.MaxX, Width: width, Height: height}
}

// Build computes the series of sys. bpm is the beats per measure of the
// document; mapper places each beat. A logger may be nil.
func Build(sys layout.System, samples Samples, bpm int, mapper Mapper, logger *log.Logger) Series {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	bpm = max(bpm, 1)

	start := beat.StartIndex(sys.StartMeasure(), bpm)
	expected := beat.ExpectedBeats(bpm, sys.Len())
	s := Series{
		System:        sys.Index,
		StartIndex:    start,
		ExpectedBeats: expected,
		Points:        make([]Point, 0, expected+1),
		Labels:        make([]string, 0, expected+1),
	}

	s.Points = append(s.Points, Point{X: 0})
	s.Labels = append(s.Labels, "")

	var prev *float64
	for _, m := range sys.Measures {
		first := beat.StartIndex(m, bpm)
		for b := 0; b < bpm; b++ {
			index := first + b
			y := prev
			if smp, ok := samples.Lookup(index); ok {
				v := smp.Value
				y = &v
				if smp.IsMinimum {
					pos := beat.IndexToMeasure(index, bpm)
					s.Markers = append(s.Markers, Marker{
						Index:             index,
						DisplayIndex:      index + 1,
						Value:             v,
						Measure:           pos.MeasureNumber,
						PositionInMeasure: pos.PositionInMeasure,
						PointIndex:        len(s.Points),
					})
				}
			}
			prev = y
			s.Points = append(s.Points, Point{X: mapper.BeatX(s.Beats()), Y: y})
			s.Labels = append(s.Labels, strconv.Itoa(index+1))
		}
	}

	if got := s.Beats(); got != expected {
		logger.Warn("point count mismatch", "system", sys.Index, "expected", expected, "got", got)
	}

	s.MinX, s.MaxX = Domain(s.Points)
	return s
}

// Domain returns the x range of points: from 0 to the last point holding a
// value, else to the largest x. A degenerate range becomes [0, 100].
func Domain(points []Point) (minX, maxX float64) {
	found := false
	for i := len(points) - 1; i >= 0; i-- {
		if points[i].Y != nil {
			maxX, found = points[i].X, true
			break
		}
	}
	if !found && len(points) > 1 {
		for _, p := range points {
			maxX = max(maxX, p.X)
		}
	}
	if maxX <= 0 {
		maxX = DefaultMaxX
	}
	return 0, maxX
}
