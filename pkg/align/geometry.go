package align

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/matzehuels/scorealign/pkg/render"
)

// MeasureGeometry is the horizontal extent of one measure in a render.
type MeasureGeometry struct {
	Number    int     `json:"number"` // sequential measure number
	X         float64 `json:"x"`
	Width     float64 `json:"width"`
	RelativeX float64 `json:"relativeX"` // X minus the X of the first measure
	Estimated bool    `json:"estimated,omitempty"`
}

// Right returns the right edge.
func (g MeasureGeometry) Right() float64 { return g.X + g.Width }

// DetectMeasureGeometry finds the box of every measure of a system in tree.
//
// measures are the sequential numbers of the system in order and printed
// their printed numbers (nil when they coincide). Measures are matched by
// the measure group that holds their printed number, then by the order of
// the remaining measure groups. Measures still missing are estimated from
// the nearest detected measure and the mean detected width. The result is
// sorted by measure number; it is nil when the tree is empty.
func DetectMeasureGeometry(tree *render.Tree, measures, printed []int) []MeasureGeometry {
	if tree.Empty() || len(measures) == 0 {
		return nil
	}
	if len(printed) != len(measures) {
		printed = measures
	}

	n := len(measures)
	boxes := make([]*render.Box, n)
	groups := tree.Filter(render.KindMeasure)

	for _, num := range tree.Filter(render.KindMeasureNumber) {
		label, err := strconv.Atoi(strings.TrimSpace(num.Label))
		if err != nil {
			continue
		}
		i := slot(printed, boxes, label)
		if i < 0 {
			continue
		}
		if g, ok := enclosing(groups, num.Box); ok {
			boxes[i] = &g
		}
	}

	if count(boxes) < n {
		for i, g := range groups {
			if i >= n {
				break
			}
			if boxes[i] == nil && !claimed(boxes, g.Box) {
				b := g.Box
				boxes[i] = &b
			}
		}
	}

	out := make([]MeasureGeometry, n)
	var widths []float64
	for i, b := range boxes {
		out[i].Number = measures[i]
		if b != nil {
			out[i].X, out[i].Width = b.X, b.Width
			widths = append(widths, b.Width)
		}
	}

	if len(widths) < n {
		estimate(out, boxes, widths, tree.Bounds)
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].Number < out[b].Number })
	for i := range out {
		out[i].RelativeX = out[i].X - out[0].X
	}
	return out
}

// slot returns the first position still free whose printed number is label.
func slot(printed []int, boxes []*render.Box, label int) int {
	for i, p := range printed {
		if p == label && boxes[i] == nil {
			return i
		}
	}
	return -1
}

func enclosing(groups []render.Element, b render.Box) (render.Box, bool) {
	cx, cy := b.CenterX(), b.Y+b.Height/2
	for _, g := range groups {
		if cx >= g.Box.X && cx <= g.Box.Right() && cy >= g.Box.Y && cy <= g.Box.Bottom() {
			return g.Box, true
		}
	}
	return render.Box{}, false
}

func claimed(boxes []*render.Box, b render.Box) bool {
	for _, c := range boxes {
		if c != nil && *c == b {
			return true
		}
	}
	return false
}

func count(boxes []*render.Box) int {
	n := 0
	for _, b := range boxes {
		if b != nil {
			n++
		}
	}
	return n
}

// estimate fills the measures without a box. Positions are extrapolated
// from the nearest detected measure; with none detected the fragment width
// is split evenly.
func estimate(out []MeasureGeometry, boxes []*render.Box, widths []float64, bounds render.Box) {
	avg := bounds.Width / float64(len(out))
	if len(widths) > 0 {
		if m := stat.Mean(widths, nil); m > 0 {
			avg = m
		}
	}

	for i := range out {
		if boxes[i] != nil {
			continue
		}
		out[i].Width = avg
		out[i].Estimated = true

		near, dist := -1, math.MaxInt
		for j, b := range boxes {
			if b == nil {
				continue
			}
			if d := abs(j - i); d < dist {
				near, dist = j, d
			}
		}
		if near < 0 {
			out[i].X = bounds.X + float64(i)*avg
			continue
		}
		out[i].X = boxes[near].X + float64(i-near)*avg
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Detected returns how many geometries come from the render rather than
// estimation.
func Detected(geoms []MeasureGeometry) int {
	n := 0
	for _, g := range geoms {
		if !g.Estimated {
			n++
		}
	}
	return n
}
