package layout

import (
	"math"
	"sort"
)

// Partition defaults.
const (
	DefaultMaxMeasuresPerSystem = 10
	DefaultPieceResetThreshold  = 1
	DefaultMinMeasureWidth      = 200
)

// Options control partitioning and adjustment.
type Options struct {
	ContainerWidth       float64 // available row width in pixels
	MinMeasureWidth      float64 // estimated width of one measure in pixels
	MaxMeasuresPerSystem int     // upper clamp of the target size
	PieceResetThreshold  int     // label at or below which numbering is considered reset

	// CapRedistribution stops a tail system from growing past twice the
	// target size during redistribution; a fresh system is opened instead.
	CapRedistribution bool
}

func (o *Options) setDefaults() {
	if o.MinMeasureWidth <= 0 {
		o.MinMeasureWidth = DefaultMinMeasureWidth
	}
	if o.MaxMeasuresPerSystem <= 0 {
		o.MaxMeasuresPerSystem = DefaultMaxMeasuresPerSystem
	}
	if o.PieceResetThreshold <= 0 {
		o.PieceResetThreshold = DefaultPieceResetThreshold
	}
}

// MeasuresPerSystem returns the target system size for a container width.
func MeasuresPerSystem(containerWidth, minMeasureWidth float64, maxPerSystem int) int {
	if minMeasureWidth <= 0 {
		minMeasureWidth = DefaultMinMeasureWidth
	}
	if maxPerSystem <= 0 {
		maxPerSystem = DefaultMaxMeasuresPerSystem
	}
	f := math.Floor(containerWidth / minMeasureWidth)
	if !(f >= 1) {
		return 1
	}
	if f >= float64(maxPerSystem) {
		return maxPerSystem
	}
	return int(f)
}

// DetectPieceBoundaries returns the sequential measure numbers at which a new
// piece starts. labels holds the declared number of every measure in order;
// a piece starts where the label drops to threshold or below after the
// running maximum of the current piece exceeded it.
func DetectPieceBoundaries(labels []int, threshold int) []int {
	if threshold <= 0 {
		threshold = DefaultPieceResetThreshold
	}
	var starts []int
	runMax := math.MinInt
	for i, l := range labels {
		if i > 0 && l <= threshold && runMax > l && runMax > threshold {
			starts = append(starts, i+1)
			runMax = l
			continue
		}
		runMax = max(runMax, l)
	}
	return starts
}

// Partition groups measures 1..len(labels) into systems.
//
// labels carries the declared measure numbers used for piece detection; the
// systems themselves hold sequential numbers. The result is a fresh state:
// partitioning the same input twice yields identical systems.
func Partition(labels []int, opts Options) *LayoutState {
	opts.setDefaults()
	target := MeasuresPerSystem(opts.ContainerWidth, opts.MinMeasureWidth, opts.MaxMeasuresPerSystem)
	starts := DetectPieceBoundaries(labels, opts.PieceResetThreshold)

	st := newState(len(labels), target, starts, opts)

	all := make([]int, len(labels))
	for i := range all {
		all[i] = i + 1
	}
	for _, ms := range group(all, target, st.isPieceStart) {
		st.systems = append(st.systems, System{Measures: ms})
	}
	st.reindex()
	return st
}

// group splits measures into runs of size, closing a run early before every
// measure for which split returns true.
func group(measures []int, size int, split func(int) bool) [][]int {
	var (
		out [][]int
		cur []int
	)
	for _, m := range measures {
		if len(cur) > 0 && split(m) {
			out = append(out, cur)
			cur = nil
		}
		cur = append(cur, m)
		if len(cur) == size {
			out = append(out, cur)
			cur = nil
		}
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// pieceOf returns the 0-based piece a measure belongs to.
func pieceOf(starts []int, measure int) int {
	return sort.Search(len(starts), func(i int) bool { return starts[i] > measure })
}
