package layout

import "fmt"

// System is an ordered run of measures rendered as one row.
type System struct {
	Index    int   // 0-based position in the layout
	Measures []int // sequential measure numbers, in render order
	NewPiece bool  // first system of a piece other than the first
	Break    bool  // received a measure that is not contiguous with its neighbours
}

// Len returns the number of measures in the system.
func (s System) Len() int { return len(s.Measures) }

// StartMeasure returns the first measure number, or 0 for an empty system.
func (s System) StartMeasure() int {
	if len(s.Measures) == 0 {
		return 0
	}
	return s.Measures[0]
}

// EndMeasure returns the last measure number, or 0 for an empty system.
func (s System) EndMeasure() int {
	if len(s.Measures) == 0 {
		return 0
	}
	return s.Measures[len(s.Measures)-1]
}

// Contiguous reports whether the measures form an unbroken ascending run.
func (s System) Contiguous() bool {
	for i := 1; i < len(s.Measures); i++ {
		if s.Measures[i] != s.Measures[i-1]+1 {
			return false
		}
	}
	return true
}

// Label returns the caption shown above the system row.
func (s System) Label() string {
	return fmt.Sprintf("System %d - measures %d to %d", s.Index+1, s.StartMeasure(), s.EndMeasure())
}

func (s System) clone() System {
	s.Measures = append([]int(nil), s.Measures...)
	return s
}
