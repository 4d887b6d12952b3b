package layout

import (
	"fmt"
	"slices"
)

// AdjustOutcome says what an adjustment did with the removed measure.
type AdjustOutcome int

const (
	// CannotAdjust means the system was left untouched.
	CannotAdjust AdjustOutcome = iota
	// OutcomeMovedNext prepended the measure to the following system.
	OutcomeMovedNext
	// OutcomeRippled carried measures through full systems until one had room.
	OutcomeRippled
	// OutcomeAppendedTail grew the last system of the piece past the target.
	OutcomeAppendedTail
	// OutcomeCapped opened a fresh system because the tail reached its cap.
	OutcomeCapped
	// OutcomeNewSystem put the measure in a new system after the last one of its piece.
	OutcomeNewSystem
	// OutcomeNewPiece put a measure of the next piece in a system of its own.
	OutcomeNewPiece
	// OutcomeReset truncated an oversized system and fanned out the rest.
	OutcomeReset
)

var outcomeNames = map[AdjustOutcome]string{
	CannotAdjust:        "cannot-adjust",
	OutcomeMovedNext:    "moved-next",
	OutcomeRippled:      "rippled",
	OutcomeAppendedTail: "appended-tail",
	OutcomeCapped:       "capped",
	OutcomeNewSystem:    "new-system",
	OutcomeNewPiece:     "new-piece",
	OutcomeReset:        "reset",
}

func (o AdjustOutcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Adjustment reports the result of [LayoutState.AdjustSystemMeasures].
type Adjustment struct {
	Outcome  AdjustOutcome
	System   int    // index of the adjusted system
	Measure  int    // measure removed from it (0 for a reset)
	Receiver int    // index of the system that received Measure, -1 if none
	Reason   string // why the system could not be adjusted
}

// Adjusted reports whether the layout changed.
func (a Adjustment) Adjusted() bool { return a.Outcome != CannotAdjust }

// AdjustSystemMeasures shrinks the system at index by one measure and hands
// the measure on to a later system of the same piece.
//
// Single-measure systems and systems ending at a piece boundary are refused.
// A system holding more than three times the target size is reset instead:
// it keeps the target size and the remainder is fanned out into new systems.
//
// The removed measure goes to the front of the next system. If that system
// is then over the target, its own last measure is carried on to the system
// after it, and so on, so measure order is kept across systems. The last
// system of a piece absorbs the final carry and may grow past the target;
// with CapRedistribution it never grows past twice the target.
//
// The caller must invalidate cached render data from index on.
func (s *LayoutState) AdjustSystemMeasures(index int) Adjustment {
	s.mu.Lock()
	defer s.mu.Unlock()

	adj := Adjustment{System: index, Receiver: -1}
	if index < 0 || index >= len(s.systems) {
		adj.Reason = fmt.Sprintf("no system %d", index)
		return adj
	}
	sys := &s.systems[index]
	if len(sys.Measures) <= 1 {
		adj.Reason = "system has a single measure"
		return adj
	}
	if len(sys.Measures) > 3*s.target {
		s.resetSystem(index)
		adj.Outcome = OutcomeReset
		return adj
	}
	if s.isBoundaryMeasure(sys.EndMeasure()) {
		adj.Reason = fmt.Sprintf("measure %d ends a piece", sys.EndMeasure())
		return adj
	}

	piece := pieceOf(s.pieceStarts, sys.StartMeasure())
	popped := sys.Measures[len(sys.Measures)-1]
	sys.Measures = sys.Measures[:len(sys.Measures)-1]
	adj.Measure = popped

	defer s.reindex()

	if pieceOf(s.pieceStarts, popped) != piece {
		s.systems = slices.Insert(s.systems, index+1, System{Measures: []int{popped}})
		adj.Outcome, adj.Receiver = OutcomeNewPiece, index+1
		return adj
	}

	last := index
	for last+1 < len(s.systems) && pieceOf(s.pieceStarts, s.systems[last+1].StartMeasure()) == piece {
		last++
	}
	if last == index {
		s.systems = slices.Insert(s.systems, index+1, System{Measures: []int{popped}})
		adj.Outcome, adj.Receiver = OutcomeNewSystem, index+1
		return adj
	}

	carry := popped
	for j := index + 1; j <= last; j++ {
		next := &s.systems[j]
		if next.StartMeasure() != carry+1 {
			next.Break = true
		}
		next.Measures = append([]int{carry}, next.Measures...)
		if len(next.Measures) <= s.target {
			adj.Outcome, adj.Receiver = OutcomeRippled, j
			if j == index+1 {
				adj.Outcome = OutcomeMovedNext
			}
			return adj
		}
		if j == last {
			adj.Receiver = j
			if s.opts.CapRedistribution && len(next.Measures) > 2*s.target {
				tail := next.Measures[len(next.Measures)-1]
				next.Measures = next.Measures[:len(next.Measures)-1]
				s.systems = slices.Insert(s.systems, j+1, System{Measures: []int{tail}})
				adj.Outcome = OutcomeCapped
				return adj
			}
			adj.Outcome = OutcomeAppendedTail
			return adj
		}
		carry = next.Measures[len(next.Measures)-1]
		next.Measures = next.Measures[:len(next.Measures)-1]
	}
	return adj
}

// resetSystem truncates the system at index to the target size and inserts
// the remainder as new systems of target size right after it. Callers hold mu.
func (s *LayoutState) resetSystem(index int) {
	sys := &s.systems[index]
	rest := append([]int(nil), sys.Measures[s.target:]...)
	sys.Measures = sys.Measures[:s.target]

	var fanned []System
	for _, ms := range group(rest, s.target, s.isPieceStart) {
		fanned = append(fanned, System{Measures: ms})
	}
	s.systems = slices.Insert(s.systems, index+1, fanned...)
	s.reindex()
}
