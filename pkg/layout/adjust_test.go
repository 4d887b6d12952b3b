package layout

import (
	"math/rand"
	"reflect"
	"testing"
)

// partitionN lays out measures 1..n of a single piece with the given target.
func partitionN(n, target int, capped bool) *LayoutState {
	return Partition(seq(1, n), Options{
		ContainerWidth:    float64(target * 200),
		MinMeasureWidth:   200,
		CapRedistribution: capped,
	})
}

func mustAdjust(t *testing.T, st *LayoutState, index int, want AdjustOutcome) Adjustment {
	t.Helper()
	adj := st.AdjustSystemMeasures(index)
	if adj.Outcome != want {
		t.Fatalf("AdjustSystemMeasures(%d) = %s (%s), want %s", index, adj.Outcome, adj.Reason, want)
	}
	if err := st.CheckInvariants(); err != nil {
		t.Fatalf("after AdjustSystemMeasures(%d): %v", index, err)
	}
	return adj
}

func TestAdjustMovedNext(t *testing.T) {
	st := partitionN(9, 4, true)
	adj := mustAdjust(t, st, 1, OutcomeMovedNext)
	if adj.Measure != 8 || adj.Receiver != 2 {
		t.Errorf("adjustment = %+v, want measure 8 to system 2", adj)
	}
	if got := st.Sizes(); !reflect.DeepEqual(got, []int{4, 3, 2}) {
		t.Errorf("sizes = %v, want [4 3 2]", got)
	}
	sys, _ := st.System(2)
	if !reflect.DeepEqual(sys.Measures, []int{8, 9}) || sys.Break {
		t.Errorf("system 2 = %+v", sys)
	}
}

func TestAdjustRipplesThroughFullSystems(t *testing.T) {
	st := partitionN(9, 4, true)
	adj := mustAdjust(t, st, 0, OutcomeRippled)
	if adj.Measure != 4 || adj.Receiver != 2 {
		t.Errorf("adjustment = %+v, want measure 4 rippled to system 2", adj)
	}
	want := [][]int{{1, 2, 3}, {4, 5, 6, 7}, {8, 9}}
	for i, sys := range st.Systems() {
		if !reflect.DeepEqual(sys.Measures, want[i]) {
			t.Errorf("system %d = %v, want %v", i, sys.Measures, want[i])
		}
		if !sys.Contiguous() || sys.Break {
			t.Errorf("system %d lost contiguity", i)
		}
	}
}

func TestAdjustAppendsToTail(t *testing.T) {
	st := partitionN(8, 4, true)
	adj := mustAdjust(t, st, 0, OutcomeAppendedTail)
	if adj.Receiver != 1 {
		t.Errorf("Receiver = %d, want 1", adj.Receiver)
	}
	if got := st.Sizes(); !reflect.DeepEqual(got, []int{3, 5}) {
		t.Errorf("sizes = %v, want [3 5]", got)
	}
}

func TestAdjustLastSystemOpensNewSystem(t *testing.T) {
	st := partitionN(10, 4, true)
	mustAdjust(t, st, 2, OutcomeNewSystem)
	if got := st.Sizes(); !reflect.DeepEqual(got, []int{4, 4, 1, 1}) {
		t.Errorf("sizes = %v, want [4 4 1 1]", got)
	}
}

func TestAdjustRefusesSingleMeasure(t *testing.T) {
	st := partitionN(9, 4, true)
	adj := mustAdjust(t, st, 2, CannotAdjust)
	if adj.Adjusted() || adj.Reason == "" {
		t.Errorf("adjustment = %+v", adj)
	}
	if got := st.Sizes(); !reflect.DeepEqual(got, []int{4, 4, 1}) {
		t.Errorf("sizes changed to %v", got)
	}
	if adj := st.AdjustSystemMeasures(7); adj.Adjusted() {
		t.Error("out of range index should not adjust")
	}
}

func TestAdjustCapRedistribution(t *testing.T) {
	tests := []struct {
		name    string
		capped  bool
		last    AdjustOutcome
		want    []int
	}{
		{"capped", true, OutcomeCapped, []int{1, 1, 1, 4, 1}},
		{"uncapped", false, OutcomeAppendedTail, []int{1, 1, 1, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := partitionN(8, 2, tt.capped)
			mustAdjust(t, st, 0, OutcomeAppendedTail)
			mustAdjust(t, st, 1, OutcomeAppendedTail)
			mustAdjust(t, st, 2, tt.last)
			if got := st.Sizes(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("sizes = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAdjustSafetyValve(t *testing.T) {
	st := partitionN(12, 2, false)
	for i := 0; i < 5; i++ {
		mustAdjust(t, st, i, OutcomeAppendedTail)
	}
	if got := st.Sizes(); !reflect.DeepEqual(got, []int{1, 1, 1, 1, 1, 7}) {
		t.Fatalf("sizes before reset = %v", got)
	}
	mustAdjust(t, st, 5, OutcomeReset)
	if got := st.Sizes(); !reflect.DeepEqual(got, []int{1, 1, 1, 1, 1, 2, 2, 2, 1}) {
		t.Errorf("sizes after reset = %v", got)
	}
	var order []int
	for _, sys := range st.Systems() {
		order = append(order, sys.Measures...)
	}
	if !reflect.DeepEqual(order, seq(1, 12)) {
		t.Errorf("measure order after reset = %v", order)
	}
}

func TestAdjustRefusesPieceBoundary(t *testing.T) {
	// [1 2 3][4 5 6][7 8] | [9 10 11][12]
	st := Partition(concat(seq(1, 8), seq(1, 4)), Options{ContainerWidth: 600, MinMeasureWidth: 200})
	mustAdjust(t, st, 2, CannotAdjust)
	mustAdjust(t, st, 1, OutcomeMovedNext)
	mustAdjust(t, st, 1, OutcomeAppendedTail)
	mustAdjust(t, st, 2, CannotAdjust)

	sys, _ := st.System(3)
	if sys.StartMeasure() != 9 || !sys.NewPiece {
		t.Errorf("first system of the second piece = %+v", sys)
	}
}

// An oversized system is reset even when it ends a piece; the boundary
// refusal only applies to systems that still fit three targets.
func TestAdjustResetsOversizedSystemAtBoundary(t *testing.T) {
	st := newState(9, 2, []int{8}, Options{})
	st.systems = []System{{Measures: seq(1, 7)}, {Measures: []int{8, 9}}}
	st.reindex()

	mustAdjust(t, st, 0, OutcomeReset)
	if got := st.Sizes(); !reflect.DeepEqual(got, []int{2, 2, 2, 1, 2}) {
		t.Errorf("sizes = %v, want [2 2 2 1 2]", got)
	}
	sys, _ := st.System(3)
	if !reflect.DeepEqual(sys.Measures, []int{7}) {
		t.Errorf("system 3 = %v, want the boundary measure alone", sys.Measures)
	}
	mustAdjust(t, st, 3, CannotAdjust)
}

func TestAdjustSplitsStraddlingSystem(t *testing.T) {
	st := newState(8, 4, []int{5}, Options{})
	st.systems = []System{{Measures: []int{1, 2, 3, 4, 5}}, {Measures: []int{6, 7, 8}}}
	st.reindex()

	adj := mustAdjust(t, st, 0, OutcomeNewPiece)
	if adj.Measure != 5 || adj.Receiver != 1 {
		t.Errorf("adjustment = %+v", adj)
	}
	systems := st.Systems()
	if !systems[1].NewPiece || systems[2].NewPiece {
		t.Errorf("NewPiece flags = %v %v, want true false", systems[1].NewPiece, systems[2].NewPiece)
	}
}

func TestAdjustMarksBreak(t *testing.T) {
	st := newState(6, 3, nil, Options{})
	st.systems = []System{{Measures: []int{1, 2, 4}}, {Measures: []int{3, 5}}, {Measures: []int{6}}}
	st.reindex()

	mustAdjust(t, st, 0, OutcomeMovedNext)
	sys, _ := st.System(1)
	if !sys.Break || !reflect.DeepEqual(sys.Measures, []int{4, 3, 5}) {
		t.Errorf("system 1 = %+v, want Break with [4 3 5]", sys)
	}
}

// TestAdjustProperties drives random adjustment sequences and checks that
// every step shrinks the adjusted system by exactly one (resets aside),
// never below one measure, keeps every measure exactly once and never puts
// measures of two pieces in one system.
func TestAdjustProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	layouts := [][]int{
		seq(1, 9),
		seq(1, 37),
		concat(seq(1, 40), seq(1, 20)),
		concat(seq(1, 7), seq(1, 3), seq(1, 12)),
	}
	for _, labels := range layouts {
		for _, capped := range []bool{true, false} {
			for _, width := range []float64{200, 500, 800, 1400} {
				st := Partition(labels, Options{ContainerWidth: width, MinMeasureWidth: 200, CapRedistribution: capped})
				starts := st.PieceStarts()
				for step := 0; step < 200; step++ {
					i := rng.Intn(st.Len())
					before, _ := st.System(i)
					adj := st.AdjustSystemMeasures(i)
					after, _ := st.System(i)

					switch adj.Outcome {
					case CannotAdjust:
						if !reflect.DeepEqual(before.Measures, after.Measures) {
							t.Fatalf("refused adjustment changed system %d", i)
						}
					case OutcomeReset:
						if after.Len() != st.Target() {
							t.Fatalf("reset left %d measures, want %d", after.Len(), st.Target())
						}
					default:
						if after.Len() != before.Len()-1 {
							t.Fatalf("system %d went from %d to %d measures", i, before.Len(), after.Len())
						}
					}
					if after.Len() < 1 {
						t.Fatalf("system %d is empty", i)
					}
					if err := st.CheckInvariants(); err != nil {
						t.Fatalf("step %d: %v", step, err)
					}
					for _, sys := range st.Systems() {
						p := pieceOf(starts, sys.StartMeasure())
						for _, m := range sys.Measures {
							if pieceOf(starts, m) != p {
								t.Fatalf("system %d mixes pieces: %v", sys.Index, sys.Measures)
							}
						}
					}
				}
			}
		}
	}
}
