package reconcile

import (
	"fmt"
	"time"

	"github.com/matzehuels/scorealign/pkg/align"
	"github.com/matzehuels/scorealign/pkg/chartdata"
	"github.com/matzehuels/scorealign/pkg/layout"
	"github.com/matzehuels/scorealign/pkg/render"
	"github.com/matzehuels/scorealign/pkg/validate"
)

// Phase is the state of one system within a pass.
type Phase int

const (
	// Unrendered systems have not been rendered in this pass.
	Unrendered Phase = iota
	// Rendered systems have a render tree but no verdict yet.
	Rendered
	// Validated systems carry a validation result.
	Validated
)

func (p Phase) String() string {
	switch p {
	case Unrendered:
		return "unrendered"
	case Rendered:
		return "rendered"
	case Validated:
		return "validated"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// SystemRender is everything a pass learned about one system.
type SystemRender struct {
	System layout.System
	Phase  Phase

	Tree     *render.Tree
	Err      error // renderer failure, shown inline instead of the score
	Attempts int   // probes taken while waiting for the render
	Partial  bool  // fewer measures were detected than expected
	Result   validate.Result
	Accepted bool // kept on the page although it failed validation

	Geometry  []align.MeasureGeometry
	Placement align.Placement
	Mapper    *align.Mapper
	Chart     render.Chart // nil when no chart was plotted
	Series    chartdata.Series
}

// Passed reports whether the system was validated successfully.
func (s SystemRender) Passed() bool {
	return s.Phase == Validated && s.Result.Pass
}

// Report summarizes one pass.
type Report struct {
	Generation  string
	Iterations  int
	Exhausted   bool // the iteration budget ran out
	Systems     []SystemRender
	Adjustments []layout.Adjustment
	Violations  []string // invariant violations seen after a step
	MaxX        float64  // largest chart x of all aligned systems
	Duration    time.Duration
}

// Failed returns the indices of systems that did not pass validation.
func (r Report) Failed() []int {
	var out []int
	for i, s := range r.Systems {
		if !s.Passed() {
			out = append(out, i)
		}
	}
	return out
}

// OK reports whether every system passed and the layout stayed consistent.
func (r Report) OK() bool {
	return !r.Exhausted && len(r.Violations) == 0 && len(r.Failed()) == 0
}
