package validate

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scorealign/pkg/layout"
	"github.com/matzehuels/scorealign/pkg/render"
)

// Default heuristic thresholds.
const (
	DefaultBackwardTolerance = 5.0
	DefaultWidthTolerance    = 0.10
	DefaultMaxHeight         = 400.0
)

// Check names a validation step.
type Check string

const (
	CheckNone        Check = ""
	CheckRenderError Check = "render-error"
	CheckEmpty       Check = "empty"
	CheckCount       Check = "count"
	CheckSequence    Check = "sequence"
	CheckBackward    Check = "backward-x"
	CheckWidth       Check = "width"
	CheckHeight      Check = "height"
)

// Thresholds tune the overflow heuristics.
type Thresholds struct {
	// BackwardTolerance is how far, in pixels, a measure may start left of
	// its predecessor before the render counts as wrapped.
	BackwardTolerance float64
	// WidthTolerance is the fraction by which the render may exceed the
	// container width.
	WidthTolerance float64
	// MaxHeight is the tallest render accepted for a multi-measure system.
	MaxHeight float64
}

// DefaultThresholds returns the built-in thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		BackwardTolerance: DefaultBackwardTolerance,
		WidthTolerance:    DefaultWidthTolerance,
		MaxHeight:         DefaultMaxHeight,
	}
}

// Detected is one measure found in a render.
type Detected struct {
	Label int     // printed measure number
	X     float64 // left edge in render space
}

// Observation is what the validator sees of a render.
type Observation struct {
	Err      error      // renderer failure, if any
	Empty    bool       // nothing measurable was drawn
	Measures []Detected // measures in render order
	Width    float64    // rendered width
	Height   float64    // rendered height
}

// Labels returns the detected measure numbers in render order.
func (o Observation) Labels() []int {
	out := make([]int, len(o.Measures))
	for i, m := range o.Measures {
		out[i] = m.Label
	}
	return out
}

// Observe reads an observation from a render tree. Measures are taken from
// the printed measure numbers, falling back to labelled measure groups when
// the engraver printed none.
func Observe(tree *render.Tree) Observation {
	if tree.Empty() {
		return Observation{Empty: true}
	}
	obs := Observation{Width: tree.Bounds.Width, Height: tree.Bounds.Height}
	obs.Measures = detect(tree.Filter(render.KindMeasureNumber))
	if len(obs.Measures) == 0 {
		obs.Measures = detect(tree.Filter(render.KindMeasure))
	}
	return obs
}

func detect(elems []render.Element) []Detected {
	var out []Detected
	for _, e := range elems {
		n, err := strconv.Atoi(strings.TrimSpace(e.Label))
		if err != nil {
			continue
		}
		out = append(out, Detected{Label: n, X: e.Box.X})
	}
	return out
}

// Result is the verdict on one render. A failed result is a value, not an
// error: the reconciliation loop reacts to it by adjusting the layout.
type Result struct {
	Pass   bool
	Check  Check  // failing check, CheckNone on a pass
	Reason string // human readable detail
}

func pass() Result { return Result{Pass: true} }

func fail(c Check, format string, args ...any) Result {
	return Result{Check: c, Reason: fmt.Sprintf(format, args...)}
}

// Validator checks renders of systems.
type Validator struct {
	Thresholds     Thresholds
	ContainerWidth float64
	// Labels maps a sequential measure number m to its printed number at
	// Labels[m-1]. When nil the printed number is the sequential one.
	Labels []int
	Logger *log.Logger
}

// NewValidator creates a validator for the given container width.
func NewValidator(containerWidth float64, t Thresholds, labels []int, logger *log.Logger) *Validator {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Validator{Thresholds: t, ContainerWidth: containerWidth, Labels: labels, Logger: logger}
}

// Expected returns the printed numbers the render of sys must show.
func (v *Validator) Expected(sys layout.System) []int {
	out := make([]int, len(sys.Measures))
	for i, m := range sys.Measures {
		out[i] = m
		if m >= 1 && m <= len(v.Labels) {
			out[i] = v.Labels[m-1]
		}
	}
	return out
}

// Validate runs the checks in order and returns the first failure.
func (v *Validator) Validate(sys layout.System, obs Observation) Result {
	r := v.validate(sys, obs)
	if !r.Pass {
		v.logger().Debug("system failed validation", "system", sys.Index, "check", r.Check, "reason", r.Reason)
	}
	return r
}

func (v *Validator) validate(sys layout.System, obs Observation) Result {
	if obs.Err != nil {
		return fail(CheckRenderError, "render failed: %v", obs.Err)
	}
	if obs.Empty {
		return fail(CheckEmpty, "render produced no output")
	}

	if got, want := len(obs.Measures), sys.Len(); got != want {
		return fail(CheckCount, "detected %d of %d measures", got, want)
	}

	want := v.Expected(sys)
	for i, m := range obs.Measures {
		if m.Label != want[i] {
			return fail(CheckSequence, "measure %d shows number %d, want %d", i+1, m.Label, want[i])
		}
	}

	t := v.Thresholds
	for i := 1; i < len(obs.Measures); i++ {
		prev, cur := obs.Measures[i-1], obs.Measures[i]
		if cur.X < prev.X-t.BackwardTolerance {
			return fail(CheckBackward, "measure %d starts at x=%.1f, left of measure %d at x=%.1f",
				cur.Label, cur.X, prev.Label, prev.X)
		}
	}

	if v.ContainerWidth > 0 {
		limit := v.ContainerWidth * (1 + t.WidthTolerance)
		if obs.Width > limit {
			return fail(CheckWidth, "width %.1f exceeds %.1f", obs.Width, limit)
		}
	}

	if sys.Len() > 1 && t.MaxHeight > 0 && obs.Height > t.MaxHeight {
		return fail(CheckHeight, "height %.1f exceeds %.1f", obs.Height, t.MaxHeight)
	}
	return pass()
}

func (v *Validator) logger() *log.Logger {
	if v.Logger == nil {
		return log.NewWithOptions(io.Discard, log.Options{})
	}
	return v.Logger
}
