package reconcile

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/scorealign/pkg/align"
	"github.com/matzehuels/scorealign/pkg/chartdata"
	"github.com/matzehuels/scorealign/pkg/errors"
	"github.com/matzehuels/scorealign/pkg/layout"
	"github.com/matzehuels/scorealign/pkg/observability"
	"github.com/matzehuels/scorealign/pkg/render"
	"github.com/matzehuels/scorealign/pkg/score"
	"github.com/matzehuels/scorealign/pkg/validate"
)

// Loop defaults.
const (
	DefaultMaxIterations  = 100
	DefaultChartHeight    = 150.0
	DefaultContainerWidth = 1400.0
)

// Options configure a [Reconciler].
type Options struct {
	Score    *score.Document      // required
	Renderer render.ScoreRenderer // required
	Charts   render.ChartRenderer // nil disables chart plotting
	Samples  chartdata.Samples    // nil disables chart data

	ContainerWidth  float64 // row width each system is rendered into
	ChartHeight     float64
	ChartOffsetX    float64 // added to the chart's left edge
	LineOffsetScale float64 // beat widths markers are shifted left by
	Spacing         align.Spacing

	Thresholds    validate.Thresholds
	Await         validate.Policy
	MaxIterations int

	Logger *log.Logger

	// NewGeneration returns the id of a pass. Defaults to a random UUID.
	NewGeneration func() string
}

// DefaultOptions returns options with the built-in tuning. Score and
// Renderer still have to be set.
func DefaultOptions() Options {
	return Options{
		ContainerWidth:  DefaultContainerWidth,
		ChartHeight:     DefaultChartHeight,
		ChartOffsetX:    align.DefaultOffsetX,
		LineOffsetScale: align.DefaultLineOffsetScale,
		Spacing:         align.DefaultSpacing(),
		Thresholds:      validate.DefaultThresholds(),
		Await:           validate.DefaultPolicy(),
		MaxIterations:   DefaultMaxIterations,
	}
}

func (o *Options) setDefaults() {
	if o.ContainerWidth <= 0 {
		o.ContainerWidth = DefaultContainerWidth
	}
	if o.ChartHeight <= 0 {
		o.ChartHeight = DefaultChartHeight
	}
	if o.Spacing == (align.Spacing{}) {
		o.Spacing = align.DefaultSpacing()
	}
	if o.Thresholds == (validate.Thresholds{}) {
		o.Thresholds = validate.DefaultThresholds()
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Await.Logger == nil {
		o.Await.Logger = o.Logger
	}
	if o.NewGeneration == nil {
		o.NewGeneration = uuid.NewString
	}
}

// Reconciler renders systems until each one renders validly.
type Reconciler struct {
	opts      Options
	validator *validate.Validator
	bpm       int
}

// New creates a reconciler.
func New(opts Options) (*Reconciler, error) {
	if opts.Score == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "reconcile: no score")
	}
	if opts.Renderer == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "reconcile: no score renderer")
	}
	opts.setDefaults()

	bpm := opts.Score.TimeSignature().Beats
	if bpm <= 0 {
		bpm = score.DefaultBeats
	}
	return &Reconciler{
		opts:      opts,
		validator: validate.NewValidator(opts.ContainerWidth, opts.Thresholds, opts.Score.Labels(), opts.Logger),
		bpm:       bpm,
	}, nil
}

// BeatsPerMeasure returns the meter the charts are built with.
func (r *Reconciler) BeatsPerMeasure() int { return r.bpm }

// Run performs one pass over state.
//
// state is reset to a new generation first, so Run is the only writer of
// its caches while it runs. A pass that is superseded by another Begin on
// the same state stops with an INTERNAL_ERROR. Context cancellation stops
// the pass between steps; the partial report is returned with the error.
func (r *Reconciler) Run(ctx context.Context, state *layout.LayoutState) (Report, error) {
	clk := r.opts.Await.Clock
	if clk == nil {
		clk = validate.DefaultPolicy().Clock
	}
	start := clk.Now()
	logger := r.opts.Logger
	hooks := observability.Layout()

	gen := r.opts.NewGeneration()
	state.Begin(gen)
	renders := layout.NewIndexCache[SystemRender](state)

	report := Report{Generation: gen}
	hooks.OnPassStart(ctx, gen, state.Len())
	logger.Debug("layout pass started", "generation", gen, "systems", state.Len(), "target", state.Target())

	runErr := r.loop(ctx, state, &report, renders)

	var mappers []*align.Mapper
	report.Systems = make([]SystemRender, state.Len())
	for i := range report.Systems {
		if sr, ok := renders.Get(i); ok {
			report.Systems[i] = sr
			if sr.Mapper != nil {
				mappers = append(mappers, sr.Mapper)
			}
			continue
		}
		sys, _ := state.System(i)
		report.Systems[i] = SystemRender{System: sys}
	}
	report.MaxX = align.GlobalMaxX(mappers)
	report.Duration = clk.Since(start)

	hooks.OnPassComplete(ctx, gen, report.Iterations, report.Duration, runErr)
	if runErr == nil {
		logger.Debug("layout pass complete",
			"systems", len(report.Systems), "iterations", report.Iterations,
			"adjustments", len(report.Adjustments), "failed", len(report.Failed()))
	}
	return report, runErr
}

// loop walks the systems. Kept systems are stored in renders, which the
// state clears from the adjusted index on.
func (r *Reconciler) loop(ctx context.Context, state *layout.LayoutState, report *Report, renders *layout.IndexCache[SystemRender]) error {
	logger := r.opts.Logger
	hooks := observability.Layout()
	gen := report.Generation

	for i := 0; i < state.Len(); {
		if err := ctx.Err(); err != nil {
			return err
		}
		if report.Iterations >= r.opts.MaxIterations {
			report.Exhausted = true
			logger.Warn("iteration budget exhausted, stopping",
				"iterations", report.Iterations, "system", i, "systems", state.Len())
			return nil
		}
		report.Iterations++

		sys, _ := state.System(i)
		sr, err := r.renderSystem(ctx, sys)
		if err != nil {
			return err
		}
		hooks.OnSystemValidated(ctx, i, sr.Result.Pass, string(sr.Result.Check))

		advance := sr.Result.Pass
		if !sr.Result.Pass {
			adj := state.AdjustSystemMeasures(i)
			hooks.OnAdjust(ctx, i, adj.Outcome.String())
			if adj.Adjusted() {
				state.InvalidateFrom(i)
				report.Adjustments = append(report.Adjustments, adj)
				logger.Debug("adjusted system",
					"system", i, "check", sr.Result.Check, "outcome", adj.Outcome,
					"measure", adj.Measure, "receiver", adj.Receiver)
			} else {
				sr.Accepted = true
				advance = true
				logger.Warn("keeping system that failed validation",
					"system", i, "check", sr.Result.Check, "reason", sr.Result.Reason, "cannot_adjust", adj.Reason)
			}
		}

		if advance {
			if err := r.align(ctx, &sr); err != nil {
				return err
			}
			if !renders.Put(gen, i, sr) {
				return errors.New(errors.ErrCodeInternal, "layout pass %s was superseded by %s", gen, state.Generation())
			}
			i++
		}

		if err := state.CheckInvariants(); err != nil {
			report.Violations = append(report.Violations, err.Error())
			logger.Error("layout invariant violated", "system", i, "err", err)
		}
	}
	return nil
}

// renderSystem takes one system from Unrendered to Validated. Renderer
// failures become part of the result; only context errors are returned.
func (r *Reconciler) renderSystem(ctx context.Context, sys layout.System) (SystemRender, error) {
	sr := SystemRender{System: sys}

	fragment, err := r.opts.Score.Fragment(sys.Measures)
	if err == nil {
		sr.Tree, err = r.opts.Renderer.Render(ctx, fragment, r.opts.ContainerWidth)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return sr, ctxErr
		}
		sr.Err = err
		sr.Tree = nil
		r.opts.Logger.Warn("score render failed", "system", sys.Index, "err", err)
	}
	sr.Phase = Rendered

	probe := func(context.Context) (validate.Observation, error) {
		if sr.Err != nil {
			return validate.Observation{Err: sr.Err}, nil
		}
		return validate.Observe(sr.Tree), nil
	}
	policy := r.opts.Await
	if s, ok := r.opts.Renderer.(render.Synchronous); ok && s.Synchronous() {
		policy.SettleDelay, policy.RetryDelay = 0, 0
	}
	awaited, err := validate.AwaitStableRender(ctx, sys.Len(), probe, policy)
	if err != nil {
		return sr, err
	}
	sr.Attempts, sr.Partial = awaited.Attempts, awaited.Partial

	sr.Result = r.validator.Validate(sys, awaited.Observation)
	sr.Phase = Validated
	return sr, nil
}

// align lines the chart of a kept system up with its score.
func (r *Reconciler) align(ctx context.Context, sr *SystemRender) error {
	if sr.Err != nil || sr.Tree.Empty() {
		return nil
	}
	sys := sr.System
	sr.Geometry = align.DetectMeasureGeometry(sr.Tree, sys.Measures, r.validator.Expected(sys))
	sr.Mapper = align.NewMapper(r.opts.Spacing, r.bpm, sys.Len(), sr.Geometry)
	if r.opts.Samples == nil {
		return nil
	}
	sr.Series = chartdata.Build(sys, r.opts.Samples, r.bpm, sr.Mapper, r.opts.Logger)

	placement, ok := align.PlaceChart(sr.Tree, sr.Geometry, r.opts.ChartOffsetX)
	if !ok || r.opts.Charts == nil {
		return nil
	}
	sr.Placement = placement

	chart, err := r.opts.Charts.Plot(ctx, sr.Series.Spec(placement.Width, r.opts.ChartHeight))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		r.opts.Logger.Warn("chart plot failed", "system", sys.Index, "err", err)
		return nil
	}
	sr.Chart = chart
	sr.Series.Markers = align.ResolveMarkers(chart, sr.Series.Points, sr.Series.Markers, r.opts.LineOffsetScale)
	return nil
}
