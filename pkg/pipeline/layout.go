package pipeline

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scorealign/pkg/align"
	"github.com/matzehuels/scorealign/pkg/chartdata"
	"github.com/matzehuels/scorealign/pkg/config"
	"github.com/matzehuels/scorealign/pkg/layout"
	"github.com/matzehuels/scorealign/pkg/reconcile"
	"github.com/matzehuels/scorealign/pkg/render/engraver"
	"github.com/matzehuels/scorealign/pkg/render/plot"
	"github.com/matzehuels/scorealign/pkg/score"
	"github.com/matzehuels/scorealign/pkg/validate"
)

// =============================================================================
// Config Conversion
// =============================================================================

// PartitionOptions returns the partitioning options of cfg for a container
// width.
func PartitionOptions(cfg config.Config, width float64) layout.Options {
	return layout.Options{
		ContainerWidth:       width,
		MinMeasureWidth:      cfg.Layout.MinMeasureWidth,
		MaxMeasuresPerSystem: cfg.Layout.MaxMeasuresPerSystem,
		PieceResetThreshold:  cfg.Layout.PieceResetThreshold,
		CapRedistribution:    cfg.Layout.CapRedistribution,
	}
}

// EngraverOptions returns the reference engraver metrics of cfg.
func EngraverOptions(cfg config.Config) engraver.Options {
	opts := engraver.DefaultOptions()
	opts.HeaderWidth = cfg.Render.HeaderWidth
	opts.MeasurePadding = cfg.Render.MeasurePadding
	opts.NoteWidth = cfg.Render.NoteWidth
	opts.StaffHeight = cfg.Render.StaffHeight
	opts.LineGap = cfg.Render.LineGap
	return opts
}

// ReconcileOptions returns the loop tuning of cfg for a container width.
// Score, Renderer, Charts and Samples are left for the caller.
func ReconcileOptions(cfg config.Config, width float64, logger *log.Logger) reconcile.Options {
	opts := reconcile.DefaultOptions()
	opts.ContainerWidth = width
	opts.ChartHeight = cfg.Chart.Height
	opts.ChartOffsetX = cfg.Chart.OffsetX
	opts.LineOffsetScale = cfg.Chart.LineOffsetScale
	opts.Spacing = align.Spacing{
		LeadingSpacing: cfg.Chart.LeadingSpacing,
		BeatSpacing:    cfg.Chart.BeatSpacing,
		MeasureSpacing: cfg.Chart.MeasureSpacing,
	}
	opts.Thresholds = validate.Thresholds{
		BackwardTolerance: cfg.Validation.BackwardTolerance,
		WidthTolerance:    cfg.Validation.WidthTolerance,
		MaxHeight:         cfg.Validation.MaxHeight,
	}
	opts.Await.SettleDelay = cfg.Validation.SettleDelay.Std()
	opts.Await.Retries = cfg.Validation.RetryCount
	opts.Await.RetryDelay = cfg.Validation.RetryDelay.Std()
	opts.Await.MinDetectedFraction = cfg.Validation.MinDetectedFraction
	opts.Await.Logger = logger
	opts.MaxIterations = cfg.Layout.MaxIterations
	opts.Logger = logger
	return opts
}

// =============================================================================
// Layout Generation
// =============================================================================

// Layout is a reconciled score layout.
type Layout struct {
	Document *score.Document
	State    *layout.LayoutState
	Report   reconcile.Report
	Width    float64 // container width the systems were fitted to
}

// GenerateLayout partitions doc for opts.Width and runs one reconciliation
// pass with the reference engraver and plotter. samples may be nil, in which
// case no charts are built.
func GenerateLayout(ctx context.Context, doc *score.Document, samples chartdata.Samples, opts Options) (Layout, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return Layout{}, err
	}
	cfg := *opts.Config

	state := layout.Partition(doc.Labels(), PartitionOptions(cfg, opts.Width))
	opts.Logger.Debug("partitioned score",
		"measures", doc.MeasureCount(), "systems", state.Len(),
		"target", state.Target(), "pieces", len(state.PieceStarts())+1)

	ropts := ReconcileOptions(cfg, opts.Width, opts.Logger)
	ropts.Score = doc
	ropts.Renderer = engraver.New(EngraverOptions(cfg))
	ropts.Charts = plot.New()
	ropts.Samples = samples

	r, err := reconcile.New(ropts)
	if err != nil {
		return Layout{}, err
	}
	report, err := r.Run(ctx, state)
	if err != nil {
		return Layout{}, err
	}
	if report.Exhausted {
		opts.Logger.Warn("layout did not converge", "iterations", report.Iterations, "failed", report.Failed())
	}
	for _, v := range report.Violations {
		opts.Logger.Error("layout invariant violated", "detail", v)
	}
	return Layout{Document: doc, State: state, Report: report, Width: opts.Width}, nil
}
