package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scorealign/pkg/cache"
	"github.com/matzehuels/scorealign/pkg/chartdata"
	"github.com/matzehuels/scorealign/pkg/observability"
	"github.com/matzehuels/scorealign/pkg/render/sink"
	"github.com/matzehuels/scorealign/pkg/signal"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache, the signal store and the
// logger. Multiple goroutines can safely use the same Runner with different
// options.
type Runner struct {
	Cache   cache.Cache
	Keyer   cache.Keyer
	Signals *signal.Store // nil disables charts
	Logger  *log.Logger
}

// NewRunner creates a runner.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, signals *signal.Store, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:   c,
		Keyer:   keyer,
		Signals: signals,
		Logger:  logger,
	}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// ScoreHash is the content hash of the score.
	ScoreHash string

	// Layout is the reconciled layout. It is empty when every artifact
	// came from the cache.
	Layout Layout

	// Page is what the sinks rendered.
	Page sink.Page

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Measures    int
	Systems     int
	Iterations  int
	Adjustments int
	LoadTime    time.Duration
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	RenderHit bool // Whether all artifacts came from cache
}

// Execute runs the complete load → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	result := &Result{Artifacts: make(map[string][]byte)}

	// Stage 1: Load
	loadStart := time.Now()
	doc, scoreHash, err := LoadScore(opts)
	if err != nil {
		return nil, err
	}
	result.ScoreHash = scoreHash
	result.Stats.Measures = doc.MeasureCount()

	layoutHash := r.Keyer.LayoutKey(scoreHash, opts.LayoutKeyOpts(r.signalSource()))
	if !opts.Refresh {
		if artifacts, ok := r.cachedArtifacts(ctx, layoutHash, opts); ok {
			result.Artifacts = artifacts
			result.CacheInfo.RenderHit = true
			r.Logger.Debug("served artifacts from cache", "formats", opts.Formats)
			return result, nil
		}
	}

	table, err := LoadSignal(ctx, r.Signals, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.LoadTime = time.Since(loadStart)
	r.Logger.Info("loaded score",
		"measures", doc.MeasureCount(),
		"meter", doc.TimeSignature(),
		"duration", result.Stats.LoadTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	var samples chartdata.Samples
	if table != nil {
		samples = table
	}
	l, err := GenerateLayout(ctx, doc, samples, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.Systems = len(l.Report.Systems)
	result.Stats.Iterations = l.Report.Iterations
	result.Stats.Adjustments = len(l.Report.Adjustments)

	r.Logger.Info("reconciled layout",
		"systems", result.Stats.Systems,
		"iterations", result.Stats.Iterations,
		"adjustments", result.Stats.Adjustments,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	result.Page = BuildPage(l, opts)
	artifacts, err := Render(ctx, result.Page, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)

	for format, data := range artifacts {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
			r.Logger.Warn("artifact cache write failed", "format", format, "error", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)
	return result, nil
}

// Layout loads and reconciles a score without rendering it. The layout is
// not cached: it holds live render trees and charts.
func (r *Runner) Layout(ctx context.Context, opts Options) (Layout, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLoad(); err != nil {
		return Layout{}, err
	}

	doc, _, err := LoadScore(opts)
	if err != nil {
		return Layout{}, err
	}
	table, err := LoadSignal(ctx, r.Signals, opts)
	if err != nil {
		return Layout{}, err
	}
	var samples chartdata.Samples
	if table != nil {
		samples = table
	}
	return GenerateLayout(ctx, doc, samples, opts)
}

func (r *Runner) cachedArtifacts(ctx context.Context, layoutHash string, opts Options) (map[string][]byte, bool) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			observability.Cache().OnCacheMiss(ctx, "artifact")
			return nil, false
		}
		artifacts[format] = data
	}
	observability.Cache().OnCacheHit(ctx, "artifact")
	return artifacts, true
}

func (r *Runner) signalSource() string {
	if r.Signals == nil {
		return ""
	}
	return r.Signals.SourceName()
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
