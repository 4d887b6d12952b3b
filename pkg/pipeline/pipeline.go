// Package pipeline provides the load → layout → render pipeline of
// scorealign.
//
// The CLI and the HTTP server both drive the same [Runner], so a score is
// laid out and exported identically no matter where the request came from.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: parse the MusicXML score and fetch the requested signal level
//  2. Layout: partition the measures into systems and reconcile them until
//     every system renders validly, aligning each chart with its score
//  3. Render: export the aligned page as SVG, JSON, PNG or PDF
//
// Rendered artifacts are cached by the score content, the layout inputs
// and the output format, so repeated requests skip the reconciliation.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, store, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    ScorePath: "mazurka.musicxml",
//	    Level:     2,
//	    Width:     1200,
//	    Formats:   []string{"svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scorealign/pkg/cache"
	"github.com/matzehuels/scorealign/pkg/config"
	"github.com/matzehuels/scorealign/pkg/errors"
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
}

// DefaultPNGScale is the raster scale of PNG exports.
const DefaultPNGScale = 2.0

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options
	ScorePath string `json:"score_path,omitempty"`
	Score     []byte `json:"-"` // raw MusicXML, takes precedence over ScorePath
	Title     string `json:"title,omitempty"`
	Level     int    `json:"level,omitempty"` // signal level; 0 uses the configured default
	NoSignal  bool   `json:"no_signal,omitempty"`

	// Layout options
	Width float64 `json:"width,omitempty"` // container width; 0 uses the configured width

	// Render options
	Formats     []string `json:"formats,omitempty"`
	MinimaLines *bool    `json:"minima_lines,omitempty"` // nil uses the configured value
	Refresh     bool     `json:"refresh,omitempty"`      // bypass cached artifacts

	// Runtime options (not serialized)
	Config *config.Config `json:"-"` // nil uses config.Default()
	Logger *log.Logger    `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: svg, png, pdf, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks the score input and the signal level.
func (o *Options) ValidateForLoad() error {
	o.setCommonDefaults()
	if len(o.Score) == 0 {
		if err := errors.ValidatePath(o.ScorePath); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "score path")
		}
	}
	if o.Level == 0 {
		o.Level = o.Config.Signal.DefaultLevel
	}
	return errors.ValidateLevel(o.Level)
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	o.setCommonDefaults()
	if o.Width == 0 {
		o.Width = o.Config.Layout.ContainerWidth
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	return errors.ValidateWidth(o.Width, o.Config.Layout.MinMeasureWidth)
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	o.setCommonDefaults()
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.MinimaLines == nil {
		on := o.Config.Render.MinimaLines
		o.MinimaLines = &on
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

func (o *Options) setCommonDefaults() {
	if o.Config == nil {
		cfg := config.Default()
		o.Config = &cfg
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// WantsSignal reports whether a chart is drawn under each system.
func (o *Options) WantsSignal() bool { return !o.NoSignal }

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts(signalSource string) cache.LayoutKeyOpts {
	opts := cache.LayoutKeyOpts{
		Width:             o.Width,
		MinMeasureWidth:   o.Config.Layout.MinMeasureWidth,
		MaxPerSystem:      o.Config.Layout.MaxMeasuresPerSystem,
		CapRedistribution: o.Config.Layout.CapRedistribution,
	}
	if o.WantsSignal() {
		opts.Level = o.Level
		opts.Signal = signalSource
	}
	if data, err := json.Marshal(o.Config); err == nil {
		opts.Config = cache.Hash(data)
	}
	return opts
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:      format,
		MinimaLines: o.MinimaLines != nil && *o.MinimaLines,
	}
}

// String summarizes the options for logs.
func (o *Options) String() string {
	src := o.ScorePath
	if len(o.Score) > 0 {
		src = fmt.Sprintf("<%d bytes>", len(o.Score))
	}
	return fmt.Sprintf("score=%s level=%d width=%.0f formats=%v", src, o.Level, o.Width, o.Formats)
}
