// Package config holds the tunable parameters of scorealign and loads them
// from TOML files.
//
// None of the values change what is computed, only where things land:
// spacing of the chart, sizing of systems, and the thresholds that decide
// whether a rendered system is accepted. Every field has a default, so a
// file only needs to name what it overrides:
//
//	[chart]
//	offset_x = -60
//
//	[validation]
//	width_tolerance = 0.2
//	settle_delay = "250ms"
package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/scorealign/pkg/errors"
)

// Config is the full configuration.
type Config struct {
	Chart      Chart      `toml:"chart" json:"chart"`
	Layout     Layout     `toml:"layout" json:"layout"`
	Validation Validation `toml:"validation" json:"validation"`
	Render     Render     `toml:"render" json:"render"`
	Signal     Signal     `toml:"signal" json:"signal"`
	Cache      Cache      `toml:"cache" json:"cache"`
}

// Chart controls the mapping of beats to chart x values.
type Chart struct {
	OffsetX         float64 `toml:"offset_x" json:"offset_x"`                   // constant pixel correction of the chart position
	LineOffsetScale float64 `toml:"line_offset_scale" json:"line_offset_scale"` // leftward minima shift, in beat widths
	MeasureSpacing  float64 `toml:"measure_spacing" json:"measure_spacing"`     // per-measure extra spacing multiplier
	BeatSpacing     float64 `toml:"beat_spacing" json:"beat_spacing"`           // layout units per beat
	LeadingSpacing  float64 `toml:"leading_spacing" json:"leading_spacing"`     // blank lead-in, in beats
	Height          float64 `toml:"height" json:"height"`                       // chart canvas height in pixels
}

// Layout controls partitioning and reconciliation.
type Layout struct {
	ContainerWidth       float64  `toml:"container_width" json:"container_width"`
	MinMeasureWidth      float64  `toml:"min_measure_width" json:"min_measure_width"`
	MaxMeasuresPerSystem int      `toml:"max_measures_per_system" json:"max_measures_per_system"`
	PieceResetThreshold  int      `toml:"piece_reset_threshold" json:"piece_reset_threshold"`
	CapRedistribution    bool     `toml:"cap_redistribution" json:"cap_redistribution"`
	MaxIterations        int      `toml:"max_iterations" json:"max_iterations"`
	ResizeDebounce       Duration `toml:"resize_debounce" json:"resize_debounce"`
}

// Validation holds the render-acceptance thresholds.
type Validation struct {
	BackwardTolerance   float64  `toml:"backward_tolerance" json:"backward_tolerance"`       // pixels a measure may start left of its predecessor
	WidthTolerance      float64  `toml:"width_tolerance" json:"width_tolerance"`             // fraction the render may exceed the container
	MaxHeight           float64  `toml:"max_height" json:"max_height"`                       // render height that signals stacked lines
	SettleDelay         Duration `toml:"settle_delay" json:"settle_delay"`                   // wait after a render before measuring
	RetryCount          int      `toml:"retry_count" json:"retry_count"`                     // measurement attempts
	RetryDelay          Duration `toml:"retry_delay" json:"retry_delay"`                     // wait between attempts
	MinDetectedFraction float64  `toml:"min_detected_fraction" json:"min_detected_fraction"` // detected share below which a measurement is retried
}

// Render controls the reference engraver and the output sinks.
type Render struct {
	HeaderWidth    float64 `toml:"header_width" json:"header_width"`       // clef and meter space of the first measure
	MeasurePadding float64 `toml:"measure_padding" json:"measure_padding"` // fixed space per measure
	NoteWidth      float64 `toml:"note_width" json:"note_width"`           // space per note
	StaffHeight    float64 `toml:"staff_height" json:"staff_height"`       // height of one engraved line
	LineGap        float64 `toml:"line_gap" json:"line_gap"`               // vertical space between engraved lines
	MinimaLines    bool    `toml:"minima_lines" json:"minima_lines"`       // draw minima lines across the whole row
}

// Signal locates the per-level energy tables.
type Signal struct {
	PathTemplate string `toml:"path_template" json:"path_template"` // file path or URL with a {level} placeholder
	Levels       []int  `toml:"levels" json:"levels"`
	DefaultLevel int    `toml:"default_level" json:"default_level"`
}

// Cache selects the cache backend.
type Cache struct {
	Backend  string   `toml:"backend" json:"backend"` // memory, file, redis or none
	Dir      string   `toml:"dir" json:"dir"`
	RedisURL string   `toml:"redis_url" json:"redis_url"`
	TTL      Duration `toml:"ttl" json:"ttl"`
}

// Cache backends.
const (
	CacheMemory = "memory"
	CacheFile   = "file"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Chart: Chart{
			OffsetX:         -85,
			LineOffsetScale: 1.0,
			MeasureSpacing:  1.05,
			BeatSpacing:     1.0,
			LeadingSpacing:  1.3,
			Height:          150,
		},
		Layout: Layout{
			ContainerWidth:       1400,
			MinMeasureWidth:      200,
			MaxMeasuresPerSystem: 10,
			PieceResetThreshold:  1,
			CapRedistribution:    true,
			MaxIterations:        100,
			ResizeDebounce:       Duration(300 * time.Millisecond),
		},
		Validation: Validation{
			BackwardTolerance:   5,
			WidthTolerance:      0.10,
			MaxHeight:           400,
			SettleDelay:         Duration(500 * time.Millisecond),
			RetryCount:          3,
			RetryDelay:          Duration(200 * time.Millisecond),
			MinDetectedFraction: 0.5,
		},
		Render: Render{
			HeaderWidth:    70,
			MeasurePadding: 24,
			NoteWidth:      36,
			StaffHeight:    120,
			LineGap:        30,
			MinimaLines:    true,
		},
		Signal: Signal{
			PathTemplate: "energy_level_{level}.csv",
			Levels:       []int{1, 2, 3},
			DefaultLevel: 1,
		},
		Cache: Cache{
			Backend: CacheMemory,
			TTL:     Duration(24 * time.Hour),
		},
	}
}

// Load reads a TOML file on top of [Default]. Keys the file does not name
// keep their defaults; unknown keys are an error. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if err := errors.ValidatePath(path); err != nil {
		return cfg, err
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, errors.New(errors.ErrCodeInvalidConfig, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	checks := []struct {
		ok  bool
		msg string
	}{
		{finite(c.Chart.OffsetX), "chart.offset_x must be finite"},
		{c.Chart.LineOffsetScale >= 0, "chart.line_offset_scale must not be negative"},
		{c.Chart.MeasureSpacing >= 1, "chart.measure_spacing must be at least 1"},
		{c.Chart.BeatSpacing > 0, "chart.beat_spacing must be positive"},
		{c.Chart.LeadingSpacing >= 0, "chart.leading_spacing must not be negative"},
		{c.Chart.Height > 0, "chart.height must be positive"},
		{c.Layout.ContainerWidth > 0, "layout.container_width must be positive"},
		{c.Layout.MinMeasureWidth > 0, "layout.min_measure_width must be positive"},
		{c.Layout.MaxMeasuresPerSystem >= 1, "layout.max_measures_per_system must be at least 1"},
		{c.Layout.PieceResetThreshold >= 0, "layout.piece_reset_threshold must not be negative"},
		{c.Layout.MaxIterations >= 1, "layout.max_iterations must be at least 1"},
		{c.Layout.ResizeDebounce >= 0, "layout.resize_debounce must not be negative"},
		{c.Validation.BackwardTolerance >= 0, "validation.backward_tolerance must not be negative"},
		{c.Validation.WidthTolerance >= 0, "validation.width_tolerance must not be negative"},
		{c.Validation.MaxHeight > 0, "validation.max_height must be positive"},
		{c.Validation.SettleDelay >= 0, "validation.settle_delay must not be negative"},
		{c.Validation.RetryCount >= 1, "validation.retry_count must be at least 1"},
		{c.Validation.RetryDelay >= 0, "validation.retry_delay must not be negative"},
		{c.Validation.MinDetectedFraction >= 0 && c.Validation.MinDetectedFraction <= 1, "validation.min_detected_fraction must be within [0, 1]"},
		{c.Render.NoteWidth > 0, "render.note_width must be positive"},
		{c.Render.StaffHeight > 0, "render.staff_height must be positive"},
		{c.Render.LineGap >= 0, "render.line_gap must not be negative"},
	}
	for _, ch := range checks {
		if !ch.ok {
			return errors.New(errors.ErrCodeInvalidConfig, "%s", ch.msg)
		}
	}
	if err := errors.ValidatePathTemplate(c.Signal.PathTemplate); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "signal.path_template")
	}
	for _, l := range c.Signal.Levels {
		if err := errors.ValidateLevel(l); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "signal.levels")
		}
	}
	if err := errors.ValidateLevel(c.Signal.DefaultLevel); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "signal.default_level")
	}
	switch c.Cache.Backend {
	case CacheMemory, CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_url is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "cache.backend %q is not one of memory, file, redis, none", c.Cache.Backend)
	}
	return nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// Duration is a time.Duration written as a Go duration string in TOML.
type Duration time.Duration

// UnmarshalText parses strings such as "500ms".
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }
