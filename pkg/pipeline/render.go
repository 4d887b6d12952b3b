package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/scorealign/pkg/reconcile"
	"github.com/matzehuels/scorealign/pkg/render/sink"
)

// BuildPage turns a reconciled layout into the page the sinks export.
func BuildPage(l Layout, opts Options) sink.Page {
	opts.SetLayoutDefaults()
	page := sink.Page{
		Title:       opts.Title,
		Width:       opts.Width,
		ChartHeight: opts.Config.Chart.Height,
		Rows:        make([]sink.Row, 0, len(l.Report.Systems)),
	}
	if opts.WantsSignal() {
		page.Level = opts.Level
		if page.Level == 0 {
			page.Level = opts.Config.Signal.DefaultLevel
		}
	}
	for _, s := range l.Report.Systems {
		page.Rows = append(page.Rows, rowOf(s))
	}
	return page
}

func rowOf(s reconcile.SystemRender) sink.Row {
	return sink.Row{
		System:    s.System,
		Tree:      s.Tree,
		Err:       s.Err,
		Geometry:  s.Geometry,
		Placement: s.Placement,
		Chart:     s.Chart,
		Series:    s.Series,
	}
}

// Render exports page in every format of opts.
func Render(ctx context.Context, page sink.Page, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	svgOpts := []sink.SVGOption{sink.WithMinimaLines(*opts.MinimaLines)}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatSVG:
			data = sink.RenderSVG(page, svgOpts...)
		case FormatJSON:
			data, err = sink.RenderJSON(page)
		case FormatPDF:
			data, err = sink.RenderPDF(ctx, page, svgOpts...)
		case FormatPNG:
			data, err = sink.RenderPNG(ctx, page, DefaultPNGScale, svgOpts...)
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
