// Package render defines the contracts between the layout engine and the
// engines that draw scores and charts.
//
// # Overview
//
// A [ScoreRenderer] engraves a MusicXML fragment and returns a [Tree] of
// measurable boxes. A [ChartRenderer] plots a line series and returns a
// [Chart] whose pixel mapping is only known after plotting. Both are black
// boxes to the engine: it only reads boxes and queries the mapping.
//
// Reference implementations live in subpackages:
//
//   - [engraver]: box-level score engraving with line wrapping
//   - [plot]: linear-scale chart plotting
//   - [sink]: SVG, JSON, PDF and PNG output of a reconciled layout
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	svg := sink.RenderSVG(page)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// [engraver]: github.com/matzehuels/scorealign/pkg/render/engraver
// [plot]: github.com/matzehuels/scorealign/pkg/render/plot
// [sink]: github.com/matzehuels/scorealign/pkg/render/sink
package render
