// Package sink writes a reconciled layout to its output formats.
//
// # Overview
//
// A "sink" turns a [Page], the rendered systems of one layout pass, into a
// final output format:
//
//   - SVG: every system row with its engraved boxes, energy line and minima
//   - JSON: systems, geometry, chart points and markers for external tools
//   - PDF and PNG: the SVG converted with rsvg-convert
//
// # SVG Output
//
// [RenderSVG] stacks one row per system. A row has a caption, the score
// fragment and the chart canvas placed under the score at the span computed
// by the alignment engine. A system whose score failed to render shows the
// error inline instead of boxes.
//
//	svg := sink.RenderSVG(page, sink.WithMinimaLines(true))
//
// Minima lines are drawn through the whole row and labelled with the beat's
// display index and energy. Markers that fall outside the row are skipped.
//
// # JSON Output
//
// [RenderJSON] exports everything the SVG shows as data, which is also what
// the HTTP API serves.
package sink
