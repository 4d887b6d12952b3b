// Package align lines the energy chart up with the engraved score.
//
// Alignment has two halves. Placement decides where the chart canvas sits
// under a rendered system: it spans the first to the last note glyph of the
// render, shifted by a constant offset that corrects the engraver's bias
// ([PlaceChart]). Mapping decides where each beat falls inside the chart's
// own coordinate space: a [Mapper] scales the detected measure geometry onto
// the nominal beat grid, or falls back to fixed spacing when no geometry was
// detected.
//
// Marker positions are only known once the chart has been plotted, so
// [ResolveMarkers] queries the plotted chart instead of computing pixels
// analytically.
package align
