// Package layout partitions score measures into systems and adjusts them
// when a rendered system does not fit.
//
// A system is one rendered row: a run of measures that is engraved as a
// single fragment and paired with its own chart. [Partition] computes the
// initial systems from the container width; [LayoutState.AdjustSystemMeasures]
// shrinks one system by a measure and hands the measure on to a later system.
//
// # Sizing
//
// The target size of every system is
//
//	clamp(floor(containerWidth / minMeasureWidth), 1, MaxMeasuresPerSystem)
//
// Measures are grouped greedily into systems of exactly that size. The last
// system of each piece holds the remainder.
//
// # Pieces
//
// A score may concatenate several pieces whose measure labels restart at 1.
// [DetectPieceBoundaries] finds those resets. A system never spans a reset:
// the partitioner closes the running system before it, and the first system
// of the following piece is marked NewPiece. Adjustment only redistributes
// measures between systems of the same piece.
//
// # State
//
// [LayoutState] owns the systems, the measure-to-system index and the
// per-system caches ([IndexCache]) that hold derived render data. Caches are
// keyed by system index and tagged with a pass generation so writes from a
// superseded pass are dropped.
package layout
