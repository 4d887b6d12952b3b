// Package beat maps global beat indices onto measure positions.
//
// The signal data is indexed by a global, 0-based beat counter that runs
// across the whole document. The score is indexed by 1-based measure
// numbers. With a constant time signature the two are related by plain
// integer arithmetic:
//
//	measure  = index/beatsPerMeasure + 1
//	position = (index mod beatsPerMeasure) / beatsPerMeasure
//
// No clamping is applied. Callers decide whether a resulting measure number
// lies inside the document or the system they are working on.
package beat

// Position locates a beat inside the score.
type Position struct {
	MeasureNumber     int     // 1-based measure number
	BeatInMeasure     int     // 0-based beat offset inside the measure
	PositionInMeasure float64 // fractional position in [0, 1)
}

// IndexToMeasure maps a global beat index to its measure position.
// It is total over non-negative indices; beatsPerMeasure must be positive.
func IndexToMeasure(index, beatsPerMeasure int) Position {
	if beatsPerMeasure <= 0 {
		beatsPerMeasure = 1
	}
	inMeasure := index % beatsPerMeasure
	return Position{
		MeasureNumber:     index/beatsPerMeasure + 1,
		BeatInMeasure:     inMeasure,
		PositionInMeasure: float64(inMeasure) / float64(beatsPerMeasure),
	}
}

// StartIndex returns the global index of the first beat of measure.
func StartIndex(measure, beatsPerMeasure int) int {
	return (measure - 1) * beatsPerMeasure
}

// ExpectedBeats returns how many beats a run of measures spans.
func ExpectedBeats(beatsPerMeasure, measureCount int) int {
	return beatsPerMeasure * measureCount
}
