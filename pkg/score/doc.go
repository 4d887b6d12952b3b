// Package score wraps a MusicXML (partwise) document for layout purposes.
//
// A [Document] exposes what the layout engine needs and nothing more: the
// number of measures, each measure's duration in divisions, the declared
// measure labels (used to detect concatenated pieces), and the time
// signature. It can also cut a contiguous run of measures out into a
// standalone fragment document so each system can be rendered on its own.
//
// # Measure numbering
//
// Measures are addressed by a 1-based sequential number ([Measure.Number])
// assigned in document order of the first part. The number attribute written
// in the file is kept as [Measure.Label]; it may reset when several pieces
// are concatenated into one file, so it is never used as a key.
//
// # Time signature
//
// The time signature is read once from the first measure's attributes and
// assumed constant for the whole document. Documents that change meter
// mid-piece are not supported; beat-index arithmetic will drift after the
// change.
//
// # Usage
//
//	doc, err := score.Load("music.xml")
//	if err != nil {
//	    return err
//	}
//	ts := doc.TimeSignature()
//	frag, err := doc.Fragment([]int{5, 6, 7, 8})
package score
