// Package scoretest builds small MusicXML documents for tests.
package scoretest

import (
	"fmt"
	"strconv"
	"strings"
)

// Measure describes one measure of a generated score.
type Measure struct {
	Label string // number attribute
	Notes int    // notes in the measure, split evenly over the bar
}

// Build returns a one-part partwise document in beats/4 time with 24
// divisions per quarter. The first measure carries the attributes.
func Build(beats int, measures []Measure) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<score-partwise version="3.1">`)
	b.WriteString(`<work><work-title>Test</work-title></work>`)
	b.WriteString(`<part-list><score-part id="P1"><part-name>Piano</part-name></score-part></part-list>`)
	b.WriteString(`<part id="P1">`)
	bar := 24 * beats
	for i, m := range measures {
		fmt.Fprintf(&b, `<measure number="%s">`, m.Label)
		if i == 0 {
			fmt.Fprintf(&b, `<attributes><divisions>24</divisions><time><beats>%d</beats><beat-type>4</beat-type></time></attributes>`, beats)
		}
		n := max(m.Notes, 1)
		for j := 0; j < n; j++ {
			d := bar / n
			if j == n-1 {
				d = bar - d*(n-1)
			}
			fmt.Fprintf(&b, `<note><pitch><step>C</step><octave>4</octave></pitch><duration>%d</duration></note>`, d)
		}
		b.WriteString(`</measure>`)
	}
	b.WriteString(`</part></score-partwise>`)
	return []byte(b.String())
}

// Uniform returns count measures labelled 1..count with notes notes each.
func Uniform(count, notes int) []Measure {
	out := make([]Measure, count)
	for i := range out {
		out[i] = Measure{Label: strconv.Itoa(i + 1), Notes: notes}
	}
	return out
}

// Pieces returns consecutive pieces of the given lengths, each numbered
// from 1, with notes notes per measure.
func Pieces(notes int, lengths ...int) []Measure {
	var out []Measure
	for _, n := range lengths {
		for i := 1; i <= n; i++ {
			out = append(out, Measure{Label: strconv.Itoa(i), Notes: notes})
		}
	}
	return out
}
