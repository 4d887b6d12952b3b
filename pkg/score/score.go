package score

import (
	"encoding/xml"
	"strconv"
	"strings"
)

// Defaults used when the first measure does not declare attributes.
const (
	DefaultBeats     = 3
	DefaultBeatType  = 4
	DefaultDivisions = 24
)

// TimeSignature is the document-wide meter.
type TimeSignature struct {
	Beats    int // beats per measure
	BeatType int // note value of one beat (4 = quarter)
}

// String returns the conventional "3/4" form.
func (t TimeSignature) String() string {
	return strconv.Itoa(t.Beats) + "/" + strconv.Itoa(t.BeatType)
}

// Measure is one bar of the first part.
type Measure struct {
	Number   int    // 1-based sequential number
	Label    string // number attribute as written in the file
	Duration int    // sum of note durations, in divisions
	Notes    int    // number of note elements (rests included)
}

// LabelNumber parses Label as an integer. Labels such as "12a" or "X1"
// yield their leading digits; a label without digits yields 0.
func (m Measure) LabelNumber() int {
	s := strings.TrimLeftFunc(m.Label, func(r rune) bool { return r < '0' || r > '9' })
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, _ := strconv.Atoi(s[:end])
	return n
}

// MeasureDuration is one row of the cumulative duration table.
type MeasureDuration struct {
	Number           int
	Divisions        int // duration of this measure
	Cumulative       int // divisions elapsed before this measure
	DivisionsPerBeat int
}

// Document is a parsed partwise MusicXML score.
type Document struct {
	version  string
	header   []rawNode // work, identification, defaults, part-list, ...
	parts    []xmlPart
	measures []Measure
	timeSig  TimeSignature
	divs     int
}

// MeasureCount returns the number of measures in the first part.
func (d *Document) MeasureCount() int { return len(d.measures) }

// Measures returns a copy of the measure list.
func (d *Document) Measures() []Measure {
	out := make([]Measure, len(d.measures))
	copy(out, d.measures)
	return out
}

// Measure returns the measure with the given sequential number.
func (d *Document) Measure(number int) (Measure, bool) {
	if number < 1 || number > len(d.measures) {
		return Measure{}, false
	}
	return d.measures[number-1], true
}

// Numbers returns the sequential numbers 1..MeasureCount.
func (d *Document) Numbers() []int {
	out := make([]int, len(d.measures))
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// Labels returns the declared number of every measure, in order.
func (d *Document) Labels() []int {
	out := make([]int, len(d.measures))
	for i, m := range d.measures {
		out[i] = m.LabelNumber()
	}
	return out
}

// Duration returns the duration of a measure in divisions, or 0 when the
// number is out of range.
func (d *Document) Duration(number int) int {
	m, ok := d.Measure(number)
	if !ok {
		return 0
	}
	return m.Duration
}

// TimeSignature returns the meter of the first measure.
func (d *Document) TimeSignature() TimeSignature { return d.timeSig }

// Divisions returns divisions per quarter note of the first measure.
func (d *Document) Divisions() int { return d.divs }

// PartCount returns the number of parts in the document.
func (d *Document) PartCount() int { return len(d.parts) }

// Durations returns the cumulative duration table.
func (d *Document) Durations() []MeasureDuration {
	out := make([]MeasureDuration, len(d.measures))
	cum := 0
	for i, m := range d.measures {
		out[i] = MeasureDuration{
			Number:           m.Number,
			Divisions:        m.Duration,
			Cumulative:       cum,
			DivisionsPerBeat: d.divs,
		}
		cum += m.Duration
	}
	return out
}

// =============================================================================
// Raw XML
// =============================================================================

// rawNode keeps an element verbatim so fragments can be re-emitted without
// losing anything the renderer may rely on.
type rawNode struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Inner   []byte     `xml:",innerxml"`
}

type xmlScore struct {
	XMLName xml.Name  `xml:"score-partwise"`
	Version string    `xml:"version,attr"`
	Parts   []xmlPart `xml:"part"`
	Other   []rawNode `xml:",any"`
}

type xmlPart struct {
	ID       string       `xml:"id,attr"`
	Measures []xmlMeasure `xml:"measure"`
}

type xmlMeasure struct {
	Number   string     `xml:"number,attr"`
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []rawNode  `xml:",any"`
}

type xmlNote struct {
	Duration int `xml:"duration"`
}

type xmlAttributes struct {
	Divisions int `xml:"divisions"`
	Time      *struct {
		Beats    string `xml:"beats"`
		BeatType string `xml:"beat-type"`
	} `xml:"time"`
}

func (m xmlMeasure) child(name string) (rawNode, bool) {
	for _, c := range m.Children {
		if c.XMLName.Local == name {
			return c, true
		}
	}
	return rawNode{}, false
}

func (n rawNode) decode(v any) error {
	data, err := xml.Marshal(n)
	if err != nil {
		return err
	}
	return xml.Unmarshal(data, v)
}
