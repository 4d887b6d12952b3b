package score

import (
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/matzehuels/scorealign/pkg/errors"
)

// Load reads and parses a MusicXML file.
// A missing or unreadable file is a fatal load error.
func Load(path string) (*Document, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeScoreLoad, err, "read score %s", path)
	}
	return ParseBytes(data)
}

// Parse decodes a MusicXML document from r.
func Parse(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeScoreLoad, err, "read score")
	}
	return ParseBytes(data)
}

// ParseBytes decodes a MusicXML document.
func ParseBytes(data []byte) (*Document, error) {
	var raw xmlScore
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidScore, err, "decode MusicXML")
	}
	if len(raw.Parts) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidScore, "score has no parts")
	}
	if len(raw.Parts[0].Measures) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidScore, "part %q has no measures", raw.Parts[0].ID)
	}

	doc := &Document{
		version: raw.Version,
		header:  raw.Other,
		parts:   raw.Parts,
		timeSig: TimeSignature{Beats: DefaultBeats, BeatType: DefaultBeatType},
		divs:    DefaultDivisions,
	}

	first := raw.Parts[0].Measures
	if attrs, ok := first[0].child("attributes"); ok {
		var a xmlAttributes
		if err := attrs.decode(&a); err == nil {
			if a.Divisions > 0 {
				doc.divs = a.Divisions
			}
			if a.Time != nil {
				if b := atoiPositive(a.Time.Beats); b > 0 {
					doc.timeSig.Beats = b
				}
				if bt := atoiPositive(a.Time.BeatType); bt > 0 {
					doc.timeSig.BeatType = bt
				}
			}
		}
	}

	doc.measures = make([]Measure, len(first))
	for i, m := range first {
		meas := Measure{Number: i + 1, Label: strings.TrimSpace(m.Number)}
		for _, c := range m.Children {
			if c.XMLName.Local != "note" {
				continue
			}
			meas.Notes++
			var n xmlNote
			if err := c.decode(&n); err == nil {
				meas.Duration += n.Duration
			}
		}
		doc.measures[i] = meas
	}
	return doc, nil
}

// atoiPositive parses s, accepting compound forms like "3+2" by summing.
func atoiPositive(s string) int {
	total := 0
	for _, part := range strings.Split(strings.TrimSpace(s), "+") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n <= 0 {
			return 0
		}
		total += n
	}
	return total
}
