package score

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/matzehuels/scorealign/pkg/errors"
)

const (
	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>` + "\n"
	doctype   = `<!DOCTYPE score-partwise PUBLIC "-//Recordare//DTD MusicXML 2.0 Partwise//EN" "http://www.musicxml.org/dtds/partwise.dtd">` + "\n"
)

// Fragment builds a standalone MusicXML document holding only the given
// measures (sequential numbers), in the order given, for every part.
//
// Header elements (work, identification, defaults, part-list) are copied.
// The fragment's first measure always carries an attributes block: if the
// source measure has none, the attributes of the part's first measure are
// injected. Attribute blocks on later measures are dropped so the renderer
// does not repeat clefs and meters.
func (d *Document) Fragment(measures []int) ([]byte, error) {
	if len(measures) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "fragment needs at least one measure")
	}
	for _, n := range measures {
		if n < 1 || n > len(d.measures) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "measure %d out of range 1..%d", n, len(d.measures))
		}
	}

	out := xmlScore{Version: "2.0", Other: d.header}
	for _, p := range d.parts {
		np := xmlPart{ID: p.ID}
		var partAttrs *rawNode
		if len(p.Measures) > 0 {
			if a, ok := p.Measures[0].child("attributes"); ok {
				partAttrs = &a
			}
		}
		for i, n := range measures {
			if n > len(p.Measures) {
				continue
			}
			np.Measures = append(np.Measures, fragmentMeasure(p.Measures[n-1], i == 0, partAttrs))
		}
		out.Parts = append(out.Parts, np)
	}

	var buf bytes.Buffer
	buf.WriteString(xmlHeader)
	buf.WriteString(doctype)
	if err := encodeScore(&buf, out); err != nil {
		return nil, fmt.Errorf("encode fragment: %w", err)
	}
	return buf.Bytes(), nil
}

// fragmentMeasure copies m, enforcing the attributes rule for fragments.
func fragmentMeasure(m xmlMeasure, first bool, partAttrs *rawNode) xmlMeasure {
	out := xmlMeasure{Number: m.Number, Attrs: m.Attrs}
	_, hasAttrs := m.child("attributes")
	if first && !hasAttrs && partAttrs != nil {
		out.Children = append(out.Children, *partAttrs)
	}
	for _, c := range m.Children {
		if !first && c.XMLName.Local == "attributes" {
			continue
		}
		out.Children = append(out.Children, c)
	}
	return out
}

// encodeScore writes the score element. Header nodes are emitted before the
// parts, matching the partwise DTD order.
func encodeScore(buf *bytes.Buffer, s xmlScore) error {
	enc := xml.NewEncoder(buf)
	start := xml.StartElement{
		Name: xml.Name{Local: "score-partwise"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "version"}, Value: s.Version}},
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, h := range s.Other {
		h.XMLName.Space = ""
		if err := enc.Encode(h); err != nil {
			return err
		}
	}
	for _, p := range s.Parts {
		if err := enc.EncodeElement(p, xml.StartElement{Name: xml.Name{Local: "part"}}); err != nil {
			return err
		}
	}
	if err := enc.EncodeToken(start.End()); err != nil {
		return err
	}
	return enc.Flush()
}
