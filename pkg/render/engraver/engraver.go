// Package engraver is a reference [render.ScoreRenderer].
//
// It does not draw music. It lays out a MusicXML fragment the way a real
// engraver would at the level of boxes: every measure is as wide as its
// padding plus one slot per note, each line opens with a clef and time
// signature header, and a measure that does not fit on the current line
// starts a new one below it. The resulting [render.Tree] carries measure
// groups, printed measure numbers and notehead boxes, which is all the
// layout engine measures.
package engraver

import (
	"context"
	"strconv"

	"github.com/matzehuels/scorealign/pkg/errors"
	"github.com/matzehuels/scorealign/pkg/render"
	"github.com/matzehuels/scorealign/pkg/score"
)

// Default metrics, in pixels.
const (
	DefaultHeaderWidth    = 70.0
	DefaultMeasurePadding = 24.0
	DefaultNoteWidth      = 36.0
	DefaultStaffHeight    = 120.0
	DefaultLineGap        = 30.0
)

const (
	noteheadWidth  = 10.0
	noteheadHeight = 8.0
	numberHeight   = 10.0
	numberCharW    = 6.0
)

// Options sets the engraving metrics.
type Options struct {
	HeaderWidth    float64 // clef and time signature at the start of a line
	MeasurePadding float64 // fixed width of every measure
	NoteWidth      float64 // width added per note
	StaffHeight    float64 // height of one line
	LineGap        float64 // vertical space between lines
}

// DefaultOptions returns the built-in metrics.
func DefaultOptions() Options {
	return Options{
		HeaderWidth:    DefaultHeaderWidth,
		MeasurePadding: DefaultMeasurePadding,
		NoteWidth:      DefaultNoteWidth,
		StaffHeight:    DefaultStaffHeight,
		LineGap:        DefaultLineGap,
	}
}

func (o *Options) setDefaults() {
	d := DefaultOptions()
	if o.HeaderWidth < 0 {
		o.HeaderWidth = d.HeaderWidth
	}
	if o.MeasurePadding <= 0 {
		o.MeasurePadding = d.MeasurePadding
	}
	if o.NoteWidth <= 0 {
		o.NoteWidth = d.NoteWidth
	}
	if o.StaffHeight <= 0 {
		o.StaffHeight = d.StaffHeight
	}
	if o.LineGap < 0 {
		o.LineGap = d.LineGap
	}
}

// Engraver lays out score fragments.
type Engraver struct {
	opts Options
}

// New creates an engraver. Zero or negative metrics take their defaults.
func New(opts Options) *Engraver {
	opts.setDefaults()
	return &Engraver{opts: opts}
}

// Options returns the metrics in use.
func (e *Engraver) Options() Options { return e.opts }

// Synchronous reports true: trees are complete when Render returns.
func (e *Engraver) Synchronous() bool { return true }

// MeasureWidth returns the width of a measure holding notes notes, without
// the line header.
func (e *Engraver) MeasureWidth(notes int) float64 {
	return e.opts.MeasurePadding + float64(max(notes, 1))*e.opts.NoteWidth
}

// Render engraves fragment into lines no wider than width. A measure wider
// than a whole line is placed alone on its line and overflows it.
func (e *Engraver) Render(ctx context.Context, fragment []byte, width float64) (*render.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := score.ParseBytes(fragment)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "engrave fragment")
	}

	tree := &render.Tree{}
	var (
		x, y      float64
		lineStart = true
		lineWidth float64
	)

	closeLine := func() {
		staff := render.Box{X: 0, Y: y + e.opts.StaffHeight/4, Width: lineWidth, Height: e.opts.StaffHeight / 2}
		tree.Elements = append(tree.Elements, render.Element{Kind: render.KindStaff, Box: staff})
		tree.Bounds = tree.Bounds.Union(staff)
	}

	for _, m := range doc.Measures() {
		w := e.MeasureWidth(m.Notes)
		header := 0.0
		if lineStart {
			header = e.opts.HeaderWidth
		}
		if !lineStart && width > 0 && x+w > width {
			closeLine()
			x, y = 0, y+e.opts.StaffHeight+e.opts.LineGap
			header = e.opts.HeaderWidth
		}

		box := render.Box{X: x, Y: y, Width: header + w, Height: e.opts.StaffHeight}
		label := m.Label
		if label == "" {
			label = strconv.Itoa(m.Number)
		}
		tree.Elements = append(tree.Elements,
			render.Element{Kind: render.KindMeasure, Label: label, Box: box},
			render.Element{Kind: render.KindMeasureNumber, Label: label, Box: render.Box{
				X: x + 2, Y: y + 2, Width: numberCharW * float64(len(label)), Height: numberHeight,
			}},
		)

		noteX := x + header + e.opts.MeasurePadding/2
		for j := 0; j < m.Notes; j++ {
			cx := noteX + (float64(j)+0.5)*e.opts.NoteWidth
			tree.Elements = append(tree.Elements, render.Element{Kind: render.KindNote, Box: render.Box{
				X: cx - noteheadWidth/2, Y: y + e.opts.StaffHeight/2 - noteheadHeight/2,
				Width: noteheadWidth, Height: noteheadHeight,
			}})
		}

		tree.Bounds = tree.Bounds.Union(box)
		x += box.Width
		lineWidth = x
		lineStart = false
	}
	if !lineStart {
		closeLine()
	}
	return tree, nil
}
