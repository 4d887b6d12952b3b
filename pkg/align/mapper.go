package align

// Default chart spacing, in beat units.
const (
	DefaultLeadingSpacing = 1.3
	DefaultBeatSpacing    = 1.0
	DefaultMeasureSpacing = 1.05
)

// Spacing sets the chart's beat grid.
type Spacing struct {
	// LeadingSpacing is the blank lead-in before the first beat, in beats.
	LeadingSpacing float64
	// BeatSpacing is the x distance between consecutive beats.
	BeatSpacing float64
	// MeasureSpacing stretches each measure; 1 adds no extra space.
	MeasureSpacing float64
}

// DefaultSpacing returns the built-in spacing.
func DefaultSpacing() Spacing {
	return Spacing{
		LeadingSpacing: DefaultLeadingSpacing,
		BeatSpacing:    DefaultBeatSpacing,
		MeasureSpacing: DefaultMeasureSpacing,
	}
}

// LeadingWidth returns the x extent of the lead-in.
func (s Spacing) LeadingWidth() float64 { return s.LeadingSpacing * s.BeatSpacing }

// measureExtra returns the extra x added after each completed measure.
func (s Spacing) measureExtra(bpm int) float64 {
	return (s.MeasureSpacing - 1) * float64(bpm) * s.BeatSpacing
}

// Mapper places the beats of one system on the chart's x axis.
type Mapper struct {
	spacing  Spacing
	bpm      int
	measures int
	geoms    []MeasureGeometry
	scale    float64
}

// NewMapper creates a mapper for a system of measureCount measures. When
// geoms holds one geometry per measure the beats follow the rendered
// measures; otherwise they are spaced evenly.
func NewMapper(spacing Spacing, bpm, measureCount int, geoms []MeasureGeometry) *Mapper {
	m := &Mapper{spacing: spacing, bpm: max(bpm, 1), measures: max(measureCount, 0), scale: 1}
	if len(geoms) == 0 || len(geoms) != measureCount {
		return m
	}
	m.geoms = geoms

	last := geoms[len(geoms)-1]
	span := last.RelativeX + last.Width
	if span > 0 {
		m.scale = float64(m.Beats()) * spacing.BeatSpacing / span
	}
	return m
}

// UsesGeometry reports whether the mapping follows detected geometry.
func (m *Mapper) UsesGeometry() bool { return m.geoms != nil }

// Beats returns the number of beats in the system.
func (m *Mapper) Beats() int { return m.bpm * m.measures }

// Scale returns the factor from render space to chart space.
func (m *Mapper) Scale() float64 { return m.scale }

// BeatX returns the chart x of a beat counted from the start of the system.
func (m *Mapper) BeatX(beatInSystem int) float64 {
	measure := beatInSystem / m.bpm
	inMeasure := beatInSystem % m.bpm
	extra := float64(measure) * m.spacing.measureExtra(m.bpm)

	if m.geoms != nil && measure < len(m.geoms) {
		g := m.geoms[measure]
		rel := g.RelativeX + float64(inMeasure)/float64(m.bpm)*g.Width
		return m.spacing.LeadingWidth() + rel*m.scale + extra
	}
	return m.spacing.LeadingWidth() + float64(beatInSystem)*m.spacing.BeatSpacing + extra
}

// MaxX returns the x of the last beat, or the lead-in width for an empty
// system.
func (m *Mapper) MaxX() float64 {
	if m.Beats() == 0 {
		return m.spacing.LeadingWidth()
	}
	return m.BeatX(m.Beats() - 1)
}

// GlobalMaxX returns the largest MaxX of mappers, for a shared x axis across
// systems.
func GlobalMaxX(mappers []*Mapper) float64 {
	var out float64
	for _, m := range mappers {
		out = max(out, m.MaxX())
	}
	return out
}
