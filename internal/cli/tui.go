package cli

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/scorealign/pkg/pipeline"
	"github.com/matzehuels/scorealign/pkg/reconcile"
)

var (
	listDimStyle   = lipgloss.NewStyle().Foreground(colorDim)
	detailKeyStyle = lipgloss.NewStyle().Foreground(colorGray).Width(10)
)

// layoutMsg delivers a finished re-layout to the inspect model.
type layoutMsg struct {
	layout pipeline.Layout
	width  float64
	err    error
}

// =============================================================================
// InspectModel - Interactive systems browser
// =============================================================================

// InspectModel is the bubbletea model of the inspect command. It lists the
// systems of a layout and follows the terminal width: a resize asks
// Relayout for a new layout, which arrives later as a layoutMsg.
type InspectModel struct {
	Name    string
	Systems []reconcile.SystemRender
	Report  reconcile.Report
	Width   float64 // container width of the shown layout
	Level   int

	Cursor int
	Offset int
	Height int // visible table rows

	// PxPerColumn converts terminal columns into container pixels. Zero
	// keeps the layout width fixed.
	PxPerColumn float64
	MinWidth    float64
	Relayout    func(width float64)

	target float64 // width of the newest requested layout
	err    error
}

// NewInspectModel creates a model showing l.
func NewInspectModel(name string, l pipeline.Layout, level int) InspectModel {
	return InspectModel{
		Name:    name,
		Systems: l.Report.Systems,
		Report:  l.Report,
		Width:   l.Width,
		Level:   level,
		Height:  10,
		target:  l.Width,
	}
}

// Pending reports whether a re-layout has been requested but not shown.
func (m InspectModel) Pending() bool { return m.target != m.Width }

func (m InspectModel) Init() tea.Cmd {
	return nil
}

func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Systems)-1 {
				m.Cursor++
			}
		case "home", "g":
			m.Cursor = 0
		case "end", "G":
			m.Cursor = max(len(m.Systems)-1, 0)
		case "r":
			m = m.requestLayout(m.Width)
		}
		m.scroll()

	case tea.WindowSizeMsg:
		// Table chrome, detail pane and status lines take about 18 rows.
		m.Height = max(msg.Height-18, 3)
		if m.PxPerColumn > 0 {
			width := math.Max(math.Round(float64(msg.Width)*m.PxPerColumn), m.MinWidth)
			if width != m.target {
				m = m.requestLayout(width)
			}
		}
		m.scroll()

	case layoutMsg:
		if msg.width != m.target {
			return m, nil // superseded by a newer request
		}
		m.err = msg.err
		if msg.err == nil {
			m.Systems = msg.layout.Report.Systems
			m.Report = msg.layout.Report
			m.Width = msg.width
			if m.Cursor >= len(m.Systems) {
				m.Cursor = max(len(m.Systems)-1, 0)
			}
		} else {
			m.target = m.Width
		}
		m.scroll()
	}
	return m, nil
}

func (m InspectModel) requestLayout(width float64) InspectModel {
	if m.Relayout == nil {
		return m
	}
	m.target = width
	m.err = nil
	m.Relayout(width)
	return m
}

// scroll keeps the cursor inside the visible window.
func (m *InspectModel) scroll() {
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
	if m.Offset < 0 {
		m.Offset = 0
	}
}

func (m InspectModel) View() string {
	var b strings.Builder

	header := fmt.Sprintf("%s  %s", m.Name, listDimStyle.Render(fmt.Sprintf("width %.0fpx", m.Width)))
	if m.Level > 0 {
		header += listDimStyle.Render(fmt.Sprintf(" · level %d", m.Level))
	}
	b.WriteString(StyleTitle.Render("Systems") + "  " + header)
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  r re-layout  q quit"))
	b.WriteString("\n\n")

	if len(m.Systems) == 0 {
		b.WriteString(listDimStyle.Render("  no systems"))
		b.WriteString("\n")
	} else {
		end := min(m.Offset+m.Height, len(m.Systems))
		b.WriteString(systemsTable(m.Systems[m.Offset:end], m.Cursor-m.Offset))
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Systems))))
		b.WriteString("\n\n")
		b.WriteString(m.detail(m.Systems[m.Cursor]))
	}

	for _, line := range reportSummary(m.Report) {
		b.WriteString(StyleWarning.Render(iconWarning+" "+line) + "\n")
	}
	switch {
	case m.err != nil:
		b.WriteString(StyleError.Render(iconError+" "+m.err.Error()) + "\n")
	case m.Pending():
		b.WriteString(listDimStyle.Render(fmt.Sprintf("%s re-laying out for %.0fpx...", iconInfo, m.target)) + "\n")
	}
	return b.String()
}

// detail describes one system: its verdict, measure positions and minima.
func (m InspectModel) detail(s reconcile.SystemRender) string {
	var b strings.Builder
	row := func(key, value string) {
		b.WriteString(detailKeyStyle.Render(key) + " " + StyleValue.Render(value) + "\n")
	}

	row("System", s.System.Label())
	verdict := systemStatus(s)
	if s.Result.Reason != "" {
		verdict += ": " + s.Result.Reason
	}
	if s.Err != nil {
		verdict += ": " + s.Err.Error()
	}
	row("Verdict", verdict)

	if len(s.Geometry) > 0 {
		parts := make([]string, len(s.Geometry))
		for i, g := range s.Geometry {
			mark := ""
			if g.Estimated {
				mark = "~"
			}
			parts[i] = fmt.Sprintf("%d@%s%.0f", g.Number, mark, g.X)
		}
		row("Measures", strings.Join(parts, " "))
	}
	if s.Mapper != nil {
		row("Chart", fmt.Sprintf("%d points, x ≤ %.2f", len(s.Series.Points), s.Mapper.MaxX()))
	}
	if len(s.Series.Markers) > 0 {
		parts := make([]string, len(s.Series.Markers))
		for i, mk := range s.Series.Markers {
			parts[i] = fmt.Sprintf("#%d m%d+%.2f", mk.DisplayIndex, mk.Measure, mk.PositionInMeasure)
			if mk.Resolved {
				parts[i] += fmt.Sprintf(" (%.0fpx)", mk.PixelX)
			}
		}
		row("Minima", strings.Join(parts, ", "))
	}
	return b.String()
}
