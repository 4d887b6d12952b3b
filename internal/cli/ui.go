package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/scorealign/pkg/reconcile"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleError for failures.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// =============================================================================
// Stats Display
// =============================================================================

// layoutStats is what the status line reports about a run.
type layoutStats struct {
	measures    int
	systems     int
	iterations  int
	adjustments int
	cached      bool
}

// formatStats renders the stats on a single line.
func formatStats(s layoutStats) string {
	var parts []string
	if s.measures > 0 {
		parts = append(parts, fmt.Sprintf("%d measures", s.measures))
	}
	if s.systems > 0 {
		parts = append(parts, fmt.Sprintf("%d systems", s.systems))
	}
	if s.iterations > 0 {
		parts = append(parts, fmt.Sprintf("%d renders", s.iterations))
	}
	if s.adjustments > 0 {
		parts = append(parts, fmt.Sprintf("%d adjustments", s.adjustments))
	}

	status := iconFresh
	statusStyle := styleComputed
	if s.cached {
		status = iconCached
		statusStyle = styleCached
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	if len(parts) > 0 {
		line += StyleDim.Render(" · ")
	}
	return line + statusStyle.Render(status)
}

func printStats(s layoutStats) {
	fmt.Println(formatStats(s))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Println()
}

// =============================================================================
// Systems Table
// =============================================================================

// systemStatus summarizes how a system left the reconciliation loop.
func systemStatus(s reconcile.SystemRender) string {
	switch {
	case s.Phase != reconcile.Validated:
		return s.Phase.String()
	case s.Err != nil:
		return "error"
	case s.Passed():
		return "ok"
	case s.Accepted:
		return "kept"
	}
	return "failed"
}

func statusStyle(status string) lipgloss.Style {
	switch status {
	case "ok":
		return StyleSuccess
	case "kept":
		return StyleWarning
	case "error", "failed":
		return StyleError
	}
	return StyleDim
}

// systemRows returns one table row per system.
func systemRows(systems []reconcile.SystemRender) [][]string {
	rows := make([][]string, 0, len(systems))
	for _, s := range systems {
		check := string(s.Result.Check)
		if check == "" {
			check = "—"
		}
		markers := "—"
		if s.Chart != nil {
			markers = strconv.Itoa(len(s.Series.Markers))
		}
		piece := ""
		if s.System.NewPiece {
			piece = "new piece"
		}
		rows = append(rows, []string{
			strconv.Itoa(s.System.Index + 1),
			measureRange(s),
			strconv.Itoa(s.System.Len()),
			systemStatus(s),
			check,
			strconv.Itoa(s.Attempts),
			markers,
			piece,
		})
	}
	return rows
}

func measureRange(s reconcile.SystemRender) string {
	if s.System.Len() == 0 {
		return "—"
	}
	return fmt.Sprintf("%d–%d", s.System.StartMeasure(), s.System.EndMeasure())
}

// systemsTable renders the systems as a bordered table. cursor highlights
// one row; pass -1 for none.
func systemsTable(systems []reconcile.SystemRender, cursor int) string {
	rows := systemRows(systems)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Measures", "Count", "Status", "Check", "Probes", "Minima", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == cursor {
				base = base.Bold(true)
			}
			if col == 3 && row < len(rows) {
				return base.Inherit(statusStyle(rows[row][3]))
			}
			if row == cursor {
				return base.Foreground(colorCyan)
			}
			return base.Foreground(colorGray)
		})
	return t.Render()
}

// reportSummary lists what a careful reader should know about a pass.
func reportSummary(r reconcile.Report) []string {
	var lines []string
	if r.Exhausted {
		lines = append(lines, fmt.Sprintf("iteration budget exhausted after %d renders", r.Iterations))
	}
	if failed := r.Failed(); len(failed) > 0 {
		idx := make([]string, len(failed))
		for i, f := range failed {
			idx[i] = strconv.Itoa(f + 1)
		}
		lines = append(lines, "systems that did not pass: "+strings.Join(idx, ", "))
	}
	for _, v := range r.Violations {
		lines = append(lines, "invariant violated: "+v)
	}
	return lines
}
