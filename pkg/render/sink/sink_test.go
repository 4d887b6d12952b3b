package sink

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/matzehuels/scorealign/pkg/align"
	"github.com/matzehuels/scorealign/pkg/chartdata"
	"github.com/matzehuels/scorealign/pkg/layout"
	"github.com/matzehuels/scorealign/pkg/render/engraver"
	"github.com/matzehuels/scorealign/pkg/render/plot"
	"github.com/matzehuels/scorealign/pkg/score/scoretest"
	"github.com/matzehuels/scorealign/pkg/signal"
)

func testRow(t *testing.T) Row {
	t.Helper()
	ctx := context.Background()
	sys := layout.System{Index: 0, Measures: []int{1, 2}}

	tree, err := engraver.New(engraver.DefaultOptions()).Render(ctx, scoretest.Build(3, scoretest.Uniform(2, 3)), 1000)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	geoms := align.DetectMeasureGeometry(tree, sys.Measures, nil)
	placement, ok := align.PlaceChart(tree, geoms, 0)
	if !ok {
		t.Fatal("PlaceChart() found nothing")
	}

	var samples []signal.Sample
	for i := 0; i < 6; i++ {
		samples = append(samples, signal.Sample{Index: i, Value: float64(i % 3), IsMinimum: i == 3})
	}
	mapper := align.NewMapper(align.DefaultSpacing(), 3, sys.Len(), geoms)
	series := chartdata.Build(sys, signal.NewTable(samples), 3, mapper, nil)

	chart, err := plot.New().Plot(ctx, series.Spec(placement.Width, 150))
	if err != nil {
		t.Fatalf("Plot() error: %v", err)
	}
	series.Markers = align.ResolveMarkers(chart, series.Points, series.Markers, 1)

	return Row{System: sys, Tree: tree, Geometry: geoms, Placement: placement, Chart: chart, Series: series}
}

func TestRenderSVG(t *testing.T) {
	page := Page{Title: "Mazurka", Width: 1000, Level: 1, Rows: []Row{testRow(t)}}
	svg := string(RenderSVG(page))

	for _, want := range []string{
		"<svg ",
		"<title>Mazurka</title>",
		"System 1 - measures 1 to 2",
		`class="measure"`,
		`class="note"`,
		"<polyline",
		`class="minima" data-index="4"`,
		"Index: 4 | Energy: 0.0000",
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("SVG missing %q", want)
		}
	}
	if !strings.HasSuffix(svg, "</svg>\n") {
		t.Error("SVG is not closed")
	}
}

func TestRenderSVGWithoutMinimaLines(t *testing.T) {
	page := Page{Width: 1000, Level: 1, Rows: []Row{testRow(t)}}
	svg := string(RenderSVG(page, WithMinimaLines(false), WithColor("#000000")))
	if strings.Contains(svg, `class="minima"`) {
		t.Error("minima lines drawn although disabled")
	}
	if !strings.Contains(svg, `stroke="#000000"`) {
		t.Error("custom color not used")
	}
}

func TestRenderSVGInlineError(t *testing.T) {
	row := Row{System: layout.System{Index: 2, Measures: []int{7}}, Err: errors.New("bad <fragment>")}
	svg := string(RenderSVG(Page{Width: 800, Rows: []Row{row}}))
	if !strings.Contains(svg, "Score render failed: bad &lt;fragment&gt;") {
		t.Errorf("SVG does not show the escaped error:\n%s", svg)
	}
}

func TestRenderJSON(t *testing.T) {
	page := Page{Title: "Mazurka", Width: 1000, Level: 2, Rows: []Row{
		testRow(t),
		{System: layout.System{Index: 1, Measures: []int{3}}, Err: errors.New("boom")},
	}}

	data, err := RenderJSON(page)
	if err != nil {
		t.Fatalf("RenderJSON() error: %v", err)
	}

	var out jsonOutput
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("json.Unmarshal() error: %v", err)
	}
	if out.Level != 2 || out.Width != 1000 || len(out.Systems) != 2 {
		t.Fatalf("output = level %d width %v systems %d", out.Level, out.Width, len(out.Systems))
	}

	first := out.Systems[0]
	if len(first.Points) != 7 || len(first.Geometry) != 2 || first.Placement == nil || first.PlotArea == nil {
		t.Errorf("first system = %d points, %d geometries, placement %v, plot area %v",
			len(first.Points), len(first.Geometry), first.Placement, first.PlotArea)
	}
	if len(first.Markers) != 1 || first.Markers[0].DisplayIndex != 4 || !first.Markers[0].Resolved {
		t.Errorf("markers = %+v", first.Markers)
	}

	second := out.Systems[1]
	if second.Error != "boom" || second.Points == nil {
		t.Errorf("second system = %+v", second)
	}
}

func TestLevelColor(t *testing.T) {
	hex := regexp.MustCompile(`^#[0-9a-f]{6}$`)
	seen := make(map[string]bool)
	for level := 1; level <= 6; level++ {
		c := LevelColor(level)
		if !hex.MatchString(c) {
			t.Errorf("LevelColor(%d) = %q, not a hex color", level, c)
		}
		seen[c] = true
	}
	if len(seen) < 6 {
		t.Errorf("only %d distinct colors for 6 levels", len(seen))
	}
}
