package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/scorealign/pkg/cache"
	"github.com/matzehuels/scorealign/pkg/config"
	"github.com/matzehuels/scorealign/pkg/errors"
	"github.com/matzehuels/scorealign/pkg/render/engraver"
	"github.com/matzehuels/scorealign/pkg/score/scoretest"
	"github.com/matzehuels/scorealign/pkg/signal"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"json", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "json"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}
	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{ScorePath: "score.musicxml"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error: %v", err)
	}

	if opts.Level != 1 {
		t.Errorf("Level = %d, want 1", opts.Level)
	}
	if opts.Width != 1400 {
		t.Errorf("Width = %v, want 1400", opts.Width)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats = %v, want [svg]", opts.Formats)
	}
	if opts.MinimaLines == nil || !*opts.MinimaLines {
		t.Error("MinimaLines should default to the configured true")
	}
	if opts.Logger == nil || opts.Config == nil {
		t.Error("Logger and Config should be set")
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{ScorePath: "score.musicxml", Width: 900}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	first := opts.String()
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.String() != first {
		t.Errorf("second call changed options: %s -> %s", first, opts.String())
	}
}

func TestOptionsValidation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"no score", Options{}, errors.ErrCodeInvalidInput},
		{"level out of range", Options{ScorePath: "a.xml", Level: 99}, errors.ErrCodeInvalidInput},
		{"narrow width", Options{ScorePath: "a.xml", Width: 50}, errors.ErrCodeInvalidInput},
		{"bad format", Options{ScorePath: "a.xml", Formats: []string{"gif"}}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}

	inline := Options{Score: []byte("<score-partwise/>")}
	if err := inline.ValidateForLoad(); err != nil {
		t.Errorf("inline score should not need a path: %v", err)
	}
}

func TestEngraverOptions(t *testing.T) {
	if got := EngraverOptions(config.Default()); got != engraver.DefaultOptions() {
		t.Errorf("default config = %+v, want the engraver defaults", got)
	}

	cfg := config.Default()
	cfg.Render.HeaderWidth = 50
	cfg.Render.NoteWidth = 40
	cfg.Render.StaffHeight = 100
	cfg.Render.LineGap = 12
	got := EngraverOptions(cfg)
	want := engraver.Options{HeaderWidth: 50, MeasurePadding: 24, NoteWidth: 40, StaffHeight: 100, LineGap: 12}
	if got != want {
		t.Errorf("EngraverOptions() = %+v, want %+v", got, want)
	}
}

func TestLayoutKeyOpts(t *testing.T) {
	a := Options{ScorePath: "a.xml", Level: 1}
	b := Options{ScorePath: "a.xml", Level: 2}
	for _, o := range []*Options{&a, &b} {
		if err := o.ValidateAndSetDefaults(); err != nil {
			t.Fatal(err)
		}
	}

	k := cache.NewDefaultKeyer()
	if k.LayoutKey("h", a.LayoutKeyOpts("src")) == k.LayoutKey("h", b.LayoutKeyOpts("src")) {
		t.Error("levels share a layout key")
	}

	a.NoSignal, b.NoSignal = true, true
	if k.LayoutKey("h", a.LayoutKeyOpts("src")) != k.LayoutKey("h", b.LayoutKeyOpts("src")) {
		t.Error("level changes the key of a run without signal")
	}

	tuned := *a.Config
	tuned.Chart.OffsetX = -60
	c := a
	c.Config = &tuned
	if k.LayoutKey("h", a.LayoutKeyOpts("")) == k.LayoutKey("h", c.LayoutKeyOpts("")) {
		t.Error("config change does not change the layout key")
	}
}

func writeLevel(t *testing.T, dir string, level, beats int) {
	t.Helper()
	var b strings.Builder
	b.WriteString("Index,Energy_Value,Minima_Indices\n")
	for i := 0; i < beats; i++ {
		minimum := 0
		if i%5 == 4 {
			minimum = 1
		}
		fmt.Fprintf(&b, "%d,%.2f,%d\n", i, float64(i%5)/5, minimum)
	}
	path := filepath.Join(dir, fmt.Sprintf("energy_level_%d.csv", level))
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testRunner(t *testing.T) (*Runner, *cache.MemoryCache) {
	t.Helper()
	dir := t.TempDir()
	writeLevel(t, dir, 1, 18)
	src, err := signal.NewSource(filepath.Join(dir, "energy_level_{level}.csv"))
	if err != nil {
		t.Fatal(err)
	}
	c := cache.NewMemoryCache()
	return NewRunner(c, nil, signal.NewStore(src), nil), c
}

func TestExecute(t *testing.T) {
	runner, c := testRunner(t)
	opts := Options{
		Score:   scoretest.Build(3, scoretest.Uniform(6, 6)),
		Title:   "Six measures",
		Width:   800,
		Formats: []string{FormatSVG, FormatJSON},
	}

	result, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if result.CacheInfo.RenderHit {
		t.Error("first run hit the cache")
	}
	if result.Stats.Measures != 6 || result.Stats.Systems != 2 || result.Stats.Iterations != 3 || result.Stats.Adjustments != 1 {
		t.Errorf("Stats = %+v", result.Stats)
	}
	if !strings.Contains(string(result.Artifacts[FormatSVG]), "<title>Six measures</title>") {
		t.Error("SVG lacks the title")
	}

	var doc struct {
		Level   int `json:"level"`
		Systems []struct {
			Measures []int `json:"measures"`
			Markers  []any `json:"markers"`
		} `json:"systems"`
	}
	if err := json.Unmarshal(result.Artifacts[FormatJSON], &doc); err != nil {
		t.Fatalf("JSON artifact: %v", err)
	}
	if doc.Level != 1 || len(doc.Systems) != 2 || len(doc.Systems[1].Measures) != 3 {
		t.Errorf("JSON artifact = %+v", doc)
	}
	if len(doc.Systems[0].Markers)+len(doc.Systems[1].Markers) != 3 {
		t.Errorf("markers = %d + %d, want 3", len(doc.Systems[0].Markers), len(doc.Systems[1].Markers))
	}
	if c.Len() != 2 {
		t.Errorf("cache holds %d entries, want 2", c.Len())
	}

	again, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Execute() error: %v", err)
	}
	if !again.CacheInfo.RenderHit {
		t.Error("second run missed the cache")
	}
	if string(again.Artifacts[FormatSVG]) != string(result.Artifacts[FormatSVG]) {
		t.Error("cached SVG differs")
	}

	opts.Refresh = true
	fresh, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("refresh Execute() error: %v", err)
	}
	if fresh.CacheInfo.RenderHit {
		t.Error("refresh served from cache")
	}
}

func TestExecuteMissingLevel(t *testing.T) {
	runner, _ := testRunner(t)
	_, err := runner.Execute(context.Background(), Options{
		Score: scoretest.Build(3, scoretest.Uniform(2, 2)),
		Level: 2,
	})
	if !errors.IsFatalLoad(err) {
		t.Errorf("error = %v, want a fatal load error", err)
	}
}

func TestExecuteInvalidScore(t *testing.T) {
	runner, _ := testRunner(t)
	_, err := runner.Execute(context.Background(), Options{Score: []byte("<score-partwise></score-partwise>")})
	if !errors.Is(err, errors.ErrCodeInvalidScore) {
		t.Errorf("error = %v, want INVALID_SCORE", err)
	}
}

func TestRunnerLayoutWithoutSignal(t *testing.T) {
	runner := NewRunner(nil, nil, nil, nil)
	l, err := runner.Layout(context.Background(), Options{
		Score: scoretest.Build(3, scoretest.Uniform(6, 6)),
		Width: 800,
	})
	if err != nil {
		t.Fatalf("Layout() error: %v", err)
	}
	if got := l.State.Sizes(); len(got) != 2 || got[0] != 3 || got[1] != 3 {
		t.Errorf("sizes = %v", got)
	}
	for i, s := range l.Report.Systems {
		if s.Chart != nil {
			t.Errorf("system %d has a chart without signal", i)
		}
	}

	page := BuildPage(l, Options{Width: 800})
	if len(page.Rows) != 2 || page.Level != 1 {
		t.Errorf("page = %d rows, level %d", len(page.Rows), page.Level)
	}
}
