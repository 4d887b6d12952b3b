package reconcile

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/matzehuels/scorealign/pkg/align"
	"github.com/matzehuels/scorealign/pkg/errors"
	"github.com/matzehuels/scorealign/pkg/layout"
	"github.com/matzehuels/scorealign/pkg/observability"
	"github.com/matzehuels/scorealign/pkg/render"
	"github.com/matzehuels/scorealign/pkg/render/engraver"
	"github.com/matzehuels/scorealign/pkg/render/plot"
	"github.com/matzehuels/scorealign/pkg/score"
	"github.com/matzehuels/scorealign/pkg/score/scoretest"
	"github.com/matzehuels/scorealign/pkg/signal"
	"github.com/matzehuels/scorealign/pkg/validate"
)

// Six notes per measure make each measure 240px wide in the engraver, so a
// line of 800px holds three measures after the 70px header.
const (
	testWidth = 800.0
	testNotes = 6
)

func testScore(t *testing.T, measures []scoretest.Measure) *score.Document {
	t.Helper()
	doc, err := score.ParseBytes(scoretest.Build(3, measures))
	if err != nil {
		t.Fatalf("ParseBytes() error: %v", err)
	}
	return doc
}

func testOptions(doc *score.Document, r render.ScoreRenderer) Options {
	opts := DefaultOptions()
	opts.Score = doc
	opts.Renderer = r
	opts.ContainerWidth = testWidth
	opts.Await.SettleDelay = 0
	opts.Await.RetryDelay = 0
	return opts
}

func partition(doc *score.Document) *layout.LayoutState {
	return layout.Partition(doc.Labels(), layout.Options{ContainerWidth: testWidth, MinMeasureWidth: 200})
}

type failingRenderer struct{ calls int }

func (f *failingRenderer) Render(context.Context, []byte, float64) (*render.Tree, error) {
	f.calls++
	return nil, fmt.Errorf("engine crashed on call %d", f.calls)
}

func TestRunShrinksOverflowingSystem(t *testing.T) {
	doc := testScore(t, scoretest.Uniform(6, testNotes))
	state := partition(doc)
	if got := state.Sizes(); !reflect.DeepEqual(got, []int{4, 2}) {
		t.Fatalf("initial sizes = %v", got)
	}

	r, err := New(testOptions(doc, engraver.New(engraver.DefaultOptions())))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	report, err := r.Run(context.Background(), state)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if got := state.Sizes(); !reflect.DeepEqual(got, []int{3, 3}) {
		t.Errorf("sizes = %v, want [3 3]", got)
	}
	if report.Iterations != 3 {
		t.Errorf("Iterations = %d, want 3", report.Iterations)
	}
	if len(report.Adjustments) != 1 || report.Adjustments[0].Outcome != layout.OutcomeMovedNext {
		t.Errorf("Adjustments = %+v", report.Adjustments)
	}
	if !report.OK() {
		t.Errorf("report not OK: failed %v, violations %v", report.Failed(), report.Violations)
	}
	for i, s := range report.Systems {
		if !s.Passed() || s.Phase != Validated {
			t.Errorf("system %d: phase %v, result %+v", i, s.Phase, s.Result)
		}
		if len(s.Geometry) != 3 {
			t.Errorf("system %d: %d geometries", i, len(s.Geometry))
		}
	}
}

func TestRunAlignsCharts(t *testing.T) {
	doc := testScore(t, scoretest.Uniform(6, testNotes))
	state := partition(doc)

	var samples []signal.Sample
	for i := 0; i < 18; i++ {
		samples = append(samples, signal.Sample{Index: i, Value: float64(i%4) / 4, IsMinimum: i == 4})
	}
	opts := testOptions(doc, engraver.New(engraver.DefaultOptions()))
	opts.Charts = plot.New()
	opts.Samples = signal.NewTable(samples)

	r, err := New(opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	report, err := r.Run(context.Background(), state)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	first := report.Systems[0]
	if first.Chart == nil {
		t.Fatal("first system has no chart")
	}
	if !first.Mapper.UsesGeometry() {
		t.Error("mapper ignores detected geometry")
	}
	if got := len(first.Series.Points); got != 1+3*r.BeatsPerMeasure() {
		t.Errorf("points = %d", got)
	}
	if len(first.Series.Markers) != 1 {
		t.Fatalf("markers = %+v", first.Series.Markers)
	}
	m := first.Series.Markers[0]
	if m.DisplayIndex != 5 || m.Measure != 2 || !m.Resolved {
		t.Errorf("marker = %+v", m)
	}
	if first.Placement.Width <= 0 {
		t.Errorf("placement = %+v", first.Placement)
	}
	if len(report.Systems[1].Series.Markers) != 0 {
		t.Errorf("second system has markers %+v", report.Systems[1].Series.Markers)
	}
	if report.MaxX <= 0 {
		t.Errorf("MaxX = %v", report.MaxX)
	}
}

func TestRunKeepsPieceBoundary(t *testing.T) {
	doc := testScore(t, scoretest.Pieces(testNotes, 4, 3))
	state := partition(doc)

	r, err := New(testOptions(doc, engraver.New(engraver.DefaultOptions())))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	report, err := r.Run(context.Background(), state)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if got := state.Sizes(); !reflect.DeepEqual(got, []int{4, 3}) {
		t.Errorf("sizes = %v, want [4 3]", got)
	}
	if len(report.Adjustments) != 0 {
		t.Errorf("Adjustments = %+v", report.Adjustments)
	}
	if got := report.Failed(); !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("Failed() = %v", got)
	}
	first := report.Systems[0]
	if !first.Accepted || first.Result.Check != validate.CheckBackward {
		t.Errorf("first system: accepted %v, check %q", first.Accepted, first.Result.Check)
	}
	if len(first.Geometry) != 4 {
		t.Errorf("kept system has %d geometries", len(first.Geometry))
	}
	second := report.Systems[1]
	if !second.Passed() || !second.System.NewPiece {
		t.Errorf("second system: passed %v, new piece %v", second.Passed(), second.System.NewPiece)
	}
}

func TestRunTerminatesOnPersistentFailure(t *testing.T) {
	doc := testScore(t, scoretest.Uniform(6, 1))
	state := partition(doc)
	renderer := &failingRenderer{}

	r, err := New(testOptions(doc, renderer))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	report, err := r.Run(context.Background(), state)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if report.Exhausted {
		t.Fatal("budget exhausted")
	}
	if got := state.Sizes(); !reflect.DeepEqual(got, []int{1, 1, 1, 1, 1, 1}) {
		t.Errorf("sizes = %v", got)
	}
	if report.Iterations != renderer.calls {
		t.Errorf("Iterations = %d, renderer calls = %d", report.Iterations, renderer.calls)
	}
	if len(report.Violations) != 0 {
		t.Errorf("Violations = %v", report.Violations)
	}
	for i, s := range report.Systems {
		if s.Err == nil || !s.Accepted || s.Result.Check != validate.CheckRenderError {
			t.Errorf("system %d = err %v, accepted %v, check %q", i, s.Err, s.Accepted, s.Result.Check)
		}
		if s.Chart != nil || s.Geometry != nil {
			t.Errorf("system %d was aligned without a render", i)
		}
	}
}

func TestRunStopsAtIterationBudget(t *testing.T) {
	doc := testScore(t, scoretest.Uniform(6, 1))
	state := partition(doc)

	opts := testOptions(doc, &failingRenderer{})
	opts.MaxIterations = 3
	r, err := New(opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	report, err := r.Run(context.Background(), state)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if !report.Exhausted || report.Iterations != 3 {
		t.Errorf("Exhausted = %v, Iterations = %d", report.Exhausted, report.Iterations)
	}
	if got := state.Sizes(); !reflect.DeepEqual(got, []int{1, 5}) {
		t.Errorf("sizes = %v, want [1 5]", got)
	}
	if err := state.CheckInvariants(); err != nil {
		t.Errorf("CheckInvariants() = %v", err)
	}
	for i, s := range report.Systems {
		if s.Phase != Unrendered {
			t.Errorf("system %d phase = %v", i, s.Phase)
		}
	}
	if report.OK() {
		t.Error("exhausted report is OK")
	}
}

func TestRunCancelled(t *testing.T) {
	doc := testScore(t, scoretest.Uniform(6, testNotes))
	renderer := &failingRenderer{}
	r, err := New(testOptions(doc, renderer))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := r.Run(ctx, partition(doc))
	if err != context.Canceled {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if report.Iterations != 0 || renderer.calls != 0 {
		t.Errorf("Iterations = %d, calls = %d", report.Iterations, renderer.calls)
	}
}

// hijacker starts a competing pass on the state while rendering.
type hijacker struct {
	state *layout.LayoutState
	inner render.ScoreRenderer
}

func (h hijacker) Render(ctx context.Context, fragment []byte, width float64) (*render.Tree, error) {
	h.state.Begin("newer")
	return h.inner.Render(ctx, fragment, width)
}

func TestRunSuperseded(t *testing.T) {
	doc := testScore(t, scoretest.Uniform(3, testNotes))
	state := partition(doc)

	opts := testOptions(doc, hijacker{state: state, inner: engraver.New(engraver.DefaultOptions())})
	opts.NewGeneration = func() string { return "older" }
	r, err := New(opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	report, err := r.Run(context.Background(), state)
	if !errors.Is(err, errors.ErrCodeInternal) {
		t.Fatalf("Run() error = %v, want INTERNAL_ERROR", err)
	}
	if report.Generation != "older" || state.Generation() != "newer" {
		t.Errorf("generations = %q, %q", report.Generation, state.Generation())
	}
}

type recordingHooks struct {
	observability.NoopLayoutHooks
	starts    []string
	validated []bool
	adjusts   []string
	complete  int
	lastErr   error
}

func (h *recordingHooks) OnPassStart(_ context.Context, gen string, _ int) {
	h.starts = append(h.starts, gen)
}

func (h *recordingHooks) OnSystemValidated(_ context.Context, _ int, pass bool, _ string) {
	h.validated = append(h.validated, pass)
}

func (h *recordingHooks) OnAdjust(_ context.Context, _ int, outcome string) {
	h.adjusts = append(h.adjusts, outcome)
}

func (h *recordingHooks) OnPassComplete(_ context.Context, _ string, iterations int, _ time.Duration, err error) {
	h.complete = iterations
	h.lastErr = err
}

func TestRunHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetLayoutHooks(hooks)
	defer observability.Reset()

	doc := testScore(t, scoretest.Uniform(6, testNotes))
	opts := testOptions(doc, engraver.New(engraver.DefaultOptions()))
	opts.NewGeneration = func() string { return "gen-1" }
	r, err := New(opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, err := r.Run(context.Background(), partition(doc)); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if !reflect.DeepEqual(hooks.starts, []string{"gen-1"}) {
		t.Errorf("starts = %v", hooks.starts)
	}
	if !reflect.DeepEqual(hooks.validated, []bool{false, true, true}) {
		t.Errorf("validated = %v", hooks.validated)
	}
	if !reflect.DeepEqual(hooks.adjusts, []string{"moved-next"}) {
		t.Errorf("adjusts = %v", hooks.adjusts)
	}
	if hooks.complete != 3 || hooks.lastErr != nil {
		t.Errorf("complete = %d, err = %v", hooks.complete, hooks.lastErr)
	}
}

// shortRenderer engraves like the engraver but loses the fourth measure
// number of any four-measure system, as a slow engine that has not finished
// drawing would. It does not report itself synchronous, so every render goes
// through the full wait policy.
type shortRenderer struct {
	inner   *engraver.Engraver
	dropped int
}

func (s *shortRenderer) Render(ctx context.Context, fragment []byte, width float64) (*render.Tree, error) {
	tree, err := s.inner.Render(ctx, fragment, width)
	if err != nil || len(tree.Filter(render.KindMeasureNumber)) != 4 {
		return tree, err
	}
	seen := 0
	kept := tree.Elements[:0]
	for _, e := range tree.Elements {
		if e.Kind == render.KindMeasureNumber {
			if seen++; seen == 4 {
				s.dropped++
				continue
			}
		}
		kept = append(kept, e)
	}
	tree.Elements = kept
	return tree, nil
}

func TestRunShortfallShrinksOnce(t *testing.T) {
	doc := testScore(t, scoretest.Uniform(8, 1))
	state := partition(doc)
	if got := state.Sizes(); !reflect.DeepEqual(got, []int{4, 4}) {
		t.Fatalf("initial sizes = %v", got)
	}

	renderer := &shortRenderer{inner: engraver.New(engraver.DefaultOptions())}
	opts := testOptions(doc, renderer)
	opts.Await.Retries = 3
	r, err := New(opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	report, err := r.Run(context.Background(), state)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if renderer.dropped != 1 {
		t.Errorf("short renders = %d, want 1", renderer.dropped)
	}
	if len(report.Adjustments) != 1 {
		t.Fatalf("Adjustments = %+v, want exactly one", report.Adjustments)
	}
	if a := report.Adjustments[0]; a.System != 0 || a.Measure != 4 {
		t.Errorf("adjustment = %+v, want measure 4 moved out of system 0", a)
	}
	if got := state.Sizes(); !reflect.DeepEqual(got, []int{3, 5}) {
		t.Errorf("sizes = %v, want [3 5]", got)
	}
	if report.Iterations != 3 || report.Exhausted {
		t.Errorf("Iterations = %d, Exhausted = %v", report.Iterations, report.Exhausted)
	}
	if !report.OK() {
		t.Errorf("report not OK: failed %v", report.Failed())
	}
}

func TestRunChartsSingleNoteSystem(t *testing.T) {
	doc := testScore(t, scoretest.Uniform(5, 1))
	state := partition(doc)
	if got := state.Sizes(); !reflect.DeepEqual(got, []int{4, 1}) {
		t.Fatalf("initial sizes = %v", got)
	}

	var samples []signal.Sample
	for i := 0; i < 15; i++ {
		samples = append(samples, signal.Sample{Index: i, Value: float64(i%3) + 1, IsMinimum: i == 13})
	}
	opts := testOptions(doc, engraver.New(engraver.DefaultOptions()))
	opts.Charts = plot.New()
	opts.Samples = signal.NewTable(samples)
	r, err := New(opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	report, err := r.Run(context.Background(), state)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	last := report.Systems[1]
	if last.Chart == nil {
		t.Fatalf("one-note system has no chart, placement %+v", last.Placement)
	}
	if last.Placement.Width < align.MinChartWidth {
		t.Errorf("placement width = %v", last.Placement.Width)
	}
	if len(last.Series.Markers) != 1 {
		t.Fatalf("markers = %+v", last.Series.Markers)
	}
	if m := last.Series.Markers[0]; !m.Resolved || m.DisplayIndex != 14 || m.Measure != 5 {
		t.Errorf("marker = %+v", m)
	}
}

func TestNewRequiresScoreAndRenderer(t *testing.T) {
	if _, err := New(Options{Renderer: &failingRenderer{}}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("New() without score error = %v", err)
	}
	doc := testScore(t, scoretest.Uniform(1, 1))
	if _, err := New(Options{Score: doc}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("New() without renderer error = %v", err)
	}
}

func TestPhaseString(t *testing.T) {
	for p, want := range map[Phase]string{Unrendered: "unrendered", Rendered: "rendered", Validated: "validated", 9: "phase(9)"} {
		if got := p.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", int(p), got, want)
		}
	}
}
