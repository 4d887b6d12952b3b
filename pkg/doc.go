// Package pkg provides the core libraries of scorealign.
//
// # Overview
//
// scorealign lays a MusicXML score out in systems (rows of measures) and draws
// an energy chart under every system, beat for beat, so that a value in the
// chart sits directly below the note it belongs to. Rendered systems are
// measured and validated, and systems that overflow or wrap are re-partitioned
// until the page settles.
//
// # Architecture
//
// The typical data flow:
//
//	MusicXML score           energy CSV (per level)
//	      ↓                          ↓
//	 [score] package           [signal] package
//	      ↓                          ↓
//	 [layout] partition        [beat] index mapping
//	      ↓                          ↓
//	 [reconcile] render → [validate] → adjust, until stable
//	      ↓
//	 [align] + [chartdata] (beat x-positions, minima markers)
//	      ↓
//	 [render/sink] SVG/JSON/PNG/PDF
//
// # Quick Start
//
//	runner := pipeline.NewRunner(cache.NewMemoryCache(), nil, store, nil)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    ScorePath: "waltz.musicxml",
//	    Level:     1,
//	    Formats:   []string{pipeline.FormatSVG},
//	})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("waltz.svg", result.Artifacts[pipeline.FormatSVG], 0o644)
//
// # Main Packages
//
// ## Domain
//
// [score] - MusicXML parsing, measure labels and per-system fragments.
//
// [beat] - Mapping between flat signal indices and (measure, beat) positions.
//
// [layout] - Measure partitioning into systems and the adjustment step that
// moves a trailing measure on when a system does not fit.
//
// [validate] - Checks of a rendered system against its expected measures,
// plus the probe loop that waits for a render to settle.
//
// [reconcile] - The render → validate → adjust loop with its iteration
// budget and generation guard.
//
// [align] - Measure geometry detection and beat-to-pixel mapping.
//
// [chartdata] - Per-system chart series and minima markers.
//
// ## Rendering
//
// [render] - Render tree types and the renderer interfaces, plus SVG
// conversion to PDF and PNG.
//
//   - [render/engraver]: deterministic score renderer with line wrapping
//   - [render/plot]: line chart renderer
//   - [render/sink]: page output (SVG, JSON, PNG, PDF)
//
// ## Infrastructure
//
// [pipeline] - The load → layout → render pipeline used by the CLI and the
// HTTP server.
//
// [signal] - Energy table parsing and per-level loading from files or HTTP.
//
// [cache] - Memory, file and Redis caches, content keys and retry helpers.
//
// [config] - TOML configuration with defaults.
//
// [errors] - Coded errors with user messages and HTTP status mapping.
//
// [observability] - Hooks for layout, cache and HTTP events.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/layout/...             # Specific package
//	go test -run Example ./pkg/...       # Examples only
//	go test -tags integration ./pkg/...  # Include Redis tests
//
// [score]: https://pkg.go.dev/github.com/matzehuels/scorealign/pkg/score
// [signal]: https://pkg.go.dev/github.com/matzehuels/scorealign/pkg/signal
// [beat]: https://pkg.go.dev/github.com/matzehuels/scorealign/pkg/beat
// [layout]: https://pkg.go.dev/github.com/matzehuels/scorealign/pkg/layout
// [reconcile]: https://pkg.go.dev/github.com/matzehuels/scorealign/pkg/reconcile
// [validate]: https://pkg.go.dev/github.com/matzehuels/scorealign/pkg/validate
// [align]: https://pkg.go.dev/github.com/matzehuels/scorealign/pkg/align
// [chartdata]: https://pkg.go.dev/github.com/matzehuels/scorealign/pkg/chartdata
// [render]: https://pkg.go.dev/github.com/matzehuels/scorealign/pkg/render
// [render/engraver]: https://pkg.go.dev/github.com/matzehuels/scorealign/pkg/render/engraver
// [render/plot]: https://pkg.go.dev/github.com/matzehuels/scorealign/pkg/render/plot
// [render/sink]: https://pkg.go.dev/github.com/matzehuels/scorealign/pkg/render/sink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/scorealign/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/scorealign/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/scorealign/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/scorealign/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/scorealign/pkg/observability
package pkg
