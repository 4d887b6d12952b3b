// Package reconcile runs the layout reconciliation loop.
//
// A pass renders the systems of a [layout.LayoutState] one by one. Each
// system moves through three phases:
//
//	Unrendered → Rendered → Validated(pass | fail)
//
// A pass advances to the next system. A failure shrinks the system by one
// measure with [layout.LayoutState.AdjustSystemMeasures], drops the cached
// render data of that system and every later one, and renders the same
// index again. A failure that cannot be adjusted is accepted as it is.
//
// Every render counts against a global iteration budget, so a pass always
// terminates: when the budget runs out the loop logs and stops, leaving the
// remaining systems unrendered. After every step the layout invariants are
// checked; violations are logged and collected in the [Report].
//
// Systems that end up on the page are aligned with their chart: measure
// geometry is detected, the chart canvas is placed under the notes, the
// series is built and plotted, and the minima markers are resolved to
// canvas pixels.
//
// # Usage
//
//	state := layout.Partition(doc.Labels(), layout.Options{ContainerWidth: 1400})
//	r, err := reconcile.New(reconcile.Options{
//	    Score:    doc,
//	    Renderer: engraver.New(engraver.DefaultOptions()),
//	    Charts:   plot.New(),
//	    Samples:  table,
//	    ContainerWidth: 1400,
//	})
//	if err != nil {
//	    return err
//	}
//	report, err := r.Run(ctx, state)
//
// Resize events are coalesced with a [Debouncer] before a new pass starts.
package reconcile
