// Package validate decides whether a rendered system is usable.
//
// A system passes when its fragment rendered as a single row holding exactly
// the measures it was given. [Validator.Validate] runs a fixed sequence of
// checks against an [Observation] of the render and reports the first one
// that fails:
//
//  1. the render produced visible output
//  2. one measure was detected per measure in the system
//  3. the detected measure numbers equal the expected ones, in order
//  4. the measures advance left to right, the render fits the container
//     and it is no taller than a single row
//
// The last group is heuristic. Its thresholds come from [Thresholds] and the
// failing check is named in [Result.Check] so it can be logged and tuned.
//
// Engravers often report geometry some time after a render call returns.
// [AwaitStableRender] probes a render until it holds every expected measure
// or the detected count stops changing, and accepts a partial observation
// once its retry budget is spent.
package validate
