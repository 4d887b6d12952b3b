package validate

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"k8s.io/utils/clock"

	"github.com/matzehuels/scorealign/pkg/cache"
)

// Default polling policy.
const (
	DefaultSettleDelay         = 500 * time.Millisecond
	DefaultRetries             = 3
	DefaultRetryDelay          = 200 * time.Millisecond
	DefaultMinDetectedFraction = 0.5
)

// Probe measures the current state of a render.
type Probe func(ctx context.Context) (Observation, error)

// Policy controls how long [AwaitStableRender] waits.
type Policy struct {
	Clock       clock.Clock
	SettleDelay time.Duration // wait before the first probe
	Retries     int           // maximum number of probes
	RetryDelay  time.Duration // wait between probes
	// MinDetectedFraction is the share of expected measures that must be
	// detected before a repeated count is trusted as stable.
	MinDetectedFraction float64
	Logger              *log.Logger
}

// DefaultPolicy returns the built-in policy on the real clock.
func DefaultPolicy() Policy {
	return Policy{
		Clock:               clock.RealClock{},
		SettleDelay:         DefaultSettleDelay,
		Retries:             DefaultRetries,
		RetryDelay:          DefaultRetryDelay,
		MinDetectedFraction: DefaultMinDetectedFraction,
	}
}

func (p *Policy) setDefaults() {
	if p.Clock == nil {
		p.Clock = clock.RealClock{}
	}
	if p.Retries < 1 {
		p.Retries = 1
	}
	if p.MinDetectedFraction <= 0 {
		p.MinDetectedFraction = DefaultMinDetectedFraction
	}
	if p.Logger == nil {
		p.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Awaited is the observation accepted by [AwaitStableRender].
type Awaited struct {
	Observation
	Attempts int  // probes taken
	Partial  bool // fewer measures than expected were detected
}

// AwaitStableRender waits for the settle delay and probes until the render
// shows expected measures.
//
// Probing stops early when two consecutive probes detect the same number of
// measures and that number is at least MinDetectedFraction of expected. When
// the retry budget is spent the last observation is accepted as partial and
// a warning is logged. A probe error or a cancelled context ends the wait
// with that error.
func AwaitStableRender(ctx context.Context, expected int, probe Probe, policy Policy) (Awaited, error) {
	policy.setDefaults()

	if err := cache.Sleep(ctx, policy.Clock, policy.SettleDelay); err != nil {
		return Awaited{}, err
	}

	need := int(math.Ceil(policy.MinDetectedFraction * float64(expected)))
	prev := -1
	var out Awaited
	for out.Attempts < policy.Retries {
		if out.Attempts > 0 {
			if err := cache.Sleep(ctx, policy.Clock, policy.RetryDelay); err != nil {
				return out, err
			}
		}
		obs, err := probe(ctx)
		out.Attempts++
		if err != nil {
			return out, err
		}
		out.Observation = obs

		got := len(obs.Measures)
		if obs.Err != nil || obs.Empty || got >= expected {
			return out, nil
		}
		if got == prev && got >= need {
			break
		}
		prev = got
	}

	out.Partial = len(out.Measures) < expected
	if out.Partial {
		policy.Logger.Warn("accepting partial geometry",
			"detected", len(out.Measures), "expected", expected, "attempts", out.Attempts)
	}
	return out, nil
}
