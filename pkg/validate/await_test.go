package validate

import (
	"context"
	"errors"
	"testing"
	"time"

	testingclock "k8s.io/utils/clock/testing"
)

// scripted returns the given detected counts in turn, repeating the last.
func scripted(counts ...int) (Probe, *int) {
	calls := 0
	return func(context.Context) (Observation, error) {
		n := counts[min(calls, len(counts)-1)]
		calls++
		labels := make([]int, n)
		for i := range labels {
			labels[i] = i + 1
		}
		return row(labels, 0, 100), nil
	}, &calls
}

func instantPolicy(retries int) Policy {
	return Policy{
		Clock:               testingclock.NewFakeClock(time.Unix(0, 0)),
		Retries:             retries,
		MinDetectedFraction: 0.5,
	}
}

func TestAwaitStableRenderComplete(t *testing.T) {
	probe, calls := scripted(4)
	got, err := AwaitStableRender(context.Background(), 4, probe, instantPolicy(3))
	if err != nil {
		t.Fatal(err)
	}
	if got.Partial || got.Attempts != 1 || *calls != 1 {
		t.Errorf("Partial=%v Attempts=%d calls=%d, want false 1 1", got.Partial, got.Attempts, *calls)
	}
}

func TestAwaitStableRenderLateGeometry(t *testing.T) {
	probe, _ := scripted(0, 2, 4)
	got, err := AwaitStableRender(context.Background(), 4, probe, instantPolicy(3))
	if err != nil {
		t.Fatal(err)
	}
	if got.Partial || got.Attempts != 3 || len(got.Measures) != 4 {
		t.Errorf("Partial=%v Attempts=%d detected=%d, want false 3 4", got.Partial, got.Attempts, len(got.Measures))
	}
}

// A render that keeps showing 3 of 4 measures is accepted as partial after
// the second probe and then fails the count check.
func TestAwaitStableRenderRepeatedShortfall(t *testing.T) {
	probe, calls := scripted(3)
	got, err := AwaitStableRender(context.Background(), 4, probe, instantPolicy(3))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Partial || got.Attempts != 2 || *calls != 2 {
		t.Fatalf("Partial=%v Attempts=%d calls=%d, want true 2 2", got.Partial, got.Attempts, *calls)
	}

	v := NewValidator(1000, DefaultThresholds(), nil, nil)
	if r := v.Validate(sys(1, 2, 3, 4), got.Observation); r.Check != CheckCount {
		t.Errorf("Check = %q, want %q", r.Check, CheckCount)
	}
}

func TestAwaitStableRenderExhaustsBudget(t *testing.T) {
	probe, calls := scripted(1)
	got, err := AwaitStableRender(context.Background(), 4, probe, instantPolicy(3))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Partial || *calls != 3 {
		t.Errorf("Partial=%v calls=%d, want true 3", got.Partial, *calls)
	}
}

func TestAwaitStableRenderProbeError(t *testing.T) {
	want := errors.New("detached")
	probe := func(context.Context) (Observation, error) { return Observation{}, want }
	if _, err := AwaitStableRender(context.Background(), 2, probe, instantPolicy(3)); !errors.Is(err, want) {
		t.Errorf("err = %v, want %v", err, want)
	}
}

func TestAwaitStableRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	probe, calls := scripted(4)
	if _, err := AwaitStableRender(ctx, 4, probe, instantPolicy(3)); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if *calls != 0 {
		t.Errorf("probe called %d times after cancel", *calls)
	}
}

func TestAwaitStableRenderSettleDelay(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Unix(0, 0))
	policy := Policy{Clock: clk, SettleDelay: 500 * time.Millisecond, Retries: 1}
	probe, calls := scripted(2)

	done := make(chan error, 1)
	go func() {
		_, err := AwaitStableRender(context.Background(), 2, probe, policy)
		done <- err
	}()

	for !clk.HasWaiters() {
		time.Sleep(time.Millisecond)
	}
	if *calls != 0 {
		t.Fatal("probed before the settle delay")
	}
	clk.Step(500 * time.Millisecond)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}
