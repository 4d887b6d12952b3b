package reconcile

import (
	"testing"
	"time"

	testingclock "k8s.io/utils/clock/testing"
)

func TestDebouncerCoalesces(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Unix(0, 0))
	d := NewDebouncer(clk, 300*time.Millisecond)
	calls := make(chan int, 4)

	d.Trigger(func() { calls <- 1 })
	clk.Step(200 * time.Millisecond)
	d.Trigger(func() { calls <- 2 })
	clk.Step(200 * time.Millisecond)

	select {
	case v := <-calls:
		t.Fatalf("call %d ran before the quiet period ended", v)
	case <-time.After(20 * time.Millisecond):
	}
	if !d.Pending() {
		t.Fatal("no call pending")
	}

	clk.Step(100 * time.Millisecond)
	select {
	case v := <-calls:
		if v != 2 {
			t.Errorf("ran call %d, want 2", v)
		}
	case <-time.After(time.Second):
		t.Fatal("debounced call never ran")
	}
	if d.Pending() {
		t.Error("call still pending after it ran")
	}
}

func TestDebouncerStop(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Unix(0, 0))
	d := NewDebouncer(clk, 0)
	ran := make(chan struct{}, 1)

	d.Trigger(func() { ran <- struct{}{} })
	if !d.Stop() {
		t.Error("Stop() = false with a pending call")
	}
	if d.Stop() {
		t.Error("second Stop() = true")
	}

	clk.Step(DefaultResizeDebounce)
	select {
	case <-ran:
		t.Fatal("stopped call ran")
	case <-time.After(20 * time.Millisecond):
	}
}
