package kiosk

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hitoha-dev/kioskd/internal/dispatch"
)

type recordingDispatcher struct {
	mu    sync.Mutex
	codes []dispatch.Code
}

func (r *recordingDispatcher) Dispatch(code dispatch.Code) {
	r.mu.Lock()
	r.codes = append(r.codes, code)
	r.mu.Unlock()
}

func (r *recordingDispatcher) dispatched() []dispatch.Code {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]dispatch.Code(nil), r.codes...)
}

func waitForCodes(t *testing.T, d *recordingDispatcher, n int) []dispatch.Code {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if codes := d.dispatched(); len(codes) >= n {
			return codes
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %d dispatches, got %v", n, d.dispatched())
		case <-time.After(time.Millisecond):
		}
	}
}

func TestRunDispatchesInArrivalOrder(t *testing.T) {
	d := &recordingDispatcher{}
	c := New(d, WithTickInterval(time.Millisecond))

	// A full measurement session arriving as one burst: measuring, success,
	// done. The final screen must be Done regardless of drain timing.
	c.Submit(7, "sensor")
	c.Submit(9, "sensor")
	c.Submit(15, "sensor")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	codes := waitForCodes(t, d, 3)
	want := []dispatch.Code{7, 9, 15}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("dispatch order = %v, want %v", codes, want)
		}
	}
}

func TestSubmitDropsWhenFull(t *testing.T) {
	var submitted []struct {
		source  string
		dropped bool
	}
	d := &recordingDispatcher{}
	c := New(d,
		WithQueueCapacity(2),
		WithSubmitFunc(func(source string, dropped bool) {
			submitted = append(submitted, struct {
				source  string
				dropped bool
			}{source, dropped})
		}),
	)

	// No Run loop: the queue fills up.
	if !c.Submit(1, "sensor") || !c.Submit(2, "sensor") {
		t.Fatal("submissions within capacity were rejected")
	}
	if c.Submit(3, "inject") {
		t.Fatal("submission beyond capacity was accepted")
	}

	if len(submitted) != 3 {
		t.Fatalf("expected 3 submit callbacks, got %d", len(submitted))
	}
	if submitted[2].source != "inject" || !submitted[2].dropped {
		t.Errorf("drop callback = %+v", submitted[2])
	}
}

func TestDispatchLatencyCallback(t *testing.T) {
	d := &recordingDispatcher{}
	var mu sync.Mutex
	var latencies []time.Duration
	c := New(d,
		WithTickInterval(time.Millisecond),
		WithDispatchFunc(func(code int, latency time.Duration) {
			mu.Lock()
			latencies = append(latencies, latency)
			mu.Unlock()
		}),
	)

	c.Submit(9, "sensor")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	waitForCodes(t, d, 1)
	mu.Lock()
	defer mu.Unlock()
	if len(latencies) != 1 || latencies[0] < 0 {
		t.Fatalf("latencies = %v", latencies)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	d := &recordingDispatcher{}
	c := New(d, WithTickInterval(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}

	// Events submitted after shutdown are queued but never dispatched.
	c.Submit(9, "sensor")
	time.Sleep(20 * time.Millisecond)
	if len(d.dispatched()) != 0 {
		t.Errorf("events dispatched after shutdown: %v", d.dispatched())
	}
}
