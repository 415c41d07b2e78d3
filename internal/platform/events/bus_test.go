package events

import (
	"testing"
	"time"
)

func TestBus_delivers_by_type(t *testing.T) {
	bus := New()
	exits := make(chan WorkerExited, 1)
	launches := make(chan WorkerLaunched, 1)
	defer bus.OnExited(func(e WorkerExited) { exits <- e })()
	defer bus.OnLaunched(func(e WorkerLaunched) { launches <- e })()

	bus.Publish(WorkerExited{StreamID: 4, ExitCode: 137})

	select {
	case e := <-exits:
		if e.StreamID != 4 || e.ExitCode != 137 {
			t.Errorf("unexpected event %+v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("exit event not delivered")
	}

	select {
	case e := <-launches:
		t.Errorf("launch subscriber received %+v", e)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBus_unsubscribe(t *testing.T) {
	bus := New()
	got := make(chan RestartRequested, 2)
	unsubscribe := bus.OnRestart(func(e RestartRequested) { got <- e })
	unsubscribe()

	bus.Publish(RestartRequested{StreamID: 1})
	select {
	case e := <-got:
		t.Errorf("received %+v after unsubscribe", e)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBus_nil_is_noop(t *testing.T) {
	var bus *Bus
	bus.Publish(SegmentWritten{StreamID: 1, Name: "segment000.ts"})
	bus.OnSegment(func(SegmentWritten) { t.Error("nil bus delivered an event") })()
	bus.OnProgress(func(EncoderProgress) {})()
}

func TestEvent_types_are_distinct(t *testing.T) {
	seen := map[uint32]bool{}
	for _, ev := range []Event{
		WorkerStateChanged{}, WorkerLaunched{}, WorkerExited{},
		RestartRequested{}, EncoderProgress{}, SegmentWritten{},
	} {
		if seen[ev.Type()] {
			t.Errorf("duplicate type id %d for %T", ev.Type(), ev)
		}
		seen[ev.Type()] = true
	}
}
