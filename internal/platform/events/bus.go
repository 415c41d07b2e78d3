// Package events carries worker lifecycle notifications from the supervisor
// to interested observers (metrics, logging) without coupling them.
package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher. A nil *Bus is valid and drops
// every event, which keeps publishers free of nil checks.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{dispatcher: event.NewDispatcher()}
}

// Publish delivers ev to the subscribers of its concrete type.
// Delivery is asynchronous.
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	switch e := ev.(type) {
	case WorkerStateChanged:
		event.Publish(b.dispatcher, e)
	case WorkerLaunched:
		event.Publish(b.dispatcher, e)
	case WorkerExited:
		event.Publish(b.dispatcher, e)
	case RestartRequested:
		event.Publish(b.dispatcher, e)
	case EncoderProgress:
		event.Publish(b.dispatcher, e)
	case SegmentWritten:
		event.Publish(b.dispatcher, e)
	}
}

// OnStateChanged subscribes to status transitions. The returned func unsubscribes.
func (b *Bus) OnStateChanged(h func(WorkerStateChanged)) func() {
	if b == nil {
		return func() {}
	}
	return event.Subscribe(b.dispatcher, h)
}

// OnLaunched subscribes to launch attempts.
func (b *Bus) OnLaunched(h func(WorkerLaunched)) func() {
	if b == nil {
		return func() {}
	}
	return event.Subscribe(b.dispatcher, h)
}

// OnExited subscribes to worker exits.
func (b *Bus) OnExited(h func(WorkerExited)) func() {
	if b == nil {
		return func() {}
	}
	return event.Subscribe(b.dispatcher, h)
}

// OnRestart subscribes to restart requests.
func (b *Bus) OnRestart(h func(RestartRequested)) func() {
	if b == nil {
		return func() {}
	}
	return event.Subscribe(b.dispatcher, h)
}

// OnProgress subscribes to encoder progress reports.
func (b *Bus) OnProgress(h func(EncoderProgress)) func() {
	if b == nil {
		return func() {}
	}
	return event.Subscribe(b.dispatcher, h)
}

// OnSegment subscribes to segment-written notifications.
func (b *Bus) OnSegment(h func(SegmentWritten)) func() {
	if b == nil {
		return func() {}
	}
	return event.Subscribe(b.dispatcher, h)
}
