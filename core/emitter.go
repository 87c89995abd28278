package orchestration

import "github.com/halolabs/halo-core/core/events"

// EventSink receives every event the orchestrator emits. Sinks are
// registered explicitly at construction; the orchestrator never reaches
// for ambient registries.
type EventSink interface {
	Emit(event events.Event)
}

// EventSinkFunc adapts a function to an EventSink.
type EventSinkFunc func(events.Event)

func (f EventSinkFunc) Emit(event events.Event) { f(event) }

func (o *Orchestrator) emit(event events.Event) {
	o.mu.Lock()
	sinks := make([]EventSink, len(o.sinks))
	copy(sinks, o.sinks)
	o.mu.Unlock()

	for _, sink := range sinks {
		sink.Emit(event)
	}
}
