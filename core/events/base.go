package events

import "time"

// Kind names an event type, namespaced as "<group>.<name>". The full
// catalog lives in doc.go.
type Kind string

// Event is the contract every stream event satisfies. Concrete events
// embed Base and add their payload fields.
type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base carries the kind and emission time shared by all events. It is
// stamped once at construction and read-only afterwards.
type Base struct {
	kind      Kind
	timestamp time.Time
}

// NewBase stamps a base for a freshly constructed event.
func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

func (b Base) Kind() Kind { return b.kind }

func (b Base) Timestamp() time.Time { return b.timestamp }
