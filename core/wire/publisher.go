package wire

import "github.com/halolabs/halo-core/core/events"

// Publisher adapts an event sink onto a message transport. Events with no
// wire topic are dropped with a warning; the transport never sees them.
type Publisher struct {
	send func(Message)
}

// NewPublisher wraps a transport send function. The function is invoked
// in event emission order.
func NewPublisher(send func(Message)) *Publisher {
	return &Publisher{send: send}
}

// Emit frames and forwards one event.
func (p *Publisher) Emit(event events.Event) {
	message, err := Encode(event)
	if err != nil {
		logger.Warn("dropping event without wire topic", "kind", string(event.Kind()), "error", err)
		return
	}
	p.send(message)
}
