package orchestration

import (
	"github.com/halolabs/halo-core/core/events"
	"github.com/halolabs/halo-core/core/wire"
)

// HandleWireMessage applies a consumer-to-producer message to the active
// session. Only the audio topic flows in this direction; other topics are
// ignored so a loopback transport cannot feed the producer its own
// output.
func (o *Orchestrator) HandleWireMessage(message wire.Message) error {
	event, err := wire.Decode(message)
	if err != nil {
		return err
	}

	switch typedEvent := event.(type) {
	case events.AudioChunk:
		return o.SendAudioChunk(typedEvent.Audio)
	default:
		return nil
	}
}
