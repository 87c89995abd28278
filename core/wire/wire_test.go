package wire

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/halolabs/halo-core/core/events"
	"github.com/halolabs/halo-core/core/providers"
)

func TestEncodeDecodeRoundTripsEveryTopic(t *testing.T) {
	turn := providers.Turn{At: time.Unix(100, 0).UTC(), Question: "q", Answer: "a"}

	testCases := []struct {
		name  string
		event events.Event
		topic string
	}{
		{name: "status", event: events.NewStatusChanged(events.StatusConnected), topic: TopicStatus},
		{name: "transcript started", event: events.NewTranscriptStarted("what is"), topic: TopicTranscriptionNewTurn},
		{name: "transcript updated", event: events.NewTranscriptUpdated("what is 2+2"), topic: TopicTranscriptionUpdate},
		{name: "answer fragment", event: events.NewAnswerFragment("Recur"), topic: TopicAnswerFragment},
		{name: "answer snapshot", event: events.NewAnswerSnapshot("Recursion is..."), topic: TopicAnswerFragment},
		{name: "turn completed", event: events.NewTurnCompleted(), topic: TopicAnswerFragment},
		{name: "history appended", event: events.NewHistoryAppended("s", turn, []providers.Turn{turn}), topic: TopicHistoryAppended},
		{name: "audio chunk", event: events.NewAudioChunk([]byte{1, 2, 3}), topic: TopicSendAudio},
		{name: "image attached", event: events.NewImageAttached("aW1n"), topic: TopicAttachImage},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			message, err := Encode(testCase.event)
			if err != nil {
				t.Fatalf("expected encode to succeed, got %v", err)
			}
			if message.Topic != testCase.topic {
				t.Fatalf("expected topic %q, got %q", testCase.topic, message.Topic)
			}

			decoded, err := Decode(message)
			if err != nil {
				t.Fatalf("expected decode to succeed, got %v", err)
			}
			if decoded.Kind() != testCase.event.Kind() {
				t.Fatalf("expected kind %q after round trip, got %q", testCase.event.Kind(), decoded.Kind())
			}
		})
	}
}

func TestDecodePreservesPayloadContent(t *testing.T) {
	message, err := Encode(events.NewAnswerSnapshot("full answer"))
	if err != nil {
		t.Fatalf("expected encode to succeed, got %v", err)
	}

	decoded, err := Decode(message)
	if err != nil {
		t.Fatalf("expected decode to succeed, got %v", err)
	}
	snapshot, ok := decoded.(events.AnswerSnapshot)
	if !ok {
		t.Fatalf("expected answer snapshot, got %T", decoded)
	}
	if snapshot.Text != "full answer" {
		t.Fatalf("expected snapshot text to survive the round trip, got %q", snapshot.Text)
	}
}

func TestDecodeAudioChunkRecoversBytes(t *testing.T) {
	audio := []byte{0x00, 0x10, 0x7f}
	message, err := Encode(events.NewAudioChunk(audio))
	if err != nil {
		t.Fatalf("expected encode to succeed, got %v", err)
	}

	decoded, err := Decode(message)
	if err != nil {
		t.Fatalf("expected decode to succeed, got %v", err)
	}
	chunk := decoded.(events.AudioChunk)
	if !bytes.Equal(chunk.Audio, audio) {
		t.Fatalf("expected %v, got %v", audio, chunk.Audio)
	}
}

func TestDecodeRejectsMalformedPayload(t *testing.T) {
	_, err := Decode(Message{Topic: TopicStatus, Payload: []byte(`{not json`)})
	if !errors.Is(err, ErrProtocolViolation) {
		t.Fatalf("expected protocol violation, got %v", err)
	}
}

func TestDecodeRejectsUnknownTopic(t *testing.T) {
	_, err := Decode(Message{Topic: "no-such-topic", Payload: []byte(`{}`)})
	if !errors.Is(err, ErrProtocolViolation) {
		t.Fatalf("expected protocol violation, got %v", err)
	}
}

func TestDecodeRejectsEmptyAnswerUnion(t *testing.T) {
	_, err := Decode(Message{Topic: TopicAnswerFragment, Payload: []byte(`{}`)})
	if !errors.Is(err, ErrProtocolViolation) {
		t.Fatalf("expected protocol violation for empty union, got %v", err)
	}
}

func TestPublisherDropsUnencodableEvents(t *testing.T) {
	var sent []Message
	publisher := NewPublisher(func(message Message) { sent = append(sent, message) })

	publisher.Emit(events.NewFailure("no topic for this"))
	publisher.Emit(events.NewStatusChanged(events.StatusClosed))

	if len(sent) != 1 || sent[0].Topic != TopicStatus {
		t.Fatalf("expected only the status event to be forwarded, got %v", sent)
	}
}
