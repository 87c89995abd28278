// Package wire frames session events for delivery over an arbitrary
// asynchronous, ordered, at-most-once message channel per named topic.
// Producer and consumer may live in different processes; the codec is the
// only contract between them.
package wire

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/halolabs/halo-core/core/events"
	"github.com/halolabs/halo-core/core/providers"
)

const (
	TopicStatus               = "status"
	TopicTranscriptionNewTurn = "transcription-new-turn"
	TopicTranscriptionUpdate  = "transcription-update"
	TopicAnswerFragment       = "answer-fragment"
	TopicHistoryAppended      = "history-appended"
	TopicSendAudio            = "send-audio"
	TopicAttachImage          = "attach-image"
)

var (
	// ErrProtocolViolation marks a malformed or unexpected message.
	// Consumers drop such messages with a warning; they never crash the fold.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrUnencodableEvent marks an event kind with no wire topic.
	ErrUnencodableEvent = errors.New("event has no wire topic")
)

// Message is one framed event.
type Message struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

type statusPayload struct {
	Status string `json:"status"`
}

type transcriptionPayload struct {
	Text string `json:"text"`
}

// answerPayload is a union: exactly one of Text, FullText or TurnComplete
// is meaningful.
type answerPayload struct {
	Text         *string `json:"text,omitempty"`
	FullText     *string `json:"fullText,omitempty"`
	TurnComplete bool    `json:"turnComplete,omitempty"`
}

type historyPayload struct {
	SessionID   string     `json:"sessionId"`
	Turn        wireTurn   `json:"turn"`
	FullHistory []wireTurn `json:"fullHistory"`
}

type wireTurn struct {
	CreatedAt    time.Time `json:"createdAt"`
	QuestionText string    `json:"questionText"`
	AnswerText   string    `json:"answerText"`
}

type binaryPayload struct {
	Data string `json:"data"`
}

// Encode frames an event for transport. Events without a wire topic
// return ErrUnencodableEvent.
func Encode(event events.Event) (Message, error) {
	switch typedEvent := event.(type) {
	case events.StatusChanged:
		return marshalMessage(TopicStatus, statusPayload{Status: string(typedEvent.Status)})
	case events.TranscriptStarted:
		return marshalMessage(TopicTranscriptionNewTurn, transcriptionPayload{Text: typedEvent.Transcript})
	case events.TranscriptUpdated:
		return marshalMessage(TopicTranscriptionUpdate, transcriptionPayload{Text: typedEvent.Transcript})
	case events.AnswerFragment:
		text := typedEvent.Text
		return marshalMessage(TopicAnswerFragment, answerPayload{Text: &text})
	case events.AnswerSnapshot:
		fullText := typedEvent.Text
		return marshalMessage(TopicAnswerFragment, answerPayload{FullText: &fullText})
	case events.TurnCompleted:
		return marshalMessage(TopicAnswerFragment, answerPayload{TurnComplete: true})
	case events.HistoryAppended:
		return marshalMessage(TopicHistoryAppended, historyPayload{
			SessionID:   typedEvent.SessionID,
			Turn:        toWireTurn(typedEvent.Turn),
			FullHistory: toWireTurns(typedEvent.History),
		})
	case events.AudioChunk:
		return marshalMessage(TopicSendAudio, binaryPayload{Data: base64.StdEncoding.EncodeToString(typedEvent.Audio)})
	case events.ImageAttached:
		return marshalMessage(TopicAttachImage, binaryPayload{Data: typedEvent.Data})
	default:
		return Message{}, fmt.Errorf("%w: %s", ErrUnencodableEvent, event.Kind())
	}
}

// Decode reconstructs the event carried by a message. Malformed payloads
// and unknown topics return an error wrapping ErrProtocolViolation.
func Decode(message Message) (events.Event, error) {
	switch message.Topic {
	case TopicStatus:
		var payload statusPayload
		if err := unmarshalPayload(message, &payload); err != nil {
			return nil, err
		}
		return events.NewStatusChanged(events.Status(payload.Status)), nil

	case TopicTranscriptionNewTurn:
		var payload transcriptionPayload
		if err := unmarshalPayload(message, &payload); err != nil {
			return nil, err
		}
		return events.NewTranscriptStarted(payload.Text), nil

	case TopicTranscriptionUpdate:
		var payload transcriptionPayload
		if err := unmarshalPayload(message, &payload); err != nil {
			return nil, err
		}
		return events.NewTranscriptUpdated(payload.Text), nil

	case TopicAnswerFragment:
		var payload answerPayload
		if err := unmarshalPayload(message, &payload); err != nil {
			return nil, err
		}
		switch {
		case payload.TurnComplete:
			return events.NewTurnCompleted(), nil
		case payload.FullText != nil:
			return events.NewAnswerSnapshot(*payload.FullText), nil
		case payload.Text != nil:
			return events.NewAnswerFragment(*payload.Text), nil
		default:
			return nil, fmt.Errorf("%w: answer-fragment payload carries no content", ErrProtocolViolation)
		}

	case TopicHistoryAppended:
		var payload historyPayload
		if err := unmarshalPayload(message, &payload); err != nil {
			return nil, err
		}
		return events.NewHistoryAppended(payload.SessionID, fromWireTurn(payload.Turn), fromWireTurns(payload.FullHistory)), nil

	case TopicSendAudio:
		var payload binaryPayload
		if err := unmarshalPayload(message, &payload); err != nil {
			return nil, err
		}
		audio, err := base64.StdEncoding.DecodeString(payload.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid base64 audio: %v", ErrProtocolViolation, err)
		}
		return events.NewAudioChunk(audio), nil

	case TopicAttachImage:
		var payload binaryPayload
		if err := unmarshalPayload(message, &payload); err != nil {
			return nil, err
		}
		return events.NewImageAttached(payload.Data), nil

	default:
		return nil, fmt.Errorf("%w: unknown topic %q", ErrProtocolViolation, message.Topic)
	}
}

func marshalMessage(topic string, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal %s payload: %w", topic, err)
	}
	return Message{Topic: topic, Payload: data}, nil
}

func unmarshalPayload(message Message, target any) error {
	if err := json.Unmarshal(message.Payload, target); err != nil {
		return fmt.Errorf("%w: malformed %s payload: %v", ErrProtocolViolation, message.Topic, err)
	}
	return nil
}

func toWireTurn(turn providers.Turn) wireTurn {
	return wireTurn{CreatedAt: turn.At, QuestionText: turn.Question, AnswerText: turn.Answer}
}

func toWireTurns(turns []providers.Turn) []wireTurn {
	converted := make([]wireTurn, len(turns))
	for i, turn := range turns {
		converted[i] = toWireTurn(turn)
	}
	return converted
}

func fromWireTurn(turn wireTurn) providers.Turn {
	return providers.Turn{At: turn.CreatedAt, Question: turn.QuestionText, Answer: turn.AnswerText}
}

func fromWireTurns(turns []wireTurn) []providers.Turn {
	converted := make([]providers.Turn, len(turns))
	for i, turn := range turns {
		converted[i] = fromWireTurn(turn)
	}
	return converted
}
