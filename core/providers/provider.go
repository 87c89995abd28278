// Package providers defines the uniform contract over interchangeable
// conversation backends: one streaming duplex provider and two turn-based
// chat providers. Adding a backend means adding an implementation of
// Provider, never branching on vendor names elsewhere.
package providers

import (
	"context"
	"time"
)

// Kind names a backend in the closed provider set.
type Kind string

const (
	// KindGemini is the streaming duplex provider.
	KindGemini Kind = "gemini"
	// KindOpenAI is a turn-based chat provider.
	KindOpenAI Kind = "openai"
	// KindAnthropic is a turn-based chat provider.
	KindAnthropic Kind = "anthropic"
)

// Turn is one archived exchange, used as replay and multi-turn context
// material. Immutable once created.
type Turn struct {
	At       time.Time
	Question string
	Answer   string
}

// Config is the per-session provider configuration. It is immutable for
// the lifetime of a session and reused verbatim on reconnection.
type Config struct {
	// Credential is the opaque API credential for the backend.
	Credential string
	// Instructions is the fully assembled system instruction text. It
	// already carries the locale directive when one was configured.
	Instructions string
	// SearchToolEnabled exposes the web-search augmentation tool to the
	// backend when it supports one.
	SearchToolEnabled bool
	// History supplies archived turns, oldest first. Turn-based providers
	// fold these into every outgoing request; it is their only multi-turn
	// memory. Streaming providers ignore it.
	History func() []Turn
}

// Callbacks receive asynchronous output from an open session. All
// callbacks may be invoked from the provider's read goroutine.
type Callbacks struct {
	// OnTranscript delivers the cumulative transcript of the current
	// utterance (replace semantics, never incremental).
	OnTranscript func(transcript string)
	// OnAnswerPart delivers an incremental piece of the generated answer.
	OnAnswerPart func(part string)
	// OnTurnComplete signals that generation for the exchange finished.
	OnTurnComplete func()
	// OnClose signals session termination. A nil error means a deliberate
	// close; a credential rejection wraps ErrCredentialRejected.
	OnClose func(err error)
}

// Provider opens sessions against one backend.
type Provider interface {
	Kind() Kind
	Open(ctx context.Context, config Config, callbacks Callbacks) (Session, error)
}

// Session is one live conversation with a backend.
//
// Close must be idempotent: closing an already closed session is a no-op.
type Session interface {
	SendText(ctx context.Context, text string) error
	// SendAudio forwards a raw audio chunk. Turn-based providers return
	// ErrUnsupportedOperation.
	SendAudio(audio []byte) error
	// SendImage attaches image bytes to the current exchange.
	SendImage(ctx context.Context, data []byte, mimeType string) error
	Close() error
}
