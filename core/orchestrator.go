// Package orchestration owns the lifecycle of one live conversational
// session against an interchangeable backend. It drives the chosen
// provider adapter, buffers the in-flight transcript and answer, archives
// completed exchanges, and emits lifecycle and content events to a set of
// explicitly registered sinks.
package orchestration

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/halolabs/halo-core/core/events"
	"github.com/halolabs/halo-core/core/providers"
	"github.com/halolabs/halo-core/core/settings"
	"go.opentelemetry.io/otel/codes"
)

// transcriptIdleGap is the producer-side silence gap after which a new
// transcript fragment is treated as the start of a new utterance.
const transcriptIdleGap = 2000 * time.Millisecond

type Orchestrator struct {
	mu sync.Mutex

	state     SessionState
	sessionID string
	config    SessionConfig

	adapters map[providers.Kind]providers.Provider
	session  providers.Session

	history       *History
	settingsStore settings.Store
	reconnector   *reconnector
	sinks         []EventSink

	// In-flight exchange buffers. The transcript is cumulative (replace
	// semantics); the answer grows by fragment concatenation.
	transcript       string
	answer           strings.Builder
	lastTranscriptAt time.Time

	// stopping marks a deliberate close so the adapter's close callback
	// is not mistaken for a failure.
	stopping      bool
	closedEmitted bool

	baseContext context.Context
	now         func() time.Time
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		state:       StateIdle,
		adapters:    map[providers.Kind]providers.Provider{},
		history:     NewHistory(defaultHistoryCapacity),
		reconnector: newReconnector(),
		baseContext: context.Background(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current session lifecycle state.
func (o *Orchestrator) State() SessionState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// SessionID returns the identifier of the current session. Used for
// observability only; correctness never depends on it.
func (o *Orchestrator) SessionID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessionID
}

// History exposes the bounded archive of completed exchanges.
func (o *Orchestrator) History() *History {
	return o.history
}

// Start opens a new session with the given configuration. A Start while
// another session is connecting fails with ErrAlreadyInitializing and
// leaves the in-flight attempt untouched. A Start while connected
// replaces the current session.
func (o *Orchestrator) Start(ctx context.Context, config SessionConfig) error {
	o.mu.Lock()
	if o.state == StateConnecting {
		o.mu.Unlock()
		return ErrAlreadyInitializing
	}
	adapter, ok := o.adapters[config.Provider]
	if !ok {
		o.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnsupportedProvider, config.Provider)
	}
	current := o.session
	o.session = nil
	o.stopping = true
	o.mu.Unlock()

	if current != nil {
		current.Close()
	}

	o.history.StartNewSession()
	o.baseContext = ctx
	return o.start(ctx, adapter, config, true)
}

// start runs the shared connection path for manual starts and
// reconnection attempts. announceFailure is false on reconnection
// attempts: those exhaust silently into the terminal closed status, so
// only the credential rejection, which needs user action, surfaces a
// failure event.
func (o *Orchestrator) start(ctx context.Context, adapter providers.Provider, config SessionConfig, announceFailure bool) error {
	ctx, span := tracer.Start(ctx, "start session")
	defer span.End()

	o.mu.Lock()
	if o.state == StateConnecting {
		o.mu.Unlock()
		return ErrAlreadyInitializing
	}
	o.state = StateConnecting
	o.stopping = false
	o.closedEmitted = false
	o.sessionID = uuid.NewString()
	o.config = config
	o.transcript = ""
	o.answer.Reset()
	o.lastTranscriptAt = time.Time{}
	o.mu.Unlock()

	o.emit(events.NewStatusChanged(events.StatusConnecting))

	session, err := adapter.Open(ctx, o.providerConfig(config), o.callbacks())
	if err != nil {
		err = fmt.Errorf("failed to open provider session: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		o.mu.Lock()
		o.state = StateError
		o.mu.Unlock()

		if announceFailure || errors.Is(err, providers.ErrCredentialRejected) {
			o.emit(events.NewFailure(err.Error()))
		}
		if errors.Is(err, providers.ErrCredentialRejected) {
			o.emit(events.NewStatusChanged(events.StatusError))
		}
		return err
	}

	o.mu.Lock()
	o.session = session
	o.state = StateConnected
	o.mu.Unlock()

	o.emit(events.NewStatusChanged(events.StatusConnected))
	o.persistSettings(config)
	return nil
}

// Stop closes the current session, discarding any in-flight exchange
// without archiving it. Stopping an already stopped orchestrator is a
// no-op and emits no duplicate closed status.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	session := o.session
	o.session = nil
	o.stopping = true
	o.transcript = ""
	o.answer.Reset()
	o.state = StateClosed
	emitClosed := !o.closedEmitted
	o.closedEmitted = true
	o.mu.Unlock()

	if session != nil {
		if err := session.Close(); err != nil {
			logger.Warn("failed to close provider session", "error", err)
		}
	}
	if emitClosed {
		o.emit(events.NewStatusChanged(events.StatusClosed))
	}
}

// SendText forwards a typed question to the backend. The text also
// becomes the question of the in-flight exchange: turn-based providers
// have no transcription stream, so the typed text is the only user
// message there is.
func (o *Orchestrator) SendText(ctx context.Context, text string) error {
	o.mu.Lock()
	session := o.session
	o.mu.Unlock()
	if session == nil {
		return ErrSessionInactive
	}

	o.recordTranscript(text)

	if err := session.SendText(ctx, text); err != nil {
		return o.classifySendError(err)
	}
	return nil
}

// SendAudioChunk forwards raw audio to the streaming provider.
func (o *Orchestrator) SendAudioChunk(audio []byte) error {
	o.mu.Lock()
	session := o.session
	o.mu.Unlock()
	if session == nil {
		return ErrSessionInactive
	}
	return session.SendAudio(audio)
}

// SendImage attaches image bytes to the current exchange.
func (o *Orchestrator) SendImage(ctx context.Context, data []byte, mimeType string) error {
	o.mu.Lock()
	session := o.session
	o.mu.Unlock()
	if session == nil {
		return ErrSessionInactive
	}

	if err := session.SendImage(ctx, data, mimeType); err != nil {
		return o.classifySendError(err)
	}
	o.emit(events.NewImageAttached(base64.StdEncoding.EncodeToString(data)))
	return nil
}

func (o *Orchestrator) providerConfig(config SessionConfig) providers.Config {
	return providers.Config{
		Credential:        config.Credential,
		Instructions:      buildInstructions(config),
		SearchToolEnabled: config.SearchToolEnabled,
		History:           o.history.Turns,
	}
}

func (o *Orchestrator) callbacks() providers.Callbacks {
	return providers.Callbacks{
		OnTranscript:   o.handleTranscript,
		OnAnswerPart:   o.handleAnswerPart,
		OnTurnComplete: o.handleTurnComplete,
		OnClose:        o.handleClose,
	}
}

// handleTranscript receives the cumulative transcript of the current
// utterance and forwards it with full-replace semantics.
func (o *Orchestrator) handleTranscript(transcript string) {
	o.recordTranscript(transcript)
}

func (o *Orchestrator) recordTranscript(transcript string) {
	o.mu.Lock()
	now := o.now()
	newTurn := o.transcript == "" || now.Sub(o.lastTranscriptAt) >= transcriptIdleGap
	o.transcript = transcript
	o.lastTranscriptAt = now
	o.mu.Unlock()

	if newTurn {
		o.emit(events.NewTranscriptStarted(transcript))
	} else {
		o.emit(events.NewTranscriptUpdated(transcript))
	}
}

// handleAnswerPart appends an incremental answer piece and emits both the
// fragment and the full buffer so late subscribers can catch up.
func (o *Orchestrator) handleAnswerPart(part string) {
	o.mu.Lock()
	o.answer.WriteString(part)
	full := o.answer.String()
	o.mu.Unlock()

	o.emit(events.NewAnswerFragment(part))
	o.emit(events.NewAnswerSnapshot(full))
}

// handleTurnComplete archives the exchange when both sides are non-empty;
// an exchange with no recognized speech or no generated answer is not
// archived. Buffers are cleared either way.
func (o *Orchestrator) handleTurnComplete() {
	o.mu.Lock()
	question := strings.TrimSpace(o.transcript)
	answer := strings.TrimSpace(o.answer.String())
	o.transcript = ""
	o.answer.Reset()
	o.lastTranscriptAt = time.Time{}
	now := o.now()
	o.mu.Unlock()

	if question != "" && answer != "" {
		update := o.history.Append(providers.Turn{At: now, Question: question, Answer: answer})
		o.emit(events.NewHistoryAppended(update.SessionID, update.Turn, update.History))
	}
	o.emit(events.NewTurnCompleted())
}

// handleClose reacts to unexpected session termination. Credential
// rejections are fatal and user-actionable; anything else is handed to
// the reconnection controller.
func (o *Orchestrator) handleClose(err error) {
	o.mu.Lock()
	deliberate := o.stopping
	o.session = nil
	config := o.config
	ctx := o.baseContext
	o.mu.Unlock()

	if deliberate || err == nil {
		o.transitionClosed()
		return
	}

	if errors.Is(err, providers.ErrCredentialRejected) {
		o.mu.Lock()
		o.state = StateError
		o.mu.Unlock()
		o.emit(events.NewFailure("backend rejected the configured credential; update the API key and start again"))
		o.emit(events.NewStatusChanged(events.StatusError))
		return
	}

	logger.Warn("session closed unexpectedly, reconnecting", "error", err)
	go o.reconnector.run(ctx, o, config)
}

// restart re-runs the start path with the exact configuration of the most
// recent successful start, preserving history for replay.
func (o *Orchestrator) restart(ctx context.Context, config SessionConfig) error {
	o.mu.Lock()
	adapter, ok := o.adapters[config.Provider]
	o.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedProvider, config.Provider)
	}
	return o.start(ctx, adapter, config, false)
}

// transitionClosed moves to the terminal closed state, emitting the
// closed status at most once per session.
func (o *Orchestrator) transitionClosed() {
	o.mu.Lock()
	o.state = StateClosed
	emitClosed := !o.closedEmitted
	o.closedEmitted = true
	o.mu.Unlock()

	if emitClosed {
		o.emit(events.NewStatusChanged(events.StatusClosed))
	}
}

func (o *Orchestrator) classifySendError(err error) error {
	if errors.Is(err, providers.ErrCredentialRejected) {
		o.mu.Lock()
		o.state = StateError
		o.mu.Unlock()
		o.emit(events.NewStatusChanged(events.StatusError))
	}
	return err
}

// persistSettings stores the durable subset of the configuration so the
// next launch can pre-fill it. Failure to persist is non-fatal.
func (o *Orchestrator) persistSettings(config SessionConfig) {
	if o.settingsStore == nil {
		return
	}
	err := o.settingsStore.Save(settings.Settings{
		Provider:          string(config.Provider),
		Credential:        config.Credential,
		Profile:           config.Profile,
		SearchToolEnabled: config.SearchToolEnabled,
	})
	if err != nil {
		logger.Warn("failed to persist session settings", "error", err)
	}
}
