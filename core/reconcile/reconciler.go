// Package reconcile folds the session event stream into an ordered,
// display-ready list of conversation turns. It runs on the consumer side
// of the event channel, possibly in a different process from the
// orchestrator, and tolerates delivery over any asynchronous channel.
package reconcile

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/halolabs/halo-core/core/events"
	"github.com/halolabs/halo-core/core/wire"
)

// transcriptIdleGap is the silence threshold after which a transcript
// fragment starts a new turn. Transcript events carry no turn id; this
// heuristic is the boundary.
const transcriptIdleGap = 2000 * time.Millisecond

// Conversation is one display-ready turn. AIResponse grows by fragment
// concatenation; UserMessage is overwritten as the running transcript of
// the same utterance improves.
type Conversation struct {
	ID            string
	UserMessage   string
	AIResponse    string
	Timestamp     time.Time
	AttachedImage string
}

// Reconciler assembles conversations from raw events. It exclusively
// owns its turn list; no other component mutates it.
type Reconciler struct {
	mu            sync.Mutex
	conversations []Conversation
	cursor        int

	// activeIndex is the turn that trailing answer and image content
	// resolves to. TurnCompleted clears the transcribing flag but keeps
	// the active turn: only a new transcription burst replaces it.
	activeIndex      int
	transcribing     bool
	lastTranscriptAt time.Time

	now func() time.Time
}

type Option func(*Reconciler)

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

func NewReconciler(opts ...Option) *Reconciler {
	r := &Reconciler{activeIndex: -1, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Emit folds one event. It satisfies the orchestrator's event sink
// contract for in-process wiring.
func (r *Reconciler) Emit(event events.Event) { r.Handle(event) }

// Handle folds one event into the turn list. Events that carry no turn
// content are ignored; unknown events are dropped with a warning and
// never crash the fold.
func (r *Reconciler) Handle(event events.Event) {
	switch typedEvent := event.(type) {
	case events.TranscriptStarted:
		r.applyTranscript(typedEvent.Transcript)
	case events.TranscriptUpdated:
		r.applyTranscript(typedEvent.Transcript)
	case events.AnswerFragment:
		r.applyAnswerFragment(typedEvent.Text)
	case events.AnswerSnapshot:
		r.applyAnswerSnapshot(typedEvent.Text)
	case events.TurnCompleted:
		r.applyTurnComplete()
	case events.ImageAttached:
		r.applyImage(typedEvent.Data)
	case events.StatusChanged, events.HistoryAppended, events.Failure, events.AudioChunk:
		// No turn content.
	default:
		logger.Warn("dropping unexpected event", "kind", string(event.Kind()))
	}
}

// HandleMessage decodes and folds one wire message. Malformed messages
// are dropped with a warning.
func (r *Reconciler) HandleMessage(message wire.Message) {
	event, err := wire.Decode(message)
	if err != nil {
		logger.Warn("dropping malformed wire message", "topic", message.Topic, "error", err)
		return
	}
	r.Handle(event)
}

// applyTranscript applies the idle-gap boundary heuristic: a fragment
// arriving after the idle threshold (or with no transcription in
// progress) starts a new turn; otherwise it overwrites the active turn's
// user message, because transcript fragments are a running best
// transcript, not additive content.
func (r *Reconciler) applyTranscript(transcript string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	newTurn := r.activeIndex < 0 ||
		!r.transcribing ||
		now.Sub(r.lastTranscriptAt) >= transcriptIdleGap
	r.transcribing = true
	r.lastTranscriptAt = now

	if newTurn {
		r.appendConversationLocked(Conversation{
			ID:          uuid.NewString(),
			UserMessage: transcript,
			Timestamp:   now,
		})
		return
	}
	r.conversations[r.activeIndex].UserMessage = transcript
}

func (r *Reconciler) applyAnswerFragment(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	index := r.ensureActiveLocked()
	r.conversations[index].AIResponse += text
}

// applyAnswerSnapshot applies the monotonic length guard: a full-text
// update may arrive out of order with fragments and is accepted only if
// it is at least as long as the assembled answer. Empty and placeholder
// payloads are discarded outright.
func (r *Reconciler) applyAnswerSnapshot(text string) {
	if strings.TrimSpace(text) == "" || text == "undefined" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	index := r.ensureActiveLocked()
	if len(text) >= len(r.conversations[index].AIResponse) {
		r.conversations[index].AIResponse = text
	}
}

// applyTurnComplete clears the transcription-in-progress flag only. The
// active turn keeps accepting trailing answer and image content until a
// new transcription burst begins.
func (r *Reconciler) applyTurnComplete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcribing = false
}

func (r *Reconciler) applyImage(data string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	index := r.ensureActiveLocked()
	r.conversations[index].AttachedImage = data
}

// ensureActiveLocked returns the active turn index, opening an anonymous
// turn when answer content arrives before any transcription this session.
func (r *Reconciler) ensureActiveLocked() int {
	if r.activeIndex < 0 {
		r.appendConversationLocked(Conversation{ID: uuid.NewString(), Timestamp: r.now()})
	}
	return r.activeIndex
}

func (r *Reconciler) appendConversationLocked(conversation Conversation) {
	r.conversations = append(r.conversations, conversation)
	r.activeIndex = len(r.conversations) - 1
	r.cursor = r.activeIndex
}

// Conversations returns a snapshot of the assembled turns, oldest first.
func (r *Reconciler) Conversations() []Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make([]Conversation, len(r.conversations))
	copy(snapshot, r.conversations)
	return snapshot
}

// Current returns the turn under the cursor.
func (r *Reconciler) Current() (Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.conversations) == 0 {
		return Conversation{}, false
	}
	return r.conversations[r.cursor], true
}

// Counter renders the cursor position as "i/N".
func (r *Reconciler) Counter() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.conversations) == 0 {
		return "0/0"
	}
	return fmt.Sprintf("%d/%d", r.cursor+1, len(r.conversations))
}

// Previous moves the cursor one turn back, clamped to the first turn.
func (r *Reconciler) Previous() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cursor > 0 {
		r.cursor--
	}
}

// Next moves the cursor one turn forward, clamped to the last turn.
func (r *Reconciler) Next() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cursor < len(r.conversations)-1 {
		r.cursor++
	}
}
