package orchestration

import (
	"sync"

	"github.com/google/uuid"
	"github.com/halolabs/halo-core/core/providers"
)

const defaultHistoryCapacity = 10

// HistoryUpdate is handed to subscribers after each archived turn.
type HistoryUpdate struct {
	SessionID string
	Turn      providers.Turn
	History   []providers.Turn
}

// History is the bounded append-only log of completed exchanges. It is
// the replay material for reconnection and the multi-turn memory for
// turn-based providers. Appending beyond capacity evicts the oldest
// entry.
type History struct {
	mu          sync.Mutex
	sessionID   string
	capacity    int
	turns       []providers.Turn
	subscribers []func(HistoryUpdate)
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = defaultHistoryCapacity
	}
	return &History{sessionID: uuid.NewString(), capacity: capacity}
}

// Append archives one completed turn, evicting the oldest entry when the
// store is full, and notifies subscribers with a snapshot.
func (h *History) Append(turn providers.Turn) HistoryUpdate {
	h.mu.Lock()
	if len(h.turns) >= h.capacity {
		h.turns = h.turns[1:]
	}
	h.turns = append(h.turns, turn)

	update := HistoryUpdate{SessionID: h.sessionID, Turn: turn, History: h.snapshotLocked()}
	subscribers := make([]func(HistoryUpdate), len(h.subscribers))
	copy(subscribers, h.subscribers)
	h.mu.Unlock()

	for _, subscriber := range subscribers {
		subscriber(update)
	}
	return update
}

// Turns returns the archived turns, oldest first.
func (h *History) Turns() []providers.Turn {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked()
}

// Questions returns the non-empty archived questions, oldest first.
func (h *History) Questions() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	var questions []string
	for _, turn := range h.turns {
		if turn.Question != "" {
			questions = append(questions, turn.Question)
		}
	}
	return questions
}

func (h *History) SessionID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sessionID
}

// StartNewSession clears the store and assigns a fresh session
// identifier. Called on manual starts only; reconnection keeps history
// for replay.
func (h *History) StartNewSession() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = nil
	h.sessionID = uuid.NewString()
}

// Subscribe registers a mirror notified after every append.
func (h *History) Subscribe(subscriber func(HistoryUpdate)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers = append(h.subscribers, subscriber)
}

func (h *History) snapshotLocked() []providers.Turn {
	snapshot := make([]providers.Turn, len(h.turns))
	copy(snapshot, h.turns)
	return snapshot
}
