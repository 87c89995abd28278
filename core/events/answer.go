package events

const (
	// KindAnswerFragment identifies streamed incremental answer text.
	KindAnswerFragment Kind = "assistant_answer.fragment"
	// KindAnswerSnapshot identifies the best current full answer text.
	KindAnswerSnapshot Kind = "assistant_answer.snapshot"
	// KindTurnCompleted identifies completion of the current exchange.
	KindTurnCompleted Kind = "turn_state.completed"
)

// AnswerFragment carries a streamed incremental piece of the answer.
type AnswerFragment struct {
	Base
	Text string
}

// NewAnswerFragment creates an answer fragment event.
func NewAnswerFragment(text string) AnswerFragment {
	return AnswerFragment{Base: NewBase(KindAnswerFragment), Text: text}
}

// AnswerSnapshot carries the full answer assembled so far. It may arrive
// out of order relative to fragments and must never shorten an already
// assembled answer on the consumer side.
type AnswerSnapshot struct {
	Base
	Text string
}

// NewAnswerSnapshot creates an answer snapshot event.
func NewAnswerSnapshot(text string) AnswerSnapshot {
	return AnswerSnapshot{Base: NewBase(KindAnswerSnapshot), Text: text}
}

// TurnCompleted marks the end of generation for the current exchange.
type TurnCompleted struct{ Base }

// NewTurnCompleted creates a turn completed event.
func NewTurnCompleted() TurnCompleted {
	return TurnCompleted{Base: NewBase(KindTurnCompleted)}
}
