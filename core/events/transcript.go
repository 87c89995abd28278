package events

const (
	// KindTranscriptStarted identifies the cumulative transcript of a new utterance.
	KindTranscriptStarted Kind = "user_transcript.started"
	// KindTranscriptUpdated identifies a cumulative transcript continuation.
	KindTranscriptUpdated Kind = "user_transcript.updated"
)

// TranscriptStarted carries the cumulative transcript of a freshly started
// utterance. Consumers should open a new turn for it.
type TranscriptStarted struct {
	Base
	Transcript string
}

// NewTranscriptStarted creates a transcript started event.
func NewTranscriptStarted(transcript string) TranscriptStarted {
	return TranscriptStarted{Base: NewBase(KindTranscriptStarted), Transcript: transcript}
}

// TranscriptUpdated carries the cumulative transcript of the active
// utterance. Consumers replace, never append.
type TranscriptUpdated struct {
	Base
	Transcript string
}

// NewTranscriptUpdated creates a transcript updated event.
func NewTranscriptUpdated(transcript string) TranscriptUpdated {
	return TranscriptUpdated{Base: NewBase(KindTranscriptUpdated), Transcript: transcript}
}
