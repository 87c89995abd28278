package events

const (
	// KindStatusChanged identifies a session lifecycle transition.
	KindStatusChanged Kind = "session.status_changed"
	// KindFailure identifies a non-fatal session failure.
	KindFailure Kind = "session.failure"
)

// Status is the externally visible session lifecycle state.
type Status string

const (
	StatusConnecting Status = "connecting"
	StatusConnected  Status = "connected"
	StatusError      Status = "error"
	StatusClosed     Status = "closed"
)

// StatusChanged reports a session lifecycle transition.
type StatusChanged struct {
	Base
	Status Status
}

// NewStatusChanged creates a status changed event.
func NewStatusChanged(status Status) StatusChanged {
	return StatusChanged{Base: NewBase(KindStatusChanged), Status: status}
}

// Failure carries a failure message surfaced to observers.
type Failure struct {
	Base
	Message string
}

// NewFailure creates a failure event.
func NewFailure(message string) Failure {
	return Failure{Base: NewBase(KindFailure), Message: message}
}
