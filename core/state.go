package orchestration

// SessionState is the lifecycle state of the orchestrator's single
// session slot. Exactly one live session may exist at a time.
type SessionState string

const (
	StateIdle       SessionState = "idle"
	StateConnecting SessionState = "connecting"
	StateConnected  SessionState = "connected"
	StateError      SessionState = "error"
	StateClosed     SessionState = "closed"
)
