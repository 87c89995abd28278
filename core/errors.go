package orchestration

import "errors"

var (
	// ErrAlreadyInitializing is returned when Start is called while a
	// session is still connecting. The request is rejected, not queued,
	// and the in-flight connection attempt is unaffected.
	ErrAlreadyInitializing = errors.New("a session is already initializing")

	// ErrUnsupportedProvider is returned when the configuration names a
	// provider no adapter was registered for. Fatal to that Start call only.
	ErrUnsupportedProvider = errors.New("no adapter registered for provider")

	// ErrSessionInactive is returned by sends when no session is open.
	// Recoverable: the caller may Start again.
	ErrSessionInactive = errors.New("no active session")
)
