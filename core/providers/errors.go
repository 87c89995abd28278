package providers

import "errors"

var (
	// ErrUnsupportedOperation is returned when a session does not support
	// the requested operation (e.g. audio on a turn-based provider).
	ErrUnsupportedOperation = errors.New("operation not supported by this provider")

	// ErrCredentialRejected is wrapped by adapters when the backend rejects
	// the configured credential. It is fatal: callers must not reconnect.
	ErrCredentialRejected = errors.New("provider rejected credential")

	// ErrSessionClosed is returned by sends on a closed session.
	ErrSessionClosed = errors.New("session is closed")
)
