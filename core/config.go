package orchestration

import "github.com/halolabs/halo-core/core/providers"

// SessionConfig configures one session. It is immutable once the session
// starts and is reused verbatim on reconnection.
type SessionConfig struct {
	// Provider selects the backend adapter.
	Provider providers.Kind
	// Credential is the opaque API credential, passed through untouched.
	Credential string
	// Profile selects an instruction template; unknown values fall back
	// to the general profile.
	Profile string
	// CustomInstructions is appended verbatim to the profile template.
	CustomInstructions string
	// Locale is a BCP 47 tag the assistant should respond in.
	Locale string
	// SearchToolEnabled exposes the web-search tool to backends that
	// support one. Defaults to enabled via NewSessionConfig.
	SearchToolEnabled bool
}

// NewSessionConfig returns a config with defaults applied (search tool
// enabled).
func NewSessionConfig(provider providers.Kind, credential string) SessionConfig {
	return SessionConfig{
		Provider:          provider,
		Credential:        credential,
		SearchToolEnabled: true,
	}
}
