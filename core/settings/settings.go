// Package settings persists the last successfully started session
// configuration so the next launch can pre-fill it. Absence of persisted
// settings is not an error, just an unconfigured state.
package settings

// Settings is the durable subset of a session configuration. The
// credential is stored verbatim as an opaque string.
type Settings struct {
	Provider          string `json:"provider"`
	Credential        string `json:"credential"`
	Profile           string `json:"profile"`
	SearchToolEnabled bool   `json:"searchToolEnabled"`
}

// Store loads and saves session settings.
type Store interface {
	// Load returns the persisted settings and whether any were found.
	Load() (Settings, bool, error)
	Save(settings Settings) error
}
