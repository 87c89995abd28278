package orchestration

import (
	"time"

	"github.com/halolabs/halo-core/core/providers"
	"github.com/halolabs/halo-core/core/settings"
)

type OrchestratorOption func(*Orchestrator)

// WithProvider registers a backend adapter. One adapter per provider
// kind; registering the same kind twice keeps the last one.
func WithProvider(adapter providers.Provider) OrchestratorOption {
	return func(o *Orchestrator) {
		o.adapters[adapter.Kind()] = adapter
	}
}

// WithEventSink registers a sink that receives every emitted event, in
// registration order.
func WithEventSink(sink EventSink) OrchestratorOption {
	return func(o *Orchestrator) {
		if sink != nil {
			o.sinks = append(o.sinks, sink)
		}
	}
}

// WithSettingsStore enables persistence of the last successfully started
// configuration.
func WithSettingsStore(store settings.Store) OrchestratorOption {
	return func(o *Orchestrator) {
		o.settingsStore = store
	}
}

// WithHistoryCapacity overrides the archived-turn capacity.
func WithHistoryCapacity(capacity int) OrchestratorOption {
	return func(o *Orchestrator) {
		o.history = NewHistory(capacity)
	}
}

// WithReconnectPolicy overrides the bounded retry policy.
func WithReconnectPolicy(maxAttempts int, delay time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		o.reconnector.maxAttempts = maxAttempts
		o.reconnector.delay = delay
	}
}
