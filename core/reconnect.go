package orchestration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/halolabs/halo-core/core/providers"
)

const (
	defaultReconnectAttempts = 3
	defaultReconnectDelay    = 2000 * time.Millisecond
)

// reconnector retries a dropped session with a bounded, fixed-delay
// policy. The loop counter is the only bound: attempts never exceed the
// maximum regardless of failure cause.
type reconnector struct {
	maxAttempts int
	delay       time.Duration
	sleep       func(time.Duration)
}

func newReconnector() *reconnector {
	return &reconnector{
		maxAttempts: defaultReconnectAttempts,
		delay:       defaultReconnectDelay,
		sleep:       time.Sleep,
	}
}

// run retries the start path with the exact configuration of the most
// recent successful start. On success it replays prior context into the
// fresh session; on exhaustion it settles into the terminal closed state.
func (r *reconnector) run(ctx context.Context, o *Orchestrator, config SessionConfig) {
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		r.sleep(r.delay)

		if ctx.Err() != nil {
			o.transitionClosed()
			return
		}

		if err := o.restart(ctx, config); err != nil {
			logger.Warn("reconnection attempt failed",
				"attempt", attempt, "maxAttempts", r.maxAttempts, "error", err)
			if errors.Is(err, providers.ErrCredentialRejected) {
				// Fatal; the start path already surfaced the error state.
				return
			}
			continue
		}

		r.replayContext(ctx, o)
		return
	}

	o.transitionClosed()
}

// replayContext re-grounds a stateless reconnection by sending one
// synthetic message summarizing everything asked so far.
func (r *reconnector) replayContext(ctx context.Context, o *Orchestrator) {
	questions := o.history.Questions()
	if len(questions) == 0 {
		return
	}

	var summary strings.Builder
	summary.WriteString("The connection dropped and was restored. Here is everything I have asked so far:\n")
	for i, question := range questions {
		summary.WriteString(fmt.Sprintf("%d. %s\n", i+1, question))
	}
	summary.WriteString("Please answer the most recent question.")

	o.mu.Lock()
	session := o.session
	o.mu.Unlock()
	if session == nil {
		return
	}
	if err := session.SendText(ctx, summary.String()); err != nil {
		logger.Warn("failed to replay context after reconnection", "error", err)
	}
}
