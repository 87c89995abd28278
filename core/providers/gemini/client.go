// Package gemini implements the streaming duplex provider over the live
// websocket API. Incoming server messages are translated into session
// callbacks; the input transcription is accumulated so the transcript
// callback always delivers the running cumulative text.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
	"github.com/halolabs/halo-core/core/providers"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultModel = "models/gemini-2.0-flash-live-001"
	liveEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"
)

type Client struct {
	model    string
	endpoint string
}

type Option func(*Client)

// WithModel overrides the live model used for new sessions.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithEndpoint overrides the websocket endpoint. Used in tests.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

func NewClient(opts ...Option) *Client {
	c := &Client{model: defaultModel, endpoint: liveEndpoint}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Kind() providers.Kind { return providers.KindGemini }

func (c *Client) Open(ctx context.Context, config providers.Config, callbacks providers.Callbacks) (providers.Session, error) {
	ctx, span := tracer.Start(ctx, "open live session")
	defer span.End()

	conn, err := c.dial(ctx, config.Credential)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	setup := clientMessage{Setup: &setupPayload{
		Model:                   c.model,
		GenerationConfig:        &generationConfig{ResponseModalities: []string{"TEXT"}},
		InputAudioTranscription: &struct{}{},
	}}
	if config.Instructions != "" {
		setup.Setup.SystemInstruction = &content{Parts: []part{{Text: config.Instructions}}}
	}
	if config.SearchToolEnabled {
		setup.Setup.Tools = []tool{{GoogleSearch: &struct{}{}}}
	}

	if err := conn.WriteJSON(setup); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to send live session setup: %w", err)
	}

	session := newSession(conn, callbacks)
	go session.readAndProcessMessages(ctx)

	return session, nil
}

func (c *Client) dial(ctx context.Context, credential string) (*websocket.Conn, error) {
	liveURL, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid live endpoint: %w", err)
	}
	queryParams := liveURL.Query()
	queryParams.Set("key", credential)
	liveURL.RawQuery = queryParams.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, liveURL.String(), nil)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("failed to open live session: %w", providers.ErrCredentialRejected)
		}
		return nil, fmt.Errorf("failed to open socket connection to live endpoint: %w", err)
	}

	return conn, nil
}
