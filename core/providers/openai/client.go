// Package openai implements a turn-based chat provider. Each send is one
// request/response round trip; prior turns are folded into the request so
// the backend sees the whole conversation.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/halolabs/halo-core/core/providers"
	"github.com/halolabs/halo-core/internal/utils"
	"github.com/jinzhu/copier"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultModel = "gpt-4o"
	defaultURL   = "https://api.openai.com/v1/chat/completions"
)

type Client struct {
	model string
	url   string
}

type Option func(*Client)

// WithModel overrides the chat model used for new sessions.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithURL overrides the completions endpoint. Used in tests.
func WithURL(url string) Option {
	return func(c *Client) { c.url = url }
}

func NewClient(opts ...Option) *Client {
	c := &Client{model: defaultModel, url: defaultURL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Kind() providers.Kind { return providers.KindOpenAI }

func (c *Client) Open(_ context.Context, config providers.Config, callbacks providers.Callbacks) (providers.Session, error) {
	return &Session{
		model:      c.model,
		url:        c.url,
		config:     config,
		callbacks:  callbacks,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}, nil
}

// Session is one turn-based conversation. There is no live connection:
// state is the session config plus an optional pending image attachment.
type Session struct {
	mu     sync.Mutex
	closed bool

	model      string
	url        string
	config     providers.Config
	callbacks  providers.Callbacks
	httpClient *http.Client

	pendingImage     []byte
	pendingImageMime string
}

func (s *Session) SendText(ctx context.Context, text string) error {
	ctx, span := tracer.Start(ctx, "prompt chat model")
	defer span.End()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return providers.ErrSessionClosed
	}
	image, imageMime := s.pendingImage, s.pendingImageMime
	s.pendingImage, s.pendingImageMime = nil, ""
	s.mu.Unlock()

	var history []providers.Turn
	if s.config.History != nil {
		history = s.config.History()
	}

	reqBody := requestBody{
		Model:    s.model,
		Messages: toMessages(s.config.Instructions, history, text, image, imageMime),
	}
	if s.config.SearchToolEnabled {
		var tools []chatTool
		copier.Copy(&tools, []providers.Tool{providers.SearchTool()})
		reqBody.Tools = tools
		reqBody.ToolChoice = utils.Ptr("auto")
	}

	answer, err := s.complete(ctx, reqBody)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if s.callbacks.OnAnswerPart != nil {
		s.callbacks.OnAnswerPart(answer)
	}
	if s.callbacks.OnTurnComplete != nil {
		s.callbacks.OnTurnComplete()
	}
	return nil
}

func (s *Session) SendAudio([]byte) error {
	return providers.ErrUnsupportedOperation
}

// SendImage stashes the image; it rides along with the next text request
// as a vision content part.
func (s *Session) SendImage(_ context.Context, data []byte, mimeType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return providers.ErrSessionClosed
	}
	s.pendingImage = append([]byte(nil), data...)
	s.pendingImageMime = mimeType
	return nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.pendingImage, s.pendingImageMime = nil, ""
	return nil
}

func (s *Session) complete(ctx context.Context, reqBody requestBody) (string, error) {
	requestBodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.url, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return "", fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.Credential)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", fmt.Errorf("chat request refused (%s): %w", resp.Status, providers.ErrCredentialRejected)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("non-OK HTTP status: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	var parsed responseBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("error unmarshalling response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat response contained no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
