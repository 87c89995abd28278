package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/halolabs/halo-core/core/providers"
)

const audioMimeType = "audio/pcm;rate=16000"

// Session is one live duplex conversation. The read loop runs on its own
// goroutine and pushes server output through the configured callbacks.
type Session struct {
	connMu sync.Mutex
	conn   *websocket.Conn
	closed bool

	callbacks providers.Callbacks

	// accumulatedTranscript is the running transcript of the current
	// utterance. The backend sends transcription deltas; callers get the
	// cumulative text.
	accumulatedTranscript string
}

func newSession(conn *websocket.Conn, callbacks providers.Callbacks) *Session {
	return &Session{conn: conn, callbacks: callbacks}
}

func (s *Session) SendText(ctx context.Context, text string) error {
	return s.writeJSON(clientMessage{ClientContent: &clientContentPayload{
		Turns:        []content{{Role: "user", Parts: []part{{Text: text}}}},
		TurnComplete: true,
	}})
}

func (s *Session) SendAudio(audio []byte) error {
	return s.writeJSON(clientMessage{RealtimeInput: &realtimeInputPayload{
		MediaChunks: []mediaChunk{{
			MimeType: audioMimeType,
			Data:     base64.StdEncoding.EncodeToString(audio),
		}},
	}})
}

func (s *Session) SendImage(_ context.Context, data []byte, mimeType string) error {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return s.writeJSON(clientMessage{RealtimeInput: &realtimeInputPayload{
		MediaChunks: []mediaChunk{{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(data),
		}},
	}})
}

// Close tears the websocket down. Closing an already closed session is a
// no-op.
func (s *Session) Close() error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
		s.conn = nil
	}
	return nil
}

func (s *Session) writeJSON(message clientMessage) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.closed || s.conn == nil {
		return providers.ErrSessionClosed
	}
	return s.conn.WriteJSON(message)
}

func (s *Session) readAndProcessMessages(ctx context.Context) {
	conn := s.conn
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			s.handleReadError(err)
			return
		}
		s.processMessage(ctx, msg)
	}
}

func (s *Session) handleReadError(err error) {
	s.connMu.Lock()
	deliberate := s.closed
	s.closed = true
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()

	if s.callbacks.OnClose == nil {
		return
	}
	if deliberate || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		s.callbacks.OnClose(nil)
		return
	}
	s.callbacks.OnClose(classifyCloseError(err))
}

// classifyCloseError separates credential rejections from transient
// failures. The live endpoint reports a bad key as a policy-violation
// close whose text names the API key.
func classifyCloseError(err error) error {
	if websocket.IsCloseError(err, websocket.ClosePolicyViolation) ||
		strings.Contains(strings.ToLower(err.Error()), "api key") {
		return providers.ErrCredentialRejected
	}
	return err
}

func (s *Session) processMessage(_ context.Context, msg []byte) {
	var parsed serverMessage
	if err := json.Unmarshal(msg, &parsed); err != nil {
		logger.Warn("failed to unmarshal live server message", "error", err)
		return
	}

	serverContent := parsed.ServerContent
	if serverContent == nil {
		return
	}

	if serverContent.InputTranscription != nil {
		text := serverContent.InputTranscription.Text
		if len(text) > 0 {
			s.accumulatedTranscript += text
			if s.callbacks.OnTranscript != nil {
				s.callbacks.OnTranscript(strings.TrimSpace(s.accumulatedTranscript))
			}
		}
	}

	if serverContent.ModelTurn != nil && s.callbacks.OnAnswerPart != nil {
		for _, modelPart := range serverContent.ModelTurn.Parts {
			if len(modelPart.Text) > 0 {
				s.callbacks.OnAnswerPart(modelPart.Text)
			}
		}
	}

	if serverContent.TurnComplete {
		s.accumulatedTranscript = ""
		if s.callbacks.OnTurnComplete != nil {
			s.callbacks.OnTurnComplete()
		}
	}
}
