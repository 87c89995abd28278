package anthropic

import (
	"encoding/base64"

	"github.com/halolabs/halo-core/core/providers"
)

const (
	messageRoleUser      = "user"
	messageRoleAssistant = "assistant"
)

type requestBody struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system,omitempty"`
	Messages  []message    `json:"messages"`
	Tools     []serverTool `json:"tools,omitempty"`
}

// message content is either a plain string or a list of typed blocks
// (text plus image) for vision requests.
type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// serverTool declares a backend-executed tool; web search runs on the
// vendor side, so no schema is reflected for it.
type serverTool struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	MaxUses int    `json:"max_uses,omitempty"`
}

type responseBody struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func webSearchTool() serverTool {
	return serverTool{Type: "web_search_20250305", Name: "web_search", MaxUses: 3}
}

// toMessages folds archived turns (oldest first) ahead of the new user
// message; the backend has no other multi-turn memory.
func toMessages(history []providers.Turn, question string, image []byte, imageMimeType string) []message {
	var messages []message
	for _, turn := range history {
		messages = append(messages,
			message{Role: messageRoleUser, Content: turn.Question},
			message{Role: messageRoleAssistant, Content: turn.Answer},
		)
	}

	if image == nil {
		return append(messages, message{Role: messageRoleUser, Content: question})
	}

	if imageMimeType == "" {
		imageMimeType = "image/png"
	}
	return append(messages, message{Role: messageRoleUser, Content: []contentBlock{
		{Type: "image", Source: &imageSource{
			Type:      "base64",
			MediaType: imageMimeType,
			Data:      base64.StdEncoding.EncodeToString(image),
		}},
		{Type: "text", Text: question},
	}})
}

// collectText joins the text blocks of a response in order.
func collectText(parsed responseBody) string {
	var answer string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			answer += block.Text
		}
	}
	return answer
}
