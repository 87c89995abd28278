package openai

import (
	"encoding/base64"
	"fmt"

	"github.com/halolabs/halo-core/core/providers"
	"github.com/invopop/jsonschema"
)

const (
	messageRoleSystem    = "system"
	messageRoleUser      = "user"
	messageRoleAssistant = "assistant"
)

type requestBody struct {
	Model      string     `json:"model"`
	Messages   []message  `json:"messages"`
	Tools      []chatTool `json:"tools,omitempty"`
	ToolChoice *string    `json:"tool_choice,omitempty"`
}

// message content is either a plain string or a list of content parts
// (text plus image) for vision requests.
type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

type responseBody struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// toMessages folds archived turns (oldest first) between the system
// instructions and the new user message. This folding is the only
// multi-turn memory a request/response backend has.
func toMessages(instructions string, history []providers.Turn, question string, image []byte, imageMimeType string) []message {
	var messages []message
	if instructions != "" {
		messages = append(messages, message{Role: messageRoleSystem, Content: instructions})
	}

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
	dataURL := fmt.Sprintf("data:%s;base64,%s", imageMimeType, base64.StdEncoding.EncodeToString(image))
	return append(messages, message{Role: messageRoleUser, Content: []contentPart{
		{Type: "text", Text: question},
		{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
	}})
}
