package providers

import "github.com/invopop/jsonschema"

// Tool is a provider-agnostic tool declaration. Vendor adapters copy it
// into their own request shapes.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

type ToolFunction struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

type searchToolParameters struct {
	Query string `json:"query" jsonschema:"title=Query,description=The web search query to run"`
}

// SearchTool declares the web-search augmentation tool exposed to
// backends that implement search as a client-declared function.
func SearchTool() Tool {
	reflector := jsonschema.Reflector{DoNotReference: true}
	schema := reflector.Reflect(&searchToolParameters{})
	schema.Version = ""

	return Tool{
		Type: "function",
		Function: ToolFunction{
			Name:        "web_search",
			Description: "Search the web for fresh information relevant to the user's question",
			Parameters:  schema,
		},
	}
}
