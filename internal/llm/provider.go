package llm

import (
	"context"
	"encoding/json"
)

// Provider generates text or schema-shaped JSON from a prompt.
type Provider interface {
	// Generate sends one request. With req.Schema set the response Content
	// is validated JSON; otherwise it is the reply text encoded as a JSON
	// string (see Response.Text).
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	System string

	// Messages is the conversation so far, oldest first. Chat requests
	// carry client-held history; grading requests carry a single message.
	Messages []Message

	// Schema asks for JSON output conforming to it, using the provider's
	// native structured-output mechanism.
	Schema *Schema

	MaxTokens int

	// Temperature ranges 0.0 - 1.0. Zero leaves the provider default.
	Temperature float64
}

type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole maps wire role names ("model", "assistant", "ai") to a Role.
// Anything else is the user.
func ParseRole(s string) Role {
	switch s {
	case "assistant", "model", "ai", "bot":
		return RoleAssistant
	default:
		return RoleUser
	}
}

// Schema defines the JSON structure expected from the model.
type Schema struct {
	// Name identifies the schema in provider requests and the validation
	// cache. Kebab-case, e.g. "submission-feedback".
	Name string

	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the model's output.
type Response struct {
	Content json.RawMessage
	Usage   Usage
	// Model is the model that actually served the request.
	Model string
	// StopReason is normalized to "end", "max_tokens" or "error".
	StopReason string
}

// Text returns the reply as plain text. Content produced for a request
// without a schema is a JSON string and is unquoted; anything else is
// returned verbatim.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.Content, &s); err == nil {
		return s
	}
	return string(r.Content)
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
