package ai

import "context"

// Role values used on the model wire. "tool" carries tool observations back
// to the model and never leaves this package boundary.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one transcript entry sent to (or returned by) a provider.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a provider-neutral tool invocation request from the model.
// Arguments are decoded to a map at the provider boundary; wire formats
// (ollama objects, openrouter JSON strings) never leak past it.
type ToolCall struct {
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolSpec describes a callable tool in JSON-schema form.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ChatResponse is the unified response from any provider.
type ChatResponse struct {
	Message Message
}

// Provider is a chat-completion backend that supports tool calling.
type Provider interface {
	Chat(ctx context.Context, messages []Message, tools []ToolSpec) (*ChatResponse, error)
}
