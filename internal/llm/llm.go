package llm

import (
	"context"
	"encoding/json"
)

// Message is one entry in a chat transcript. Content may be empty when the
// assistant answered with tool calls only.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolCall is the model's request to invoke one registered function.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the function name and its JSON-encoded arguments.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolDef is a function schema advertised to the model.
type ToolDef struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// Usage reports token accounting for one completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is one assistant turn: either final text, or tool calls the
// caller must execute and feed back.
type Completion struct {
	Message Message
	Usage   Usage
}

// Provider abstracts the chat-completion backend so agents can be exercised
// against a fake in tests.
type Provider interface {
	Complete(ctx context.Context, messages []Message, tools []ToolDef) (Completion, error)
}

// Transcript role constants.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)
