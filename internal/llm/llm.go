// ABOUTME: Provider-neutral chat model contract used by the classifier and specialists
// ABOUTME: Normalizes messages, tool definitions, tool calls, and token usage across vendors

package llm

import (
	"context"
	"errors"
)

// ErrNoChoices is returned when a provider answers without any content.
var ErrNoChoices = errors.New("model returned no choices")

// Role of a model message.
type Role string

// Role constants
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // JSON object
}

// Message is one entry of the model transcript.
// Assistant messages may carry ToolCalls; tool messages answer one call by ToolCallID.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	ToolName   string
}

// ToolDefinition exposes a callable function to the model.
// Parameters is a JSON Schema object.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Request is a single completion request.
type Request struct {
	System      string
	Messages    []Message
	Tools       []ToolDefinition
	Temperature *float64 // nil uses the client default
}

// Usage captures token counts reported by the provider.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Response is a completed (non-streaming) model turn.
type Response struct {
	Text         string
	ToolCalls    []ToolCall
	FinishReason string
	Usage        Usage
}

// Info describes a client implementation.
type Info struct {
	Provider string
	Model    string
}

// Client is the minimal interface required to drive generation.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Info() Info
}

// Float returns a pointer to v, for Request.Temperature.
func Float(v float64) *float64 { return &v }
