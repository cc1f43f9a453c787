// Package llm contains the provider-agnostic client interface for the
// hosted LLM services and its concrete implementations. The provider is an
// opaque external collaborator: messages and tool descriptors go in, text
// or tool-invocation requests come out. Nothing here reimplements any of
// the provider's decision making.
package llm

import (
	"context"

	"github.com/metalsbot/metals-chat/internal/api"
	"github.com/metalsbot/metals-chat/internal/tools"
)

// Role represents the originator of a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message represents a single message in a conversation history.
type Message struct {
	Role       Role              `json:"role"`
	Content    string            `json:"content"`
	ToolCallID string            `json:"tool_call_id,omitempty"`
	ToolCalls  []*tools.ToolCall `json:"tool_calls,omitempty"`
}

// GenerationConfig holds the parameters controlling a generation request.
type GenerationConfig struct {
	// Model is the provider-specific model identifier.
	Model string
	// Temperature controls randomness. A pointer distinguishes an explicit
	// 0.0 from an unset value.
	Temperature *float32
	// MaxTokens caps the response length. Zero selects the client default.
	MaxTokens int
}

// GenerationResult is the complete output of one LLM call.
type GenerationResult struct {
	// Content is the generated text, empty when the model elected to call
	// tools instead of answering.
	Content string
	// ToolCalls holds the tool invocations the model requested; modern
	// models can request several in parallel.
	ToolCalls []*tools.ToolCall
	// Usage is the token accounting for this call.
	Usage api.Usage
}

// Client is the narrow interface every provider implementation satisfies.
type Client interface {
	// Generate performs one blocking request: full conversation history and
	// available tools in, a complete result out.
	Generate(
		ctx context.Context,
		messages []Message,
		config *GenerationConfig,
		availableTools []tools.Tool,
	) (*GenerationResult, error)
}
