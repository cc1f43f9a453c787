// Package api defines the wire types of the public HTTP interface and the
// token-usage accounting shared with the llm package.
package api

import (
	"time"

	"github.com/metalsbot/metals-chat/internal/tools"
)

// Message is one conversation turn as the client holds it. The full
// history is re-sent on every request; nothing is persisted server-side.
type Message struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

// ChatRequest is the body of POST /api/v1/chat.
type ChatRequest struct {
	Message             string    `json:"message" binding:"required"`
	ConversationHistory []Message `json:"conversationHistory" binding:"omitempty,dive"`
}

// ChatResponse is the chat endpoint's reply. On failure Success is false,
// Error carries the machine-readable cause and Response still contains a
// user-presentable apology the UI can render as a normal chat message.
type ChatResponse struct {
	Success   bool             `json:"success"`
	Response  string           `json:"response"`
	UsedTool  bool             `json:"usedTool"`
	ToolsUsed []string         `json:"toolsUsed"`
	ChartData *tools.ChartData `json:"chartData"`
	Usage     Usage            `json:"usage,omitempty"`
	Error     string           `json:"error,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// ToolResponse is the envelope of every per-tool endpoint, echoing the
// request that produced it.
type ToolResponse struct {
	Success   bool      `json:"success"`
	Tool      string    `json:"tool"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
	Request   any       `json:"request"`
	Timestamp time.Time `json:"timestamp"`
}

// Usage holds token accounting for one or more LLM calls.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Add accumulates another usage record into u.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}
