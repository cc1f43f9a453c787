package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/metalsbot/metals-chat/internal/api"
	"github.com/metalsbot/metals-chat/internal/tools"
)

const (
	openAIAPIURL     = "https://api.openai.com/v1/chat/completions"
	openRouterAPIURL = "https://openrouter.ai/api/v1/chat/completions"
)

// openAIRequest is the top-level structure of a chat-completions call.
type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Tools       []openAITool    `json:"tools,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature *float32        `json:"temperature,omitempty"`
}

type openAIMessage struct {
	Role       string            `json:"role"`
	Content    string            `json:"content"`
	ToolCalls  []*tools.ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string            `json:"tool_call_id,omitempty"`
}

type openAITool struct {
	Type     string         `json:"type"`
	Function tools.Function `json:"function"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// OpenAIClient talks to any OpenAI-compatible chat-completions endpoint.
// With the OpenRouter base URL it serves as the OpenRouter client too; the
// wire contract is identical.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var _ Client = (*OpenAIClient)(nil)

// NewOpenAIClient creates a client for the OpenAI API.
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	return newOpenAICompatibleClient(apiKey, openAIAPIURL)
}

// NewOpenRouterClient creates a client for the OpenRouter API.
func NewOpenRouterClient(apiKey string) (*OpenAIClient, error) {
	return newOpenAICompatibleClient(apiKey, openRouterAPIURL)
}

func newOpenAICompatibleClient(apiKey, baseURL string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("API key cannot be empty")
	}
	return &OpenAIClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}, nil
}

// Generate performs one blocking chat-completions request.
func (c *OpenAIClient) Generate(ctx context.Context, messages []Message, config *GenerationConfig, availableTools []tools.Tool) (*GenerationResult, error) {
	reqPayload := openAIRequest{
		Model:       config.Model,
		Messages:    toOpenAIMessages(messages),
		Tools:       toOpenAITools(availableTools),
		MaxTokens:   config.MaxTokens,
		Temperature: config.Temperature,
	}
	payloadBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat completions request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("chat completions API error: status %d, body: %s", resp.StatusCode, string(body))
	}
	return parseOpenAIResponse(body)
}

func toOpenAIMessages(messages []Message) []openAIMessage {
	out := make([]openAIMessage, 0, len(messages))
	for _, msg := range messages {
		out = append(out, openAIMessage{
			Role:       string(msg.Role),
			Content:    msg.Content,
			ToolCalls:  msg.ToolCalls,
			ToolCallID: msg.ToolCallID,
		})
	}
	return out
}

func toOpenAITools(toolsToConvert []tools.Tool) []openAITool {
	if len(toolsToConvert) == 0 {
		return nil
	}
	out := make([]openAITool, 0, len(toolsToConvert))
	for _, t := range toolsToConvert {
		out = append(out, openAITool{Type: tools.ToolTypeFunction, Function: t.Function})
	}
	return out
}

func parseOpenAIResponse(body []byte) (*GenerationResult, error) {
	var parsed openAIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chat completions response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New("no choices returned from chat completions API")
	}

	choice := parsed.Choices[0].Message
	return &GenerationResult{
		Content:   strings.TrimSpace(choice.Content),
		ToolCalls: choice.ToolCalls,
		Usage: api.Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		},
	}, nil
}
