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
	anthropicAPIURL  = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
)

// --- API data structures ---

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Tools       []anthropicTool    `json:"tools,omitempty"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float32           `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type anthropicTool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema interface{} `json:"input_schema"`
}

type anthropicContentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	Content   string          `json:"content,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
}

type anthropicResponse struct {
	Content []anthropicContentBlock `json:"content"`
	Usage   anthropicUsage          `json:"usage"`
}

// AnthropicClient talks to the Anthropic Messages API.
type AnthropicClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var _ Client = (*AnthropicClient)(nil)

// NewAnthropicClient creates a configured Anthropic client.
func NewAnthropicClient(apiKey string) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic API key cannot be empty")
	}
	return &AnthropicClient{
		apiKey:     apiKey,
		baseURL:    anthropicAPIURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}, nil
}

// Generate performs one blocking request against the Messages API.
func (c *AnthropicClient) Generate(ctx context.Context, messages []Message, config *GenerationConfig, availableTools []tools.Tool) (*GenerationResult, error) {
	payload, err := c.buildRequestPayload(messages, config, availableTools)
	if err != nil {
		return nil, fmt.Errorf("failed to build anthropic request payload: %w", err)
	}
	respBody, err := c.doRequest(ctx, payload)
	if err != nil {
		return nil, err
	}
	return parseAnthropicResponse(respBody)
}

func (c *AnthropicClient) buildRequestPayload(messages []Message, config *GenerationConfig, availableTools []tools.Tool) (*bytes.Buffer, error) {
	systemPrompt, anthropicMsgs := toAnthropicMessages(messages)
	anthropicTools, err := toAnthropicTools(availableTools)
	if err != nil {
		return nil, fmt.Errorf("failed to convert tools: %w", err)
	}

	req := anthropicRequest{
		Model:       config.Model,
		Messages:    anthropicMsgs,
		System:      systemPrompt,
		Tools:       anthropicTools,
		MaxTokens:   defaultMaxTokens,
		Temperature: config.Temperature,
	}
	if config.MaxTokens > 0 {
		req.MaxTokens = config.MaxTokens
	}
	payloadBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}
	return bytes.NewBuffer(payloadBytes), nil
}

// toAnthropicMessages splits out the system prompt (a top-level field in
// the Anthropic API) and converts the remaining turns. Assistant turns that
// requested tools become tool_use blocks; tool results become user-role
// tool_result blocks, which is how the Messages API represents them.
func toAnthropicMessages(messages []Message) (string, []anthropicMessage) {
	var systemPrompt string
	var anthropicMsgs []anthropicMessage
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			systemPrompt = msg.Content
		case RoleTool:
			anthropicMsgs = append(anthropicMsgs, anthropicMessage{
				Role: "user",
				Content: []anthropicContentBlock{{
					Type:      "tool_result",
					ToolUseID: msg.ToolCallID,
					Content:   msg.Content,
				}},
			})
		case RoleAssistant:
			if len(msg.ToolCalls) > 0 {
				var blocks []anthropicContentBlock
				if msg.Content != "" {
					blocks = append(blocks, anthropicContentBlock{Type: "text", Text: msg.Content})
				}
				for _, call := range msg.ToolCalls {
					blocks = append(blocks, anthropicContentBlock{
						Type:  "tool_use",
						ID:    call.ID,
						Name:  call.Function.Name,
						Input: json.RawMessage(call.Function.Arguments),
					})
				}
				anthropicMsgs = append(anthropicMsgs, anthropicMessage{Role: "assistant", Content: blocks})
			} else {
				anthropicMsgs = append(anthropicMsgs, anthropicMessage{Role: "assistant", Content: msg.Content})
			}
		default:
			anthropicMsgs = append(anthropicMsgs, anthropicMessage{Role: string(msg.Role), Content: msg.Content})
		}
	}
	return systemPrompt, anthropicMsgs
}

func toAnthropicTools(toolsToConvert []tools.Tool) ([]anthropicTool, error) {
	if len(toolsToConvert) == 0 {
		return nil, nil
	}
	anthropicTools := make([]anthropicTool, 0, len(toolsToConvert))
	for _, t := range toolsToConvert {
		paramsBytes, err := json.Marshal(t.Function.Parameters)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal tool parameters: %w", err)
		}
		var paramsMap map[string]interface{}
		if err := json.Unmarshal(paramsBytes, &paramsMap); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tool parameters: %w", err)
		}
		anthropicTools = append(anthropicTools, anthropicTool{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			InputSchema: paramsMap,
		})
	}
	return anthropicTools, nil
}

func parseAnthropicResponse(body []byte) (*GenerationResult, error) {
	var anthropicResp anthropicResponse
	if err := json.Unmarshal(body, &anthropicResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal anthropic response: %w", err)
	}
	if len(anthropicResp.Content) == 0 {
		return nil, errors.New("no content returned from Anthropic")
	}

	var contentBuilder strings.Builder
	var toolCalls []*tools.ToolCall
	for _, block := range anthropicResp.Content {
		switch block.Type {
		case "text":
			contentBuilder.WriteString(block.Text)
		case "tool_use":
			toolCalls = append(toolCalls, &tools.ToolCall{
				ID:   block.ID,
				Type: tools.ToolTypeFunction,
				Function: tools.ToolCallFunction{
					Name:      block.Name,
					Arguments: string(block.Input),
				},
			})
		}
	}

	usage := api.Usage{
		PromptTokens:     anthropicResp.Usage.InputTokens,
		CompletionTokens: anthropicResp.Usage.OutputTokens,
		TotalTokens:      anthropicResp.Usage.InputTokens + anthropicResp.Usage.OutputTokens,
	}
	return &GenerationResult{
		Content:   strings.TrimSpace(contentBuilder.String()),
		ToolCalls: toolCalls,
		Usage:     usage,
	}, nil
}

// doRequest issues one request with no automatic retry; a failed upstream
// call surfaces immediately as an orchestrator failure.
func (c *AnthropicClient) doRequest(ctx context.Context, payload *bytes.Buffer) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("anthropic API error: status %d, body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
