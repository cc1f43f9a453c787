package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/metalsbot/metals-chat/internal/api"
	"github.com/metalsbot/metals-chat/internal/tools"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient talks to Google's Gemini models through the official SDK.
type GeminiClient struct {
	model *genai.GenerativeModel
}

var _ Client = (*GeminiClient)(nil)

// NewGeminiClient creates a configured Gemini client for modelID.
func NewGeminiClient(apiKey, modelID string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key cannot be empty")
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{model: client.GenerativeModel(modelID)}, nil
}

// Generate performs one blocking request against the Gemini API.
func (c *GeminiClient) Generate(ctx context.Context, messages []Message, config *GenerationConfig, availableTools []tools.Tool) (*GenerationResult, error) {
	if len(messages) == 0 {
		return nil, errors.New("no messages to send")
	}
	model := c.requestModel(config, availableTools)

	system, history := toGeminiHistory(messages)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	chat := model.StartChat()
	chat.History = history

	last := messages[len(messages)-1]
	resp, err := chat.SendMessage(ctx, genai.Text(last.Content))
	if err != nil {
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}
	return parseGeminiResponse(resp)
}

// requestModel builds a per-request copy of the model with the request's
// settings applied. The shared model is never mutated: one client serves
// all requests concurrently, and the SDK's setters write through the
// receiver (the follow-up turn clearing Tools must not strip them from an
// overlapping first turn).
func (c *GeminiClient) requestModel(config *GenerationConfig, availableTools []tools.Tool) *genai.GenerativeModel {
	model := *c.model

	maxTokens := defaultMaxTokens
	if config != nil {
		if config.Temperature != nil {
			model.SetTemperature(*config.Temperature)
		}
		if config.MaxTokens > 0 {
			maxTokens = config.MaxTokens
		}
	}
	model.SetMaxOutputTokens(int32(maxTokens))

	if len(availableTools) > 0 {
		model.Tools = toGeminiTools(availableTools)
	} else {
		model.Tools = nil
	}
	return &model
}

func toGeminiTools(toolsToConvert []tools.Tool) []*genai.Tool {
	var geminiTools []*genai.Tool
	for _, t := range toolsToConvert {
		decl := &genai.FunctionDeclaration{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			Parameters:  convertSchema(t.Function.Parameters),
		}
		geminiTools = append(geminiTools, &genai.Tool{
			FunctionDeclarations: []*genai.FunctionDeclaration{decl},
		})
	}
	return geminiTools
}

func convertSchema(s tools.JSONSchema) *genai.Schema {
	out := &genai.Schema{
		Description: s.Description,
		Required:    s.Required,
		Enum:        s.Enum,
	}
	switch s.Type {
	case "object":
		out.Type = genai.TypeObject
	case "string":
		out.Type = genai.TypeString
	case "number":
		out.Type = genai.TypeNumber
	case "integer":
		out.Type = genai.TypeInteger
	case "array":
		out.Type = genai.TypeArray
	}
	if s.Items != nil {
		out.Items = convertSchema(*s.Items)
	}
	if s.Properties != nil {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for k, v := range s.Properties {
			out.Properties[k] = convertSchema(*v)
		}
	}
	return out
}

// toGeminiHistory converts all turns but the last into the SDK's history
// format; the last turn is sent as the new message. The system prompt is
// lifted out, as the SDK carries it on the model, not in history.
// Assistant tool requests become FunctionCall parts and tool results become
// FunctionResponse parts; the API rejects empty text parts, so turns with
// no renderable content are dropped.
func toGeminiHistory(messages []Message) (string, []*genai.Content) {
	var system string
	var history []*genai.Content
	for _, msg := range messages[:len(messages)-1] {
		switch msg.Role {
		case RoleSystem:
			system = msg.Content
		case RoleAssistant:
			var parts []genai.Part
			if msg.Content != "" {
				parts = append(parts, genai.Text(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				var args map[string]any
				if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
					args = map[string]any{"arguments": call.Function.Arguments}
				}
				parts = append(parts, genai.FunctionCall{Name: call.Function.Name, Args: args})
			}
			if len(parts) == 0 {
				continue
			}
			history = append(history, &genai.Content{Role: "model", Parts: parts})
		case RoleTool:
			var response map[string]any
			if err := json.Unmarshal([]byte(msg.Content), &response); err != nil {
				response = map[string]any{"output": msg.Content}
			}
			history = append(history, &genai.Content{
				Role: "user",
				Parts: []genai.Part{genai.FunctionResponse{
					Name:     toolNameFromCallID(msg.ToolCallID),
					Response: response,
				}},
			})
		default:
			if msg.Content == "" {
				continue
			}
			history = append(history, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(msg.Content)},
			})
		}
	}
	return system, history
}

// toolNameFromCallID recovers the tool name from a call ID minted by
// parseGeminiResponse; the Gemini API matches responses by function name,
// not by ID.
func toolNameFromCallID(id string) string {
	return strings.TrimPrefix(id, "gemini-toolcall-")
}

func parseGeminiResponse(resp *genai.GenerateContentResponse) (*GenerationResult, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("no content returned from Gemini")
	}

	var contentBuilder strings.Builder
	var toolCalls []*tools.ToolCall
	for _, part := range resp.Candidates[0].Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			contentBuilder.WriteString(string(v))
		case genai.FunctionCall:
			args, err := json.Marshal(v.Args)
			if err != nil {
				continue
			}
			toolCalls = append(toolCalls, &tools.ToolCall{
				ID:   fmt.Sprintf("gemini-toolcall-%s", v.Name),
				Type: tools.ToolTypeFunction,
				Function: tools.ToolCallFunction{
					Name:      v.Name,
					Arguments: string(args),
				},
			})
		}
	}

	result := &GenerationResult{
		Content:   strings.TrimSpace(contentBuilder.String()),
		ToolCalls: toolCalls,
	}
	if resp.UsageMetadata != nil {
		result.Usage = api.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return result, nil
}
