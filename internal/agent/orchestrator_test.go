package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/metalsbot/metals-chat/internal/api"
	"github.com/metalsbot/metals-chat/internal/goldapi"
	"github.com/metalsbot/metals-chat/internal/histdata"
	"github.com/metalsbot/metals-chat/internal/llm"
	"github.com/metalsbot/metals-chat/internal/tools"
)

const goldQuotePayload = `{
	"timestamp": 1735689600,
	"metal": "XAU",
	"currency": "USD",
	"price": 3250.0,
	"price_gram_24k": 104.0,
	"price_gram_22k": 95.33,
	"price_gram_18k": 78.0,
	"price_gram_14k": 60.67,
	"price_gram_10k": 43.33
}`

// scriptStep is one pre-programmed provider turn.
type scriptStep struct {
	result *llm.GenerationResult
	err    error
}

// providerCall records what the orchestrator sent on one Generate call.
type providerCall struct {
	messages []llm.Message
	tools    []tools.Tool
}

// scriptedClient plays back a fixed sequence of provider turns and records
// everything it was asked.
type scriptedClient struct {
	script []scriptStep
	calls  []providerCall
}

var _ llm.Client = (*scriptedClient)(nil)

func (c *scriptedClient) Generate(
	_ context.Context,
	messages []llm.Message,
	_ *llm.GenerationConfig,
	availableTools []tools.Tool,
) (*llm.GenerationResult, error) {
	i := len(c.calls)
	c.calls = append(c.calls, providerCall{messages: messages, tools: availableTools})
	if i >= len(c.script) {
		return nil, errors.New("unexpected extra provider call")
	}
	step := c.script[i]
	return step.result, step.err
}

func newTestOrchestrator(t *testing.T, script ...scriptStep) (*Orchestrator, *scriptedClient) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(goldQuotePayload))
	}))
	t.Cleanup(srv.Close)
	pricing, err := goldapi.NewClient("test-key", goldapi.WithBaseURL(srv.URL))
	require.NoError(t, err)

	dataset, err := histdata.Load()
	require.NoError(t, err)

	registry := tools.NewRegistry()
	registry.Register(tools.NewWeightValueTool(pricing))
	registry.Register(tools.NewChartTool(dataset))
	registry.Register(tools.NewCalculateTool())

	client := &scriptedClient{script: script}
	config := &llm.GenerationConfig{Model: "test-model", MaxTokens: 256}
	return New(client, registry, config, zap.NewNop().Sugar()), client
}

func textTurn(content string, usage api.Usage) scriptStep {
	return scriptStep{result: &llm.GenerationResult{Content: content, Usage: usage}}
}

func toolTurn(calls ...*tools.ToolCall) scriptStep {
	return scriptStep{result: &llm.GenerationResult{ToolCalls: calls}}
}

func call(id, name, arguments string) *tools.ToolCall {
	return &tools.ToolCall{
		ID:       id,
		Type:     "function",
		Function: tools.ToolCallFunction{Name: name, Arguments: arguments},
	}
}

func TestChatDirectAnswer(t *testing.T) {
	usage := api.Usage{PromptTokens: 40, CompletionTokens: 10, TotalTokens: 50}
	o, client := newTestOrchestrator(t, textTurn("Gold is a precious metal.", usage))

	reply := o.Chat(context.Background(), "What is gold?", nil)

	require.True(t, reply.Success)
	assert.Equal(t, "Gold is a precious metal.", reply.Response)
	assert.False(t, reply.UsedTool)
	assert.Empty(t, reply.ToolsUsed)
	assert.Nil(t, reply.ChartData)
	assert.Equal(t, usage, reply.Usage)

	// One round trip, with the full tool catalog offered.
	require.Len(t, client.calls, 1)
	assert.Len(t, client.calls[0].tools, 3)

	messages := client.calls[0].messages
	require.NotEmpty(t, messages)
	assert.Equal(t, llm.RoleSystem, messages[0].Role)
	assert.Contains(t, messages[0].Content, tools.NameWeightValue)
	assert.Equal(t, llm.RoleUser, messages[len(messages)-1].Role)
	assert.Equal(t, "What is gold?", messages[len(messages)-1].Content)
}

func TestChatCarriesHistory(t *testing.T) {
	o, client := newTestOrchestrator(t, textTurn("As I said, it went up.", api.Usage{}))

	history := []api.Message{
		{Role: "user", Content: "How did gold do last year?"},
		{Role: "assistant", Content: "It went up."},
	}
	reply := o.Chat(context.Background(), "Say that again?", history)

	require.True(t, reply.Success)
	messages := client.calls[0].messages
	require.Len(t, messages, 4)
	assert.Equal(t, llm.RoleUser, messages[1].Role)
	assert.Equal(t, "How did gold do last year?", messages[1].Content)
	assert.Equal(t, llm.RoleAssistant, messages[2].Role)
}

func TestChatWeightValueRoundTrip(t *testing.T) {
	firstUsage := api.Usage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120}
	secondUsage := api.Usage{PromptTokens: 150, CompletionTokens: 30, TotalTokens: 180}

	first := toolTurn(call("call-1", tools.NameWeightValue,
		`{"metal":"gold","weight":15,"unit":"grams","karat":"18k"}`))
	first.result.Usage = firstUsage

	o, client := newTestOrchestrator(t, first,
		textTurn("15 grams of 18k gold is worth $1,170.", secondUsage))

	reply := o.Chat(context.Background(), "How much is 15 grams of 18k gold worth?", nil)

	require.True(t, reply.Success)
	assert.Equal(t, "15 grams of 18k gold is worth $1,170.", reply.Response)
	assert.True(t, reply.UsedTool)
	assert.Equal(t, []string{tools.NameWeightValue}, reply.ToolsUsed)
	assert.Equal(t, api.Usage{PromptTokens: 250, CompletionTokens: 50, TotalTokens: 300}, reply.Usage)

	require.Len(t, client.calls, 2)
	// The follow-up turn offers no tools, so it can only produce text.
	assert.Nil(t, client.calls[1].tools)

	messages := client.calls[1].messages
	require.GreaterOrEqual(t, len(messages), 2)

	assistant := messages[len(messages)-2]
	assert.Equal(t, llm.RoleAssistant, assistant.Role)
	require.Len(t, assistant.ToolCalls, 1)
	assert.Equal(t, "call-1", assistant.ToolCalls[0].ID)

	toolMsg := messages[len(messages)-1]
	assert.Equal(t, llm.RoleTool, toolMsg.Role)
	assert.Equal(t, "call-1", toolMsg.ToolCallID)

	var result struct {
		Success bool                  `json:"success"`
		Data    tools.WeightValueData `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(toolMsg.Content), &result))
	require.True(t, result.Success)
	// 15 g at the fixture's 18k per-gram price of 78.0.
	assert.InDelta(t, 1170.0, result.Data.TotalValue, 1e-6)
	assert.Equal(t, "1,170", result.Data.FormattedValue)
	assert.Equal(t, "XAU", result.Data.Metal)
	assert.Equal(t, "18k", result.Data.Karat)
}

func TestChatLiftsChartData(t *testing.T) {
	o, _ := newTestOrchestrator(t,
		toolTurn(call("call-1", tools.NameChartData, `{"metals":["gold"],"period":"last 2 years"}`)),
		textTurn("Here is the gold price trend.", api.Usage{}))

	reply := o.Chat(context.Background(), "Show me gold prices for the last 2 years", nil)

	require.True(t, reply.Success)
	assert.True(t, reply.UsedTool)
	require.NotNil(t, reply.ChartData)
	assert.Equal(t, []string{"Gold"}, reply.ChartData.Metals)
	assert.Equal(t, "USD", reply.ChartData.Currency)
	assert.NotEmpty(t, reply.ChartData.Series)
}

func TestChatToolResultsKeepRequestOrder(t *testing.T) {
	o, client := newTestOrchestrator(t,
		toolTurn(
			call("call-a", tools.NameCalculate, `{"expression":"1+1"}`),
			call("call-b", tools.NameCalculate, `{"expression":"2*3"}`),
		),
		textTurn("2 and 6.", api.Usage{}))

	reply := o.Chat(context.Background(), "What are 1+1 and 2*3?", nil)

	require.True(t, reply.Success)
	assert.Equal(t, []string{tools.NameCalculate, tools.NameCalculate}, reply.ToolsUsed)

	messages := client.calls[1].messages
	require.GreaterOrEqual(t, len(messages), 3)
	msgA := messages[len(messages)-2]
	msgB := messages[len(messages)-1]
	assert.Equal(t, "call-a", msgA.ToolCallID)
	assert.Equal(t, "call-b", msgB.ToolCallID)
	assert.Contains(t, msgA.Content, `"2"`)
	assert.Contains(t, msgB.Content, `"6"`)
}

func TestChatToolFailureStillAnswers(t *testing.T) {
	o, client := newTestOrchestrator(t,
		toolTurn(call("call-1", "no_such_tool", `{}`)),
		textTurn("I could not look that up.", api.Usage{}))

	reply := o.Chat(context.Background(), "Do something odd", nil)

	// A failed tool is data for the follow-up turn, not a pipeline error.
	require.True(t, reply.Success)
	assert.Equal(t, "I could not look that up.", reply.Response)
	assert.True(t, reply.UsedTool)

	toolMsg := client.calls[1].messages[len(client.calls[1].messages)-1]
	assert.Contains(t, toolMsg.Content, `"success":false`)
	assert.Contains(t, toolMsg.Content, "no_such_tool")
}

func TestChatInitialProviderFailure(t *testing.T) {
	o, client := newTestOrchestrator(t, scriptStep{err: errors.New("upstream 500")})

	reply := o.Chat(context.Background(), "Hello", nil)

	require.False(t, reply.Success)
	assert.Equal(t, apology, reply.Response)
	assert.Contains(t, reply.Err, "upstream 500")
	assert.False(t, reply.UsedTool)
	assert.Len(t, client.calls, 1)
}

func TestChatFollowUpProviderFailure(t *testing.T) {
	o, client := newTestOrchestrator(t,
		toolTurn(call("call-1", tools.NameCalculate, `{"expression":"1+1"}`)),
		scriptStep{err: errors.New("timeout")})

	reply := o.Chat(context.Background(), "What is 1+1?", nil)

	require.False(t, reply.Success)
	assert.Equal(t, apology, reply.Response)
	assert.Contains(t, reply.Err, "timeout")
	// The tool did run before the follow-up failed; the reply says so.
	assert.True(t, reply.UsedTool)
	assert.Equal(t, []string{tools.NameCalculate}, reply.ToolsUsed)
	assert.Len(t, client.calls, 2)
}

func TestBuildSystemPromptListsToolsInOrder(t *testing.T) {
	o, client := newTestOrchestrator(t, textTurn("ok", api.Usage{}))
	_ = o.Chat(context.Background(), "hi", nil)

	prompt := client.calls[0].messages[0].Content
	assert.Contains(t, prompt, "1. "+tools.NameWeightValue)
	assert.Contains(t, prompt, "2. "+tools.NameChartData)
	assert.Contains(t, prompt, "3. "+tools.NameCalculate)
}
