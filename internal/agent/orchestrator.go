// Package agent implements the chat orchestrator: the tool-calling
// request/response contract between the HTTP layer, the tool registry and
// the hosted LLM provider.
//
// The contract is a single branch, not a loop. The provider either answers
// directly (NO_TOOL) or requests one or more tool invocations (TOOL_USE);
// in the latter case all requested tools are executed, their results sent
// back, and the provider's second response is final. At most two provider
// round trips happen per chat request, with no retries and no multi-step
// planning.
package agent

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/metalsbot/metals-chat/internal/api"
	"github.com/metalsbot/metals-chat/internal/llm"
	"github.com/metalsbot/metals-chat/internal/tools"
)

// apology is the user-facing text returned whenever the pipeline fails;
// the machine-readable cause travels alongside it in the Err field.
const apology = "I'm sorry, I ran into a problem answering that. Please try again in a moment."

// Reply is the orchestrator's complete answer to one chat request.
// Failures are represented, never thrown: every path through Chat produces
// a Reply.
type Reply struct {
	Success   bool
	Response  string
	UsedTool  bool
	ToolsUsed []string
	ChartData *tools.ChartData
	Usage     api.Usage
	Err       string
}

// Orchestrator relays conversations between the HTTP layer, the tool
// registry and the LLM provider. It holds no per-request state; one
// instance serves all requests concurrently.
type Orchestrator struct {
	client       llm.Client
	registry     *tools.Registry
	genConfig    *llm.GenerationConfig
	systemPrompt string
	log          *zap.SugaredLogger
}

// New creates an orchestrator. The system prompt is derived from the
// registry's tool ordering at construction time and never changes.
func New(client llm.Client, registry *tools.Registry, genConfig *llm.GenerationConfig, log *zap.SugaredLogger) *Orchestrator {
	return &Orchestrator{
		client:       client,
		registry:     registry,
		genConfig:    genConfig,
		systemPrompt: BuildSystemPrompt(registry.Definitions()),
		log:          log,
	}
}

// Chat runs one complete chat turn: user message plus prior history in,
// final reply out. Any failure from the provider or from tool dispatch is
// caught here and mapped into an unsuccessful Reply with an apology; this
// boundary never returns an error.
func (o *Orchestrator) Chat(ctx context.Context, message string, history []api.Message) *Reply {
	messages := o.buildMessages(message, history)

	first, err := o.client.Generate(ctx, messages, o.genConfig, o.registry.Definitions())
	if err != nil {
		o.log.Warnw("provider call failed", "stage", "initial", "error", err)
		return failedReply(fmt.Errorf("LLM provider call failed: %w", err))
	}

	reply := &Reply{Success: true, Usage: first.Usage}
	if len(first.ToolCalls) == 0 {
		// NO_TOOL: the provider answered directly.
		reply.Response = first.Content
		return reply
	}

	// TOOL_USE: run every requested tool, then one follow-up turn.
	results := o.executeToolCalls(ctx, first.ToolCalls)

	messages = append(messages, llm.Message{
		Role:      llm.RoleAssistant,
		Content:   first.Content,
		ToolCalls: first.ToolCalls,
	})
	for i, call := range first.ToolCalls {
		reply.ToolsUsed = append(reply.ToolsUsed, call.Function.Name)
		if call.Function.Name == tools.NameChartData && results[i].Success {
			// Lift the chart payload out of the tool result; it is
			// delivered to the UI separately from the answer text.
			if chart, ok := results[i].Data.(*tools.ChartData); ok {
				reply.ChartData = chart
			}
		}
		messages = append(messages, llm.Message{
			Role:       llm.RoleTool,
			ToolCallID: call.ID,
			Content:    results[i].ToJSON(),
		})
	}
	reply.UsedTool = true

	// The follow-up turn carries no tool definitions, so the provider can
	// only produce text. That keeps the contract terminal at two round
	// trips; there is no loop to bound.
	second, err := o.client.Generate(ctx, messages, o.genConfig, nil)
	if err != nil {
		o.log.Warnw("provider call failed", "stage", "follow-up", "error", err)
		failed := failedReply(fmt.Errorf("LLM follow-up call failed: %w", err))
		failed.UsedTool = true
		failed.ToolsUsed = reply.ToolsUsed
		return failed
	}
	reply.Usage.Add(second.Usage)
	reply.Response = second.Content
	return reply
}

// buildMessages assembles system prompt, prior turns and the new user
// message in provider order.
func (o *Orchestrator) buildMessages(message string, history []api.Message) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: o.systemPrompt})
	for _, turn := range history {
		messages = append(messages, llm.Message{Role: llm.Role(turn.Role), Content: turn.Content})
	}
	return append(messages, llm.Message{Role: llm.RoleUser, Content: message})
}

// executeToolCalls runs all requested tools concurrently. The calls are
// independent and side-effect-free against shared local state, so they may
// overlap freely, but all must finish before the follow-up provider call:
// a join barrier, not a pipeline. Results keep the provider's request
// order so result blocks line up with call IDs.
func (o *Orchestrator) executeToolCalls(ctx context.Context, calls []*tools.ToolCall) []*tools.Result {
	results := make([]*tools.Result, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call *tools.ToolCall) {
			defer wg.Done()
			o.log.Infow("executing tool",
				"tool", call.Function.Name, "id", call.ID, "args", call.Function.Arguments)
			results[i] = o.registry.Execute(ctx, call.Function.Name, call.Function.Arguments)
			if !results[i].Success {
				o.log.Warnw("tool failed", "tool", call.Function.Name, "error", results[i].Error)
			}
		}(i, call)
	}
	wg.Wait()
	return results
}

func failedReply(err error) *Reply {
	return &Reply{
		Success:  false,
		Response: apology,
		Err:      err.Error(),
	}
}
