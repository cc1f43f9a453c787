package tools

import (
	"context"
	"fmt"
)

// Registry holds all available tools in registration order. Order is
// significant: it encodes the priority hints baked into the system prompt
// (the weight-value tool registers first so the model prefers it over
// chaining a spot-price call and a calculation for weight questions).
type Registry struct {
	ordered []ToolExecutor
	byName  map[string]ToolExecutor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]ToolExecutor)}
}

// Register adds a tool. Registering a second tool under an existing name
// is a programming error and panics at startup rather than shadowing.
func (r *Registry) Register(tool ToolExecutor) {
	name := tool.Definition().Function.Name
	if _, exists := r.byName[name]; exists {
		panic(fmt.Sprintf("tool %q registered twice", name))
	}
	r.byName[name] = tool
	r.ordered = append(r.ordered, tool)
}

// Definitions returns all tool definitions in registration order.
func (r *Registry) Definitions() []Tool {
	defs := make([]Tool, 0, len(r.ordered))
	for _, tool := range r.ordered {
		defs = append(defs, tool.Definition())
	}
	return defs
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (ToolExecutor, bool) {
	tool, ok := r.byName[name]
	return tool, ok
}

// Execute runs a tool by name. An unknown tool name is an LLM
// hallucination, reported as a failure result like any other tool error so
// the follow-up turn can recover.
func (r *Registry) Execute(ctx context.Context, name, arguments string) *Result {
	tool, ok := r.byName[name]
	if !ok {
		return Fail("tool %q not found", name)
	}
	return tool.Execute(ctx, arguments)
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.ordered)
}
