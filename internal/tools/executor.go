package tools

import "context"

// ToolExecutor is the standard interface for any tool the orchestrator can
// execute. All tools implement it, so the registry can dispatch them
// without knowing each tool's specifics.
//
// Execute never returns a Go error: every failure mode (bad arguments,
// upstream error, evaluation error) is folded into a failure Result, which
// is the one contract the whole system enforces at the tool boundary.
type ToolExecutor interface {
	// Definition returns the tool's schema, provided to the LLM so it
	// understands the tool's capabilities, name, and arguments.
	Definition() Tool

	// Execute runs the tool. arguments is the JSON string the LLM generated
	// against the tool's schema.
	Execute(ctx context.Context, arguments string) *Result
}
