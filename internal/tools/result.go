package tools

import (
	"encoding/json"
	"fmt"
)

// Result is the uniform outcome of every tool execution: exactly one of
// success-with-data or failure-with-error, never both, never neither.
// Everything downstream (the LLM follow-up turn, the HTTP layer) relies on
// this shape, so the constructors below are the only way results are built.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Ok builds a success result carrying data.
func Ok(data any) *Result {
	return &Result{Success: true, Data: data}
}

// Fail builds a failure result with a formatted error message.
func Fail(format string, args ...any) *Result {
	return &Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

// Valid reports whether the result honors the success-xor-error contract.
func (r *Result) Valid() bool {
	if r.Success {
		return r.Data != nil && r.Error == ""
	}
	return r.Data == nil && r.Error != ""
}

// ToJSON renders the result for transmission back to the LLM. Marshal
// failures degrade to a failure result rather than propagating an error;
// the tool boundary never throws.
func (r *Result) ToJSON() string {
	b, err := json.Marshal(r)
	if err != nil {
		b, _ = json.Marshal(Fail("failed to encode tool result: %v", err))
	}
	return string(b)
}
