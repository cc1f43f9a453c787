// Package tools defines the data structures for function calling (tool use)
// and the six domain tools of the metals chat service. The types are a
// provider-agnostic representation that the llm package translates into the
// specific format each LLM API requires.
package tools

// ToolTypeFunction is the standard type for function-based tools.
const ToolTypeFunction = "function"

// Tool defines the schema for a function that can be described to an LLM.
// This is the information sent *to* the model to make it aware of a tool.
type Tool struct {
	// Type specifies the type of tool, which is almost always "function".
	Type string `json:"type"`
	// Function holds the detailed definition of the function.
	Function Function `json:"function"`
}

// Function defines the name, description, and parameters of a callable tool.
type Function struct {
	// Name is the name of the function to be called (e.g., "get_spot_price").
	Name string `json:"name"`
	// Description explains what the function does. The LLM uses this to
	// decide when to use the tool, so precision here matters.
	Description string `json:"description"`
	// Parameters defines the arguments the function accepts, as a JSON Schema.
	Parameters JSONSchema `json:"parameters"`
}

// JSONSchema is a structured, type-safe representation of the JSON Schema
// subset used for tool parameters. Using this instead of map[string]interface{}
// keeps tool definitions readable and prevents malformed schemas.
type JSONSchema struct {
	// Type is the data type for a schema node ("object", "string", "number", ...).
	// For the top-level parameters object this is always "object".
	Type string `json:"type"`
	// Description explains what a specific parameter is for.
	Description string `json:"description,omitempty"`
	// Enum restricts a string parameter to a fixed set of values.
	Enum []string `json:"enum,omitempty"`
	// Properties describes the parameters of an object, keyed by name.
	Properties map[string]*JSONSchema `json:"properties,omitempty"`
	// Items describes the element schema of an array parameter.
	Items *JSONSchema `json:"items,omitempty"`
	// Required lists the parameter names that are mandatory.
	Required []string `json:"required,omitempty"`
}

// ToolCall represents a request *from* the LLM to execute a specific tool.
type ToolCall struct {
	// ID ties the tool's execution result back to the LLM's request in the
	// follow-up turn.
	ID string `json:"id"`
	// Type is the type of tool being called, almost always "function".
	Type string `json:"type"`
	// Function contains the name and arguments the LLM wants to execute.
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction holds the name and arguments of a requested function call.
type ToolCallFunction struct {
	// Name is the function the LLM has decided to call.
	Name string `json:"name"`
	// Arguments is a JSON string, unmarshalled by the tool implementation
	// into its own argument struct.
	Arguments string `json:"arguments"`
}

// NewFunctionTool builds a Tool with the correct "function" type set.
func NewFunctionTool(name, description string, parameters JSONSchema) Tool {
	return Tool{
		Type: ToolTypeFunction,
		Function: Function{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}
