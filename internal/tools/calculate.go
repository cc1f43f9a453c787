package tools

import (
	"context"
	"encoding/json"

	"github.com/metalsbot/metals-chat/internal/calc"
)

// CalculateTool evaluates a free-text arithmetic expression through the
// sandboxed evaluator.
type CalculateTool struct{}

var _ ToolExecutor = (*CalculateTool)(nil)

// NewCalculateTool creates the calculation tool. It has no dependencies; the
// constructor keeps the creation pattern consistent across tools.
func NewCalculateTool() *CalculateTool {
	return &CalculateTool{}
}

func (t *CalculateTool) Definition() Tool {
	return NewFunctionTool(
		NameCalculate,
		"Evaluate a plain arithmetic expression using +, -, *, / and parentheses. "+
			"Use for general math the other tools do not already cover.",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"expression": {
					Type:        "string",
					Description: "The expression to evaluate, e.g. \"(1500.50 * 2) / 31.1035\".",
				},
				"description": {
					Type:        "string",
					Description: "A short human-readable label for what is being computed.",
				},
			},
			Required: []string{"expression"},
		},
	)
}

func (t *CalculateTool) Execute(ctx context.Context, arguments string) *Result {
	var args struct {
		Expression  string `json:"expression"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return Fail("invalid arguments for %s: %v", NameCalculate, err)
	}
	if args.Expression == "" {
		return Fail("expression is required")
	}

	result, err := calc.Calculate(args.Expression, args.Description)
	if err != nil {
		return Fail("%v", err)
	}
	return Ok(result)
}
