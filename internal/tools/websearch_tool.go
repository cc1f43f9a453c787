package tools

import (
	"context"
	"encoding/json"

	"github.com/metalsbot/metals-chat/internal/websearch"
)

// WebSearchTool answers questions outside the pricing domain (market news,
// definitions, context) through a search provider.
type WebSearchTool struct {
	provider websearch.Provider
	limit    int
}

var _ ToolExecutor = (*WebSearchTool)(nil)

// NewWebSearchTool creates the search tool. limit caps the number of
// results per query; non-positive values default to 5.
func NewWebSearchTool(provider websearch.Provider, limit int) *WebSearchTool {
	if limit <= 0 {
		limit = 5
	}
	return &WebSearchTool{provider: provider, limit: limit}
}

func (t *WebSearchTool) Definition() Tool {
	return NewFunctionTool(
		NameWebSearch,
		"Search the web for current information that the pricing tools cannot answer, "+
			"such as market news or background on precious metals.",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"query": {
					Type:        "string",
					Description: "The search query.",
				},
			},
			Required: []string{"query"},
		},
	)
}

func (t *WebSearchTool) Execute(ctx context.Context, arguments string) *Result {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return Fail("invalid arguments for %s: %v", NameWebSearch, err)
	}
	if args.Query == "" {
		return Fail("query is required")
	}

	resp, err := t.provider.Search(ctx, args.Query, t.limit)
	if err != nil {
		return Fail("web search failed: %v", err)
	}
	return Ok(resp)
}
