package tools

import (
	"context"
	"encoding/json"

	"github.com/metalsbot/metals-chat/internal/goldapi"
)

// Tool names, in registry priority order.
const (
	NameWeightValue = "calculate_weight_value"
	NameSpotPrice   = "get_spot_price"
	NameHistorical  = "get_historical_data"
	NameChartData   = "get_chart_data"
	NameWebSearch   = "web_search"
	NameCalculate   = "calculate"
)

var metalEnum = []string{"XAU", "XAG", "XPT", "XPD", "gold", "silver", "platinum", "palladium"}

// SpotPriceTool answers current (or dated) spot-price questions by calling
// the pricing API and returning the normalized quote.
type SpotPriceTool struct {
	client *goldapi.Client
}

var _ ToolExecutor = (*SpotPriceTool)(nil)

// NewSpotPriceTool creates the spot-price tool over a configured pricing client.
func NewSpotPriceTool(client *goldapi.Client) *SpotPriceTool {
	return &SpotPriceTool{client: client}
}

func (t *SpotPriceTool) Definition() Tool {
	return NewFunctionTool(
		NameSpotPrice,
		"Get the current spot price of a precious metal (gold, silver, platinum, palladium). "+
			"Use only when the user asks for a price with no weight or quantity mentioned.",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"metal": {
					Type:        "string",
					Description: "The metal to price.",
					Enum:        metalEnum,
				},
				"currency": {
					Type:        "string",
					Description: "ISO 4217 currency code, e.g. USD or EUR. Defaults to USD.",
				},
				"date": {
					Type:        "string",
					Description: "Optional historical date in YYYYMMDD form for a past closing price.",
				},
			},
			Required: []string{"metal"},
		},
	)
}

func (t *SpotPriceTool) Execute(ctx context.Context, arguments string) *Result {
	var args struct {
		Metal    string `json:"metal"`
		Currency string `json:"currency"`
		Date     string `json:"date"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return Fail("invalid arguments for %s: %v", NameSpotPrice, err)
	}
	if args.Metal == "" {
		return Fail("metal is required")
	}

	quote, err := t.client.Fetch(ctx, args.Metal, args.Currency, args.Date)
	if err != nil {
		return Fail("%v", err)
	}
	return Ok(quote)
}
