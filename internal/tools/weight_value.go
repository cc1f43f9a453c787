package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/metalsbot/metals-chat/internal/calc"
	"github.com/metalsbot/metals-chat/internal/goldapi"
)

// Weight-unit conversion constants, in grams.
const (
	gramsPerTroyOunce = 31.1035
	gramsPerOunce     = 28.3495
	gramsPerKilogram  = 1000
)

// WeightValueTool answers "how much is N grams of 18k gold worth" questions.
// It composes the pricing client with the shared arithmetic evaluator: the
// final multiplication is routed through calc so there is exactly one
// source of numeric formatting truth in the system.
type WeightValueTool struct {
	client *goldapi.Client
}

var _ ToolExecutor = (*WeightValueTool)(nil)

// NewWeightValueTool creates the weight-value tool over a configured pricing client.
func NewWeightValueTool(client *goldapi.Client) *WeightValueTool {
	return &WeightValueTool{client: client}
}

func (t *WeightValueTool) Definition() Tool {
	return NewFunctionTool(
		NameWeightValue,
		"Calculate the monetary value of a given weight of a precious metal, optionally at a "+
			"specific gold purity (karat). Always prefer this tool when the user mentions a "+
			"weight or quantity; do not chain a spot-price lookup with a separate calculation.",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"metal": {
					Type:        "string",
					Description: "The metal being weighed.",
					Enum:        metalEnum,
				},
				"weight": {
					Type:        "number",
					Description: "The weight amount. Must be positive.",
				},
				"unit": {
					Type:        "string",
					Description: "The weight unit.",
					Enum:        []string{"grams", "kilograms", "ounces", "troy_ounces"},
				},
				"karat": {
					Type:        "string",
					Description: "Gold purity, e.g. \"18k\". Gold only; defaults to 24k (pure).",
					Enum:        []string{"24k", "22k", "21k", "20k", "18k", "16k", "14k", "10k"},
				},
				"currency": {
					Type:        "string",
					Description: "ISO 4217 currency code. Defaults to USD.",
				},
			},
			Required: []string{"metal", "weight", "unit"},
		},
	)
}

type weightValueArgs struct {
	Metal    string  `json:"metal"`
	Weight   float64 `json:"weight"`
	Unit     string  `json:"unit"`
	Karat    string  `json:"karat"`
	Currency string  `json:"currency"`
}

// WeightValueData is the payload of a successful weight-value calculation.
type WeightValueData struct {
	Metal          string  `json:"metal"`
	Weight         float64 `json:"weight"`
	Unit           string  `json:"unit"`
	Grams          float64 `json:"grams"`
	Karat          string  `json:"karat"`
	PricePerGram   float64 `json:"pricePerGram"`
	Currency       string  `json:"currency"`
	TotalValue     float64 `json:"totalValue"`
	FormattedValue string  `json:"formattedValue"`
	SpotPrice      float64 `json:"spotPrice"`
	Timestamp      int64   `json:"timestamp"`
}

func (t *WeightValueTool) Execute(ctx context.Context, arguments string) *Result {
	var args weightValueArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return Fail("invalid arguments for %s: %v", NameWeightValue, err)
	}

	symbol, err := goldapi.NormalizeSymbol(args.Metal)
	if err != nil {
		return Fail("%v", err)
	}
	if args.Weight <= 0 {
		return Fail("weight must be positive, got %g", args.Weight)
	}
	grams, err := ToGrams(args.Weight, args.Unit)
	if err != nil {
		return Fail("%v", err)
	}

	karat := strings.ToLower(strings.TrimSpace(args.Karat))
	if karat == "" {
		karat = "24k"
	}
	if symbol != goldapi.SymbolGold && args.Karat != "" {
		// Karat only describes gold purity; for other metals the purity
		// argument is ignored and the pure per-gram price is used.
		karat = "24k"
	}

	quote, err := t.client.Fetch(ctx, symbol, args.Currency, "")
	if err != nil {
		return Fail("%v", err)
	}
	perGram, err := quote.PricePerGram(karat)
	if err != nil {
		return Fail("%v", err)
	}

	// Route the multiplication through the shared evaluator rather than
	// multiplying inline, so its formatting rules apply uniformly.
	calcResult, err := calc.Calculate(
		fmt.Sprintf("%.6f * %.6f", grams, perGram),
		fmt.Sprintf("value of %g %s of %s (%s)", args.Weight, args.Unit, quote.Symbol, karat),
	)
	if err != nil {
		return Fail("value calculation failed: %v", err)
	}

	return Ok(&WeightValueData{
		Metal:          quote.Symbol,
		Weight:         args.Weight,
		Unit:           args.Unit,
		Grams:          grams,
		Karat:          karat,
		PricePerGram:   perGram,
		Currency:       quote.Currency,
		TotalValue:     calcResult.Value,
		FormattedValue: calcResult.FormattedResult,
		SpotPrice:      quote.Price,
		Timestamp:      quote.Timestamp,
	})
}

// ToGrams converts a weight in a supported unit to grams.
func ToGrams(weight float64, unit string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "g", "gram", "grams":
		return weight, nil
	case "kg", "kilogram", "kilograms":
		return weight * gramsPerKilogram, nil
	case "oz", "ounce", "ounces":
		return weight * gramsPerOunce, nil
	case "ozt", "toz", "troy_ounce", "troy_ounces", "troy ounce", "troy ounces":
		return weight * gramsPerTroyOunce, nil
	default:
		return 0, fmt.Errorf("unrecognized weight unit %q", unit)
	}
}
