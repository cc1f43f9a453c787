package tools

import (
	"context"
	"encoding/json"

	"github.com/metalsbot/metals-chat/internal/histdata"
)

// HistoricalTool answers "how did gold move over the last year" style
// questions from the bundled monthly dataset.
type HistoricalTool struct {
	dataset *histdata.Dataset
}

var _ ToolExecutor = (*HistoricalTool)(nil)

// NewHistoricalTool creates the historical-analysis tool over a loaded dataset.
func NewHistoricalTool(dataset *histdata.Dataset) *HistoricalTool {
	return &HistoricalTool{dataset: dataset}
}

func (t *HistoricalTool) Definition() Tool {
	return NewFunctionTool(
		NameHistorical,
		"Analyze how a precious metal's price changed over a past period using monthly "+
			"historical data. Answers growth, trend and \"how much did X rise\" questions.",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"metal": {
					Type:        "string",
					Description: "The metal to analyze.",
					Enum:        metalEnum,
				},
				"period": {
					Type: "string",
					Description: "Relative period such as \"last 6 months\", \"past 2 years\" or " +
						"\"last 10 weeks\". Mutually exclusive with startDate/endDate.",
				},
				"startDate": {
					Type:        "string",
					Description: "Explicit range start, MM/YYYY or YYYY-MM.",
				},
				"endDate": {
					Type:        "string",
					Description: "Explicit range end, MM/YYYY or YYYY-MM.",
				},
			},
			Required: []string{"metal"},
		},
	)
}

type historicalArgs struct {
	Metal     string `json:"metal"`
	Period    string `json:"period"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// historicalData is the payload a successful analysis returns.
type historicalData struct {
	Metal  string           `json:"metal"`
	Growth *histdata.Growth `json:"growth"`
	Points int              `json:"dataPoints"`
	Unit   string           `json:"unit"`
}

func (t *HistoricalTool) Execute(ctx context.Context, arguments string) *Result {
	var args historicalArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return Fail("invalid arguments for %s: %v", NameHistorical, err)
	}
	if args.Metal == "" {
		return Fail("metal is required")
	}

	start, end, err := t.resolveRange(&args)
	if err != nil {
		return Fail("%v", err)
	}

	startPoint, err := t.dataset.AtOrAfter(args.Metal, start)
	if err != nil {
		return Fail("%v", err)
	}
	endPoint, err := t.dataset.AtOrBefore(args.Metal, end)
	if err != nil {
		return Fail("%v", err)
	}
	growth, err := histdata.ComputeGrowth(startPoint, endPoint)
	if err != nil {
		return Fail("%v", err)
	}
	series, err := t.dataset.Range(args.Metal, startPoint.Period, endPoint.Period)
	if err != nil {
		return Fail("%v", err)
	}

	name, _ := histdata.ResolveMetal(args.Metal)
	return Ok(&historicalData{
		Metal:  name,
		Growth: growth,
		Points: len(series),
		Unit:   "USD per troy ounce",
	})
}

// resolveRange turns the tool arguments into a concrete period pair,
// defaulting to the last year of data when nothing was specified. Relative
// periods anchor to the dataset's latest period, not wall-clock time.
func (t *HistoricalTool) resolveRange(args *historicalArgs) (histdata.Period, histdata.Period, error) {
	latest, err := t.dataset.Latest(args.Metal)
	if err != nil {
		return histdata.Period{}, histdata.Period{}, err
	}

	if args.StartDate != "" || args.EndDate != "" {
		// A missing bound falls back to the dataset's edge on that side.
		start := histdata.Period{}
		if args.StartDate != "" {
			if start, err = histdata.ParsePeriod(args.StartDate); err != nil {
				return histdata.Period{}, histdata.Period{}, err
			}
		} else {
			earliest, err := t.dataset.Earliest(args.Metal)
			if err != nil {
				return histdata.Period{}, histdata.Period{}, err
			}
			start = earliest.Period
		}
		end := latest.Period
		if args.EndDate != "" {
			if end, err = histdata.ParsePeriod(args.EndDate); err != nil {
				return histdata.Period{}, histdata.Period{}, err
			}
		}
		return start, end, nil
	}

	phrase := args.Period
	if phrase == "" {
		phrase = "last year"
	}
	return histdata.ParseRelativePeriod(phrase, latest.Period)
}
