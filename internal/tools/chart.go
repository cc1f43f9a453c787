package tools

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/metalsbot/metals-chat/internal/histdata"
)

const (
	defaultChartPoints = 24
	maxChartMetals     = 4
)

// ChartPoint is one period of a chart series, mapping metal name to price.
type ChartPoint struct {
	Period histdata.Period    `json:"period"`
	Prices map[string]float64 `json:"prices"`
}

// MetalStats summarizes one metal's series within the charted range.
type MetalStats struct {
	Min           float64 `json:"min"`
	Max           float64 `json:"max"`
	Average       float64 `json:"average"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

// ChartData is the payload the UI renders as a chart. It is produced on
// demand from the historical dataset and never persisted.
type ChartData struct {
	Metals      []string               `json:"metals"`
	Currency    string                 `json:"currency"`
	StartPeriod histdata.Period        `json:"startPeriod"`
	EndPeriod   histdata.Period        `json:"endPeriod"`
	Series      []ChartPoint           `json:"series"`
	Stats       map[string]*MetalStats `json:"stats"`
}

// ChartTool composes the dataset reader into a render-ready time series
// with per-metal summary statistics.
type ChartTool struct {
	dataset *histdata.Dataset
}

var _ ToolExecutor = (*ChartTool)(nil)

// NewChartTool creates the chart-data tool over a loaded dataset.
func NewChartTool(dataset *histdata.Dataset) *ChartTool {
	return &ChartTool{dataset: dataset}
}

func (t *ChartTool) Definition() Tool {
	return NewFunctionTool(
		NameChartData,
		"Produce chart-ready historical price series for one to four precious metals, "+
			"with per-metal summary statistics. Use when the user asks to see, plot or "+
			"compare price history.",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"metals": {
					Type:        "array",
					Description: "One to four metals to chart.",
					Items:       &JSONSchema{Type: "string", Enum: metalEnum},
				},
				"period": {
					Type:        "string",
					Description: "Relative period such as \"last 2 years\". Mutually exclusive with startDate/endDate.",
				},
				"startDate": {
					Type:        "string",
					Description: "Explicit range start, MM/YYYY or YYYY-MM.",
				},
				"endDate": {
					Type:        "string",
					Description: "Explicit range end, MM/YYYY or YYYY-MM.",
				},
				"currency": {
					Type:        "string",
					Description: "Currency for the series. Only USD is available historically.",
				},
				"maxPoints": {
					Type:        "number",
					Description: "Maximum number of chart points; longer series are downsampled evenly.",
				},
			},
			Required: []string{"metals"},
		},
	)
}

type chartArgs struct {
	Metals    []string `json:"metals"`
	Period    string   `json:"period"`
	StartDate string   `json:"startDate"`
	EndDate   string   `json:"endDate"`
	Currency  string   `json:"currency"`
	MaxPoints int      `json:"maxPoints"`
}

func (t *ChartTool) Execute(ctx context.Context, arguments string) *Result {
	var args chartArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return Fail("invalid arguments for %s: %v", NameChartData, err)
	}
	if len(args.Metals) == 0 {
		return Fail("at least one metal is required")
	}
	if len(args.Metals) > maxChartMetals {
		return Fail("at most %d metals can be charted, got %d", maxChartMetals, len(args.Metals))
	}
	// The bundled dataset is denominated in USD; other currencies would
	// need a conversion source this system deliberately does not have.
	if c := strings.ToUpper(strings.TrimSpace(args.Currency)); c != "" && c != "USD" {
		return Fail("historical chart data is only available in USD, not %s", c)
	}
	if args.MaxPoints <= 0 {
		args.MaxPoints = defaultChartPoints
	}

	metals := make([]string, 0, len(args.Metals))
	seen := make(map[string]bool)
	for _, m := range args.Metals {
		name, err := histdata.ResolveMetal(m)
		if err != nil {
			return Fail("%v", err)
		}
		if !seen[name] {
			seen[name] = true
			metals = append(metals, name)
		}
	}

	start, end, err := t.resolveRange(&args, metals[0])
	if err != nil {
		return Fail("%v", err)
	}

	series := make(map[string][]histdata.Point, len(metals))
	stats := make(map[string]*MetalStats, len(metals))
	for _, metal := range metals {
		pts, err := t.dataset.Range(metal, start, end)
		if err != nil {
			return Fail("%v", err)
		}
		if len(pts) < 2 {
			return Fail("not enough data for %s between %s and %s to chart a trend", metal, start, end)
		}
		pts = downsample(pts, args.MaxPoints)
		series[metal] = pts
		stats[metal] = summarize(pts)
	}

	return Ok(&ChartData{
		Metals:      metals,
		Currency:    "USD",
		StartPeriod: start,
		EndPeriod:   end,
		Series:      mergeSeries(metals, series),
		Stats:       stats,
	})
}

func (t *ChartTool) resolveRange(args *chartArgs, metal string) (histdata.Period, histdata.Period, error) {
	latest, err := t.dataset.Latest(metal)
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
			earliest, err := t.dataset.Earliest(metal)
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

// downsample evenly reduces pts to at most limit points, always keeping
// the first and last observations so range statistics stay exact.
func downsample(pts []histdata.Point, limit int) []histdata.Point {
	if len(pts) <= limit {
		return pts
	}
	if limit < 2 {
		limit = 2
	}
	out := make([]histdata.Point, 0, limit)
	step := float64(len(pts)-1) / float64(limit-1)
	for i := 0; i < limit; i++ {
		out = append(out, pts[int(float64(i)*step+0.5)])
	}
	return out
}

func summarize(pts []histdata.Point) *MetalStats {
	s := &MetalStats{Min: pts[0].Price, Max: pts[0].Price}
	var sum float64
	for _, p := range pts {
		if p.Price < s.Min {
			s.Min = p.Price
		}
		if p.Price > s.Max {
			s.Max = p.Price
		}
		sum += p.Price
	}
	s.Average = sum / float64(len(pts))

	first, last := pts[0].Price, pts[len(pts)-1].Price
	s.Change = last - first
	if first != 0 {
		s.ChangePercent = s.Change / first * 100
	}
	return s
}

// mergeSeries joins the per-metal series on their union of periods, in
// chronological order. Metals missing an observation at a period simply
// have no entry in that point's price map.
func mergeSeries(metals []string, series map[string][]histdata.Point) []ChartPoint {
	byPeriod := make(map[histdata.Period]map[string]float64)
	for _, metal := range metals {
		for _, p := range series[metal] {
			if byPeriod[p.Period] == nil {
				byPeriod[p.Period] = make(map[string]float64, len(metals))
			}
			byPeriod[p.Period][metal] = p.Price
		}
	}

	merged := make([]ChartPoint, 0, len(byPeriod))
	for period, prices := range byPeriod {
		merged = append(merged, ChartPoint{Period: period, Prices: prices})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Period.Before(merged[j].Period) })
	return merged
}
