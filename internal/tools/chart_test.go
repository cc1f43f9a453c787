package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chartData(t *testing.T, result *Result) *ChartData {
	t.Helper()
	require.True(t, result.Success, "tool failed: %s", result.Error)
	data, ok := result.Data.(*ChartData)
	require.True(t, ok, "chart tool must return *ChartData, got %T", result.Data)
	return data
}

func TestChartDefaultRange(t *testing.T) {
	tool := NewChartTool(testDataset(t))

	data := chartData(t, execute(t, tool, map[string]any{"metals": []string{"gold"}}))

	assert.Equal(t, []string{"Gold"}, data.Metals)
	assert.Equal(t, "USD", data.Currency)
	assert.Equal(t, "06/2024", data.StartPeriod.String())
	assert.Equal(t, "06/2025", data.EndPeriod.String())

	// A one-year monthly window is 13 observations, well under the
	// downsampling limit.
	require.Len(t, data.Series, 13)
	assert.Equal(t, data.StartPeriod, data.Series[0].Period)
	assert.Equal(t, data.EndPeriod, data.Series[len(data.Series)-1].Period)

	stats := data.Stats["Gold"]
	require.NotNil(t, stats)
	assert.LessOrEqual(t, stats.Min, stats.Average)
	assert.LessOrEqual(t, stats.Average, stats.Max)

	first := data.Series[0].Prices["Gold"]
	last := data.Series[len(data.Series)-1].Prices["Gold"]
	assert.InDelta(t, last-first, stats.Change, 1e-9)
	assert.InDelta(t, (last-first)/first*100, stats.ChangePercent, 1e-9)
}

func TestChartEndDateOnly(t *testing.T) {
	tool := NewChartTool(testDataset(t))

	data := chartData(t, execute(t, tool, map[string]any{
		"metals": []string{"silver"}, "endDate": "06/2016",
	}))

	// With no start date the chart runs from the first observation.
	assert.Equal(t, "01/2015", data.StartPeriod.String())
	assert.Equal(t, "06/2016", data.EndPeriod.String())
	require.Len(t, data.Series, 18)
}

func TestChartDownsampling(t *testing.T) {
	tool := NewChartTool(testDataset(t))

	// Five years of monthly data is 61 points; the default limit is 24.
	data := chartData(t, execute(t, tool, map[string]any{
		"metals": []string{"silver"},
		"period": "last 5 years",
	}))
	assert.Len(t, data.Series, defaultChartPoints)
	assert.Equal(t, "06/2020", data.Series[0].Period.String())
	assert.Equal(t, "06/2025", data.Series[len(data.Series)-1].Period.String())

	for i := 1; i < len(data.Series); i++ {
		assert.True(t, data.Series[i-1].Period.Before(data.Series[i].Period),
			"downsampled series must stay chronological")
	}

	// An explicit limit tightens the series further, still keeping the
	// range endpoints.
	data = chartData(t, execute(t, tool, map[string]any{
		"metals":    []string{"silver"},
		"period":    "last 5 years",
		"maxPoints": 6,
	}))
	assert.Len(t, data.Series, 6)
	assert.Equal(t, "06/2020", data.Series[0].Period.String())
	assert.Equal(t, "06/2025", data.Series[len(data.Series)-1].Period.String())
}

func TestChartMultipleMetals(t *testing.T) {
	tool := NewChartTool(testDataset(t))

	data := chartData(t, execute(t, tool, map[string]any{
		"metals": []string{"gold", "silver", "palladium"},
		"period": "last 2 years",
	}))

	assert.Equal(t, []string{"Gold", "Silver", "Palladium"}, data.Metals)
	require.Len(t, data.Stats, 3)
	for _, metal := range data.Metals {
		require.NotNil(t, data.Stats[metal], "missing stats for %s", metal)
	}

	// All three series cover the same periods, so every merged point
	// carries a price for every metal.
	for _, point := range data.Series {
		require.Len(t, point.Prices, 3, "period %s", point.Period)
	}
}

func TestChartDeduplicatesMetals(t *testing.T) {
	tool := NewChartTool(testDataset(t))

	data := chartData(t, execute(t, tool, map[string]any{
		"metals": []string{"gold", "Gold", "GOLD"},
	}))
	assert.Equal(t, []string{"Gold"}, data.Metals)
}

func TestChartArgumentLimits(t *testing.T) {
	tool := NewChartTool(testDataset(t))

	result := execute(t, tool, map[string]any{"metals": []string{}})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "at least one metal")

	result = execute(t, tool, map[string]any{
		"metals": []string{"gold", "silver", "platinum", "palladium", "gold"},
	})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "at most 4 metals")

	result = execute(t, tool, map[string]any{"metals": []string{"copper"}})
	assert.False(t, result.Success)

	result = execute(t, tool, map[string]any{
		"metals":   []string{"gold"},
		"currency": "eur",
	})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "EUR")
}

func TestChartDegenerateRange(t *testing.T) {
	tool := NewChartTool(testDataset(t))

	result := execute(t, tool, map[string]any{
		"metals":    []string{"gold"},
		"startDate": "03/2024",
		"endDate":   "03/2024",
	})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "not enough data")
}
