package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalsbot/metals-chat/internal/histdata"
)

func testDataset(t *testing.T) *histdata.Dataset {
	t.Helper()
	d, err := histdata.Load()
	require.NoError(t, err)
	return d
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	client, done := newPricingClient(t)
	t.Cleanup(done)
	dataset := testDataset(t)

	r := NewRegistry()
	r.Register(NewWeightValueTool(client))
	r.Register(NewSpotPriceTool(client))
	r.Register(NewHistoricalTool(dataset))
	r.Register(NewChartTool(dataset))
	r.Register(NewCalculateTool())
	return r
}

// Registration order is the priority contract: definitions must come back
// in exactly the order tools were registered, weight-value first.
func TestRegistryPreservesOrder(t *testing.T) {
	r := testRegistry(t)
	defs := r.Definitions()
	require.Len(t, defs, 5)

	names := make([]string, len(defs))
	for i, def := range defs {
		names[i] = def.Function.Name
	}
	assert.Equal(t, []string{
		NameWeightValue, NameSpotPrice, NameHistorical, NameChartData, NameCalculate,
	}, names)
}

func TestRegistryUnknownTool(t *testing.T) {
	r := testRegistry(t)
	result := r.Execute(context.Background(), "no_such_tool", "{}")
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "no_such_tool")
	assert.True(t, result.Valid())
}

func TestRegistryDuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(NewCalculateTool())
	assert.Panics(t, func() { r.Register(NewCalculateTool()) })
}

// Every tool must survive garbage arguments by returning a failure result,
// never a panic and never a half-filled result.
func TestAllToolsRejectMalformedArguments(t *testing.T) {
	r := testRegistry(t)
	for _, def := range r.Definitions() {
		name := def.Function.Name
		for _, args := range []string{"", "not json", `{"unexpected": true}`} {
			result := r.Execute(context.Background(), name, args)
			require.NotNil(t, result, "tool %s args %q", name, args)
			assert.False(t, result.Success, "tool %s args %q", name, args)
			assert.True(t, result.Valid(), "tool %s args %q", name, args)
		}
	}
}

func TestResultInvariant(t *testing.T) {
	assert.True(t, Ok("payload").Valid())
	assert.True(t, Fail("boom").Valid())

	// Hand-built results violating the contract are detectable.
	assert.False(t, (&Result{Success: true}).Valid(), "success without data")
	assert.False(t, (&Result{Success: true, Data: 1, Error: "x"}).Valid(), "success with error")
	assert.False(t, (&Result{Success: false}).Valid(), "failure without error")
	assert.False(t, (&Result{Success: false, Data: 1, Error: "x"}).Valid(), "failure with data")
}

func TestResultToJSON(t *testing.T) {
	ok := Ok(map[string]any{"price": 2350.5})
	assert.JSONEq(t, `{"success":true,"data":{"price":2350.5}}`, ok.ToJSON())

	fail := Fail("metal %q not supported", "copper")
	assert.JSONEq(t, `{"success":false,"error":"metal \"copper\" not supported"}`, fail.ToJSON())
}
