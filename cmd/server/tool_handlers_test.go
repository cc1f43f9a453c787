package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/metalsbot/metals-chat/internal/goldapi"
	"github.com/metalsbot/metals-chat/internal/histdata"
	"github.com/metalsbot/metals-chat/internal/tools"
	"github.com/metalsbot/metals-chat/internal/websearch"
)

const testQuotePayload = `{
	"timestamp": 1735689600,
	"metal": "XAU",
	"currency": "USD",
	"price": 3250.0,
	"price_gram_24k": 104.0,
	"price_gram_18k": 78.0
}`

func init() {
	gin.SetMode(gin.TestMode)
}

// newToolRouter wires the full six-tool registry behind the /tools routes,
// with both upstreams replaced by local test servers.
func newToolRouter(t *testing.T) *gin.Engine {
	t.Helper()

	pricingSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testQuotePayload))
	}))
	t.Cleanup(pricingSrv.Close)
	pricing, err := goldapi.NewClient("test-key", goldapi.WithBaseURL(pricingSrv.URL))
	require.NoError(t, err)

	searchSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"AbstractText":"Gold.","AbstractURL":"https://example.com/gold","Heading":"Gold"}`))
	}))
	t.Cleanup(searchSrv.Close)

	dataset, err := histdata.Load()
	require.NoError(t, err)

	registry := tools.NewRegistry()
	registry.Register(tools.NewWeightValueTool(pricing))
	registry.Register(tools.NewSpotPriceTool(pricing))
	registry.Register(tools.NewHistoricalTool(dataset))
	registry.Register(tools.NewChartTool(dataset))
	registry.Register(tools.NewWebSearchTool(websearch.NewDuckDuckGo(searchSrv.URL, time.Second), 5))
	registry.Register(tools.NewCalculateTool())

	engine := gin.New()
	NewToolHandlers(registry, zap.NewNop().Sugar()).Mount(engine.Group("/api/v1/tools"))
	return engine
}

type envelope struct {
	Success bool           `json:"success"`
	Tool    string         `json:"tool"`
	Data    map[string]any `json:"data"`
	Error   string         `json:"error"`
	Request map[string]any `json:"request"`
}

func doRequest(t *testing.T, router *gin.Engine, method, target, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	return rec.Code, env
}

func TestCalculateEndpoint(t *testing.T) {
	router := newToolRouter(t)

	status, env := doRequest(t, router, http.MethodGet, "/api/v1/tools/calculate?expression=2*3", "")
	assert.Equal(t, http.StatusOK, status)
	require.True(t, env.Success, "error: %s", env.Error)
	assert.Equal(t, "calculate", env.Tool)
	assert.Equal(t, "6", env.Data["formattedResult"])

	status, env = doRequest(t, router, http.MethodPost, "/api/v1/tools/calculate",
		`{"expression":"(1+2)*4","description":"test"}`)
	assert.Equal(t, http.StatusOK, status)
	require.True(t, env.Success)
	assert.Equal(t, "12", env.Data["formattedResult"])
}

func TestMissingRequiredParameterIs400(t *testing.T) {
	router := newToolRouter(t)

	for path, missing := range map[string]string{
		"/api/v1/tools/calculate":               "expression",
		"/api/v1/tools/search":                  "query",
		"/api/v1/tools/spot-price":              "metal",
		"/api/v1/tools/historical":              "metal",
		"/api/v1/tools/chart":                   "metals",
		"/api/v1/tools/weight-value?metal=gold": "weight",
	} {
		status, env := doRequest(t, router, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, status, path)
		assert.False(t, env.Success, path)
		assert.Contains(t, env.Error, missing, path)
		assert.Nil(t, env.Data, path)
	}
}

func TestParameterValidationIs400(t *testing.T) {
	router := newToolRouter(t)

	// Unknown metal is rejected before the pricing client is touched.
	status, env := doRequest(t, router, http.MethodGet, "/api/v1/tools/spot-price?metal=copper", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Error, "copper")

	status, env = doRequest(t, router, http.MethodGet,
		"/api/v1/tools/weight-value?metal=gold&weight=-5&unit=grams", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Error, "weight must be positive")

	status, env = doRequest(t, router, http.MethodGet,
		"/api/v1/tools/weight-value?metal=gold&weight=heavy&unit=grams", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Error, "must be a number")

	status, env = doRequest(t, router, http.MethodGet,
		"/api/v1/tools/chart?metals=gold,silver,platinum,palladium,gold", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Error, "between 1 and 4")

	status, env = doRequest(t, router, http.MethodPost, "/api/v1/tools/calculate", `{not json`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Error, "invalid JSON body")
}

func TestExecutedToolFailureIs200Envelope(t *testing.T) {
	router := newToolRouter(t)

	// The request is well formed, so the tool runs; its failure comes back
	// in the uniform envelope, not as an HTTP error.
	status, env := doRequest(t, router, http.MethodGet, "/api/v1/tools/calculate?expression=1/0", "")
	assert.Equal(t, http.StatusOK, status)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "division by zero")
	assert.Nil(t, env.Data)

	status, env = doRequest(t, router, http.MethodGet,
		"/api/v1/tools/historical?metal=gold&period=whenever", "")
	assert.Equal(t, http.StatusOK, status)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Error)
}

func TestWeightValueEndpoint(t *testing.T) {
	router := newToolRouter(t)

	status, env := doRequest(t, router, http.MethodGet,
		"/api/v1/tools/weight-value?metal=gold&weight=15&unit=grams&karat=18k", "")
	assert.Equal(t, http.StatusOK, status)
	require.True(t, env.Success, "error: %s", env.Error)
	assert.Equal(t, "1,170", env.Data["formattedValue"])
	assert.Equal(t, "XAU", env.Data["metal"])

	// The request echo keeps the caller's arguments, coerced.
	assert.Equal(t, "gold", env.Request["metal"])
	assert.Equal(t, float64(15), env.Request["weight"])
}

func TestChartEndpoint(t *testing.T) {
	router := newToolRouter(t)

	status, env := doRequest(t, router, http.MethodGet,
		"/api/v1/tools/chart?metals=gold,silver&period=last+year", "")
	assert.Equal(t, http.StatusOK, status)
	require.True(t, env.Success, "error: %s", env.Error)
	assert.Equal(t, "USD", env.Data["currency"])
	series, ok := env.Data["series"].([]any)
	require.True(t, ok)
	assert.NotEmpty(t, series)
}

func TestSearchEndpoint(t *testing.T) {
	router := newToolRouter(t)

	status, env := doRequest(t, router, http.MethodGet, "/api/v1/tools/search?query=gold+news", "")
	assert.Equal(t, http.StatusOK, status)
	require.True(t, env.Success, "error: %s", env.Error)
	assert.Equal(t, "gold news", env.Data["query"])
}
